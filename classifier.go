/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"reflect"
)

/**
Role of the declared method in a configuration unit.
*/

type Role int

const (
	RoleUnrecognized Role = iota
	RoleBean
	RoleExternalBean
	RoleAutoBean
	RoleExternalValue
)

func (r Role) String() string {
	switch r {
	case RoleBean:
		return "Bean"
	case RoleExternalBean:
		return "ExternalBean"
	case RoleAutoBean:
		return "AutoBean"
	case RoleExternalValue:
		return "ExternalValue"
	default:
		return "Unrecognized"
	}
}

/**
Classify returns exactly one role for the set of markers.
Only the presence of markers counts, return types never make a factory method.
*/
func Classify(markers []Marker) Role {
	switch {
	case hasMarker(KindBean, markers):
		return RoleBean
	case hasMarker(KindExternalBean, markers):
		return RoleExternalBean
	case hasMarker(KindAutoBean, markers):
		return RoleAutoBean
	case hasMarker(KindExternalValue, markers):
		return RoleExternalValue
	default:
		return RoleUnrecognized
	}
}

/**
Declaration of a method before classification.
*/

type MethodSpec struct {
	Name      string
	Modifiers Modifiers
	Markers   []Marker

	/**
	Declared return type, nil for void
	*/
	ReturnType reflect.Type

	/**
	Function value of the method body, invalid for abstract methods
	*/
	Body reflect.Value

	/**
	Index path of the func field inside the unit struct
	*/
	Field []int
}

/**
Classifies the declaration and builds the matching method variant
*/
func NewModelMethod(spec MethodSpec) ModelMethod {
	base := method{
		name:       spec.Name,
		modifiers:  spec.Modifiers,
		markers:    spec.Markers,
		returnType: spec.ReturnType,
		body:       spec.Body,
		field:      spec.Field,
	}
	switch Classify(spec.Markers) {
	case RoleBean:
		m := &BeanMethod{method: base}
		if anno, ok := findMarker(KindBean, spec.Markers); ok {
			m.metadata = anno.(Bean)
		}
		if anno, ok := findMarker(KindScopedProxy, spec.Markers); ok {
			sp := anno.(ScopedProxy)
			m.scopedProxy = &sp
		}
		m.hotSwappable = hasMarker(KindHotSwappable, spec.Markers)
		return m
	case RoleExternalBean:
		anno, _ := findMarker(KindExternalBean, spec.Markers)
		return &ExternalBeanMethod{method: base, metadata: anno.(ExternalBean)}
	case RoleAutoBean:
		anno, _ := findMarker(KindAutoBean, spec.Markers)
		return &AutoBeanMethod{method: base, metadata: anno.(AutoBean)}
	case RoleExternalValue:
		anno, _ := findMarker(KindExternalValue, spec.Markers)
		return &ExternalValueMethod{method: base, metadata: anno.(ExternalValue)}
	default:
		return &PlainMethod{method: base}
	}
}
