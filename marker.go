/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	ScopeSingleton = "singleton"
	ScopePrototype = "prototype"
)

type MarkerKind int

const (
	KindBean MarkerKind = iota
	KindExternalBean
	KindAutoBean
	KindExternalValue
	KindScopedProxy
	KindHotSwappable
)

func (k MarkerKind) String() string {
	switch k {
	case KindBean:
		return "Bean"
	case KindExternalBean:
		return "ExternalBean"
	case KindAutoBean:
		return "AutoBean"
	case KindExternalValue:
		return "ExternalValue"
	case KindScopedProxy:
		return "ScopedProxy"
	case KindHotSwappable:
		return "HotSwappable"
	default:
		return "Unknown"
	}
}

/**
Marker is a declared capability of a method. The set of markers is closed.
*/

type Marker interface {

	/**
	Returns kind of the marker
	*/
	Kind() MarkerKind

	isMarker()
}

type Tristate int8

const (
	TristateUnspecified Tristate = iota
	TristateTrue
	TristateFalse
)

func (t Tristate) String() string {
	switch t {
	case TristateTrue:
		return "true"
	case TristateFalse:
		return "false"
	default:
		return "unspecified"
	}
}

type Autowire int8

const (
	AutowireInherited Autowire = iota
	AutowireNo
	AutowireByName
	AutowireByType
)

func (a Autowire) String() string {
	switch a {
	case AutowireNo:
		return "no"
	case AutowireByName:
		return "byName"
	case AutowireByType:
		return "byType"
	default:
		return "inherited"
	}
}

type DependencyCheck int8

const (
	DependencyCheckUnspecified DependencyCheck = iota
	DependencyCheckNone
	DependencyCheckObjects
	DependencyCheckSimple
	DependencyCheckAll
)

func (d DependencyCheck) String() string {
	switch d {
	case DependencyCheckNone:
		return "none"
	case DependencyCheckObjects:
		return "objects"
	case DependencyCheckSimple:
		return "simple"
	case DependencyCheckAll:
		return "all"
	default:
		return "unspecified"
	}
}

type Meta struct {
	Key   string
	Value string
}

/**
Bean marks a factory method, the returned value becomes a managed object.
*/

type Bean struct {

	/**
	Additional names of the recipe
	*/
	Aliases []string

	/**
	Scope name, empty means the unit default or singleton
	*/
	Scope string

	Autowire Autowire

	Lazy Tristate

	/**
	Primary candidate on type lookup
	*/
	Primary Tristate

	/**
	Method name of the produced object called after wiring
	*/
	InitMethodName string

	/**
	Method name of the produced object called on close
	*/
	DestroyMethodName string

	DependencyCheck DependencyCheck

	/**
	Recipes that must be materialized before this one
	*/
	DependsOn []string

	Meta []Meta

	/**
	Whether a later declaration may replace this one
	*/
	AllowOverriding bool
}

func (Bean) Kind() MarkerKind { return KindBean }
func (Bean) isMarker()        {}

func (t Bean) String() string {
	var attr []string
	if t.Scope != "" {
		attr = append(attr, "scope="+t.Scope)
	}
	if len(t.Aliases) > 0 {
		attr = append(attr, "aliases="+strings.Join(t.Aliases, ";"))
	}
	if t.Lazy != TristateUnspecified {
		attr = append(attr, "lazy="+t.Lazy.String())
	}
	if t.AllowOverriding {
		attr = append(attr, "allowOverriding")
	}
	return fmt.Sprintf("@Bean(%s)", strings.Join(attr, ","))
}

/**
ExternalBean marks a method resolved from the registry by name.
*/

type ExternalBean struct {

	/**
	Alternate name of the recipe, the bean name of the method is used when empty
	*/
	Name string
}

func (ExternalBean) Kind() MarkerKind { return KindExternalBean }
func (ExternalBean) isMarker()        {}

/**
AutoBean marks a method whose return type is instantiated and wired by the container.
*/

type AutoBean struct {
	Autowire Autowire
}

func (AutoBean) Kind() MarkerKind { return KindAutoBean }
func (AutoBean) isMarker()        {}

/**
ExternalValue marks a method or constructor parameter sourced from resource bundles.
*/

type ExternalValue struct {

	/**
	Key in the resource bundles, derived from the method name when empty
	*/
	Key string

	/**
	Default value used when the key is absent
	*/
	Default    string
	HasDefault bool

	/**
	Layout for time values
	*/
	Layout string
}

func (ExternalValue) Kind() MarkerKind { return KindExternalValue }
func (ExternalValue) isMarker()        {}

/**
ScopedProxy exposes a custom-scoped bean through a delegating recipe.
*/

type ScopedProxy struct {
	ProxyTargetClass bool
}

func (ScopedProxy) Kind() MarkerKind { return KindScopedProxy }
func (ScopedProxy) isMarker()        {}

/**
HotSwappable allows replacing the singleton at runtime.
*/

type HotSwappable struct{}

func (HotSwappable) Kind() MarkerKind { return KindHotSwappable }
func (HotSwappable) isMarker()        {}

/**
Unit level defaults copied into recipes when a method leaves the attribute unspecified.
*/

type Defaults struct {
	DefaultScope           string
	DefaultLazy            Tristate
	DefaultAutowire        Autowire
	DefaultDependencyCheck DependencyCheck
}

/**
Embed Configuration in a struct to mark it as a configuration unit.

Tags of the embedded field carry unit metadata:

	type AppConfig struct {
		beanconf.Configuration `defaults:"scope=prototype,lazy" bundles:"app,db"`
	}
*/

type Configuration struct{}

/**
Returns the first marker of the kind
*/
func findMarker(kind MarkerKind, markers []Marker) (Marker, bool) {
	for _, m := range markers {
		if m != nil && m.Kind() == kind {
			return derefMarker(m), true
		}
	}
	return nil, false
}

// markers may be declared by pointer
func derefMarker(m Marker) Marker {
	v := reflect.ValueOf(m)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		if el, ok := v.Elem().Interface().(Marker); ok {
			return el
		}
	}
	return m
}

func hasMarker(kind MarkerKind, markers []Marker) bool {
	_, ok := findMarker(kind, markers)
	return ok
}
