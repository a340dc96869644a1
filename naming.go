/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import "strings"

/**
Naming strategy derives recipe names from factory methods.
*/

type NamingStrategy interface {

	/**
	Returns recipe name of the method
	*/
	BeanName(m ModelMethod) string
}

type NamingPrefix int

const (
	PrefixNone NamingPrefix = iota
	PrefixType
	PrefixFullyQualified
)

/**
Lower camel method name, optionally prefixed by the unit type.
*/

type MethodNamingStrategy struct {
	Prefix NamingPrefix
}

func (t MethodNamingStrategy) BeanName(m ModelMethod) string {
	name := lowerFirst(m.Name())
	unit := m.DeclaringUnit()
	if unit == nil {
		return name
	}
	switch t.Prefix {
	case PrefixType:
		return shortName(unit.Name()) + "." + name
	case PrefixFullyQualified:
		return unit.Name() + "." + name
	default:
		return name
	}
}

var DefaultNamingStrategy NamingStrategy = MethodNamingStrategy{}

func shortName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

/**
External bean methods refer to recipes by plain name, the strategy is not applied
*/
func externalName(m *ExternalBeanMethod) string {
	if m.metadata.Name != "" {
		return m.metadata.Name
	}
	return lowerFirst(m.name)
}
