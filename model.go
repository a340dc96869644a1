/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import "fmt"

/**
Configuration model holds root units and aspect units of one build pass.
*/

type ConfigurationModel struct {
	naming  NamingStrategy
	units   []*ConfigurationUnit
	aspects []*ConfigurationUnit
}

func NewConfigurationModel(naming NamingStrategy) *ConfigurationModel {
	if naming == nil {
		naming = DefaultNamingStrategy
	}
	return &ConfigurationModel{naming: naming}
}

func (t *ConfigurationModel) AddUnit(unit *ConfigurationUnit) *ConfigurationModel {
	t.units = append(t.units, unit)
	return t
}

func (t *ConfigurationModel) AddAspect(unit *ConfigurationUnit) *ConfigurationModel {
	unit.aspect = true
	t.aspects = append(t.aspects, unit)
	return t
}

func (t *ConfigurationModel) Units() []*ConfigurationUnit {
	return t.units
}

func (t *ConfigurationModel) Aspects() []*ConfigurationUnit {
	return t.aspects
}

/**
Validates every unit and the overrides across the flattened unit sequence.
The import graph must be acyclic.
*/
func (t *ConfigurationModel) Validate(errors *ValidationErrors) *ValidationErrors {

	if len(t.units) == 0 && len(t.aspects) == 0 {
		errors.Add(ModelIsEmpty, "configuration model has no units")
		return errors
	}

	for _, unit := range t.units {
		unit.Validate(errors)
	}
	for _, unit := range t.aspects {
		unit.Validate(errors)
	}

	declared := make(map[string]*BeanMethod)
	for _, unit := range t.flatten() {
		for _, m := range unit.beanMethods {
			name := t.naming.BeanName(m)
			if prev, ok := declared[name]; ok && !prev.metadata.AllowOverriding {
				errors.Add(IllegalBeanOverride, "bean '%s' of %s overrides %s that does not allow overriding", name, m.identity(), prev.identity())
			}
			declared[name] = m
		}
	}

	return errors
}

/**
Returns nil or *MalformedConfigurationError with all found errors
*/
func (t *ConfigurationModel) AssertIsValid() error {
	return t.Validate(NewValidationErrors()).Err()
}

/**
Units in generation order, a unit name is visited once like in the generator
*/
func (t *ConfigurationModel) flatten() []*ConfigurationUnit {
	var list []*ConfigurationUnit
	seen := make(map[string]bool)
	var visit func(unit *ConfigurationUnit)
	visit = func(unit *ConfigurationUnit) {
		if seen[unit.name] {
			return
		}
		seen[unit.name] = true
		list = append(list, unit)
		for _, nested := range unit.nested {
			visit(nested)
		}
	}
	for _, root := range t.units {
		for _, unit := range root.GetSelfAndAllImports() {
			visit(unit)
		}
	}
	for _, root := range t.aspects {
		for _, unit := range root.GetSelfAndAllImports() {
			visit(unit)
		}
	}
	return list
}

func (t *ConfigurationModel) String() string {
	return fmt.Sprintf("ConfigurationModel [units=%d, aspects=%d]", len(t.units), len(t.aspects))
}
