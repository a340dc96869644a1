/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"reflect"
)

/**
Model of one configuration unit: its classified methods, imports and resource bundles.
*/

type ConfigurationUnit struct {
	name      string
	modifiers Modifiers
	defaults  Defaults

	/**
	Enclosing unit, navigational link only
	*/
	declaring *ConfigurationUnit

	beanMethods          []*BeanMethod
	externalBeanMethods  []*ExternalBeanMethod
	externalValueMethods []*ExternalValueMethod
	autoBeanMethods      []*AutoBeanMethod
	plainMethods         []*PlainMethod
	constructors         []*Constructor

	resourceBundles []string
	imports         []*ConfigurationUnit
	aspects         []*ConfigurationUnit
	nested          []*ConfigurationUnit

	/**
	Unit was imported as an aspect
	*/
	aspect bool

	/**
	No modifications once handed to the generator
	*/
	frozen bool

	/**
	Runtime binding, zero for units built by hand
	*/
	runtime unitRuntime
}

func NewConfigurationUnit(name string, modifiers Modifiers) *ConfigurationUnit {
	return &ConfigurationUnit{
		name:      name,
		modifiers: modifiers,
	}
}

func (t *ConfigurationUnit) Name() string {
	return t.name
}

func (t *ConfigurationUnit) Modifiers() Modifiers {
	return t.modifiers
}

func (t *ConfigurationUnit) Defaults() Defaults {
	return t.defaults
}

func (t *ConfigurationUnit) SetDefaults(defaults Defaults) *ConfigurationUnit {
	t.checkFrozen()
	t.defaults = defaults
	return t
}

func (t *ConfigurationUnit) DeclaringUnit() *ConfigurationUnit {
	return t.declaring
}

func (t *ConfigurationUnit) SetDeclaringUnit(declaring *ConfigurationUnit) *ConfigurationUnit {
	t.checkFrozen()
	t.declaring = declaring
	return t
}

func (t *ConfigurationUnit) IsAspect() bool {
	return t.aspect
}

/**
Returns the Go type of the unit, nil for units built by hand
*/
func (t *ConfigurationUnit) Type() reflect.Type {
	return t.runtime.classPtr
}

func (t *ConfigurationUnit) checkFrozen() {
	if t.frozen {
		panic(fmt.Sprintf("configuration unit '%s' is frozen", t.name))
	}
}

func (t *ConfigurationUnit) Freeze() {
	t.frozen = true
}

func (t *ConfigurationUnit) IsFrozen() bool {
	return t.frozen
}

func addOrReplace[T ModelMethod](list []T, m T) []T {
	for i, el := range list {
		if el.Name() == m.Name() {
			list[i] = m
			return list
		}
	}
	return append(list, m)
}

func (t *ConfigurationUnit) AddBeanMethod(m *BeanMethod) *ConfigurationUnit {
	t.checkFrozen()
	m.declaring = t
	t.beanMethods = addOrReplace(t.beanMethods, m)
	return t
}

func (t *ConfigurationUnit) AddExternalBeanMethod(m *ExternalBeanMethod) *ConfigurationUnit {
	t.checkFrozen()
	m.declaring = t
	t.externalBeanMethods = addOrReplace(t.externalBeanMethods, m)
	return t
}

func (t *ConfigurationUnit) AddExternalValueMethod(m *ExternalValueMethod) *ConfigurationUnit {
	t.checkFrozen()
	m.declaring = t
	t.externalValueMethods = addOrReplace(t.externalValueMethods, m)
	return t
}

func (t *ConfigurationUnit) AddAutoBeanMethod(m *AutoBeanMethod) *ConfigurationUnit {
	t.checkFrozen()
	m.declaring = t
	t.autoBeanMethods = addOrReplace(t.autoBeanMethods, m)
	return t
}

func (t *ConfigurationUnit) AddPlainMethod(m *PlainMethod) *ConfigurationUnit {
	t.checkFrozen()
	m.declaring = t
	t.plainMethods = addOrReplace(t.plainMethods, m)
	return t
}

/**
Adds classified method to the matching set
*/
func (t *ConfigurationUnit) AddMethod(m ModelMethod) *ConfigurationUnit {
	switch v := m.(type) {
	case *BeanMethod:
		return t.AddBeanMethod(v)
	case *ExternalBeanMethod:
		return t.AddExternalBeanMethod(v)
	case *ExternalValueMethod:
		return t.AddExternalValueMethod(v)
	case *AutoBeanMethod:
		return t.AddAutoBeanMethod(v)
	case *PlainMethod:
		return t.AddPlainMethod(v)
	default:
		panic(fmt.Sprintf("unknown method variant %T", m))
	}
}

func (t *ConfigurationUnit) AddConstructor(c *Constructor) *ConfigurationUnit {
	t.checkFrozen()
	t.constructors = append(t.constructors, c)
	return t
}

func (t *ConfigurationUnit) AddImportedUnit(unit *ConfigurationUnit) *ConfigurationUnit {
	t.checkFrozen()
	t.imports = append(t.imports, unit)
	return t
}

func (t *ConfigurationUnit) AddImportedAspect(unit *ConfigurationUnit) *ConfigurationUnit {
	t.checkFrozen()
	unit.aspect = true
	t.aspects = append(t.aspects, unit)
	return t
}

/**
Nested units are emitted and validated on their own, the declaring link is set here
*/
func (t *ConfigurationUnit) AddNestedUnit(unit *ConfigurationUnit) *ConfigurationUnit {
	t.checkFrozen()
	unit.declaring = t
	unit.modifiers |= ModStatic
	t.nested = append(t.nested, unit)
	return t
}

/**
Basenames of ancestors must be added before the ones of descendants
*/
func (t *ConfigurationUnit) AddResourceBundleBasenames(basenames ...string) *ConfigurationUnit {
	t.checkFrozen()
	t.resourceBundles = append(t.resourceBundles, basenames...)
	return t
}

func (t *ConfigurationUnit) BeanMethods() []*BeanMethod {
	return t.beanMethods
}

func (t *ConfigurationUnit) ExternalBeanMethods() []*ExternalBeanMethod {
	return t.externalBeanMethods
}

func (t *ConfigurationUnit) ExternalValueMethods() []*ExternalValueMethod {
	return t.externalValueMethods
}

func (t *ConfigurationUnit) AutoBeanMethods() []*AutoBeanMethod {
	return t.autoBeanMethods
}

func (t *ConfigurationUnit) PlainMethods() []*PlainMethod {
	return t.plainMethods
}

func (t *ConfigurationUnit) Constructors() []*Constructor {
	return t.constructors
}

func (t *ConfigurationUnit) ImportedUnits() []*ConfigurationUnit {
	return t.imports
}

func (t *ConfigurationUnit) ImportedAspects() []*ConfigurationUnit {
	return t.aspects
}

func (t *ConfigurationUnit) NestedUnits() []*ConfigurationUnit {
	return t.nested
}

/**
Returns all methods in the order bean, external bean, external value, auto bean, plain
*/
func (t *ConfigurationUnit) Methods() []ModelMethod {
	var list []ModelMethod
	for _, m := range t.beanMethods {
		list = append(list, m)
	}
	for _, m := range t.externalBeanMethods {
		list = append(list, m)
	}
	for _, m := range t.externalValueMethods {
		list = append(list, m)
	}
	for _, m := range t.autoBeanMethods {
		list = append(list, m)
	}
	for _, m := range t.plainMethods {
		list = append(list, m)
	}
	return list
}

func (t *ConfigurationUnit) ContainsBeanMethod(name string) bool {
	for _, m := range t.beanMethods {
		if m.Name() == name {
			return true
		}
	}
	return false
}

/**
Bean methods that forbid overriding
*/
func (t *ConfigurationUnit) FinalBeanMethods() []*BeanMethod {
	var list []*BeanMethod
	for _, m := range t.beanMethods {
		if !m.metadata.AllowOverriding {
			list = append(list, m)
		}
	}
	return list
}

/**
Own resource bundle basenames only
*/
func (t *ConfigurationUnit) DeclaredResourceBundleBasenames() []string {
	return t.resourceBundles
}

/**
Basenames visible to the unit: declaring units first, outermost first, then own.
Later basenames take precedence on duplicate keys.
*/
func (t *ConfigurationUnit) ResourceBundleBasenames() []string {
	var list []string
	if t.declaring != nil {
		list = append(list, t.declaring.ResourceBundleBasenames()...)
	}
	return append(list, t.resourceBundles...)
}

/**
Returns the unit and everything it imports, recursively, depth-first then self.

For M importing A and Y, A importing B and Y importing Z the result is [B, A, Z, Y, M],
so the most specific unit is processed last and wins naming conflicts.
The import graph must be acyclic, ImportResolver checks it.
*/
func (t *ConfigurationUnit) GetSelfAndAllImports() []*ConfigurationUnit {
	var list []*ConfigurationUnit
	for _, imported := range t.imports {
		list = append(list, imported.GetSelfAndAllImports()...)
	}
	return append(list, t)
}

func (t *ConfigurationUnit) hasValueInjection() bool {
	if len(t.externalValueMethods) > 0 {
		return true
	}
	for _, c := range t.constructors {
		if c.hasValueInjection() {
			return true
		}
	}
	return false
}

/**
Validates imports first, then the unit itself and each of its methods.
Returns the same collector.
*/
func (t *ConfigurationUnit) Validate(errors *ValidationErrors) *ValidationErrors {

	for _, imported := range t.imports {
		imported.Validate(errors)
	}

	for _, aspect := range t.aspects {
		aspect.Validate(errors)
	}

	if t.modifiers.IsFinal() {
		errors.Add(ConfigurationMustBeNonFinal, "%s", t.name)
	}

	// abstract units get their factory methods elsewhere
	if !t.modifiers.IsAbstract() && len(t.imports) == 0 && len(t.beanMethods) == 0 && len(t.autoBeanMethods) == 0 {
		errors.Add(ConfigurationMustDeclareAtLeastOneBean, "%s", t.name)
	}

	if t.modifiers.IsAbstract() && t.countResolvable() == 0 {
		errors.Add(AbstractConfigurationMustDeclareAtLeastOneExternalBeanExternalValueOrAutoBean, "%s", t.name)
	}

	if t.hasValueInjection() && len(t.ResourceBundleBasenames()) == 0 {
		errors.Add(ResourceBundleRequired, "%s declares value injection without resource bundles", t.name)
	}

	for _, m := range t.Methods() {
		m.Validate(errors)
	}

	for _, nested := range t.nested {
		nested.Validate(errors)
	}

	return errors
}

/**
Non-private methods resolved outside of the unit
*/
func (t *ConfigurationUnit) countResolvable() int {
	n := 0
	for _, m := range t.externalBeanMethods {
		if !m.modifiers.IsPrivate() {
			n++
		}
	}
	for _, m := range t.externalValueMethods {
		if !m.modifiers.IsPrivate() {
			n++
		}
	}
	for _, m := range t.autoBeanMethods {
		if !m.modifiers.IsPrivate() {
			n++
		}
	}
	return n
}

func (t *ConfigurationUnit) String() string {
	return fmt.Sprintf("ConfigurationUnit [name=%s, modifiers=%v, beanMethods=%d, externalBeanMethods=%d, externalValueMethods=%d, autoBeanMethods=%d, imports=%d]",
		t.name, t.modifiers, len(t.beanMethods), len(t.externalBeanMethods), len(t.externalValueMethods), len(t.autoBeanMethods), len(t.imports))
}
