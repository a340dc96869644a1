/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"github.com/pkg/errors"
	"reflect"
)

/**
Generator turns configuration units into recipes and drives the listener chain.
*/

type Generator struct {
	naming    NamingStrategy
	listeners []Listener
}

func NewGenerator(naming NamingStrategy, listeners ...Listener) *Generator {
	if naming == nil {
		naming = DefaultNamingStrategy
	}
	return &Generator{naming: naming, listeners: listeners}
}

/**
Emits recipes of the units in the given order, returns the number of emitted recipes.
Units registered before by name are skipped.
*/
func (t *Generator) Generate(registry Registry, units []*ConfigurationUnit) (int, error) {
	total := 0
	for _, unit := range units {
		n, err := t.generate(registry, unit)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *Generator) generate(registry Registry, unit *ConfigurationUnit) (int, error) {

	if registry.ContainsRecipe(unit.Name()) {
		if verbose != nil {
			verbose.Printf("Skip already imported unit '%s'\n", unit.Name())
		}
		return 0, nil
	}
	unit.Freeze()

	if err := registry.RegisterRecipe(unit.Name(), unitRecipe(unit)); err != nil {
		return 0, err
	}

	total := 0
	for _, l := range t.listeners {
		if !l.Understands(unit) {
			continue
		}
		n, err := l.OnConfigurationUnit(registry, unit)
		if err != nil {
			return total, errors.Wrapf(err, "unit '%s'", unit.Name())
		}
		total += n
	}

	for _, m := range unit.Methods() {
		var (
			n   int
			err error
		)
		if bm, ok := m.(*BeanMethod); ok {
			n, err = t.beanMethod(registry, unit, bm)
		} else {
			n, err = t.otherMethod(registry, unit, m)
		}
		if err != nil {
			return total, err
		}
		total += n
	}

	for _, nested := range unit.NestedUnits() {
		n, err := t.generate(registry, nested)
		if err != nil {
			return total, err
		}
		total += n
	}

	if verbose != nil {
		verbose.Printf("Unit '%s' emitted %d recipes\n", unit.Name(), total)
	}
	return total, nil
}

func (t *Generator) beanMethod(registry Registry, unit *ConfigurationUnit, m *BeanMethod) (int, error) {

	name := t.naming.BeanName(m)
	recipe := t.beanRecipe(unit, m)

	emitted, err := emitRecipe(registry, name, recipe)
	if err != nil || !emitted {
		return 0, err
	}
	for _, alias := range recipe.Aliases {
		if err := registry.RegisterAlias(name, alias); err != nil {
			return 0, errors.Wrapf(err, "bean method %s", m.identity())
		}
	}

	total := 1
	for _, l := range t.listeners {
		if !l.Understands(unit) {
			continue
		}
		n, err := l.OnFactoryMethodRecipe(registry, recipe, unit, m)
		if err != nil {
			return total, errors.Wrapf(err, "bean method %s", m.identity())
		}
		total += n
	}
	return total, nil
}

func (t *Generator) otherMethod(registry Registry, unit *ConfigurationUnit, m ModelMethod) (int, error) {
	total := 0
	for _, l := range t.listeners {
		if !l.Understands(unit) {
			continue
		}
		n, err := l.OnOtherMethod(registry, unit, m)
		if err != nil {
			return total, errors.Wrapf(err, "method %s", m.base().identity())
		}
		total += n
	}
	return total, nil
}

/**
Recipe of the bean method, unspecified attributes are copied from unit defaults
*/
func (t *Generator) beanRecipe(unit *ConfigurationUnit, m *BeanMethod) *Recipe {

	md := m.Metadata()
	defaults := unit.Defaults()

	recipe := &Recipe{
		Unit:              unit,
		Method:            m,
		Type:              m.ReturnType(),
		Scope:             m.EffectiveScope(),
		Primary:           md.Primary == TristateTrue,
		InitMethodName:    md.InitMethodName,
		DestroyMethodName: md.DestroyMethodName,
		Aliases:           md.Aliases,
		DependsOn:         md.DependsOn,
		Hidden:            m.Modifiers().IsProtected(),
		AllowOverriding:   md.AllowOverriding,
		HotSwappable:      m.IsHotSwappable(),
		Factory:           bodyFactory(m.base()),
	}

	switch md.Lazy {
	case TristateTrue:
		recipe.Lazy = true
	case TristateUnspecified:
		recipe.Lazy = defaults.DefaultLazy == TristateTrue
	}

	recipe.Autowire = md.Autowire
	if recipe.Autowire == AutowireInherited {
		recipe.Autowire = defaults.DefaultAutowire
	}
	if recipe.Autowire == AutowireInherited {
		recipe.Autowire = AutowireNo
	}

	recipe.DependencyCheck = md.DependencyCheck
	if recipe.DependencyCheck == DependencyCheckUnspecified {
		recipe.DependencyCheck = defaults.DefaultDependencyCheck
	}
	if recipe.DependencyCheck == DependencyCheckUnspecified {
		recipe.DependencyCheck = DependencyCheckNone
	}

	if len(md.Meta) > 0 {
		recipe.Meta = make(map[string]string, len(md.Meta))
		for _, kv := range md.Meta {
			recipe.Meta[kv.Key] = kv.Value
		}
	}
	return recipe
}

/**
Registers the recipe unless an overridable recipe of the same name was registered externally.
Returns false when the emission was skipped.
*/
func emitRecipe(registry Registry, name string, recipe *Recipe) (bool, error) {
	if prev, ok := registry.Recipe(name); ok {
		if !prev.AllowOverriding {
			return false, errors.Wrapf(ErrIllegalOverride, "recipe '%s' of %v is already defined by %v", name, recipe, prev)
		}
		if !prev.IsUnitRecipe() {
			if verbose != nil {
				verbose.Printf("Recipe '%s' is registered externally, skip %v\n", name, recipe)
			}
			return false, nil
		}
	}
	return true, registry.RegisterRecipe(name, recipe)
}

func unitRecipe(unit *ConfigurationUnit) *Recipe {
	recipe := &Recipe{
		Unit:  unit,
		Type:  reflect.TypeOf(unit),
		Scope: ScopeSingleton,
	}
	if rt := unit.runtime; rt.instance.IsValid() {
		instance := rt.instance.Interface()
		recipe.Type = rt.classPtr
		recipe.Factory = func(context.Context) (interface{}, error) {
			return instance, nil
		}
	} else {
		recipe.Factory = func(context.Context) (interface{}, error) {
			return unit, nil
		}
	}
	return recipe
}

func bodyFactory(m *method) Factory {
	body := m.body
	return func(ctx context.Context) (interface{}, error) {
		if !body.IsValid() || body.IsNil() {
			return nil, errors.Errorf("method %s has no body", m.identity())
		}
		return invokeBody(ctx, body)
	}
}
