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

const ScopedTargetPrefix = "scopedTarget."

/**
Auto bean listener emits recipes that instantiate the return type and wire it.
*/

type autoBeanListener struct {
	ListenerSupport
	naming NamingStrategy
}

func (t *autoBeanListener) OnOtherMethod(registry Registry, unit *ConfigurationUnit, method ModelMethod) (int, error) {
	m, ok := method.(*AutoBeanMethod)
	if !ok {
		return 0, nil
	}
	typ := m.ReturnType()
	if typ == nil || !isConcrete(typ) {
		return 0, errors.Wrapf(ErrAutoBeanInterface, "method %s returns %v", m.identity(), typ)
	}
	elem := typ.Elem()
	recipe := &Recipe{
		Unit:            unit,
		Method:          m,
		Type:            typ,
		Scope:           ScopeSingleton,
		Autowire:        m.EffectiveAutowire(),
		DependencyCheck: unit.Defaults().DefaultDependencyCheck,
		Lazy:            unit.Defaults().DefaultLazy == TristateTrue,
		Factory: func(context.Context) (interface{}, error) {
			return reflect.New(elem).Interface(), nil
		},
	}
	if recipe.DependencyCheck == DependencyCheckUnspecified {
		recipe.DependencyCheck = DependencyCheckNone
	}
	emitted, err := emitRecipe(registry, t.naming.BeanName(m), recipe)
	if err != nil || !emitted {
		return 0, err
	}
	return 1, nil
}

/**
Bundle loader preloads resource bundles of a unit
*/
type bundleLoader interface {
	preload(basename string) error
}

/**
Resource bundle listener checks that every bundle of the unit exists before any value is requested.
*/

type resourceBundleListener struct {
	ListenerSupport
	loader bundleLoader
}

func (t *resourceBundleListener) Understands(unit *ConfigurationUnit) bool {
	return len(unit.DeclaredResourceBundleBasenames()) > 0
}

func (t *resourceBundleListener) OnConfigurationUnit(registry Registry, unit *ConfigurationUnit) (int, error) {
	for _, basename := range unit.DeclaredResourceBundleBasenames() {
		if err := t.loader.preload(basename); err != nil {
			return 0, errors.Wrapf(err, "resource bundle '%s' of unit '%s'", basename, unit.Name())
		}
	}
	return 0, nil
}

/**
Scoped proxy listener moves the scoped recipe to a hidden target and makes the visible one delegate to it.
*/

type scopedProxyListener struct {
	ListenerSupport
}

func (t *scopedProxyListener) OnFactoryMethodRecipe(registry Registry, recipe *Recipe, unit *ConfigurationUnit, method *BeanMethod) (int, error) {
	sp, ok := method.ScopedProxyMetadata()
	if !ok {
		return 0, nil
	}
	targetName := ScopedTargetPrefix + recipe.Name
	target := &Recipe{
		Unit:              recipe.Unit,
		Method:            recipe.Method,
		Type:              recipe.Type,
		Scope:             recipe.Scope,
		Autowire:          recipe.Autowire,
		DependencyCheck:   recipe.DependencyCheck,
		InitMethodName:    recipe.InitMethodName,
		DestroyMethodName: recipe.DestroyMethodName,
		Meta:              copyMeta(recipe.Meta),
		Hidden:            true,
		AllowOverriding:   recipe.AllowOverriding,
		Factory:           recipe.Factory,
	}
	if err := registry.RegisterRecipe(targetName, target); err != nil {
		return 0, err
	}
	recipe.Delegate = targetName
	recipe.InitMethodName = ""
	recipe.DestroyMethodName = ""
	if recipe.Meta == nil {
		recipe.Meta = make(map[string]string)
	}
	if sp.ProxyTargetClass {
		recipe.Meta["proxyTargetClass"] = "true"
	}
	if verbose != nil {
		verbose.Printf("Scoped proxy '%s' delegates to '%s' in scope '%s'\n", recipe.Name, targetName, target.Scope)
	}
	return 1, nil
}

func copyMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
