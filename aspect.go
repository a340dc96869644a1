/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/pkg/errors"
	"reflect"
	"sync"
)

var AdviceClass = reflect.TypeOf((*Advice)(nil)).Elem()

/**
Advice is declared by bean methods of aspect units and wraps matching products of other units.
*/

type Advice interface {

	/**
	Pointcut, returns true if the product of the recipe should be advised
	*/
	Matches(recipe *Recipe) bool

	/**
	Returns the wrapper of the target, the wrapper must implement the declared type of the recipe
	*/
	Advise(target interface{}) (interface{}, error)
}

type aspectListener struct {
	ListenerSupport
	mu      sync.RWMutex
	advices []string
}

func (t *aspectListener) OnFactoryMethodRecipe(registry Registry, recipe *Recipe, unit *ConfigurationUnit, method *BeanMethod) (int, error) {
	if !unit.IsAspect() {
		return 0, nil
	}
	if typ := recipe.Type; typ != nil && typ.Implements(AdviceClass) {
		t.mu.Lock()
		t.advices = append(t.advices, recipe.Name)
		t.mu.Unlock()
		if verbose != nil {
			verbose.Printf("Advice '%s' of aspect '%s'\n", recipe.Name, unit.Name())
		}
	}
	return 0, nil
}

func (t *aspectListener) OnReturnValueProduced(registry Registry, recipe *Recipe, proxy *ProxyBuilder) (bool, error) {
	if !recipe.IsUnitRecipe() || recipe.Unit.IsAspect() {
		return false, nil
	}

	t.mu.RLock()
	names := t.advices
	t.mu.RUnlock()

	wrapped := false
	for _, name := range names {
		obj, err := registry.GetObject(name)
		if err != nil {
			return wrapped, errors.Wrapf(err, "advice '%s'", name)
		}
		advice, ok := obj.(Advice)
		if !ok || !advice.Matches(recipe) {
			continue
		}
		if err := proxy.Wrap(advice.Advise); err != nil {
			return wrapped, errors.Wrapf(err, "advice '%s' on recipe '%s'", name, recipe.Name)
		}
		wrapped = true
	}
	return wrapped, nil
}
