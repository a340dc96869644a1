/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"reflect"
	"sync"
)

/**
	Holds recipes of one context by name and alias, keeps registration order.
 */

type registry struct {
	sync.RWMutex
	recipes map[string]*Recipe
	aliases map[string]string
	order   []string
}

func newRegistry() registry {
	return registry{
		recipes: make(map[string]*Recipe),
		aliases: make(map[string]string),
	}
}

func (t *registry) canonical(name string) string {
	t.RLock()
	defer t.RUnlock()
	for i := 0; i < 16; i++ {
		target, ok := t.aliases[name]
		if !ok {
			break
		}
		name = target
	}
	return name
}

func (t *registry) find(name string) (*Recipe, bool) {
	name = t.canonical(name)
	t.RLock()
	defer t.RUnlock()
	r, ok := t.recipes[name]
	return r, ok
}

/**
Stores the recipe, returns the replaced one
*/
func (t *registry) put(name string, recipe *Recipe) (*Recipe, bool) {
	t.Lock()
	defer t.Unlock()
	prev, ok := t.recipes[name]
	t.recipes[name] = recipe
	if !ok {
		t.order = append(t.order, name)
	}
	delete(t.aliases, name)
	return prev, ok
}

func (t *registry) alias(name, alias string) error {
	t.Lock()
	defer t.Unlock()
	if name == alias {
		return nil
	}
	if _, ok := t.recipes[alias]; ok {
		return errors.Errorf("alias '%s' of '%s' is already a recipe name", alias, name)
	}
	if target, ok := t.aliases[alias]; ok && target != name {
		return errors.Errorf("alias '%s' is already registered for '%s'", alias, target)
	}
	t.aliases[alias] = name
	return nil
}

func (t *registry) names() []string {
	t.RLock()
	defer t.RUnlock()
	list := make([]string, len(t.order))
	copy(list, t.order)
	return list
}

/**
Visible recipes which products are assignable to the type, in registration order
*/
func (t *registry) byType(typ reflect.Type) []*Recipe {
	t.RLock()
	defer t.RUnlock()
	var list []*Recipe
	for _, name := range t.order {
		r := t.recipes[name]
		if r.Hidden || r.Type == nil {
			continue
		}
		if assignable(r.Type, typ) {
			list = append(list, r)
		}
	}
	return list
}

func assignable(from, to reflect.Type) bool {
	if to.Kind() == reflect.Interface {
		return from.Implements(to)
	}
	return from.AssignableTo(to)
}

/**
Singletons of one unit instance. Concurrent first access constructs once.
*/

type singletonCache struct {
	sync.Mutex
	objects map[string]interface{}
	flight  singleflight.Group
}

func newSingletonCache() *singletonCache {
	return &singletonCache{objects: make(map[string]interface{})}
}

func (t *singletonCache) get(name string) (interface{}, bool) {
	t.Lock()
	defer t.Unlock()
	obj, ok := t.objects[name]
	return obj, ok
}

func (t *singletonCache) put(name string, obj interface{}) (interface{}, bool) {
	t.Lock()
	defer t.Unlock()
	prev, ok := t.objects[name]
	t.objects[name] = obj
	return prev, ok
}

func (t *singletonCache) len() int {
	t.Lock()
	defer t.Unlock()
	return len(t.objects)
}
