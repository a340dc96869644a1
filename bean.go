/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strings"
	"sync/atomic"
)

type RecipeState int32

const (
	RecipeUnresolved RecipeState = iota
	RecipeResolving
	RecipeRaw
	RecipeWrapped
	RecipeCached
	RecipeTransient
	RecipeDestroyed
)

func (t RecipeState) String() string {
	switch t {
	case RecipeUnresolved:
		return "RecipeUnresolved"
	case RecipeResolving:
		return "RecipeResolving"
	case RecipeRaw:
		return "RecipeRaw"
	case RecipeWrapped:
		return "RecipeWrapped"
	case RecipeCached:
		return "RecipeCached"
	case RecipeTransient:
		return "RecipeTransient"
	case RecipeDestroyed:
		return "RecipeDestroyed"
	default:
		return "RecipeUnknown"
	}
}

/**
Factory produces the raw object of the recipe, the context carries the resolution stack
*/
type Factory func(ctx context.Context) (interface{}, error)

/**
Recipe describes how to create one managed object.
*/

type Recipe struct {

	/**
	Name of the recipe, set on registration
	*/
	Name string

	/**
	Unit and method that emitted the recipe, both nil for external recipes
	*/
	Unit   *ConfigurationUnit
	Method ModelMethod

	/**
	Declared type of the product
	*/
	Type reflect.Type

	Scope           string
	Lazy            bool
	Primary         bool
	Autowire        Autowire
	DependencyCheck DependencyCheck

	InitMethodName    string
	DestroyMethodName string

	Aliases   []string
	DependsOn []string
	Meta      map[string]string

	/**
	Hidden recipes are resolvable only from wrappers of their unit
	*/
	Hidden bool

	AllowOverriding bool
	HotSwappable    bool

	/**
	Name of the recipe that actually produces objects, used by scoped proxies
	*/
	Delegate string

	Factory Factory

	state int32
}

/**
Recipe of already existing object, registered as overridable singleton
*/
func ObjectRecipe(obj interface{}) *Recipe {
	return &Recipe{
		Type:            reflect.TypeOf(obj),
		Scope:           ScopeSingleton,
		AllowOverriding: true,
		Factory: func(context.Context) (interface{}, error) {
			return obj, nil
		},
	}
}

/**
Recipe emitted by a configuration unit
*/
func (t *Recipe) IsUnitRecipe() bool {
	return t.Unit != nil && t.Method != nil
}

func (t *Recipe) IsSingleton() bool {
	return t.Scope == "" || t.Scope == ScopeSingleton
}

func (t *Recipe) IsPrototype() bool {
	return t.Scope == ScopePrototype
}

func (t *Recipe) State() RecipeState {
	return RecipeState(atomic.LoadInt32(&t.state))
}

func (t *Recipe) setState(state RecipeState) {
	atomic.StoreInt32(&t.state, int32(state))
}

func (t *Recipe) String() string {
	var out strings.Builder
	out.WriteString("Recipe [name=")
	out.WriteString(t.Name)
	if t.Unit != nil && t.Method != nil {
		fmt.Fprintf(&out, ", method=%s.%s", t.Unit.Name(), t.Method.Name())
	}
	fmt.Fprintf(&out, ", type=%v, scope=%s", t.Type, t.Scope)
	if t.Lazy {
		out.WriteString(", lazy")
	}
	if t.Hidden {
		out.WriteString(", hidden")
	}
	if t.Delegate != "" {
		fmt.Fprintf(&out, ", delegate=%s", t.Delegate)
	}
	out.WriteByte(']')
	return out.String()
}

/**
Proxy builder lets listeners replace produced object by a wrapper implementing the declared type.
*/

type ProxyBuilder struct {
	declared reflect.Type
	target   interface{}
	wrapped  bool
}

func newProxyBuilder(declared reflect.Type, target interface{}) *ProxyBuilder {
	return &ProxyBuilder{declared: declared, target: target}
}

/**
Current object, the wrapper of previous listeners if any
*/
func (t *ProxyBuilder) Target() interface{} {
	return t.target
}

func (t *ProxyBuilder) DeclaredType() reflect.Type {
	return t.declared
}

func (t *ProxyBuilder) IsWrapped() bool {
	return t.wrapped
}

/**
Wraps the target. Only interface declared types can be proxied, concrete types fail with ErrCannotProxyFinal.
*/
func (t *ProxyBuilder) Wrap(advise func(target interface{}) (interface{}, error)) error {
	if t.declared == nil || t.declared.Kind() != reflect.Interface {
		return errors.Wrapf(ErrCannotProxyFinal, "declared type '%v'", t.declared)
	}
	proxy, err := advise(t.target)
	if err != nil {
		return err
	}
	if proxy == nil || !reflect.TypeOf(proxy).Implements(t.declared) {
		return errors.Errorf("proxy %T does not implement declared type '%v'", proxy, t.declared)
	}
	t.target = proxy
	t.wrapped = true
	return nil
}
