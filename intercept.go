/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"github.com/pkg/errors"
	"reflect"
	"sync"
)

/**
Unit instances enhanced by open contexts, an instance serves one context until it is closed
*/
var boundUnits sync.Map // key is pointer to unit struct, value is *container

/**
Runtime binding of a parsed unit to its struct instances
*/
type unitRuntime struct {
	classPtr reflect.Type
	instance reflect.Value

	/**
	Other instances of the unit type in the import graph, routed to the same recipes
	*/
	shadows []reflect.Value

	/**
	Func fields replaced on enhancement with their original values
	*/
	saved []savedField

	enhanced bool
}

type savedField struct {
	field reflect.Value
	value reflect.Value
}

func (t *unitRuntime) instances() []reflect.Value {
	return append([]reflect.Value{t.instance}, t.shadows...)
}

/**
Replaces every marked func field of the unit by a wrapper that goes through the container,
so calls between methods of the unit return managed objects.
*/
func (t *container) enhance(unit *ConfigurationUnit) error {

	if unit.modifiers.IsFinal() {
		return errors.Wrapf(ErrFinalUnit, "unit '%s' was passed by value", unit.name)
	}
	rt := &unit.runtime
	if !rt.instance.IsValid() || rt.enhanced {
		return nil
	}
	instances := rt.instances()
	var bound []interface{}
	for _, instance := range instances {
		key := instance.Interface()
		owner, loaded := boundUnits.LoadOrStore(key, t)
		if !loaded {
			bound = append(bound, key)
			continue
		}
		if owner != t {
			for _, k := range bound {
				boundUnits.Delete(k)
			}
			return errors.Errorf("instance of unit '%s' is already bound to %v", unit.name, owner)
		}
	}

	for _, m := range unit.Methods() {
		base := m.base()
		if len(base.field) == 0 || m.Role() == RoleUnrecognized {
			continue
		}
		var fn func(args []reflect.Value) []reflect.Value
		for _, instance := range instances {
			field := instance.Elem().FieldByIndex(base.field)
			if !field.CanSet() {
				continue
			}
			if fn == nil {
				fn = t.interceptor(unit, m, field.Type())
			}
			orig := reflect.New(field.Type()).Elem()
			orig.Set(field)
			rt.saved = append(rt.saved, savedField{field: field, value: orig})
			field.Set(reflect.MakeFunc(field.Type(), fn))
		}
		if verbose != nil {
			verbose.Printf("Enhanced %s, instances %d\n", base.identity(), len(instances))
		}
	}

	rt.enhanced = true
	return nil
}

/**
Puts the original func fields back and unbinds the instances, so they can serve a new context
*/
func (t *container) release(unit *ConfigurationUnit) {
	rt := &unit.runtime
	if !rt.enhanced {
		return
	}
	for i := len(rt.saved) - 1; i >= 0; i-- {
		rt.saved[i].field.Set(rt.saved[i].value)
	}
	rt.saved = nil
	for _, instance := range rt.instances() {
		key := instance.Interface()
		if owner, ok := boundUnits.Load(key); ok && owner == t {
			boundUnits.Delete(key)
		}
	}
	rt.enhanced = false
	if verbose != nil {
		verbose.Printf("Released unit '%s'\n", unit.name)
	}
}

func (t *container) interceptor(unit *ConfigurationUnit, m ModelMethod, fnType reflect.Type) func(args []reflect.Value) []reflect.Value {

	takesContext, returnsError, _ := bodySignature(fnType)

	var call func(ctx context.Context) (interface{}, error)
	switch v := m.(type) {
	case *BeanMethod:
		name := t.naming.BeanName(v)
		call = func(ctx context.Context) (interface{}, error) {
			return t.resolve(ctx, name, true)
		}
	case *AutoBeanMethod:
		name := t.naming.BeanName(v)
		call = func(ctx context.Context) (interface{}, error) {
			return t.resolve(ctx, name, true)
		}
	case *ExternalBeanMethod:
		name := externalName(v)
		call = func(ctx context.Context) (interface{}, error) {
			return t.resolve(ctx, name, false)
		}
	case *ExternalValueMethod:
		call = func(ctx context.Context) (interface{}, error) {
			return t.externalValue(ctx, unit, v)
		}
	}

	return func(args []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if takesContext && !args[0].IsNil() {
			ctx = args[0].Interface().(context.Context)
		}
		obj, err := call(ctx)
		return results(fnType, obj, err, returnsError)
	}
}

/**
Value of the key from bundles of the unit, then the body, then the tag default
*/
func (t *container) externalValue(ctx context.Context, unit *ConfigurationUnit, m *ExternalValueMethod) (interface{}, error) {
	s, err := t.values.Resolve(unit.ResourceBundleBasenames(), m.Key())
	if err == nil {
		v, err := convertValue(s, m.returnType, m.metadata.Layout)
		if err != nil {
			return nil, errors.Errorf("external value '%s' of %s has convert error, %v", m.Key(), m.identity(), err)
		}
		return v.Interface(), nil
	}
	if !errors.Is(err, ErrValueNotFound) {
		return nil, err
	}
	if m.HasBody() {
		return invokeBody(ctx, m.body)
	}
	if m.metadata.HasDefault {
		v, err := convertValue(m.metadata.Default, m.returnType, m.metadata.Layout)
		if err != nil {
			return nil, errors.Errorf("default of external value '%s' of %s has convert error, %v", m.Key(), m.identity(), err)
		}
		return v.Interface(), nil
	}
	return nil, errors.Wrapf(err, "external value of %s", m.identity())
}

/**
Calls raw body of the method, the body may take context and return error
*/
func invokeBody(ctx context.Context, body reflect.Value) (interface{}, error) {
	var in []reflect.Value
	if body.Type().NumIn() == 1 {
		in = []reflect.Value{reflect.ValueOf(ctx)}
	}
	out := body.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return valueOf(out[0]), nil
}

// keeps nil interfaces and pointers as untyped nil
func valueOf(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

/**
Builds results of the wrapper, the error is returned if the signature allows it, otherwise raised
*/
func results(fnType reflect.Type, obj interface{}, err error, returnsError bool) []reflect.Value {
	out := make([]reflect.Value, fnType.NumOut())
	if err != nil {
		if !returnsError {
			panic(err)
		}
		out[0] = reflect.Zero(fnType.Out(0))
		out[1] = reflect.ValueOf(&err).Elem()
		return out
	}
	if obj == nil {
		out[0] = reflect.Zero(fnType.Out(0))
	} else {
		v := reflect.ValueOf(obj)
		if !v.Type().AssignableTo(fnType.Out(0)) {
			if !v.Type().ConvertibleTo(fnType.Out(0)) {
				panic(errors.Errorf("object %T is not assignable to '%v'", obj, fnType.Out(0)))
			}
			v = v.Convert(fnType.Out(0))
		}
		out[0] = v
	}
	if returnsError {
		out[1] = reflect.Zero(errorClass)
	}
	return out
}
