/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"reflect"
)

/**
Publishes recipes of the context to the dig container as named constructors of their declared types.
Objects are resolved lazily through the context, so scopes and singleton identity are kept.
All visible recipes are exported when no names are given.
*/
func ExportTo(c *dig.Container, ctx Context, names ...string) error {
	if len(names) == 0 {
		names = ctx.RecipeNames()
	}
	for _, name := range names {
		recipe, ok := ctx.Recipe(name)
		if !ok {
			return errors.Wrapf(ErrRecipeNotFound, "export '%s'", name)
		}
		if recipe.Hidden {
			continue
		}
		typ := recipe.Type
		if typ == nil {
			continue
		}
		fn := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{typ, errorClass}, false), exporter(ctx, name, typ))
		if err := c.Provide(fn.Interface(), dig.Name(name)); err != nil {
			return errors.Wrapf(err, "export '%s' of type '%v'", name, typ)
		}
		if verbose != nil {
			verbose.Printf("Exported '%s' of type '%v' to dig\n", name, typ)
		}
	}
	return nil
}

func exporter(ctx Context, name string, typ reflect.Type) func([]reflect.Value) []reflect.Value {
	return func([]reflect.Value) []reflect.Value {
		obj, err := ctx.GetObject(name)
		if err != nil {
			return []reflect.Value{reflect.Zero(typ), reflect.ValueOf(&err).Elem()}
		}
		v := reflect.Zero(typ)
		if obj != nil {
			v = reflect.ValueOf(obj)
			if !v.Type().AssignableTo(typ) {
				err = errors.Errorf("recipe '%s' produced %T, not '%v'", name, obj, typ)
				return []reflect.Value{reflect.Zero(typ), reflect.ValueOf(&err).Elem()}
			}
			if v.Type() != typ {
				v = v.Convert(typ)
			}
		}
		return []reflect.Value{v, reflect.Zero(errorClass)}
	}
}
