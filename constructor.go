/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strings"
)

/**
Parameter of a unit constructor
*/

type Param struct {
	Name    string
	Type    reflect.Type
	Markers []Marker
}

func (t Param) value() (ExternalValue, bool) {
	if m, ok := findMarker(KindExternalValue, t.Markers); ok {
		return m.(ExternalValue), true
	}
	return ExternalValue{}, false
}

/**
Constructor of a configuration unit.

Built by Ctor for units created through Constructed, or by NewConstructor for the model only.
*/

type Constructor struct {
	Params []Param

	fn  reflect.Value
	err error
}

func NewConstructor(params ...Param) *Constructor {
	return &Constructor{Params: params}
}

/**
Binds the function to the value keys of its parameters in order.
The function must return *T or (*T, error) where T is a configuration unit struct.

Example:
	beanconf.Ctor(func(url string, poolSize int) *DBConfig { ... }, "db.url", "db.pool.size")
*/
func Ctor(fn interface{}, keys ...string) *Constructor {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return &Constructor{err: errors.Errorf("constructor must be a function, got %T", fn)}
	}
	typ := v.Type()
	if typ.NumIn() != len(keys) {
		return &Constructor{err: errors.Errorf("constructor %v takes %d parameters, but %d keys given", typ, typ.NumIn(), len(keys))}
	}
	if typ.IsVariadic() {
		return &Constructor{err: errors.Errorf("constructor %v may not be variadic", typ)}
	}
	ok := typ.NumOut() == 1 || (typ.NumOut() == 2 && typ.Out(1) == errorClass)
	if !ok || !isConcrete(typ.Out(0)) {
		return &Constructor{err: errors.Errorf("constructor %v must return *T or (*T, error)", typ)}
	}
	c := &Constructor{fn: v}
	for i, key := range keys {
		marker := ExternalValue{Key: key}
		if j := strings.IndexByte(key, '='); j > 0 {
			marker = ExternalValue{Key: key[:j], Default: key[j+1:], HasDefault: true}
		}
		c.Params = append(c.Params, Param{Name: marker.Key, Type: typ.In(i), Markers: []Marker{marker}})
	}
	return c
}

func (t *Constructor) Arity() int {
	return len(t.Params)
}

/**
Returns the type of the constructed unit, nil for model only constructors
*/
func (t *Constructor) UnitType() reflect.Type {
	if !t.fn.IsValid() {
		return nil
	}
	return t.fn.Type().Out(0)
}

func (t *Constructor) hasValueInjection() bool {
	for _, p := range t.Params {
		if _, ok := p.value(); ok {
			return true
		}
	}
	return false
}

/**
Resolves the arguments, returns false if any of value keys is missing
*/
func (t *Constructor) arguments(values ValueSource, basenames []string) ([]reflect.Value, bool, error) {
	args := make([]reflect.Value, len(t.Params))
	for i, p := range t.Params {
		marker, ok := p.value()
		if !ok {
			return nil, false, errors.Errorf("parameter '%s' of constructor %v has no value key", p.Name, t.fn.Type())
		}
		s, err := values.Resolve(basenames, marker.Key)
		if err != nil {
			if errors.Is(err, ErrValueNotFound) && marker.HasDefault {
				s = marker.Default
			} else if errors.Is(err, ErrValueNotFound) {
				return nil, false, nil
			} else {
				return nil, false, err
			}
		}
		v, err := convertValue(s, p.Type, marker.Layout)
		if err != nil {
			return nil, false, errors.Errorf("parameter '%s' of constructor %v has convert error, %v", p.Name, t.fn.Type(), err)
		}
		args[i] = v
	}
	return args, true, nil
}

func (t *Constructor) call(args []reflect.Value) (interface{}, error) {
	out := t.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (t *Constructor) String() string {
	var params []string
	for _, p := range t.Params {
		params = append(params, fmt.Sprintf("%s %v", p.Name, p.Type))
	}
	return fmt.Sprintf("ctor(%s)", strings.Join(params, ", "))
}

/**
Configuration unit created by one of its constructors with value injected parameters.
*/

type ConstructedUnit struct {
	ctors []*Constructor
}

func Constructed(ctors ...*Constructor) *ConstructedUnit {
	return &ConstructedUnit{ctors: ctors}
}

/**
Returns the unit type all constructors agree on
*/
func (t *ConstructedUnit) unitType() (reflect.Type, error) {
	if len(t.ctors) == 0 {
		return nil, errors.New("constructed unit has no constructors")
	}
	var typ reflect.Type
	for _, c := range t.ctors {
		if c.err != nil {
			return nil, c.err
		}
		if typ == nil {
			typ = c.UnitType()
		} else if typ != c.UnitType() {
			return nil, errors.Errorf("constructors produce different types %v and %v", typ, c.UnitType())
		}
	}
	return typ, nil
}

/**
Picks the constructor whose keys all resolve, the greatest arity wins.
A single constructor is always used. Ties and no candidates among several
constructors are fatal.
*/
func selectConstructor(unitName string, ctors []*Constructor, values ValueSource, basenames []string) (*Constructor, []reflect.Value, error) {

	if len(ctors) == 1 {
		args, ok, err := ctors[0].arguments(values, basenames)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, errors.Wrapf(ErrValueNotFound, "constructor %v of unit '%s'", ctors[0], unitName)
		}
		return ctors[0], args, nil
	}

	var best *Constructor
	var bestArgs []reflect.Value
	tie := false

	for _, c := range ctors {
		args, ok, err := c.arguments(values, basenames)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		switch {
		case best == nil || c.Arity() > best.Arity():
			best, bestArgs, tie = c, args, false
		case c.Arity() == best.Arity():
			tie = true
		}
	}

	if best == nil {
		return nil, nil, errors.Wrapf(ErrAmbiguousConstructor, "unit '%s' has no constructor with resolvable parameters among %v", unitName, ctors)
	}
	if tie {
		return nil, nil, errors.Wrapf(ErrAmbiguousConstructor, "unit '%s' has several constructors with %d resolvable parameters", unitName, best.Arity())
	}
	return best, bestArgs, nil
}
