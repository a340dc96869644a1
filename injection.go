/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"fmt"
	"github.com/golobby/cast"
	"github.com/pkg/errors"
	"os"
	"reflect"
	"strings"
	"time"
)

var (
	durationClass = reflect.TypeOf(time.Millisecond)
	timeClass     = reflect.TypeOf(time.Time{})
	fileModeClass = reflect.TypeOf(os.FileMode(0777))
)

type injectionDef struct {

	/**
	Class of that struct
	*/
	class reflect.Type
	/**
	Field number of that struct
	*/
	fieldNum int
	/**
	Field name where injection is going to be happen
	*/
	fieldName string
	/**
	Type of the field or of its elements for slices and maps
	*/
	fieldType reflect.Type
	/**
	Field is Slice of objects
	*/
	slice bool
	/**
	Field is Map of objects by recipe name
	*/
	table bool
	/**
	Optional injection
	*/
	optional bool
	/*
	Injection expects the specific recipe to be injected
	*/
	qualifier string
}

type propInjectionDef struct {
	class     reflect.Type
	fieldNum  int
	fieldName string
	fieldType reflect.Type
	value     ExternalValue
}

/**
Reference field without tags, filled only by autowiring
*/
type autowireDef struct {
	fieldNum  int
	fieldName string
	fieldType reflect.Type
}

type wiringDef struct {
	classPtr   reflect.Type
	fields     []*injectionDef
	properties []*propInjectionDef
	candidates []*autowireDef
}

/**
Investigate produced type by using reflection
*/
func investigate(classPtr reflect.Type) (*wiringDef, error) {
	def := &wiringDef{classPtr: classPtr}
	if classPtr.Kind() != reflect.Ptr || classPtr.Elem().Kind() != reflect.Struct {
		return def, nil
	}
	class := classPtr.Elem()
	for j := 0; j < class.NumField(); j++ {
		field := class.Field(j)

		if valueTag, ok := field.Tag.Lookup("value"); ok {
			if field.Anonymous {
				return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
			}
			if field.Type.Kind() == reflect.Func {
				continue
			}
			value, err := parseValueTag(valueTag)
			if err != nil {
				return nil, err
			}
			if value.Key == "" {
				return nil, errors.Errorf("empty property name in field '%s' with type '%v' on position %d in %v with 'value' tag", field.Name, field.Type, j, classPtr)
			}
			def.properties = append(def.properties, &propInjectionDef{
				class:     class,
				fieldNum:  j,
				fieldName: field.Name,
				fieldType: field.Type,
				value:     value,
			})
			continue
		}

		injectTagValue, hasInjectTag := field.Tag.Lookup("inject")
		if field.Tag == "inject" || hasInjectTag {
			if field.Anonymous {
				return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
			}
			tag, err := parseInjectTag(injectTagValue)
			if err != nil {
				return nil, errors.Errorf("field '%s' in '%v', %v", field.Name, classPtr, err)
			}
			kind := field.Type.Kind()
			fieldType := field.Type
			var fieldSlice, fieldMap bool
			switch kind {
			case reflect.Slice:
				fieldSlice = true
				fieldType = field.Type.Elem()
				kind = fieldType.Kind()
			case reflect.Map:
				fieldMap = true
				if field.Type.Key().Kind() != reflect.String {
					return nil, errors.Errorf("map must have string key to be injected for field type '%v' on position %d in %v with 'inject' tag", field.Type, j, classPtr)
				}
				fieldType = field.Type.Elem()
				kind = fieldType.Kind()
			}
			if kind != reflect.Ptr && kind != reflect.Interface && kind != reflect.Func {
				return nil, errors.Errorf("not a pointer, interface or function field type '%v' on position %d in %v with 'inject' tag", field.Type, j, classPtr)
			}
			def.fields = append(def.fields, &injectionDef{
				class:     class,
				fieldNum:  j,
				fieldName: field.Name,
				fieldType: fieldType,
				slice:     fieldSlice,
				table:     fieldMap,
				optional:  tag.optional,
				qualifier: tag.qualifier,
			})
			continue
		}

		if field.Anonymous || !field.IsExported() {
			continue
		}
		switch field.Type.Kind() {
		case reflect.Ptr, reflect.Interface:
			def.candidates = append(def.candidates, &autowireDef{fieldNum: j, fieldName: field.Name, fieldType: field.Type})
		}
	}
	return def, nil
}

/**
Wires produced object: inject tags, value tags and autowired references
*/
func (t *container) wire(ctx context.Context, obj interface{}, recipe *Recipe) error {

	classPtr := reflect.TypeOf(obj)
	if classPtr == nil || classPtr.Kind() != reflect.Ptr || classPtr.Elem().Kind() != reflect.Struct {
		return nil
	}
	valuePtr := reflect.ValueOf(obj)
	if valuePtr.IsNil() {
		return nil
	}
	if recipe.Unit != nil && recipe.Method == nil {
		// the unit itself is wired by enhancement
		return nil
	}

	def, err := t.wiring(classPtr)
	if err != nil {
		return err
	}
	value := valuePtr.Elem()

	for _, injectDef := range def.fields {
		if err := injectDef.inject(ctx, t, recipe, &value); err != nil {
			return err
		}
	}

	basenames := t.basenamesOf(recipe)
	for _, propertyDef := range def.properties {
		if verbose != nil {
			verbose.Printf("%sProperty '%s'\n", indent(resolutionFrom(ctx).depth()), propertyDef.value.Key)
		}
		if err := propertyDef.inject(&value, t.values, basenames); err != nil {
			return err
		}
	}

	switch recipe.Autowire {
	case AutowireByName:
		for _, c := range def.candidates {
			field := value.Field(c.fieldNum)
			if !field.IsNil() {
				continue
			}
			name := lowerFirst(c.fieldName)
			if name == recipe.Name || !t.ContainsRecipe(name) {
				continue
			}
			obj, err := t.resolve(ctx, name, false)
			if err != nil {
				return errors.Wrapf(err, "autowire field '%s' in class '%v' by name", c.fieldName, classPtr)
			}
			if err := setField(field, obj); err != nil {
				return errors.Wrapf(err, "autowire field '%s' in class '%v' by name", c.fieldName, classPtr)
			}
		}
	case AutowireByType:
		for _, c := range def.candidates {
			field := value.Field(c.fieldNum)
			if !field.IsNil() {
				continue
			}
			list := excludeRecipe(t.candidates(c.fieldType), recipe)
			if len(list) == 0 {
				continue
			}
			impl, err := primaryCandidate(list)
			if err != nil {
				return errors.Errorf("autowire field '%s' in class '%v' by type, %v", c.fieldName, classPtr, err)
			}
			obj, err := t.resolve(ctx, impl.Name, false)
			if err != nil {
				return errors.Wrapf(err, "autowire field '%s' in class '%v' by type", c.fieldName, classPtr)
			}
			if err := setField(field, obj); err != nil {
				return errors.Wrapf(err, "autowire field '%s' in class '%v' by type", c.fieldName, classPtr)
			}
		}
	}

	return checkDependencies(def, &value, recipe)
}

func (t *container) wiring(classPtr reflect.Type) (*wiringDef, error) {
	if def, ok := t.wiringCache.Load(classPtr); ok {
		return def.(*wiringDef), nil
	}
	def, err := investigate(classPtr)
	if err != nil {
		return nil, err
	}
	t.wiringCache.Store(classPtr, def)
	return def, nil
}

/**
Inject object in to the field by using reflection
*/
func (t *injectionDef) inject(ctx context.Context, c *container, recipe *Recipe, value *reflect.Value) error {

	field := value.Field(t.fieldNum)
	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", t.fieldName, t.class)
	}

	var list []*Recipe
	if t.qualifier != "" {
		if r, ok := c.Recipe(t.qualifier); ok && !r.Hidden {
			list = append(list, r)
		}
	} else {
		list = excludeRecipe(c.candidates(t.fieldType), recipe)
	}

	if len(list) == 0 {
		if !t.optional {
			if t.qualifier != "" {
				return errors.Errorf("can not find candidates to inject the required field '%s' in class '%v' with qualifier '%s'", t.fieldName, t.class, t.qualifier)
			} else {
				return errors.Errorf("can not find candidates to inject the required field '%s' in class '%v'", t.fieldName, t.class)
			}
		}
		return nil
	}

	if t.slice {
		newSlice := reflect.MakeSlice(field.Type(), 0, len(list))
		for _, impl := range list {
			obj, err := c.resolve(ctx, impl.Name, false)
			if err != nil {
				return err
			}
			newSlice = reflect.Append(newSlice, reflect.ValueOf(obj))
		}
		field.Set(newSlice)
		return nil
	}

	if t.table {
		field.Set(reflect.MakeMap(field.Type()))
		for _, impl := range list {
			obj, err := c.resolve(ctx, impl.Name, false)
			if err != nil {
				return err
			}
			field.SetMapIndex(reflect.ValueOf(impl.Name), reflect.ValueOf(obj))
		}
		return nil
	}

	impl, err := primaryCandidate(list)
	if err != nil {
		return errors.Errorf("field '%s' in class '%v' can not be injected, %v", t.fieldName, t.class, err)
	}

	obj, err := c.resolve(ctx, impl.Name, false)
	if err != nil {
		return err
	}
	return setField(field, obj)
}

func (t *injectionDef) String() string {
	if t.qualifier != "" {
		return fmt.Sprintf(" %v->%s(%s) ", t.class, t.fieldName, t.qualifier)
	} else {
		return fmt.Sprintf(" %v->%s ", t.class, t.fieldName)
	}
}

func (t *propInjectionDef) inject(value *reflect.Value, values ValueSource, basenames []string) error {

	field := value.Field(t.fieldNum)

	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", t.fieldName, t.class)
	}

	strValue, err := values.Resolve(basenames, t.value.Key)
	if err != nil {
		missing := errors.Is(err, ErrValueNotFound) || errors.Is(err, ErrNoResourceBundles)
		if !missing || !t.value.HasDefault {
			return errors.Wrapf(err, "property '%s' in class '%v'", t.fieldName, t.class)
		}
		strValue = t.value.Default
	}

	v, err := convertValue(strValue, t.fieldType, t.value.Layout)
	if err != nil {
		return errors.Errorf("property '%s' in class '%v' has convert error, %v", t.fieldName, t.class, err)
	}

	field.Set(v)
	return nil
}

func setField(field reflect.Value, obj interface{}) error {
	if obj == nil {
		return nil
	}
	v := reflect.ValueOf(obj)
	if !v.Type().AssignableTo(field.Type()) {
		return errors.Errorf("object %T is not assignable to '%v'", obj, field.Type())
	}
	field.Set(v)
	return nil
}

func excludeRecipe(list []*Recipe, recipe *Recipe) []*Recipe {
	out := list[:0:0]
	for _, r := range list {
		if r != recipe {
			out = append(out, r)
		}
	}
	return out
}

/**
Single candidate or the only primary one among several
*/
func primaryCandidate(list []*Recipe) (*Recipe, error) {
	if len(list) == 1 {
		return list[0], nil
	}
	var primary []*Recipe
	for _, r := range list {
		if r.Primary {
			primary = append(primary, r)
		}
	}
	if len(primary) == 1 {
		return primary[0], nil
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	return nil, errors.Errorf("multiple candidates %v", names)
}

/**
Objects check requires reference fields, simple check requires value fields without defaults
*/
func checkDependencies(def *wiringDef, value *reflect.Value, recipe *Recipe) error {
	mode := recipe.DependencyCheck
	if mode == DependencyCheckObjects || mode == DependencyCheckAll {
		for _, c := range def.candidates {
			if value.Field(c.fieldNum).IsNil() {
				return errors.Errorf("unsatisfied dependency of '%s', field '%s' of type '%v' is not set", recipe.Name, c.fieldName, c.fieldType)
			}
		}
	}
	if mode == DependencyCheckSimple || mode == DependencyCheckAll {
		for _, p := range def.properties {
			if value.Field(p.fieldNum).IsZero() && !p.value.HasDefault {
				return errors.Errorf("unsatisfied dependency of '%s', property '%s' with key '%s' is not set", recipe.Name, p.fieldName, p.value.Key)
			}
		}
	}
	return nil
}

func convertValue(s string, t reflect.Type, layout string) (val reflect.Value, err error) {
	var v interface{}

	switch {

	case isArray(t):
		parts := trimSplit(s, ";")
		slice := reflect.MakeSlice(reflect.SliceOf(t.Elem()), 0, len(parts))
		for _, s := range parts {
			val, err := convertValue(s, t.Elem(), layout)
			if err != nil {
				return reflect.Zero(t), err
			}
			slice = reflect.Append(slice, val)
		}
		return slice.Convert(t), nil

	case isDuration(t):
		v, err = time.ParseDuration(s)

	case isTime(t):
		if layout == "" {
			layout = time.RFC3339
		}
		v, err = time.Parse(layout, s)

	case isFileMode(t):
		v, err = parseFileMode(s), nil

	case isBool(t):
		v, err = parseBool(s)

	case isScalar(t):
		v, err = cast.FromType(s, t)

	default:
		return reflect.Zero(t), fmt.Errorf("unsupported type %s", t)
	}

	if err != nil {
		return reflect.Zero(t), err
	}

	return reflect.ValueOf(v).Convert(t), nil
}

/**
Types external values could be converted to
*/
func isConvertible(t reflect.Type) bool {
	switch {
	case t.Kind() == reflect.Slice:
		return isConvertible(t.Elem())
	case isDuration(t), isTime(t), isFileMode(t), isBool(t), isScalar(t):
		return true
	default:
		return false
	}
}

func isBool(t reflect.Type) bool {
	return t.Kind() == reflect.Bool
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isDuration(t reflect.Type) bool {
	return t == durationClass
}

func isTime(t reflect.Type) bool {
	return t == timeClass
}

func isFileMode(t reflect.Type) bool {
	return t == fileModeClass
}

func isArray(t reflect.Type) bool {
	return t.Kind() == reflect.Slice
}

func trimSplit(s string, sep string) []string {
	var a []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			a = append(a, v)
		}
	}
	return a
}
