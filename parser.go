/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/pkg/errors"
	"reflect"
)

var configurationClass = reflect.TypeOf(Configuration{})

/**
Implement this interface on a unit to replace the fully qualified type name
*/

type NamedUnit interface {
	UnitName() string
}

/**
Returns true if the object is a struct or a pointer to struct that embeds Configuration
*/
func IsConfigurationUnit(obj interface{}) bool {
	typ := reflect.TypeOf(obj)
	if typ == nil {
		return false
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return isUnitType(typ, make(map[reflect.Type]bool))
}

func isUnitType(typ reflect.Type, visited map[reflect.Type]bool) bool {
	if typ.Kind() != reflect.Struct || visited[typ] {
		return false
	}
	visited[typ] = true
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type == configurationClass {
			return true
		}
		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if isUnitType(ft, visited) {
			return true
		}
	}
	return false
}

/**
Parses the configuration unit with all its imports, aspects and nested units.
*/
func Parse(obj interface{}) (*ConfigurationUnit, error) {
	return newParser().parse(reflect.ValueOf(obj))
}

type parser struct {
	units map[interface{}]*ConfigurationUnit
	types map[reflect.Type]*ConfigurationUnit

	/**
	Names of units being parsed, innermost last
	*/
	parsing []string
	active  map[reflect.Type]int
}

func newParser() *parser {
	return &parser{
		units:  make(map[interface{}]*ConfigurationUnit),
		types:  make(map[reflect.Type]*ConfigurationUnit),
		active: make(map[reflect.Type]int),
	}
}

func (p *parser) enter(classPtr reflect.Type, name string) func() {
	p.parsing = append(p.parsing, name)
	p.active[classPtr]++
	return func() {
		p.parsing = p.parsing[:len(p.parsing)-1]
		p.active[classPtr]--
	}
}

/**
Collected declarations of the unit and its embedded ancestors
*/
type declaration struct {
	defaults Defaults
	bundles  []string
	methods  []MethodSpec
}

// descendant declaration shadows the ancestor one
func (t *declaration) add(spec MethodSpec) {
	for i, m := range t.methods {
		if m.Name == spec.Name {
			t.methods = append(t.methods[:i], t.methods[i+1:]...)
			break
		}
	}
	t.methods = append(t.methods, spec)
}

func (t *declaration) mergeDefaults(d Defaults) {
	if d.DefaultScope != "" {
		t.defaults.DefaultScope = d.DefaultScope
	}
	if d.DefaultLazy != TristateUnspecified {
		t.defaults.DefaultLazy = d.DefaultLazy
	}
	if d.DefaultAutowire != AutowireInherited {
		t.defaults.DefaultAutowire = d.DefaultAutowire
	}
	if d.DefaultDependencyCheck != DependencyCheckUnspecified {
		t.defaults.DefaultDependencyCheck = d.DefaultDependencyCheck
	}
}

func (p *parser) parse(v reflect.Value) (unit *ConfigurationUnit, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recover from parsing '%v' on error %v", v.Type(), r)
		}
	}()

	var modifiers Modifiers
	switch {
	case !v.IsValid():
		return nil, errors.New("nil configuration unit")
	case v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct:
		if v.IsNil() {
			return nil, errors.Errorf("nil pointer to configuration unit '%v'", v.Type())
		}
	case v.Kind() == reflect.Struct:
		// passed by value, the copy can not be enhanced
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		v = ptr
		modifiers |= ModFinal
	default:
		return nil, errors.Errorf("type '%v' is not a configuration unit", v.Type())
	}

	key := v.Interface()
	if u, ok := p.units[key]; ok {
		return u, nil
	}

	classPtr := v.Type()
	if !isUnitType(classPtr.Elem(), make(map[reflect.Type]bool)) {
		return nil, errors.Errorf("type '%v' is not a configuration unit, embed beanconf.Configuration", classPtr)
	}

	name := classPtr.Elem().PkgPath() + "." + classPtr.Elem().Name()
	if named, ok := key.(NamedUnit); ok {
		name = named.UnitName()
	}

	if u, ok := p.types[classPtr]; ok && u.name == name && !modifiers.IsFinal() {
		// one more instance of a known unit, it is enhanced to route to the same recipes
		p.units[key] = u
		u.runtime.shadows = append(u.runtime.shadows, v)
		defer p.enter(classPtr, name)()
		if err := p.collect(u, v.Elem(), nil, nil); err != nil {
			return nil, err
		}
		return u, nil
	}

	unit = NewConfigurationUnit(name, modifiers)
	unit.runtime = unitRuntime{classPtr: classPtr, instance: v}
	// registered before recursion, so an import cycle yields the same unit
	p.units[key] = unit
	if !modifiers.IsFinal() {
		p.types[classPtr] = unit
	}

	leave := p.enter(classPtr, name)
	decl := &declaration{}
	err = p.collect(unit, v.Elem(), nil, decl)
	leave()
	if err != nil {
		return nil, err
	}

	unit.defaults = decl.defaults
	unit.resourceBundles = decl.bundles
	for _, spec := range decl.methods {
		m := NewModelMethod(spec)
		if m.Modifiers().IsAbstract() && m.Role() != RoleUnrecognized {
			unit.modifiers |= ModAbstract
		}
		unit.AddMethod(m)
	}

	if verbose != nil {
		verbose.Printf("Unit '%s' %v, methods %d, imports %d, bundles %v\n", unit.name, unit.modifiers, len(decl.methods), len(unit.imports), unit.resourceBundles)
	}
	return unit, nil
}

func (p *parser) collect(unit *ConfigurationUnit, value reflect.Value, index []int, decl *declaration) error {

	typ := value.Type()

	// embedded ancestors first
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type == configurationClass {
			if decl == nil {
				continue
			}
			if tag, ok := f.Tag.Lookup("defaults"); ok {
				d, err := parseDefaultsTag(tag)
				if err != nil {
					return errors.Errorf("unit '%s', %v", unit.name, err)
				}
				decl.mergeDefaults(d)
			}
			if tag, ok := f.Tag.Lookup("bundles"); ok {
				decl.bundles = append(decl.bundles, trimSplit(tag, ",")...)
			}
			continue
		}
		fv := value.Field(i)
		switch {
		case f.Type.Kind() == reflect.Struct && isUnitType(f.Type, make(map[reflect.Type]bool)):
		case f.Type.Kind() == reflect.Ptr && isUnitType(f.Type.Elem(), make(map[reflect.Type]bool)):
			if fv.IsNil() {
				if !fv.CanSet() {
					return errors.Errorf("embedded unit '%s' in '%s' is nil and not exported", f.Name, unit.name)
				}
				fv.Set(reflect.New(f.Type.Elem()))
			}
			fv = fv.Elem()
		default:
			continue
		}
		if err := p.collect(unit, fv, appendIndex(index, i), decl); err != nil {
			return err
		}
	}

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous {
			continue
		}
		fv := value.Field(i)

		// another instance of a parsed unit, only the units it references are of interest
		if decl == nil {
			if isUnitField(f) {
				if _, err := p.parseField(unit, f, fv); err != nil {
					return err
				}
			}
			continue
		}

		if _, ok := f.Tag.Lookup("import"); ok {
			imported, err := p.parseField(unit, f, fv)
			if err != nil {
				return err
			}
			unit.AddImportedUnit(imported)
			continue
		}
		if _, ok := f.Tag.Lookup("aspect"); ok {
			aspect, err := p.parseField(unit, f, fv)
			if err != nil {
				return err
			}
			unit.AddImportedAspect(aspect)
			continue
		}
		if _, ok := f.Tag.Lookup("nested"); ok {
			nested, err := p.parseField(unit, f, fv)
			if err != nil {
				return err
			}
			unit.AddNestedUnit(nested)
			continue
		}

		spec, ok, err := p.method(unit, f, fv, appendIndex(index, i))
		if err != nil {
			return err
		}
		if ok {
			decl.add(spec)
		}
	}

	return nil
}

func isUnitField(f reflect.StructField) bool {
	for _, key := range []string{"import", "aspect", "nested"} {
		if _, ok := f.Tag.Lookup(key); ok {
			return true
		}
	}
	return false
}

/**
Parses unit referenced by field. A nil field gets the instance of the same unit type parsed before,
or a new one. A nil field of a unit type that is being parsed is an import cycle.
*/
func (p *parser) parseField(unit *ConfigurationUnit, f reflect.StructField, fv reflect.Value) (*ConfigurationUnit, error) {
	if f.Type.Kind() != reflect.Ptr || f.Type.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("field '%s' in '%s' must be a pointer to configuration unit, got '%v'", f.Name, unit.name, f.Type)
	}
	if !fv.CanSet() {
		return nil, errors.Errorf("field '%s' in '%s' referencing configuration unit must be exported", f.Name, unit.name)
	}
	if fv.IsNil() {
		if p.active[f.Type] > 0 {
			name := f.Type.Elem().PkgPath() + "." + f.Type.Elem().Name()
			if u, ok := p.types[f.Type]; ok {
				name = u.name
			}
			return nil, &ImportCycleError{Path: append(cyclePath(p.parsing, name), name)}
		}
		if u, ok := p.types[f.Type]; ok {
			fv.Set(u.runtime.instance)
			return u, nil
		}
		fv.Set(reflect.New(f.Type.Elem()))
	}
	return p.parse(fv)
}

func (p *parser) method(unit *ConfigurationUnit, f reflect.StructField, fv reflect.Value, path []int) (MethodSpec, bool, error) {

	var markers []Marker
	var hidden bool

	if tag, ok := f.Tag.Lookup("bean"); ok {
		b, h, err := parseBeanTag(tag)
		if err != nil {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s', %v", f.Name, unit.name, err)
		}
		markers = append(markers, b)
		hidden = h
	}
	if tag, ok := f.Tag.Lookup("external"); ok {
		ext, err := parseExternalTag(tag)
		if err != nil {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s', %v", f.Name, unit.name, err)
		}
		markers = append(markers, ext)
	}
	if tag, ok := f.Tag.Lookup("auto"); ok {
		auto, err := parseAutoTag(tag)
		if err != nil {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s', %v", f.Name, unit.name, err)
		}
		markers = append(markers, auto)
	}
	if tag, ok := f.Tag.Lookup("value"); ok {
		val, err := parseValueTag(tag)
		if err != nil {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s', %v", f.Name, unit.name, err)
		}
		markers = append(markers, val)
	}
	if tag, ok := f.Tag.Lookup("scopedProxy"); ok {
		sp, err := parseScopedProxyTag(tag)
		if err != nil {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s', %v", f.Name, unit.name, err)
		}
		markers = append(markers, sp)
	}
	if _, ok := f.Tag.Lookup("hotSwappable"); ok {
		markers = append(markers, HotSwappable{})
	}

	if f.Type.Kind() != reflect.Func {
		if len(markers) > 0 {
			return MethodSpec{}, false, errors.Errorf("field '%s' in '%s' has marker tags, but type '%v' is not a function", f.Name, unit.name, f.Type)
		}
		return MethodSpec{}, false, nil
	}
	if len(markers) == 0 && !f.IsExported() {
		return MethodSpec{}, false, nil
	}

	var modifiers Modifiers
	switch {
	case !f.IsExported():
		modifiers |= ModPrivate
	case hidden:
		modifiers |= ModProtected
	default:
		modifiers |= ModPublic
	}

	spec := MethodSpec{
		Name:       f.Name,
		Markers:    markers,
		ReturnType: declaredReturnType(f.Type),
		Field:      path,
	}

	if fv.IsNil() {
		modifiers |= ModAbstract
	} else if f.IsExported() {
		// copy, the field is replaced on enhancement
		spec.Body = reflect.ValueOf(fv.Interface())
	}

	spec.Modifiers = modifiers
	return spec, true, nil
}

func appendIndex(index []int, i int) []int {
	path := make([]int, len(index), len(index)+1)
	copy(path, index)
	return append(path, i)
}
