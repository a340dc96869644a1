/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"net/http"
	"reflect"
	"strconv"
)

/**
Builds the context from configuration units and other scan items.
*/
func New(scan ...interface{}) (Context, error) {
	ctx, err := createContext(nil, scan)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

type scanResult struct {
	roots       []interface{}
	constructed []*ConstructedUnit
	objects     []interface{}
	listeners   []Listener
	scopes      []ScopeBinding
	resolvers   []PropertyResolver
	files       http.FileSystem
	reloadable  *ReloadableBundles
	naming      NamingStrategy
}

func createContext(parent *container, scan []interface{}) (*container, error) {
	ctx := newContainer(parent)
	if err := ctx.build(scan); err != nil {
		ctx.closeWithTimeout(DefaultCloseTimeout)
		return nil, err
	}
	if verbose != nil {
		verbose.Printf("Context %v\n", ctx)
	}
	return ctx, nil
}

/**
Pipeline: scan, parse, resolve imports, validate, generate, enhance, pre-instantiate
*/
func (ctx *container) build(scan []interface{}) error {

	parent := ctx.parent
	if parent != nil {
		ctx.naming = parent.naming
	}

	if verbose != nil {
		verbose.Printf("Build context %s\n", ctx.id)
	}

	// scan
	res := &scanResult{}
	err := forEach("", scan, func(pos string, obj interface{}) error {
		return res.add(pos, obj)
	})
	if err != nil {
		return err
	}
	if res.naming != nil {
		ctx.naming = res.naming
	}

	// values
	files := res.files
	if res.reloadable != nil {
		files = res.reloadable.files()
	}
	var source *bundleValueSource
	if files == nil && len(res.resolvers) == 0 && parent != nil {
		ctx.values = parent.values
		if s, ok := parent.values.(*bundleValueSource); ok {
			source = s
		}
	} else {
		source = newBundleValueSource(files, res.resolvers)
		ctx.values = source
	}
	if res.reloadable != nil {
		stop, err := res.reloadable.watch(source)
		if err != nil {
			return err
		}
		ctx.closers = append(ctx.closers, stop)
	}

	for _, b := range res.scopes {
		if err := ctx.RegisterScope(b.Name, b.Scope); err != nil {
			return err
		}
	}

	// parse
	p := newParser()
	model := NewConfigurationModel(ctx.naming)
	var roots []*ConfigurationUnit
	for _, obj := range res.roots {
		unit, err := p.parse(reflect.ValueOf(obj))
		if err != nil {
			return err
		}
		roots = append(roots, unit)
	}
	for _, cu := range res.constructed {
		unit, err := construct(p, cu, ctx.values)
		if err != nil {
			return err
		}
		roots = append(roots, unit)
	}

	// resolve imports
	resolver := NewImportResolver()
	var units []*ConfigurationUnit
	for _, root := range roots {
		list, err := resolver.Resolve(root)
		if err != nil {
			return err
		}
		units = append(units, list...)
		model.AddUnit(root)
	}
	aspects, err := resolver.ResolveAspects(units)
	if err != nil {
		return err
	}
	for _, aspect := range aspects {
		model.AddAspect(aspect)
	}

	if len(roots) > 0 || len(aspects) > 0 {
		if err := model.AssertIsValid(); err != nil {
			return err
		}
	}

	// external objects
	for i, obj := range res.objects {
		recipe := ObjectRecipe(obj)
		name := objectName(obj, i)
		if err := ctx.RegisterRecipe(name, recipe); err != nil {
			return err
		}
	}

	// generate
	aspectListener := &aspectListener{}
	ctx.listeners = append(ctx.listeners,
		&resourceBundleListener{loader: source},
		&autoBeanListener{naming: ctx.naming},
		&scopedProxyListener{},
		aspectListener)
	if parent != nil {
		ctx.listeners = append(ctx.listeners, parent.userListeners()...)
	}
	ctx.listeners = append(ctx.listeners, res.listeners...)

	gen := NewGenerator(ctx.naming, ctx.listeners...)
	n, err := gen.Generate(ctx, aspects)
	if err != nil {
		return err
	}
	m, err := gen.Generate(ctx, units)
	if err != nil {
		return err
	}
	if verbose != nil {
		verbose.Printf("Generated %d recipes of %d units and %d aspects\n", n+m, len(units), len(aspects))
	}

	// enhance units registered by this context
	for _, unit := range append(aspects, units...) {
		if err := ctx.adopt(unit); err != nil {
			return err
		}
	}
	ctx.basenames = unionBasenames(ctx.units)

	// pre-instantiate
	return ctx.preInstantiate()
}

func (t *scanResult) add(pos string, obj interface{}) error {

	switch instance := obj.(type) {
	case Verbose:
		SetVerbose(instance.Log)
		return nil
	case *Verbose:
		SetVerbose(instance.Log)
		return nil
	case BundleSource:
		t.files = instance.Files
		return nil
	case *BundleSource:
		t.files = instance.Files
		return nil
	case *ReloadableBundles:
		if verbose != nil {
			verbose.Printf("ReloadableBundles %s\n", instance.Dir)
		}
		t.reloadable = instance
		return nil
	case ScopeBinding:
		t.scopes = append(t.scopes, instance)
		return nil
	case *ScopeBinding:
		t.scopes = append(t.scopes, *instance)
		return nil
	case *ConstructedUnit:
		t.constructed = append(t.constructed, instance)
		return nil
	case NamingStrategy:
		t.naming = instance
		return nil
	}

	if IsConfigurationUnit(obj) {
		t.roots = append(t.roots, obj)
		return nil
	}

	accepted := false
	if l, ok := obj.(Listener); ok {
		if verbose != nil {
			verbose.Printf("Listener %T\n", l)
		}
		t.listeners = append(t.listeners, l)
		accepted = true
	}
	if r, ok := obj.(PropertyResolver); ok {
		if verbose != nil {
			verbose.Printf("PropertyResolver %T Priority %d\n", r, r.Priority())
		}
		t.resolvers = append(t.resolvers, r)
		accepted = true
	}
	if accepted {
		return nil
	}

	if reflect.TypeOf(obj).Kind() == reflect.Ptr {
		t.objects = append(t.objects, obj)
		return nil
	}
	return errors.Errorf("unsupported scan item %T on position '%s'", obj, pos)
}

/**
Creates the unit by the constructor that fits values of its resource bundles
*/
func construct(p *parser, cu *ConstructedUnit, values ValueSource) (*ConfigurationUnit, error) {
	typ, err := cu.unitType()
	if err != nil {
		return nil, err
	}

	// bundles are declared on the type
	declared, err := newParser().parse(reflect.New(typ.Elem()))
	if err != nil {
		return nil, err
	}
	basenames := declared.ResourceBundleBasenames()
	if len(basenames) == 0 {
		return nil, NewValidationErrors().Add(ResourceBundleRequired, "%s declares constructors without resource bundles", declared.Name()).Err()
	}

	ctor, args, err := selectConstructor(declared.Name(), cu.ctors, values, basenames)
	if err != nil {
		return nil, err
	}
	obj, err := ctor.call(args)
	if err != nil {
		return nil, errors.Wrapf(err, "construct unit '%s' by %v", declared.Name(), ctor)
	}
	if verbose != nil {
		verbose.Printf("Constructed unit '%s' by %v\n", declared.Name(), ctor)
	}

	unit, err := p.parse(reflect.ValueOf(obj))
	if err != nil {
		return nil, err
	}
	for _, c := range cu.ctors {
		unit.AddConstructor(c)
	}
	return unit, nil
}

/**
Enhances the unit if this context registered its recipe
*/
func (t *container) adopt(unit *ConfigurationUnit) error {
	r, ok := t.registry.find(unit.Name())
	if !ok || r.Unit != unit {
		return nil
	}
	for _, u := range t.units {
		if u == unit {
			return nil
		}
	}
	if err := t.enhance(unit); err != nil {
		return err
	}
	t.units = append(t.units, unit)
	t.caches[unit] = newSingletonCache()
	for _, nested := range unit.NestedUnits() {
		if err := t.adopt(nested); err != nil {
			return err
		}
	}
	return nil
}

/**
Listeners from the scan list, inherited by child contexts
*/
func (t *container) userListeners() []Listener {
	var list []Listener
	for _, l := range t.listeners {
		switch l.(type) {
		case *resourceBundleListener, *autoBeanListener, *scopedProxyListener, *aspectListener:
		default:
			list = append(list, l)
		}
	}
	return list
}

/**
Materializes singletons that are not lazy, in registration order
*/
func (t *container) preInstantiate() error {
	for _, name := range t.registry.names() {
		recipe, ok := t.registry.find(name)
		if !ok || !recipe.IsSingleton() || recipe.Lazy || recipe.Delegate != "" {
			continue
		}
		if _, err := t.resolve(context.Background(), name, true); err != nil {
			return err
		}
	}
	return nil
}

func objectName(obj interface{}, i int) string {
	if named, ok := obj.(NamedUnit); ok {
		return named.UnitName()
	}
	typ := reflect.TypeOf(obj)
	if typ.Kind() == reflect.Ptr && typ.Elem().Name() != "" {
		return lowerFirst(typ.Elem().Name())
	}
	return "object#" + strconv.Itoa(i)
}

func unionBasenames(units []*ConfigurationUnit) []string {
	var list []string
	seen := make(map[string]bool)
	for _, unit := range units {
		for _, basename := range unit.ResourceBundleBasenames() {
			if !seen[basename] {
				seen[basename] = true
				list = append(list, basename)
			}
		}
	}
	return list
}

func forEach(initialPos string, scan []interface{}, cb func(i string, obj interface{}) error) error {
	for j, item := range scan {
		var pos string
		if len(initialPos) > 0 {
			pos = fmt.Sprintf("%s.%d", initialPos, j)
		} else {
			pos = strconv.Itoa(j)
		}
		if item == nil {
			continue
		}
		switch obj := item.(type) {
		case Scanner:
			if err := forEach(pos, obj.Units(), cb); err != nil {
				return err
			}
		case []interface{}:
			if err := forEach(pos, obj, cb); err != nil {
				return err
			}
		default:
			if err := cb(pos, obj); err != nil {
				return errors.Errorf("object '%v' error, %v", reflect.TypeOf(item), err)
			}
		}
	}
	return nil
}
