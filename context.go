/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

var DefaultCloseTimeout = time.Minute

type container struct {

	/**
	Parent context if exist
	*/
	parent *container

	/**
	Build pass id, shows up in logs
	*/
	id uuid.UUID

	/**
	Fast search of recipes by name and alias
	*/
	registry registry

	/**
	Units registered in this context in generation order
	*/
	units []*ConfigurationUnit

	naming    NamingStrategy
	listeners []Listener
	values    ValueSource

	/**
	Basenames of all local units, used for objects that do not belong to a unit
	*/
	basenames []string

	/**
	Singletons per producing unit, the nil key holds external ones
	*/
	caches map[*ConfigurationUnit]*singletonCache

	scopesMu sync.RWMutex
	scopes   map[string]Scope

	/**
	List of singletons in creation order that should be destroyed on close
	*/
	disposablesMu sync.Mutex
	disposables   []*disposable

	/**
	Cache wiring descriptions of produced types
	*/
	wiringCache sync.Map // key is reflect.Type (classPtr), value is *wiringDef

	/**
	Resources released on close, like bundle watchers
	*/
	closers []func() error

	closed    int32
	closeOnce sync.Once
}

type disposable struct {
	recipe *Recipe
	obj    interface{}
}

func newContainer(parent *container) *container {
	return &container{
		parent:   parent,
		id:       uuid.New(),
		registry: newRegistry(),
		naming:   DefaultNamingStrategy,
		caches:   map[*ConfigurationUnit]*singletonCache{nil: newSingletonCache()},
		scopes:   make(map[string]Scope),
	}
}

func (t *container) Parent() (Context, bool) {
	if t.parent != nil {
		return t.parent, true
	} else {
		return nil, false
	}
}

func (t *container) Extend(scan ...interface{}) (Context, error) {
	ctx, err := createContext(t, scan)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func (t *container) RegisterRecipe(name string, recipe *Recipe) error {
	if name == "" {
		return errors.Errorf("empty name of recipe %v", recipe)
	}
	if recipe.Factory == nil && recipe.Delegate == "" {
		return errors.Errorf("recipe '%s' has neither factory nor delegate", name)
	}
	if prev, ok := t.registry.find(name); ok && !prev.AllowOverriding {
		return errors.Wrapf(ErrIllegalOverride, "recipe '%s' already defined by %v", name, prev)
	}
	recipe.Name = name
	if recipe.Scope == "" {
		recipe.Scope = ScopeSingleton
	}
	if prev, replaced := t.registry.put(name, recipe); replaced {
		if verbose != nil {
			verbose.Printf("Recipe '%s' replaced %v\n", name, prev)
		}
	} else if verbose != nil {
		verbose.Printf("Recipe '%s' %v\n", name, recipe)
	}
	return nil
}

func (t *container) ContainsRecipe(name string) bool {
	_, _, ok := t.lookupRecipe(name)
	return ok
}

func (t *container) Recipe(name string) (*Recipe, bool) {
	r, _, ok := t.lookupRecipe(name)
	return r, ok
}

func (t *container) RegisterAlias(name, alias string) error {
	if _, ok := t.registry.find(name); !ok {
		return errors.Wrapf(ErrRecipeNotFound, "alias '%s' of '%s'", alias, name)
	}
	return t.registry.alias(t.registry.canonical(name), alias)
}

func (t *container) GetObject(name string) (interface{}, error) {
	return t.resolve(context.Background(), name, false)
}

func (t *container) GetObjectContext(ctx context.Context, name string) (interface{}, error) {
	return t.resolve(ctx, name, false)
}

/**
Finds the recipe in this context or the closest parent
*/
func (t *container) lookupRecipe(name string) (*Recipe, *container, bool) {
	for c := t; c != nil; c = c.parent {
		if r, ok := c.registry.find(name); ok {
			return r, c, true
		}
	}
	return nil, nil, false
}

/**
Materializes the recipe. Internal calls come from unit wrappers and may see hidden recipes.
*/
func (t *container) resolve(ctx context.Context, name string, internal bool) (interface{}, error) {

	if atomic.LoadInt32(&t.closed) == 1 {
		return nil, errors.Wrapf(ErrClosed, "resolve '%s'", name)
	}

	recipe, owner, ok := t.lookupRecipe(name)
	if !ok {
		return nil, errors.Wrapf(ErrRecipeNotFound, "'%s'", name)
	}
	if recipe.Hidden && !internal {
		return nil, errors.Wrapf(ErrRecipeNotFound, "'%s' is hidden", name)
	}
	if owner != t {
		return owner.resolve(ctx, recipe.Name, internal)
	}
	name = recipe.Name

	stack := resolutionFrom(ctx)
	if stack.contains(t, name) {
		return nil, &CycleError{Path: stack.cycle(t, name)}
	}

	if len(recipe.DependsOn) > 0 {
		depCtx := withResolution(ctx, stack.push(t, name))
		for _, dep := range recipe.DependsOn {
			if _, err := t.resolve(depCtx, dep, true); err != nil {
				return nil, errors.Wrapf(err, "depends-on '%s' of '%s'", dep, name)
			}
		}
	}

	if recipe.Delegate != "" {
		return t.resolve(withResolution(ctx, stack.push(t, name)), recipe.Delegate, true)
	}

	switch {
	case recipe.IsSingleton():
		return t.singleton(ctx, recipe)
	case recipe.IsPrototype():
		obj, err := t.create(ctx, recipe)
		if err == nil {
			recipe.setState(RecipeTransient)
		}
		return obj, err
	default:
		scope, ok := t.scope(recipe.Scope)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownScope, "'%s' of recipe '%s'", recipe.Scope, name)
		}
		obj, err := scope.Get(name, func() (interface{}, error) {
			return t.create(ctx, recipe)
		})
		if err == nil {
			recipe.setState(RecipeTransient)
		}
		return obj, err
	}
}

func (t *container) singleton(ctx context.Context, recipe *Recipe) (interface{}, error) {
	cache := t.cacheFor(recipe)
	if obj, ok := cache.get(recipe.Name); ok {
		return obj, nil
	}
	// the flight waits for the goroutine that creates the singleton, two goroutines that create
	// singletons needing each other wait forever, stacks of different goroutines are not joined
	obj, err, _ := cache.flight.Do(recipe.Name, func() (interface{}, error) {
		if obj, ok := cache.get(recipe.Name); ok {
			return obj, nil
		}
		obj, err := t.create(ctx, recipe)
		if err != nil {
			return nil, err
		}
		cache.put(recipe.Name, obj)
		t.addDisposable(recipe, obj)
		recipe.setState(RecipeCached)
		return obj, nil
	})
	return obj, err
}

func (t *container) cacheFor(recipe *Recipe) *singletonCache {
	if recipe.IsUnitRecipe() {
		if cache, ok := t.caches[recipe.Unit]; ok {
			return cache
		}
	}
	return t.caches[nil]
}

/**
Creates the object: factory, wiring, init callback and listeners, in that order
*/
func (t *container) create(ctx context.Context, recipe *Recipe) (obj interface{}, err error) {

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "construct recipe '%s' with type '%v' recovered", recipe.Name, recipe.Type)
			} else {
				err = errors.Errorf("construct recipe '%s' with type '%v' recovered with error %v", recipe.Name, recipe.Type, r)
			}
		}
		if err != nil {
			recipe.setState(RecipeUnresolved)
		}
	}()

	stack := resolutionFrom(ctx).push(t, recipe.Name)
	ctx = withResolution(ctx, stack)
	restore := bindResolution(stack)
	defer restore()

	if verbose != nil {
		verbose.Printf("%sConstruct Recipe '%s' with type '%v', scope=%s\n", indent(stack.depth()-1), recipe.Name, recipe.Type, recipe.Scope)
	}

	recipe.setState(RecipeResolving)
	obj, err = recipe.Factory(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "recipe '%s'", recipe.Name)
	}
	recipe.setState(RecipeRaw)
	if obj == nil {
		return nil, nil
	}

	// unit instances are left as is
	if recipe.Unit == nil || recipe.Method != nil {
		fillStubs(obj, recipe.Name)
	}

	if err = t.wire(ctx, obj, recipe); err != nil {
		return nil, err
	}

	if err = initialize(obj, recipe); err != nil {
		return nil, errors.Wrapf(err, "init of recipe '%s'", recipe.Name)
	}

	proxy := newProxyBuilder(recipe.Type, obj)
	for _, l := range t.listeners {
		if recipe.Unit != nil && !l.Understands(recipe.Unit) {
			continue
		}
		if _, err = l.OnReturnValueProduced(t, recipe, proxy); err != nil {
			return nil, err
		}
	}
	if proxy.IsWrapped() {
		recipe.setState(RecipeWrapped)
		if verbose != nil {
			verbose.Printf("%sWrapped Recipe '%s' by %T\n", indent(stack.depth()-1), recipe.Name, proxy.Target())
		}
	}
	return proxy.Target(), nil
}

func initialize(obj interface{}, recipe *Recipe) error {
	if recipe.InitMethodName != "" {
		return callLifecycleMethod(obj, recipe.InitMethodName)
	}
	if init, ok := obj.(InitializingBean); ok {
		return init.PostConstruct()
	}
	return nil
}

/**
Calls method of the object without arguments, it may return an error
*/
func callLifecycleMethod(obj interface{}, name string) error {
	m := reflect.ValueOf(obj).MethodByName(name)
	if !m.IsValid() {
		return errors.Errorf("object %T has no method '%s'", obj, name)
	}
	typ := m.Type()
	if typ.NumIn() != 0 || typ.NumOut() > 1 || (typ.NumOut() == 1 && typ.Out(0) != errorClass) {
		return errors.Errorf("method '%s' of %T must be func() or func() error", name, obj)
	}
	out := m.Call(nil)
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

func (t *container) addDisposable(recipe *Recipe, obj interface{}) {
	if _, ok := obj.(DisposableBean); ok || recipe.DestroyMethodName != "" {
		t.disposablesMu.Lock()
		t.disposables = append(t.disposables, &disposable{recipe: recipe, obj: obj})
		t.disposablesMu.Unlock()
	}
}

func (t *container) basenamesOf(recipe *Recipe) []string {
	if recipe.Unit != nil {
		return recipe.Unit.ResourceBundleBasenames()
	}
	return t.basenames
}

/**
Visible recipes assignable to the type, the closest context that has any wins
*/
func (t *container) candidates(typ reflect.Type) []*Recipe {
	for c := t; c != nil; c = c.parent {
		if list := c.registry.byType(typ); len(list) > 0 {
			return list
		}
	}
	return nil
}

func (t *container) Lookup(typ reflect.Type) ([]interface{}, error) {
	var list []interface{}
	for c := t; c != nil; c = c.parent {
		for _, r := range c.registry.byType(typ) {
			obj, err := c.resolve(context.Background(), r.Name, false)
			if err != nil {
				return nil, err
			}
			list = append(list, obj)
		}
	}
	return list, nil
}

func (t *container) RecipeNames() []string {
	var list []string
	for _, name := range t.registry.names() {
		if r, ok := t.registry.find(name); ok && !r.Hidden {
			list = append(list, name)
		}
	}
	return list
}

func (t *container) Units() []*ConfigurationUnit {
	return t.units
}

func (t *container) Values() ValueSource {
	return t.values
}

func (t *container) Lifecycle(name string) (RecipeState, bool) {
	r, ok := t.Recipe(name)
	if !ok {
		return RecipeUnresolved, false
	}
	return r.State(), true
}

func (t *container) HotSwap(name string, obj interface{}) error {
	recipe, ok := t.registry.find(name)
	if !ok {
		return errors.Wrapf(ErrRecipeNotFound, "hot swap '%s'", name)
	}
	if !recipe.HotSwappable || !recipe.IsSingleton() {
		return errors.Wrapf(ErrNotHotSwappable, "'%s'", name)
	}
	if obj == nil || (recipe.Type != nil && !assignable(reflect.TypeOf(obj), recipe.Type)) {
		return errors.Errorf("object %T is not assignable to '%v' of recipe '%s'", obj, recipe.Type, name)
	}
	prev, existed := t.cacheFor(recipe).put(recipe.Name, obj)

	var err error
	t.disposablesMu.Lock()
	for _, d := range t.disposables {
		if d.recipe == recipe {
			d.obj = obj
		}
	}
	t.disposablesMu.Unlock()
	if existed {
		err = destroy(recipe, prev)
	} else {
		t.addDisposable(recipe, obj)
	}
	recipe.setState(RecipeCached)
	if verbose != nil {
		verbose.Printf("Hot swap of '%s' to %T\n", name, obj)
	}
	return err
}

func (t *container) RegisterScope(name string, scope Scope) error {
	if name == ScopeSingleton || name == ScopePrototype {
		return errors.Errorf("scope name '%s' is reserved", name)
	}
	t.scopesMu.Lock()
	defer t.scopesMu.Unlock()
	t.scopes[name] = scope
	return nil
}

func (t *container) scope(name string) (Scope, bool) {
	for c := t; c != nil; c = c.parent {
		c.scopesMu.RLock()
		s, ok := c.scopes[name]
		c.scopesMu.RUnlock()
		if ok {
			return s, true
		}
	}
	return nil, false
}

func (t *container) closeWithTimeout(timeout time.Duration) {
	ch := make(chan error)
	go func() {
		ch <- t.Close()
		close(ch)
	}()
	select {
	case e := <-ch:
		if e != nil && verbose != nil {
			verbose.Printf("Close context error, %v\n", e)
		}
	case <-time.After(timeout):
		if verbose != nil {
			verbose.Printf("Close context timeout error.\n")
		}
	}
}

// destroy in reverse creation order
func (t *container) Close() (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("context close recover error: %v", r)
		}
	}()

	var listErr []error
	t.closeOnce.Do(func() {

		atomic.StoreInt32(&t.closed, 1)

		t.disposablesMu.Lock()
		list := t.disposables
		t.disposables = nil
		t.disposablesMu.Unlock()

		n := len(list)
		for j := n - 1; j >= 0; j-- {
			if err := destroy(list[j].recipe, list[j].obj); err != nil {
				listErr = append(listErr, err)
			}
		}

		for _, closer := range t.closers {
			if err := closer(); err != nil {
				listErr = append(listErr, err)
			}
		}

		for _, unit := range t.units {
			t.release(unit)
		}
	})

	return multipleErr(listErr)
}

func destroy(recipe *Recipe, obj interface{}) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("destroy recipe '%s' with type '%v' recovered with error: %v", recipe.Name, recipe.Type, r)
		}
	}()

	if verbose != nil {
		verbose.Printf("Destroy recipe '%s' with type '%v'\n", recipe.Name, recipe.Type)
	}
	if recipe.DestroyMethodName != "" {
		err = callLifecycleMethod(obj, recipe.DestroyMethodName)
	} else if dis, ok := obj.(DisposableBean); ok {
		err = dis.Destroy()
	}
	if err == nil {
		recipe.setState(RecipeDestroyed)
	}
	return
}

func indent(n int) string {
	if n <= 0 {
		return ""
	}
	var out []byte
	for i := 0; i < n; i++ {
		out = append(out, ' ', ' ')
	}
	return string(out)
}

func (t *container) String() string {
	return fmt.Sprintf("Context [id=%s, hasParent=%v, units=%d, recipes=%d, destructors=%d]", t.id, t.parent != nil, len(t.units), len(t.registry.names()), len(t.disposables))
}
