/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"github.com/pkg/errors"
	"log"
	"net/http"
	"reflect"
)

/**
Registry of recipes, the narrow surface the generator and listeners work with.
*/

type Registry interface {

	/**
	Registers the recipe under the name. Replacing a recipe that does not allow overriding fails with ErrIllegalOverride.
	*/
	RegisterRecipe(name string, recipe *Recipe) error

	/**
	Checks the recipe name or alias in this registry and its parents
	*/
	ContainsRecipe(name string) bool

	/**
	Returns the recipe by name or alias from this registry or its parents
	*/
	Recipe(name string) (*Recipe, bool)

	/**
	Materializes the object of the visible recipe
	*/
	GetObject(name string) (interface{}, error)

	/**
	Adds alternative name of the recipe
	*/
	RegisterAlias(name, alias string) error
}

var ContextClass = reflect.TypeOf((*Context)(nil)).Elem()

type Context interface {
	Registry

	/**
	Gets parent context if exist
	*/
	Parent() (Context, bool)

	/**
	New child context with additional units and objects based on current one
	*/
	Extend(scan ...interface{}) (Context, error)

	/**
	Same as GetObject, the context carries deadlines and the resolution stack
	*/
	GetObjectContext(ctx context.Context, name string) (interface{}, error)

	/**
	Materializes all visible recipes, which products are assignable to the type.
	Recipes of parent contexts are included after the local ones.
	*/
	Lookup(typ reflect.Type) ([]interface{}, error)

	/**
	Local recipe names in registration order, hidden recipes are not listed
	*/
	RecipeNames() []string

	/**
	Configuration units registered in this context
	*/
	Units() []*ConfigurationUnit

	/**
	Value source of external values
	*/
	Values() ValueSource

	/**
	Current lifecycle state of the recipe
	*/
	Lifecycle(name string) (RecipeState, bool)

	/**
	Replaces the object of the hot swappable singleton, the previous one is destroyed
	*/
	HotSwap(name string, obj interface{}) error

	/**
	Registers custom scope
	*/
	RegisterScope(name string, scope Scope) error

	/**
	Destroy all singletons that have destroy callbacks in reverse order of creation.
	*/
	Close() error

	/**
	Returns information about context
	*/
	String() string
}

/**
Resolves the object and casts it to the type parameter.
*/
func Get[T any](ctx Context, name string) (T, error) {
	var zero T
	obj, err := ctx.GetObject(name)
	if err != nil {
		return zero, err
	}
	if v, ok := obj.(T); ok {
		return v, nil
	}
	return zero, errors.Errorf("recipe '%s' produced %T, not %v", name, obj, reflect.TypeOf((*T)(nil)).Elem())
}

/**
Listener takes part in recipe generation and post-processes produced objects.
*/

type Listener interface {

	/**
	Returns true if the listener handles the unit
	*/
	Understands(unit *ConfigurationUnit) bool

	/**
	Called once per unit before its methods, returns number of registered recipes
	*/
	OnConfigurationUnit(registry Registry, unit *ConfigurationUnit) (int, error)

	/**
	Called for every method that is not a bean method
	*/
	OnOtherMethod(registry Registry, unit *ConfigurationUnit, method ModelMethod) (int, error)

	/**
	Called after the recipe of the bean method was registered
	*/
	OnFactoryMethodRecipe(registry Registry, recipe *Recipe, unit *ConfigurationUnit, method *BeanMethod) (int, error)

	/**
	Called when the object was produced and wired, the proxy builder may wrap it
	*/
	OnReturnValueProduced(registry Registry, recipe *Recipe, proxy *ProxyBuilder) (bool, error)
}

/**
No-op listener, embed it to implement only the needed callbacks
*/

type ListenerSupport struct {
}

func (ListenerSupport) Understands(unit *ConfigurationUnit) bool {
	return true
}

func (ListenerSupport) OnConfigurationUnit(registry Registry, unit *ConfigurationUnit) (int, error) {
	return 0, nil
}

func (ListenerSupport) OnOtherMethod(registry Registry, unit *ConfigurationUnit, method ModelMethod) (int, error) {
	return 0, nil
}

func (ListenerSupport) OnFactoryMethodRecipe(registry Registry, recipe *Recipe, unit *ConfigurationUnit, method *BeanMethod) (int, error) {
	return 0, nil
}

func (ListenerSupport) OnReturnValueProduced(registry Registry, recipe *Recipe, proxy *ProxyBuilder) (bool, error) {
	return false, nil
}

/**
Custom scope of recipes, like request or conversation.
*/

type Scope interface {

	/**
	Returns the object of the scope, creates it by factory if absent
	*/
	Get(name string, factory func() (interface{}, error)) (interface{}, error)

	/**
	Removes the object from the scope
	*/
	Remove(name string) (interface{}, bool)
}

/**
Use this item in scan list to register custom scope
*/

type ScopeBinding struct {
	Name  string
	Scope Scope
}

/**
This interface used to provide pre-scanned items in beanconf.New method
*/

type Scanner interface {

	/**
	Returns pre-scanned items
	*/
	Units() []interface{}
}

/**
Initializing bean is using to run required method on post-construct injection stage
*/

var InitializingBeanClass = reflect.TypeOf((*InitializingBean)(nil)).Elem()

type InitializingBean interface {

	/**
	Runs this method automatically after wiring of produced object
	*/

	PostConstruct() error
}

/**
This interface uses to select singletons that could free resources after closing context
*/

var DisposableBeanClass = reflect.TypeOf((*DisposableBean)(nil)).Elem()

type DisposableBean interface {

	/**
	During close context would be called for each singleton.
	*/

	Destroy() error
}

/**
Value source resolves keys of external values in resource bundles.
*/

type ValueSource interface {

	/**
	Returns raw value of the key, later basenames take precedence.
	Fails with ErrNoResourceBundles on empty basenames and with ErrValueNotFound if no bundle has the key.
	*/
	Resolve(basenames []string, key string) (string, error)
}

/**
Property Resolver overrides values of resource bundles, like environment or command line.
*/

type PropertyResolver interface {

	/**
	Priority in property resolving, the higher priority look first.
	*/
	Priority() int

	/**
	Resolves the property
	*/
	GetProperty(key string) (value string, ok bool)
}

/**
Bundle source is a file system of resource bundles, the working directory by default.

Basename 'app' looks for 'app.properties', 'app.yaml', 'app.yml' and 'app.toml'.
*/

type BundleSource struct {
	Files http.FileSystem
}

/**
Use this item in scan list to operate verbose level during context creation.
Best way is to use it first in context creation scan list.
*/

type Verbose struct {

	/**
	Use this logger to verbose
	*/
	Log *log.Logger
}
