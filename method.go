/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

var (
	errorClass   = reflect.TypeOf((*error)(nil)).Elem()
	contextClass = reflect.TypeOf((*context.Context)(nil)).Elem()
)

/**
Classified method of a configuration unit. Implemented by *BeanMethod, *ExternalBeanMethod,
*AutoBeanMethod, *ExternalValueMethod and *PlainMethod only.
*/

type ModelMethod interface {
	Name() string
	Modifiers() Modifiers
	Markers() []Marker
	ReturnType() reflect.Type
	Role() Role

	/**
	Unit that declares the method, nil until the method is added to one
	*/
	DeclaringUnit() *ConfigurationUnit

	Validate(errors *ValidationErrors) *ValidationErrors
	String() string

	base() *method
}

type method struct {
	name       string
	modifiers  Modifiers
	markers    []Marker
	returnType reflect.Type
	declaring  *ConfigurationUnit

	/**
	Raw body captured before the unit is enhanced
	*/
	body reflect.Value

	/**
	Index path of the func field, empty for methods built by hand
	*/
	field []int
}

func (t *method) base() *method {
	return t
}

func (t *method) Name() string {
	return t.name
}

func (t *method) Modifiers() Modifiers {
	return t.modifiers
}

func (t *method) Markers() []Marker {
	return t.markers
}

func (t *method) ReturnType() reflect.Type {
	return t.returnType
}

func (t *method) DeclaringUnit() *ConfigurationUnit {
	return t.declaring
}

func (t *method) HasBody() bool {
	return t.body.IsValid() && !t.body.IsNil()
}

func (t *method) identity() string {
	if t.declaring != nil {
		return t.declaring.Name() + "." + t.name
	}
	return t.name
}

func (t *method) String() string {
	var markers []string
	for _, m := range t.markers {
		markers = append(markers, "@"+m.Kind().String())
	}
	return fmt.Sprintf("%s %s() %v", strings.Join(markers, " "), t.identity(), t.returnType)
}

func (t *method) validatePrivate(errors *ValidationErrors) {
	if t.modifiers.IsPrivate() {
		errors.Add(MethodMayNotBePrivate, "method %s may not be private", t.identity())
	}
}

func (t *method) validateFinal(errors *ValidationErrors) {
	if t.modifiers.IsFinal() {
		errors.Add(MethodMayNotBeFinal, "method %s may not be final", t.identity())
	}
}

func (t *method) validateVoid(errors *ValidationErrors) {
	if t.returnType == nil {
		errors.Add(MethodMayNotReturnVoid, "method %s may not have void return", t.identity())
	}
}

func (t *method) validateSignature(errors *ValidationErrors) {
	if !t.HasBody() {
		return
	}
	if _, _, ok := bodySignature(t.body.Type()); !ok {
		errors.Add(InvalidMethodSignature, "method %s has signature %v, expected func([context.Context]) (T[, error])", t.identity(), t.body.Type())
	}
}

func (t *method) validateCompatible(errors *ValidationErrors, self MarkerKind, compatible ...MarkerKind) {
	for _, m := range t.markers {
		kind := m.Kind()
		if kind == self {
			continue
		}
		found := false
		for _, c := range compatible {
			if c == kind {
				found = true
				break
			}
		}
		if !found {
			errors.Add(IncompatibleAnnotation, "@%s method %s is not compatible with @%s", self, t.identity(), kind)
		}
	}
}

/**
Checks func([context.Context]) (T[, error]) shape of the body
*/
func bodySignature(fn reflect.Type) (takesContext bool, returnsError bool, ok bool) {
	if fn.Kind() != reflect.Func || fn.IsVariadic() {
		return false, false, false
	}
	switch fn.NumIn() {
	case 0:
	case 1:
		if fn.In(0) != contextClass {
			return false, false, false
		}
		takesContext = true
	default:
		return false, false, false
	}
	switch fn.NumOut() {
	case 1:
		if fn.Out(0) == errorClass {
			return false, false, false
		}
	case 2:
		if fn.Out(1) != errorClass || fn.Out(0) == errorClass {
			return false, false, false
		}
		returnsError = true
	default:
		return false, false, false
	}
	return takesContext, returnsError, true
}

/**
Returns declared return type of the func type or nil for void
*/
func declaredReturnType(fn reflect.Type) reflect.Type {
	if fn.Kind() != reflect.Func || fn.NumOut() == 0 {
		return nil
	}
	if fn.Out(0) == errorClass && fn.NumOut() == 1 {
		return nil
	}
	return fn.Out(0)
}

/**
Factory method, the returned value becomes a managed object.
*/

type BeanMethod struct {
	method
	metadata     Bean
	scopedProxy  *ScopedProxy
	hotSwappable bool
}

/**
Builds bean method, the first Bean marker is the metadata
*/
func NewBeanMethod(name string, modifiers Modifiers, returnType reflect.Type, markers ...Marker) *BeanMethod {
	if !hasMarker(KindBean, markers) {
		markers = append([]Marker{Bean{}}, markers...)
	}
	return NewModelMethod(MethodSpec{Name: name, Modifiers: modifiers, ReturnType: returnType, Markers: markers}).(*BeanMethod)
}

func (t *BeanMethod) Role() Role {
	return RoleBean
}

func (t *BeanMethod) Metadata() Bean {
	return t.metadata
}

func (t *BeanMethod) IsScopedProxy() bool {
	return t.scopedProxy != nil
}

func (t *BeanMethod) ScopedProxyMetadata() (ScopedProxy, bool) {
	if t.scopedProxy == nil {
		return ScopedProxy{}, false
	}
	return *t.scopedProxy, true
}

func (t *BeanMethod) IsHotSwappable() bool {
	return t.hotSwappable
}

/**
Scope declared on the method or inherited from the unit defaults
*/
func (t *BeanMethod) EffectiveScope() string {
	if t.metadata.Scope != "" {
		return t.metadata.Scope
	}
	if t.declaring != nil && t.declaring.defaults.DefaultScope != "" {
		return t.declaring.defaults.DefaultScope
	}
	return ScopeSingleton
}

func (t *BeanMethod) Validate(errors *ValidationErrors) *ValidationErrors {
	t.validatePrivate(errors)
	t.validateFinal(errors)
	t.validateVoid(errors)
	if t.modifiers.IsAbstract() {
		errors.Add(BeanMethodMustDeclareBody, "bean method %s must declare a body", t.identity())
	}
	t.validateSignature(errors)
	t.validateCompatible(errors, KindBean, KindScopedProxy, KindHotSwappable)
	if t.IsScopedProxy() {
		scope := t.EffectiveScope()
		if scope == ScopeSingleton || scope == ScopePrototype {
			errors.Add(InvalidAnnotationDeclaration, "method %s contains an invalid annotation declaration: @ScopedProxy cannot be used on a singleton/prototype bean", t.identity())
		}
	}
	return errors
}

/**
Method resolved from the registry instead of being constructed locally.
*/

type ExternalBeanMethod struct {
	method
	metadata ExternalBean
}

func NewExternalBeanMethod(name string, modifiers Modifiers, returnType reflect.Type, markers ...Marker) *ExternalBeanMethod {
	if !hasMarker(KindExternalBean, markers) {
		markers = append([]Marker{ExternalBean{}}, markers...)
	}
	return NewModelMethod(MethodSpec{Name: name, Modifiers: modifiers, ReturnType: returnType, Markers: markers}).(*ExternalBeanMethod)
}

func (t *ExternalBeanMethod) Role() Role {
	return RoleExternalBean
}

func (t *ExternalBeanMethod) Metadata() ExternalBean {
	return t.metadata
}

func (t *ExternalBeanMethod) Validate(errors *ValidationErrors) *ValidationErrors {
	t.validatePrivate(errors)
	t.validateFinal(errors)
	t.validateVoid(errors)
	t.validateSignature(errors)
	t.validateCompatible(errors, KindExternalBean)
	return errors
}

/**
Method whose return type is instantiated and wired by the container, the body is never executed.
*/

type AutoBeanMethod struct {
	method
	metadata AutoBean
}

func NewAutoBeanMethod(name string, modifiers Modifiers, returnType reflect.Type, markers ...Marker) *AutoBeanMethod {
	if !hasMarker(KindAutoBean, markers) {
		markers = append([]Marker{AutoBean{}}, markers...)
	}
	return NewModelMethod(MethodSpec{Name: name, Modifiers: modifiers, ReturnType: returnType, Markers: markers}).(*AutoBeanMethod)
}

func (t *AutoBeanMethod) Role() Role {
	return RoleAutoBean
}

func (t *AutoBeanMethod) Metadata() AutoBean {
	return t.metadata
}

func (t *AutoBeanMethod) EffectiveAutowire() Autowire {
	if t.metadata.Autowire != AutowireInherited {
		return t.metadata.Autowire
	}
	return AutowireByType
}

func (t *AutoBeanMethod) Validate(errors *ValidationErrors) *ValidationErrors {
	t.validatePrivate(errors)
	t.validateFinal(errors)
	t.validateVoid(errors)
	if t.returnType != nil && !isConcrete(t.returnType) {
		errors.Add(AutoBeanMustBeConcreteType, "method %s returns %v, auto bean must return a pointer to struct", t.identity(), t.returnType)
	}
	t.validateCompatible(errors, KindAutoBean)
	return errors
}

func isConcrete(typ reflect.Type) bool {
	return typ.Kind() == reflect.Ptr && typ.Elem().Kind() == reflect.Struct
}

/**
Method sourcing its value from resource bundles, the body is a fallback when the key is absent.
*/

type ExternalValueMethod struct {
	method
	metadata ExternalValue
}

func NewExternalValueMethod(name string, modifiers Modifiers, returnType reflect.Type, markers ...Marker) *ExternalValueMethod {
	if !hasMarker(KindExternalValue, markers) {
		markers = append([]Marker{ExternalValue{}}, markers...)
	}
	return NewModelMethod(MethodSpec{Name: name, Modifiers: modifiers, ReturnType: returnType, Markers: markers}).(*ExternalValueMethod)
}

func (t *ExternalValueMethod) Role() Role {
	return RoleExternalValue
}

func (t *ExternalValueMethod) Metadata() ExternalValue {
	return t.metadata
}

/**
Key from the marker or the method name without 'Get' prefix in lower camel case
*/
func (t *ExternalValueMethod) Key() string {
	if t.metadata.Key != "" {
		return t.metadata.Key
	}
	name := t.name
	if len(name) > 3 && (strings.HasPrefix(name, "Get") || strings.HasPrefix(name, "get")) && unicode.IsUpper(rune(name[3])) {
		name = name[3:]
	}
	return lowerFirst(name)
}

func (t *ExternalValueMethod) Validate(errors *ValidationErrors) *ValidationErrors {
	t.validatePrivate(errors)
	t.validateFinal(errors)
	t.validateVoid(errors)
	t.validateSignature(errors)
	if t.returnType != nil && !isConvertible(t.returnType) {
		errors.Add(InvalidMethodSignature, "method %s returns %v, external value must be a string, bool, number, duration, time or slice of them", t.identity(), t.returnType)
	}
	t.validateCompatible(errors, KindExternalValue)
	return errors
}

/**
Method without framework markers, kept for completeness of the model.
*/

type PlainMethod struct {
	method
}

func NewPlainMethod(name string, modifiers Modifiers, returnType reflect.Type) *PlainMethod {
	return NewModelMethod(MethodSpec{Name: name, Modifiers: modifiers, ReturnType: returnType}).(*PlainMethod)
}

func (t *PlainMethod) Role() Role {
	return RoleUnrecognized
}

func (t *PlainMethod) Validate(errors *ValidationErrors) *ValidationErrors {
	return errors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
