/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

/**
Fatal build and resolution errors, raised at the first occurrence.
Callers match them with errors.Is.
*/

var (
	ErrFinalUnit            = errors.New("configuration unit may not be final")
	ErrIllegalOverride      = errors.New("illegal attempt to override recipe")
	ErrCannotProxyFinal     = errors.New("cannot proxy a final type")
	ErrAutoBeanInterface    = errors.New("auto bean must return a concrete type")
	ErrAmbiguousConstructor = errors.New("no unambiguous constructor")
	ErrCyclicImport         = errors.New("cyclic import")
	ErrCycleDependency      = errors.New("detected cycle dependency")
	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrValueNotFound        = errors.New("value not found")
	ErrNoResourceBundles    = errors.New("no resource bundles registered")
	ErrNotHotSwappable      = errors.New("recipe is not hot swappable")
	ErrUnknownScope         = errors.New("unknown scope")
	ErrClosed               = errors.New("context is closed")
)

type ValidationErrorKind int

const (
	ModelIsEmpty ValidationErrorKind = iota
	ConfigurationMustBeNonFinal
	ConfigurationMustDeclareAtLeastOneBean
	AbstractConfigurationMustDeclareAtLeastOneExternalBeanExternalValueOrAutoBean
	IllegalBeanOverride
	IncompatibleAnnotation
	InvalidAnnotationDeclaration
	AutoBeanMustBeConcreteType
	MethodMayNotBePrivate
	MethodMayNotBeFinal
	MethodMayNotReturnVoid
	BeanMethodMustDeclareBody
	InvalidMethodSignature
	ResourceBundleRequired
)

func (k ValidationErrorKind) String() string {
	switch k {
	case ModelIsEmpty:
		return "MODEL_IS_EMPTY"
	case ConfigurationMustBeNonFinal:
		return "CONFIGURATION_MUST_BE_NON_FINAL"
	case ConfigurationMustDeclareAtLeastOneBean:
		return "CONFIGURATION_MUST_DECLARE_AT_LEAST_ONE_BEAN"
	case AbstractConfigurationMustDeclareAtLeastOneExternalBeanExternalValueOrAutoBean:
		return "ABSTRACT_CONFIGURATION_MUST_DECLARE_AT_LEAST_ONE_EXTERNALBEAN_EXTERNALVALUE_OR_AUTOBEAN"
	case IllegalBeanOverride:
		return "ILLEGAL_BEAN_OVERRIDE"
	case IncompatibleAnnotation:
		return "INCOMPATIBLE_ANNOTATION"
	case InvalidAnnotationDeclaration:
		return "INVALID_ANNOTATION_DECLARATION"
	case AutoBeanMustBeConcreteType:
		return "AUTOBEAN_MUST_BE_CONCRETE_TYPE"
	case MethodMayNotBePrivate:
		return "METHOD_MAY_NOT_BE_PRIVATE"
	case MethodMayNotBeFinal:
		return "METHOD_MAY_NOT_BE_FINAL"
	case MethodMayNotReturnVoid:
		return "METHOD_MAY_NOT_RETURN_VOID"
	case BeanMethodMustDeclareBody:
		return "BEAN_METHOD_MUST_DECLARE_BODY"
	case InvalidMethodSignature:
		return "INVALID_METHOD_SIGNATURE"
	case ResourceBundleRequired:
		return "RESOURCE_BUNDLE_REQUIRED"
	default:
		return "UNKNOWN_VALIDATION_ERROR"
	}
}

/**
Single structural defect with the identity of the unit or method it was found on.
*/

type ValidationError struct {
	Kind    ValidationErrorKind
	Context string
}

func (t ValidationError) Error() string {
	if t.Context == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s: %s", t.Kind, t.Context)
}

/**
Accumulating sink of validation errors. Never fails, only records.
*/

type ValidationErrors struct {
	list []ValidationError
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

func (t *ValidationErrors) Add(kind ValidationErrorKind, format string, args ...interface{}) *ValidationErrors {
	t.list = append(t.list, ValidationError{Kind: kind, Context: fmt.Sprintf(format, args...)})
	return t
}

func (t *ValidationErrors) Len() int {
	return len(t.list)
}

func (t *ValidationErrors) Get(i int) ValidationError {
	return t.list[i]
}

func (t *ValidationErrors) Entries() []ValidationError {
	out := make([]ValidationError, len(t.list))
	copy(out, t.list)
	return out
}

func (t *ValidationErrors) Contains(kind ValidationErrorKind) bool {
	return t.Count(kind) > 0
}

func (t *ValidationErrors) Count(kind ValidationErrorKind) int {
	n := 0
	for _, e := range t.list {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

/**
Returns nil on empty collector or the terminal malformed configuration error
*/
func (t *ValidationErrors) Err() error {
	if len(t.list) == 0 {
		return nil
	}
	return &MalformedConfigurationError{Errors: t.Entries()}
}

func (t *ValidationErrors) String() string {
	var out strings.Builder
	out.WriteByte('[')
	for i, e := range t.list {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(e.Error())
	}
	out.WriteByte(']')
	return out.String()
}

/**
Terminal error of a validation pass, aggregates every collected entry.
*/

type MalformedConfigurationError struct {
	Errors []ValidationError
}

func (t *MalformedConfigurationError) Error() string {
	var out strings.Builder
	fmt.Fprintf(&out, "malformed configuration, %d error(s):", len(t.Errors))
	for _, e := range t.Errors {
		out.WriteString("\n\t")
		out.WriteString(e.Error())
	}
	return out.String()
}

func (t *MalformedConfigurationError) Contains(kind ValidationErrorKind) bool {
	for _, e := range t.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

/**
Collected entries of fatal kinds match the fatal errors, so callers of New test them with errors.Is
*/
func (t *MalformedConfigurationError) Is(target error) bool {
	switch target {
	case ErrIllegalOverride:
		return t.Contains(IllegalBeanOverride)
	case ErrFinalUnit:
		return t.Contains(ConfigurationMustBeNonFinal)
	case ErrAutoBeanInterface:
		return t.Contains(AutoBeanMustBeConcreteType)
	default:
		return false
	}
}

func multipleErr(err []error) error {
	switch len(err) {
	case 0:
		return nil
	case 1:
		return err[0]
	default:
		return errors.Errorf("multiple errors, %v", err)
	}
}
