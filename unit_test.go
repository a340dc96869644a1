/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"testing"
)

func names(units []*beanconf.ConfigurationUnit) []string {
	var list []string
	for _, u := range units {
		list = append(list, u.Name())
	}
	return list
}

func withBean(name string) *beanconf.ConfigurationUnit {
	return beanconf.NewConfigurationUnit(name, beanconf.ModPublic).
		AddBeanMethod(beanconf.NewBeanMethod(name+"Bean", beanconf.ModPublic, stringClass))
}

func TestSelfAndAllImports(t *testing.T) {

	b := withBean("B")
	a := withBean("A").AddImportedUnit(b)
	z := withBean("Z")
	y := withBean("Y").AddImportedUnit(z)
	m := withBean("M").AddImportedUnit(a).AddImportedUnit(y)

	require.Equal(t, []string{"B", "A", "Z", "Y", "M"}, names(m.GetSelfAndAllImports()))

	list, err := beanconf.NewImportResolver().Resolve(m)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A", "Z", "Y", "M"}, names(list))
}

func TestValidationCompleteness(t *testing.T) {

	unit := beanconf.NewConfigurationUnit("app", beanconf.ModPublic|beanconf.ModFinal).
		AddBeanMethod(beanconf.NewBeanMethod("secret", beanconf.ModPrivate, stringClass)).
		AddConstructor(beanconf.NewConstructor(beanconf.Param{
			Name:    "url",
			Type:    stringClass,
			Markers: []beanconf.Marker{beanconf.ExternalValue{Key: "db.url"}},
		}))

	errs := unit.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 3, errs.Len(), errs.String())
	require.True(t, errs.Contains(beanconf.ConfigurationMustBeNonFinal))
	require.True(t, errs.Contains(beanconf.MethodMayNotBePrivate))
	require.True(t, errs.Contains(beanconf.ResourceBundleRequired))

	err := errs.Err()
	require.Error(t, err)
	mce, ok := err.(*beanconf.MalformedConfigurationError)
	require.True(t, ok)
	require.Len(t, mce.Errors, 3)
	require.Contains(t, err.Error(), "METHOD_MAY_NOT_BE_PRIVATE")
}

func TestAbstractUnitRule(t *testing.T) {

	valid := beanconf.NewConfigurationUnit("repo", beanconf.ModPublic|beanconf.ModAbstract).
		AddExternalBeanMethod(beanconf.NewExternalBeanMethod("DataSource", beanconf.ModPublic|beanconf.ModAbstract, stringClass))

	errs := valid.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 0, errs.Len(), errs.String())
	require.NoError(t, errs.Err())

	invalid := beanconf.NewConfigurationUnit("repo", beanconf.ModPublic|beanconf.ModAbstract).
		AddExternalBeanMethod(beanconf.NewExternalBeanMethod("dataSource", beanconf.ModPrivate|beanconf.ModAbstract, stringClass))

	errs = invalid.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 2, errs.Len(), errs.String())
	require.True(t, errs.Contains(beanconf.MethodMayNotBePrivate))
	require.True(t, errs.Contains(beanconf.AbstractConfigurationMustDeclareAtLeastOneExternalBeanExternalValueOrAutoBean))
}

func TestConcreteUnitNeedsBean(t *testing.T) {

	empty := beanconf.NewConfigurationUnit("empty", beanconf.ModPublic)
	errs := empty.Validate(beanconf.NewValidationErrors())
	require.True(t, errs.Contains(beanconf.ConfigurationMustDeclareAtLeastOneBean))

	importer := beanconf.NewConfigurationUnit("importer", beanconf.ModPublic).AddImportedUnit(withBean("lib"))
	errs = importer.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 0, errs.Len(), errs.String())
}

func TestValidationCascade(t *testing.T) {

	broken := beanconf.NewConfigurationUnit("broken", beanconf.ModPublic|beanconf.ModFinal).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))
	nested := beanconf.NewConfigurationUnit("nested", beanconf.ModPublic)

	root := withBean("root").AddImportedUnit(broken).AddNestedUnit(nested)

	errs := root.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 2, errs.Len(), errs.String())
	require.True(t, errs.Contains(beanconf.ConfigurationMustBeNonFinal))
	require.True(t, errs.Contains(beanconf.ConfigurationMustDeclareAtLeastOneBean))

	require.Equal(t, root, nested.DeclaringUnit())
	require.True(t, nested.Modifiers().IsStatic())
}

func TestResourceBundleBasenames(t *testing.T) {

	outer := withBean("outer").AddResourceBundleBasenames("app")
	inner := withBean("inner").AddResourceBundleBasenames("db", "cache")
	outer.AddNestedUnit(inner)

	require.Equal(t, []string{"db", "cache"}, inner.DeclaredResourceBundleBasenames())
	require.Equal(t, []string{"app", "db", "cache"}, inner.ResourceBundleBasenames())
}

func TestMethodSetsAndReplace(t *testing.T) {

	unit := beanconf.NewConfigurationUnit("app", beanconf.ModPublic)
	first := beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass)
	second := beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass, beanconf.Bean{AllowOverriding: true})

	unit.AddMethod(first).
		AddMethod(second).
		AddMethod(beanconf.NewExternalBeanMethod("Bar", beanconf.ModPublic, stringClass)).
		AddMethod(beanconf.NewPlainMethod("Helper", beanconf.ModPublic, nil))

	require.Len(t, unit.BeanMethods(), 1)
	require.True(t, unit.BeanMethods()[0] == second)
	require.Len(t, unit.FinalBeanMethods(), 0)
	require.True(t, unit.ContainsBeanMethod("Foo"))
	require.Len(t, unit.ExternalBeanMethods(), 1)
	require.Len(t, unit.PlainMethods(), 1)
	require.Len(t, unit.Methods(), 3)
	require.Equal(t, unit, second.DeclaringUnit())
}

func TestFrozenUnit(t *testing.T) {

	unit := withBean("app")
	unit.Freeze()
	require.True(t, unit.IsFrozen())

	require.Panics(t, func() {
		unit.AddResourceBundleBasenames("app")
	})
}
