/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"errors"
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestEmptyModel(t *testing.T) {

	model := beanconf.NewConfigurationModel(beanconf.DefaultNamingStrategy)
	err := model.AssertIsValid()
	require.Error(t, err)

	var mce *beanconf.MalformedConfigurationError
	require.True(t, errors.As(err, &mce))
	require.True(t, mce.Contains(beanconf.ModelIsEmpty))
}

func TestModelIllegalOverride(t *testing.T) {

	lib := beanconf.NewConfigurationUnit("lib", beanconf.ModPublic).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))
	app := beanconf.NewConfigurationUnit("app", beanconf.ModPublic).
		AddImportedUnit(lib).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))

	model := beanconf.NewConfigurationModel(beanconf.DefaultNamingStrategy).AddUnit(app)
	errs := model.Validate(beanconf.NewValidationErrors())
	require.Equal(t, 1, errs.Count(beanconf.IllegalBeanOverride), errs.String())

	overridable := beanconf.NewConfigurationUnit("lib", beanconf.ModPublic).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass, beanconf.Bean{AllowOverriding: true}))
	app = beanconf.NewConfigurationUnit("app", beanconf.ModPublic).
		AddImportedUnit(overridable).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))

	model = beanconf.NewConfigurationModel(beanconf.DefaultNamingStrategy).AddUnit(app)
	require.NoError(t, model.AssertIsValid())
}

func TestModelNamingPrefix(t *testing.T) {

	lib := beanconf.NewConfigurationUnit("example.com/lib.Lib", beanconf.ModPublic).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))
	app := beanconf.NewConfigurationUnit("example.com/app.App", beanconf.ModPublic).
		AddImportedUnit(lib).
		AddBeanMethod(beanconf.NewBeanMethod("Foo", beanconf.ModPublic, stringClass))

	// prefixed names do not collide
	naming := beanconf.MethodNamingStrategy{Prefix: beanconf.PrefixType}
	model := beanconf.NewConfigurationModel(naming).AddUnit(app)
	require.NoError(t, model.AssertIsValid())

	require.Equal(t, "App.foo", naming.BeanName(app.BeanMethods()[0]))
	require.Equal(t, "example.com/lib.Lib.foo", beanconf.MethodNamingStrategy{Prefix: beanconf.PrefixFullyQualified}.BeanName(lib.BeanMethods()[0]))
	require.Equal(t, "foo", beanconf.DefaultNamingStrategy.BeanName(lib.BeanMethods()[0]))
}

func TestImportCycle(t *testing.T) {

	a := withBean("a")
	b := withBean("b")
	c := withBean("c")
	a.AddImportedUnit(b)
	b.AddImportedUnit(c)
	c.AddImportedUnit(a)

	_, err := beanconf.NewImportResolver().Resolve(a)
	require.Error(t, err)
	require.True(t, errors.Is(err, beanconf.ErrCyclicImport))
	require.Equal(t, "cyclic import a->b->c->a", err.Error())

	var ice *beanconf.ImportCycleError
	require.True(t, errors.As(err, &ice))
	require.Equal(t, []string{"a", "b", "c", "a"}, ice.Path)
}

func TestDiamondImport(t *testing.T) {

	base := withBean("base")
	left := withBean("left").AddImportedUnit(base)
	right := withBean("right").AddImportedUnit(base)
	top := withBean("top").AddImportedUnit(left).AddImportedUnit(right)

	list, err := beanconf.NewImportResolver().Resolve(top)
	require.NoError(t, err)
	require.Equal(t, []string{"base", "left", "base", "right", "top"}, names(list))

	model := beanconf.NewConfigurationModel(beanconf.DefaultNamingStrategy).AddUnit(top)
	require.NoError(t, model.AssertIsValid())
}

func TestResolveAspects(t *testing.T) {

	logging := withBean("logging")
	tracing := withBean("tracing")
	logging.AddImportedAspect(tracing)
	app := withBean("app").AddImportedAspect(logging)

	list, err := beanconf.NewImportResolver().ResolveAspects([]*beanconf.ConfigurationUnit{app})
	require.NoError(t, err)
	require.Equal(t, []string{"logging", "tracing"}, names(list))
	require.True(t, logging.IsAspect())
	require.True(t, tracing.IsAspect())
	require.False(t, app.IsAspect())
}
