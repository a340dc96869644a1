/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"errors"
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

type service struct {
	DataSource *dataSource
	Repo       *repository   `inject:""`
	Optional   *pool         `inject:"optional"`
	Named      *dataSource   `inject:"bean=dataSource"`
	All        []*dataSource `inject:""`
	Port       int           `value:"server.port,default=80"`
}

type AutoConfig struct {
	beanconf.Configuration
	Service func() *service `auto:"autowire=byType"`
}

func TestAutoBean(t *testing.T) {

	ctx, err := beanconf.New(newInfra(), newRepo(), &AutoConfig{})
	require.NoError(t, err)
	defer ctx.Close()

	svc, err := beanconf.Get[*service](ctx, "service")
	require.NoError(t, err)

	ds, err := beanconf.Get[*dataSource](ctx, "dataSource")
	require.NoError(t, err)

	require.True(t, svc.DataSource == ds)
	require.True(t, svc.Named == ds)
	require.True(t, svc.Repo.ds == ds)
	require.Nil(t, svc.Optional)
	require.Equal(t, 1, len(svc.All))
	require.Equal(t, 80, svc.Port)

	recipe, ok := ctx.Recipe("service")
	require.True(t, ok)
	require.Equal(t, beanconf.AutowireByType, recipe.Autowire)
	require.True(t, recipe.IsUnitRecipe())
}

type byNameService struct {
	DataSource *dataSource
	Repository *repository
	Missing    *pool
}

type ByNameConfig struct {
	beanconf.Configuration
	Service func() *byNameService `auto:"autowire=byName"`
}

func TestAutoBeanByName(t *testing.T) {

	ctx, err := beanconf.New(newInfra(), newRepo(), &ByNameConfig{})
	require.NoError(t, err)
	defer ctx.Close()

	svc, err := beanconf.Get[*byNameService](ctx, "service")
	require.NoError(t, err)
	require.NotNil(t, svc.DataSource)
	require.NotNil(t, svc.Repository)
	require.Nil(t, svc.Missing)
}

type checkedService struct {
	Pool *pool
}

type CheckedConfig struct {
	beanconf.Configuration `defaults:"dependencyCheck=objects"`
	Service                func() *checkedService `auto:"autowire=byType"`
}

func TestDependencyCheck(t *testing.T) {

	_, err := beanconf.New(&CheckedConfig{})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unsatisfied dependency"), err.Error())
}

type required struct {
	Pool *pool `inject:""`
}

type RequiredConfig struct {
	beanconf.Configuration
	Required func() *required `auto:""`
}

func TestRequiredInjection(t *testing.T) {

	_, err := beanconf.New(&RequiredConfig{})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "can not find candidates"), err.Error())
}

type InterfaceAutoConfig struct {
	beanconf.Configuration
	Greeter func() Greeter `auto:""`
}

func TestAutoBeanInterface(t *testing.T) {

	_, err := beanconf.New(&InterfaceAutoConfig{})
	require.Error(t, err)

	var mce *beanconf.MalformedConfigurationError
	require.True(t, errors.As(err, &mce))
	require.True(t, mce.Contains(beanconf.AutoBeanMustBeConcreteType))
}
