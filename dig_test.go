/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"errors"
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
	"testing"
)

type exportedBeans struct {
	dig.In

	DataSource *dataSource `name:"dataSource"`
	Repository *repository `name:"repository"`
}

type swapBean struct {
	dig.In

	Swap *nodeB `name:"swap"`
}

type secretBean struct {
	dig.In

	Secret *nodeB `name:"secret"`
}

func TestExportToDig(t *testing.T) {

	ctx, err := beanconf.New(newInfra(), newRepo())
	require.NoError(t, err)
	defer ctx.Close()

	c := dig.New()
	require.NoError(t, beanconf.ExportTo(c, ctx))

	ds, err := beanconf.Get[*dataSource](ctx, "dataSource")
	require.NoError(t, err)

	invoked := false
	err = c.Invoke(func(beans exportedBeans) {
		invoked = true
		require.True(t, beans.DataSource == ds)
		require.True(t, beans.Repository.ds == ds)
	})
	require.NoError(t, err)
	require.True(t, invoked)
}

func TestExportSelected(t *testing.T) {

	ctx, err := beanconf.New(newLifecycle())
	require.NoError(t, err)
	defer ctx.Close()

	c := dig.New()
	require.NoError(t, beanconf.ExportTo(c, ctx, "swap", "secret"))

	err = c.Invoke(func(in swapBean) {
		require.Equal(t, int32(1), in.Swap.id)
	})
	require.NoError(t, err)

	// hidden recipes are not exported
	err = c.Invoke(func(in secretBean) {})
	require.Error(t, err)

	err = beanconf.ExportTo(dig.New(), ctx, "unknown")
	require.True(t, errors.Is(err, beanconf.ErrRecipeNotFound))
}
