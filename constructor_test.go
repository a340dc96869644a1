/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"errors"
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"net/http"
	"reflect"
	"testing"
)

type dbPool struct {
	url  string
	size int
}

type PoolConfig struct {
	beanconf.Configuration `bundles:"db"`
	Pool                   func() *dbPool `bean:""`
	url                    string
	size                   int
}

func newPoolConfig(url string) *PoolConfig {
	return newPoolConfigSized(url, 1)
}

func newPoolConfigSized(url string, size int) *PoolConfig {
	t := &PoolConfig{url: url, size: size}
	t.Pool = func() *dbPool {
		return &dbPool{url: t.url, size: t.size}
	}
	return t
}

func poolFiles(t *testing.T, content string) beanconf.BundleSource {
	dir := t.TempDir()
	writeBundle(t, dir, "db.toml", content)
	return beanconf.BundleSource{Files: http.Dir(dir)}
}

func TestConstructorGreatestArity(t *testing.T) {

	ctx, err := beanconf.New(
		poolFiles(t, dbToml),
		beanconf.Constructed(
			beanconf.Ctor(newPoolConfig, "db.url"),
			beanconf.Ctor(newPoolConfigSized, "db.url", "db.pool"),
		),
	)
	require.NoError(t, err)
	defer ctx.Close()

	pool, err := beanconf.Get[*dbPool](ctx, "pool")
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/app", pool.url)
	require.Equal(t, 5, pool.size)

	require.Equal(t, 1, len(ctx.Units()))
	require.Equal(t, 2, len(ctx.Units()[0].Constructors()))
}

func TestConstructorResolvableSubset(t *testing.T) {

	ctx, err := beanconf.New(
		poolFiles(t, "[db]\nurl = \"mem://pool\"\n"),
		beanconf.Constructed(
			beanconf.Ctor(newPoolConfigSized, "db.url", "db.pool"),
			beanconf.Ctor(newPoolConfig, "db.url"),
		),
	)
	require.NoError(t, err)
	defer ctx.Close()

	pool, err := beanconf.Get[*dbPool](ctx, "pool")
	require.NoError(t, err)
	require.Equal(t, "mem://pool", pool.url)
	require.Equal(t, 1, pool.size)
}

func TestConstructorDefaultKey(t *testing.T) {

	ctx, err := beanconf.New(
		poolFiles(t, "[db]\nurl = \"mem://pool\"\n"),
		beanconf.Constructed(beanconf.Ctor(newPoolConfigSized, "db.url", "db.pool=3")),
	)
	require.NoError(t, err)
	defer ctx.Close()

	pool, err := beanconf.Get[*dbPool](ctx, "pool")
	require.NoError(t, err)
	require.Equal(t, 3, pool.size)
}

func TestAmbiguousConstructor(t *testing.T) {

	byUser := func(user string) *PoolConfig {
		return newPoolConfig(user)
	}

	_, err := beanconf.New(
		poolFiles(t, "[db]\nurl = \"mem://pool\"\nuser = \"admin\"\n"),
		beanconf.Constructed(
			beanconf.Ctor(newPoolConfig, "db.url"),
			beanconf.Ctor(byUser, "db.user"),
		),
	)
	require.Error(t, err)
	require.True(t, errors.Is(err, beanconf.ErrAmbiguousConstructor))

	_, err = beanconf.New(
		poolFiles(t, "[cache]\nsize = 1\n"),
		beanconf.Constructed(
			beanconf.Ctor(newPoolConfig, "db.url"),
			beanconf.Ctor(byUser, "db.user"),
		),
	)
	require.Error(t, err)
	require.True(t, errors.Is(err, beanconf.ErrAmbiguousConstructor))
}

func TestSingleConstructorMissingValue(t *testing.T) {

	_, err := beanconf.New(
		poolFiles(t, "[cache]\nsize = 1\n"),
		beanconf.Constructed(beanconf.Ctor(newPoolConfig, "db.url")),
	)
	require.Error(t, err)
	require.True(t, errors.Is(err, beanconf.ErrValueNotFound))
}

type PlainCtorConfig struct {
	beanconf.Configuration
	Name func() string `bean:""`
}

func TestConstructorNeedsBundles(t *testing.T) {

	ctor := beanconf.Ctor(func(name string) *PlainCtorConfig {
		return &PlainCtorConfig{Name: func() string { return name }}
	}, "name")

	_, err := beanconf.New(beanconf.Constructed(ctor))
	require.Error(t, err)

	var mce *beanconf.MalformedConfigurationError
	require.True(t, errors.As(err, &mce))
	require.True(t, mce.Contains(beanconf.ResourceBundleRequired))
}

func TestInvalidCtor(t *testing.T) {

	_, err := beanconf.New(beanconf.Constructed(beanconf.Ctor("not a function")))
	require.Error(t, err)

	_, err = beanconf.New(beanconf.Constructed(beanconf.Ctor(newPoolConfigSized, "db.url")))
	require.Error(t, err)

	_, err = beanconf.New(beanconf.Constructed())
	require.Error(t, err)

	ctor := beanconf.Ctor(newPoolConfigSized, "db.url", "db.pool")
	require.Equal(t, 2, ctor.Arity())
	require.Equal(t, reflect.TypeOf(&PoolConfig{}), ctor.UnitType())
	require.Equal(t, "ctor(db.url string, db.pool int)", ctor.String())
}
