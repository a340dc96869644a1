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
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeBundle(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

var appProperties = `
# server settings
server.port = 8080
server.host : example.com
server.tags = a;b;\
    c
server.created=2023-05-01
! the greeting
greeting hello\tworld
`

var overrideYaml = `
server:
  port: 9090
  timeout: 3s
`

var dbToml = `
[db]
url = "postgres://localhost/app"
pool = 5
`

type httpSettings struct {
	Port    int
	Host    string
	Banner  string    `value:"server.banner,default=hello"`
	Created time.Time `value:"server.created,layout=2006-01-02"`
}

type ServerConfig struct {
	beanconf.Configuration `bundles:"app,override"`
	Port                   func() int           `value:"server.port"`
	Host                   func() string        `value:"server.host,default=localhost"`
	Timeout                func() time.Duration `value:"server.timeout"`
	Tags                   func() []string      `value:"server.tags"`
	Debug                  func() bool          `value:"debug,default=false"`
	Region                 func() string        `value:"region"`
	Greeting               func() string        `value:"greeting"`
	Settings               func() *httpSettings `bean:""`
}

func newServerConfig() *ServerConfig {
	t := &ServerConfig{
		Region: func() string {
			return "eu"
		},
	}
	t.Settings = func() *httpSettings {
		return &httpSettings{Port: t.Port(), Host: t.Host()}
	}
	return t
}

func bundleDir(t *testing.T) string {
	dir := t.TempDir()
	writeBundle(t, dir, "app.properties", appProperties)
	writeBundle(t, dir, "override.yaml", overrideYaml)
	writeBundle(t, dir, "db.toml", dbToml)
	return dir
}

func TestExternalValues(t *testing.T) {

	cfg := newServerConfig()
	ctx, err := beanconf.New(
		beanconf.BundleSource{Files: http.Dir(bundleDir(t))},
		cfg,
	)
	require.NoError(t, err)
	defer ctx.Close()

	// later bundle wins
	require.Equal(t, 9090, cfg.Port())
	require.Equal(t, "example.com", cfg.Host())
	require.Equal(t, 3*time.Second, cfg.Timeout())
	require.Equal(t, []string{"a", "b", "c"}, cfg.Tags())
	require.False(t, cfg.Debug())
	require.Equal(t, "eu", cfg.Region())
	require.Equal(t, "hello\tworld", cfg.Greeting())

	settings, err := beanconf.Get[*httpSettings](ctx, "settings")
	require.NoError(t, err)
	require.Equal(t, 9090, settings.Port)
	require.Equal(t, "example.com", settings.Host)
	require.Equal(t, "hello", settings.Banner)
	require.Equal(t, 2023, settings.Created.Year())
	require.Equal(t, time.May, settings.Created.Month())
}

func TestResolveValue(t *testing.T) {

	ctx, err := beanconf.New(
		beanconf.BundleSource{Files: http.Dir(bundleDir(t))},
		newServerConfig(),
	)
	require.NoError(t, err)
	defer ctx.Close()

	url, err := beanconf.ResolveValue[string](ctx.Values(), []string{"db"}, "db.url")
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/app", url)

	pool, err := beanconf.ResolveValue[int](ctx.Values(), []string{"db"}, "db.pool")
	require.NoError(t, err)
	require.Equal(t, 5, pool)

	port, err := beanconf.ResolveValue[int](ctx.Values(), []string{"app"}, "server.port")
	require.NoError(t, err)
	require.Equal(t, 8080, port)

	_, err = beanconf.ResolveValue[string](ctx.Values(), []string{"db"}, "db.user")
	require.True(t, errors.Is(err, beanconf.ErrValueNotFound))

	_, err = beanconf.ResolveValue[string](ctx.Values(), nil, "db.url")
	require.True(t, errors.Is(err, beanconf.ErrNoResourceBundles))
}

type MissingBundleConfig struct {
	beanconf.Configuration `bundles:"missing"`
	Name                   func() string `value:"name"`
}

func TestMissingBundle(t *testing.T) {

	_, err := beanconf.New(
		beanconf.BundleSource{Files: http.Dir(t.TempDir())},
		&MissingBundleConfig{},
	)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "resource bundle 'missing' not found"), err.Error())
}

type NoBundleConfig struct {
	beanconf.Configuration
	Name func() string `value:"name"`
}

func TestValueWithoutBundles(t *testing.T) {

	_, err := beanconf.New(&NoBundleConfig{})
	require.Error(t, err)

	var mce *beanconf.MalformedConfigurationError
	require.True(t, errors.As(err, &mce))
	require.True(t, mce.Contains(beanconf.ResourceBundleRequired))
}

type staticResolver struct {
	priority int
	values   map[string]string
}

func (t *staticResolver) Priority() int {
	return t.priority
}

func (t *staticResolver) GetProperty(key string) (string, bool) {
	value, ok := t.values[key]
	return value, ok
}

func TestPropertyResolverPriority(t *testing.T) {

	cfg := newServerConfig()
	ctx, err := beanconf.New(
		beanconf.BundleSource{Files: http.Dir(bundleDir(t))},
		&staticResolver{priority: 1, values: map[string]string{"server.port": "1111", "debug": "true"}},
		&staticResolver{priority: 10, values: map[string]string{"server.port": "2222"}},
		cfg,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, 2222, cfg.Port())
	require.True(t, cfg.Debug())
	require.Equal(t, "example.com", cfg.Host())
}

type ReloadConfig struct {
	beanconf.Configuration `bundles:"app"`
	Greeting               func() (string, error) `value:"greeting"`
}

func TestReloadableBundles(t *testing.T) {

	dir := t.TempDir()
	writeBundle(t, dir, "app.properties", "greeting=hello\n")

	var reloads int32
	bundles := beanconf.Reloadable(dir)
	bundles.OnReload = func(basename string) {
		if basename == "app" {
			atomic.AddInt32(&reloads, 1)
		}
	}

	cfg := &ReloadConfig{}
	ctx, err := beanconf.New(bundles, cfg)
	require.NoError(t, err)
	defer ctx.Close()

	greeting, err := cfg.Greeting()
	require.NoError(t, err)
	require.Equal(t, "hello", greeting)

	writeBundle(t, dir, "app.properties", "greeting=bye\n")

	require.Eventually(t, func() bool {
		greeting, err := cfg.Greeting()
		return err == nil && greeting == "bye"
	}, 5*time.Second, 20*time.Millisecond)
	require.True(t, atomic.LoadInt32(&reloads) > 0)
}

type NestedReloadConfig struct {
	beanconf.Configuration `bundles:"conf/app"`
	Greeting               func() (string, error) `value:"greeting"`
}

func TestReloadableNestedBundles(t *testing.T) {

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "conf"), 0755))
	writeBundle(t, dir, filepath.Join("conf", "app.properties"), "greeting=hello\n")

	var reloads int32
	bundles := beanconf.Reloadable(dir)
	bundles.OnReload = func(basename string) {
		if basename == "conf/app" {
			atomic.AddInt32(&reloads, 1)
		}
	}

	cfg := &NestedReloadConfig{}
	ctx, err := beanconf.New(bundles, cfg)
	require.NoError(t, err)
	defer ctx.Close()

	greeting, err := cfg.Greeting()
	require.NoError(t, err)
	require.Equal(t, "hello", greeting)

	writeBundle(t, dir, filepath.Join("conf", "app.properties"), "greeting=bye\n")

	require.Eventually(t, func() bool {
		greeting, err := cfg.Greeting()
		return err == nil && greeting == "bye"
	}, 5*time.Second, 20*time.Millisecond)
	require.True(t, atomic.LoadInt32(&reloads) > 0)
}
