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

type Greeter interface {
	Greet(name string) string
}

type plainGreeter struct {
}

func (t *plainGreeter) Greet(name string) string {
	return "hello " + name
}

type upperGreeter struct {
	target Greeter
}

func (t *upperGreeter) Greet(name string) string {
	return strings.ToUpper(t.target.Greet(name))
}

type upperAdvice struct {
	pointcut string
}

func (t *upperAdvice) Matches(recipe *beanconf.Recipe) bool {
	return recipe.Name == t.pointcut
}

func (t *upperAdvice) Advise(target interface{}) (interface{}, error) {
	return &upperGreeter{target: target.(Greeter)}, nil
}

type UpperAspect struct {
	beanconf.Configuration
	Advice func() *upperAdvice `bean:""`
}

func newUpperAspect() *UpperAspect {
	return &UpperAspect{
		Advice: func() *upperAdvice {
			return &upperAdvice{pointcut: "greeter"}
		},
	}
}

type GreeterConfig struct {
	beanconf.Configuration
	Upper   *UpperAspect   `aspect:""`
	Greeter func() Greeter `bean:""`
	Other   func() Greeter `bean:""`
}

func newGreeterConfig() *GreeterConfig {
	return &GreeterConfig{
		Upper: newUpperAspect(),
		Greeter: func() Greeter {
			return &plainGreeter{}
		},
		Other: func() Greeter {
			return &plainGreeter{}
		},
	}
}

func TestAspectAdvice(t *testing.T) {

	cfg := newGreeterConfig()
	ctx, err := beanconf.New(cfg)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, "HELLO BOB", cfg.Greeter().Greet("bob"))
	require.Equal(t, "hello bob", cfg.Other().Greet("bob"))

	greeter, err := beanconf.Get[Greeter](ctx, "greeter")
	require.NoError(t, err)
	_, ok := greeter.(*upperGreeter)
	require.True(t, ok)

	var aspects int
	for _, unit := range ctx.Units() {
		if unit.IsAspect() {
			aspects++
		}
	}
	require.Equal(t, 1, aspects)
}

type ConcreteGreeterConfig struct {
	beanconf.Configuration
	Upper   *UpperAspect         `aspect:""`
	Greeter func() *plainGreeter `bean:""`
}

func TestAspectOnConcreteType(t *testing.T) {

	_, err := beanconf.New(&ConcreteGreeterConfig{
		Upper: newUpperAspect(),
		Greeter: func() *plainGreeter {
			return &plainGreeter{}
		},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, beanconf.ErrCannotProxyFinal))
}
