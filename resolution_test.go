/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"github.com/codeallergy/beanconf"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"sync/atomic"
	"testing"
	"time"
)

type SlowConfig struct {
	beanconf.Configuration `defaults:"lazy"`
	Slow                   func() *nodeB `bean:""`
	Consumer               func() *nodeA `bean:""`
	calls                  int32
}

func newSlow() *SlowConfig {
	t := &SlowConfig{}
	t.Slow = func() *nodeB {
		n := atomic.AddInt32(&t.calls, 1)
		time.Sleep(20 * time.Millisecond)
		return &nodeB{id: n}
	}
	t.Consumer = func() *nodeA {
		return &nodeA{b: t.Slow()}
	}
	return t
}

func TestConcurrentFirstAccess(t *testing.T) {

	cfg := newSlow()
	ctx, err := beanconf.New(cfg)
	require.NoError(t, err)
	defer ctx.Close()

	const n = 16
	results := make([]*nodeB, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if i%2 == 0 {
				obj, err := beanconf.Get[*nodeB](ctx, "slow")
				results[i] = obj
				return err
			}
			results[i] = cfg.Slow()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int32(1), atomic.LoadInt32(&cfg.calls))
	for _, obj := range results {
		require.True(t, obj == results[0])
	}
}

func TestConcurrentDependentAccess(t *testing.T) {

	cfg := newSlow()
	ctx, err := beanconf.New(cfg)
	require.NoError(t, err)
	defer ctx.Close()

	var g errgroup.Group
	consumers := make([]*nodeA, 8)
	for i := range consumers {
		i := i
		g.Go(func() error {
			obj, err := beanconf.Get[*nodeA](ctx, "consumer")
			consumers[i] = obj
			return err
		})
	}
	require.NoError(t, g.Wait())

	slow, err := beanconf.Get[*nodeB](ctx, "slow")
	require.NoError(t, err)
	for _, c := range consumers {
		require.True(t, c.b == slow)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&cfg.calls))
}
