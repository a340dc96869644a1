/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"context"
	"strings"
)

/**
Dependency cycle on the resolution stack, matches ErrCycleDependency.
*/

type CycleError struct {
	Path []string
}

func (t *CycleError) Error() string {
	return "detected cycle dependency " + strings.Join(t.Path, "->")
}

func (t *CycleError) Is(target error) bool {
	return target == ErrCycleDependency
}

/**
Persistent stack of recipes being resolved, the head is the most recent one
*/
type resolution struct {
	owner *container
	name  string
	next  *resolution
}

func (t *resolution) push(owner *container, name string) *resolution {
	return &resolution{owner: owner, name: name, next: t}
}

func (t *resolution) contains(owner *container, name string) bool {
	for r := t; r != nil; r = r.next {
		if r.owner == owner && r.name == name {
			return true
		}
	}
	return false
}

func (t *resolution) depth() int {
	n := 0
	for r := t; r != nil; r = r.next {
		n++
	}
	return n
}

/**
Path from the bottom of the stack to the repeated name
*/
func (t *resolution) cycle(owner *container, name string) []string {
	var reversed []string
	for r := t; r != nil; r = r.next {
		reversed = append(reversed, r.name)
		if r.owner == owner && r.name == name {
			break
		}
	}
	path := make([]string, 0, len(reversed)+1)
	for j := len(reversed) - 1; j >= 0; j-- {
		path = append(path, reversed[j])
	}
	return append(path, name)
}

type resolutionKey struct{}

func withResolution(ctx context.Context, r *resolution) context.Context {
	return context.WithValue(ctx, resolutionKey{}, r)
}

/**
Stack carried by the context or, for bodies that do not take one, by the current goroutine
*/
func resolutionFrom(ctx context.Context) *resolution {
	if ctx != nil {
		if r, ok := ctx.Value(resolutionKey{}).(*resolution); ok {
			return r
		}
	}
	return currentResolution()
}
