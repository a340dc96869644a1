/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

/**
Resolution stacks of goroutines that are materializing objects right now
*/
var goroutineStacks sync.Map

var goroutinePrefix = []byte("goroutine ")

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

func currentResolution() *resolution {
	if r, ok := goroutineStacks.Load(goroutineID()); ok {
		return r.(*resolution)
	}
	return nil
}

/**
Binds the stack to the current goroutine, the returned function restores the previous one
*/
func bindResolution(r *resolution) func() {
	id := goroutineID()
	prev, hadPrev := goroutineStacks.Load(id)
	goroutineStacks.Store(id, r)
	return func() {
		if hadPrev {
			goroutineStacks.Store(id, prev)
		} else {
			goroutineStacks.Delete(id)
		}
	}
}
