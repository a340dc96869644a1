/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/pkg/errors"
	"reflect"
)

/**
Initializing Bean Stub is using to replace empty field in struct that has beanconf.InitializingBean type
*/

type initializingBeanStub struct {
	name string
}

func (t *initializingBeanStub) PostConstruct() error {
	return errors.Errorf("recipe '%s' does not implement PostConstruct method, but has anonymous field InitializingBean", t.name)
}

/**
Disposable Bean Stub is using to replace empty field in struct that has beanconf.DisposableBean type
*/

type disposableBeanStub struct {
	name string
}

func (t *disposableBeanStub) Destroy() error {
	return errors.Errorf("recipe '%s' does not implement Destroy method, but has anonymous field DisposableBean", t.name)
}

/**
Fills nil anonymous lifecycle interfaces of the produced struct, so promoted methods do not panic
*/
func fillStubs(obj interface{}, name string) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return
	}
	elem := v.Elem()
	typ := elem.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.Anonymous {
			continue
		}
		field := elem.Field(i)
		if !field.CanSet() || !field.IsNil() {
			continue
		}
		switch f.Type {
		case InitializingBeanClass:
			field.Set(reflect.ValueOf(&initializingBeanStub{name: name}))
		case DisposableBeanClass:
			field.Set(reflect.ValueOf(&disposableBeanStub{name: name}))
		}
	}
}
