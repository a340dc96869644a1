/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"strings"
)

/**
Import cycle found by the resolver, matches ErrCyclicImport.
*/

type ImportCycleError struct {
	Path []string
}

func (t *ImportCycleError) Error() string {
	return "cyclic import " + strings.Join(t.Path, "->")
}

func (t *ImportCycleError) Is(target error) bool {
	return target == ErrCyclicImport
}

/**
Import resolver flattens the import graph of a root unit.
*/

type ImportResolver struct {
}

func NewImportResolver() *ImportResolver {
	return &ImportResolver{}
}

/**
Returns the same sequence as root.GetSelfAndAllImports(), but fails on the first import cycle
instead of recursing forever. Diamond imports appear once per path.
*/
func (t *ImportResolver) Resolve(root *ConfigurationUnit) ([]*ConfigurationUnit, error) {
	var list []*ConfigurationUnit
	onPath := make(map[*ConfigurationUnit]bool)
	var path []string
	var walk func(unit *ConfigurationUnit) error
	walk = func(unit *ConfigurationUnit) error {
		if onPath[unit] {
			return &ImportCycleError{Path: append(cyclePath(path, unit.name), unit.name)}
		}
		onPath[unit] = true
		path = append(path, unit.name)
		for _, imported := range unit.imports {
			if err := walk(imported); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		delete(onPath, unit)
		list = append(list, unit)
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	if verbose != nil {
		verbose.Printf("Resolved imports of '%s', units %d\n", root.name, len(list))
	}
	return list, nil
}

/**
Resolves aspect imports of every unit in the list, aspects of aspects included.
*/
func (t *ImportResolver) ResolveAspects(units []*ConfigurationUnit) ([]*ConfigurationUnit, error) {
	var list []*ConfigurationUnit
	seen := make(map[*ConfigurationUnit]bool)
	queue := append([]*ConfigurationUnit(nil), units...)
	for len(queue) > 0 {
		unit := queue[0]
		queue = queue[1:]
		for _, aspect := range unit.aspects {
			if seen[aspect] {
				continue
			}
			seen[aspect] = true
			resolved, err := t.Resolve(aspect)
			if err != nil {
				return nil, err
			}
			list = append(list, resolved...)
			queue = append(queue, resolved...)
		}
	}
	return list, nil
}

// cycle starts at the first occurrence of the repeated unit
func cyclePath(path []string, name string) []string {
	for i, el := range path {
		if el == name {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}
