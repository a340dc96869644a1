/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var bundleExtensions = []string{".properties", ".yaml", ".yml", ".toml"}

/**
Value source over resource bundles of a file system, bundles are loaded on first use and cached.
*/

type bundleValueSource struct {
	files     http.FileSystem
	resolvers []PropertyResolver

	mu      sync.RWMutex
	bundles map[string]*bundle
}

func newBundleValueSource(files http.FileSystem, resolvers []PropertyResolver) *bundleValueSource {
	if files == nil {
		files = http.Dir(".")
	}
	list := make([]PropertyResolver, len(resolvers))
	copy(list, resolvers)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority() > list[j].Priority()
	})
	return &bundleValueSource{
		files:     files,
		resolvers: list,
		bundles:   make(map[string]*bundle),
	}
}

func (t *bundleValueSource) Resolve(basenames []string, key string) (string, error) {
	if len(basenames) == 0 {
		return "", errors.Wrapf(ErrNoResourceBundles, "key '%s'", key)
	}
	for _, r := range t.resolvers {
		if value, ok := r.GetProperty(key); ok {
			return value, nil
		}
	}
	for i := len(basenames) - 1; i >= 0; i-- {
		b, err := t.bundle(basenames[i])
		if err != nil {
			return "", err
		}
		if value, ok := b.GetProperty(key); ok {
			return value, nil
		}
	}
	return "", errors.Wrapf(ErrValueNotFound, "key '%s' in bundles %v", key, basenames)
}

func (t *bundleValueSource) preload(basename string) error {
	_, err := t.bundle(basename)
	return err
}

func (t *bundleValueSource) bundle(basename string) (*bundle, error) {
	t.mu.RLock()
	b, ok := t.bundles[basename]
	t.mu.RUnlock()
	if ok {
		return b, nil
	}

	b, err := t.load(basename)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.bundles[basename]; ok {
		return prev, nil
	}
	t.bundles[basename] = b
	return b, nil
}

/**
Loads every existing file of the basename, the order of extensions defines precedence
*/
func (t *bundleValueSource) load(basename string) (*bundle, error) {
	b := newBundle(basename)
	found := false
	for _, ext := range bundleExtensions {
		name := basename + ext
		content, err := t.readFile(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Errorf("read resource bundle '%s', %v", name, err)
		}
		found = true
		if err := parseBundle(b, ext, content); err != nil {
			return nil, errors.Errorf("parse resource bundle '%s', %v", name, err)
		}
		if verbose != nil {
			verbose.Printf("Loaded resource bundle '%s'\n", name)
		}
	}
	if !found {
		return nil, errors.Errorf("resource bundle '%s' not found, expected one of %s", basename, strings.Join(bundleExtensions, ", "))
	}
	return b, nil
}

func (t *bundleValueSource) readFile(name string) ([]byte, error) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	file, err := t.files.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func parseBundle(b *bundle, ext string, content []byte) error {
	switch ext {
	case ".properties":
		return b.Parse(string(content))
	case ".yaml", ".yml":
		holder := make(map[string]interface{})
		if err := yaml.Unmarshal(content, &holder); err != nil {
			return err
		}
		b.LoadMap(holder)
	case ".toml":
		holder := make(map[string]interface{})
		if err := toml.Unmarshal(content, &holder); err != nil {
			return err
		}
		b.LoadMap(holder)
	default:
		return errors.Errorf("unknown bundle extension '%s'", ext)
	}
	return nil
}

/**
Drops cached bundle, the next lookup reads files again.
Declared basenames may start with a slash, the file system root is the same.
*/
func (t *bundleValueSource) invalidate(basename string) {
	basename = strings.TrimPrefix(basename, "/")
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.bundles {
		if strings.TrimPrefix(key, "/") == basename {
			delete(t.bundles, key)
		}
	}
}

func (t *bundleValueSource) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("ValueSource{bundles=%d,resolvers=%d}", len(t.bundles), len(t.resolvers))
}

/**
Resolves the key and converts it to the type parameter, supports the same types as external values.
*/
func ResolveValue[T any](source ValueSource, basenames []string, key string) (T, error) {
	var zero T
	s, err := source.Resolve(basenames, key)
	if err != nil {
		return zero, err
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	v, err := convertValue(s, typ, "")
	if err != nil {
		return zero, errors.Errorf("value of key '%s' has convert error, %v", key, err)
	}
	return v.Interface().(T), nil
}
