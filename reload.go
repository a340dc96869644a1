/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

/**
Use this item in scan list to load resource bundles from the directory and
reload them when files change. Objects keep values they got, new lookups see new ones.
*/

type ReloadableBundles struct {
	Dir string

	/**
	Called after a bundle was invalidated, optional
	*/
	OnReload func(basename string)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func Reloadable(dir string) *ReloadableBundles {
	return &ReloadableBundles{Dir: dir}
}

func (t *ReloadableBundles) files() http.FileSystem {
	return http.Dir(t.Dir)
}

func (t *ReloadableBundles) watch(source *bundleValueSource) (func() error, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.watcher != nil {
		return nil, errors.Errorf("bundles of '%s' are already watched", t.Dir)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "watch '%s'", t.Dir)
	}
	// fsnotify does not watch subdirectories, basenames like 'conf/app' live there
	err = filepath.WalkDir(t.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watch '%s'", t.Dir)
	}
	t.watcher = watcher
	t.done = make(chan struct{})

	go t.loop(watcher, t.done, source)

	if verbose != nil {
		verbose.Printf("Watch resource bundles in '%s'\n", t.Dir)
	}
	return t.stop, nil
}

func (t *ReloadableBundles) loop(watcher *fsnotify.Watcher, done chan struct{}, source *bundleValueSource) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil && verbose != nil {
						verbose.Printf("Watch error in '%s', %v\n", event.Name, err)
					}
					continue
				}
			}
			basename, ok := bundleBasename(t.Dir, event.Name)
			if !ok {
				continue
			}
			source.invalidate(basename)
			if verbose != nil {
				verbose.Printf("Resource bundle '%s' changed, %s\n", basename, event.Op)
			}
			if t.OnReload != nil {
				t.OnReload(basename)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if verbose != nil {
				verbose.Printf("Watch error in '%s', %v\n", t.Dir, err)
			}
		}
	}
}

func (t *ReloadableBundles) stop() error {
	t.mu.Lock()
	watcher, done := t.watcher, t.done
	t.watcher, t.done = nil, nil
	t.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

/**
Basename of the bundle file relative to the watched directory, with forward slashes
*/
func bundleBasename(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, ext := range bundleExtensions {
		if strings.HasSuffix(rel, ext) {
			return strings.TrimSuffix(rel, ext), true
		}
	}
	return "", false
}
