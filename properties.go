/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"bufio"
	"fmt"
	"github.com/pkg/errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

/**
Bundle holds flat key/value pairs of one resource bundle basename.
Nested maps of yaml and toml files are flattened with dot separated keys.
*/

type bundle struct {
	sync.RWMutex
	basename string
	store    map[string]string
}

func newBundle(basename string) *bundle {
	return &bundle{
		basename: basename,
		store:    make(map[string]string),
	}
}

func (t *bundle) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("Bundle{basename=%s,store=%d}", t.basename, len(t.store))
}

func (t *bundle) LoadMap(source map[string]interface{}) {
	t.Lock()
	defer t.Unlock()
	t.loadMapRec(make([]byte, 0, 100), source)
}

func (t *bundle) loadMapRec(stack []byte, m map[string]interface{}) {
	for k, v := range m {
		n := len(stack)
		if n > 0 {
			stack = append(stack, '.')
		}
		stack = append(stack, []byte(k)...)
		switch next := v.(type) {
		case map[string]interface{}:
			t.loadMapRec(stack, next)
		case []interface{}:
			var list []string
			for _, el := range next {
				list = append(list, fmt.Sprint(el))
			}
			t.store[string(stack)] = strings.Join(list, ";")
		default:
			t.store[string(stack)] = fmt.Sprint(v)
		}
		stack = stack[:n]
	}
}

/**
Parses .properties content: '#' and '!' comments, '=', ':' or blank separators,
backslash line continuation and escapes including \uXXXX.
*/
func (t *bundle) Parse(content string) error {

	t.Lock()
	defer t.Unlock()

	scanner := bufio.NewScanner(strings.NewReader(content))
	var logical strings.Builder
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimLeft(scanner.Text(), " \t\f")
		if logical.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}
		if continues(line) {
			logical.WriteString(line[:len(line)-1])
			continue
		}
		logical.WriteString(line)
		if err := t.parseLine(logical.String()); err != nil {
			return errors.Errorf("line %d of bundle '%s', %v", lineNum, t.basename, err)
		}
		logical.Reset()
	}
	if logical.Len() > 0 {
		if err := t.parseLine(logical.String()); err != nil {
			return errors.Errorf("line %d of bundle '%s', %v", lineNum, t.basename, err)
		}
	}
	return scanner.Err()
}

// odd number of trailing backslashes
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func (t *bundle) parseLine(line string) error {
	end := len(line)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			end = i
			break
		}
	}
	key, err := unescape(line[:end])
	if err != nil {
		return err
	}
	rest := strings.TrimLeft(line[end:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}
	value, err := unescape(rest)
	if err != nil {
		return errors.Errorf("key '%s', %v", key, err)
	}
	t.store[key] = value
	return nil
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			break
		}
		switch s[i] {
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 'f':
			out.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", errors.Errorf("invalid unicode literal '%s'", s[i-1:])
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", errors.Errorf("invalid unicode literal '%s'", s[i-1:i+5])
			}
			out.WriteRune(rune(r))
			i += 4
		default:
			out.WriteByte(s[i])
		}
	}
	return out.String(), nil
}

func (t *bundle) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.store)
}

func (t *bundle) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	keys := make([]string, 0, len(t.store))
	for k := range t.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *bundle) GetProperty(key string) (value string, ok bool) {
	t.RLock()
	defer t.RUnlock()
	value, ok = t.store[key]
	return
}

func parseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "on", "ON", "On":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "off", "OFF", "Off":
		return false, nil
	}
	return false, errors.Errorf("invalid syntax '%s'", str)
}

/**
Parses only os.Unix file mode with 0777 mask
*/
func parseFileMode(s string) os.FileMode {

	var m uint32

	const rwx = "rwxrwxrwx"
	off := len(s) - len(rwx)
	if off < 0 {
		buf := []byte("---------")
		copy(buf[-off:], s)
		s = string(buf)
	} else {
		s = s[off:]
	}

	for i, c := range rwx {
		if byte(c) == s[i] {
			m |= 1 << uint(9-1-i)
		}
	}

	return os.FileMode(m)
}
