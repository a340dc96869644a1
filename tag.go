/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"strings"
)

/**
Grammar of marker tags:

	bean:"scope=prototype,aliases=ds;dataSource,lazy=true,primary"
	inject:"bean=userService,optional"

Entries are separated by ',' and multiple values by ';'. A value-less entry is a flag.
*/

type tagExpr struct {
	Entries []*tagEntry `parser:"( @@ ( ',' @@ )* )?"`
}

type tagEntry struct {
	Key    string   `parser:"@Word"`
	Values []string `parser:"( '=' @Word ( ';' @Word )* )?"`
}

var tagParser = participle.MustBuild[tagExpr](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Word", Pattern: `[^\s=,;]+`},
		{Name: "Punct", Pattern: `[=,;]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
)

type tagAttrs struct {
	source  string
	entries []*tagEntry
}

func parseTag(name, tag string) (*tagAttrs, error) {
	attrs := &tagAttrs{source: name}
	if strings.TrimSpace(tag) == "" {
		return attrs, nil
	}
	expr, err := tagParser.ParseString(name, tag)
	if err != nil {
		return nil, errors.Errorf("invalid tag %s:\"%s\", %v", name, tag, err)
	}
	attrs.entries = expr.Entries
	return attrs, nil
}

func (t *tagAttrs) lookup(key string) (*tagEntry, bool) {
	for _, e := range t.entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

func (t *tagAttrs) has(key string) bool {
	_, ok := t.lookup(key)
	return ok
}

func (t *tagAttrs) value(key string) string {
	if e, ok := t.lookup(key); ok && len(e.Values) > 0 {
		return e.Values[0]
	}
	return ""
}

func (t *tagAttrs) list(key string) []string {
	if e, ok := t.lookup(key); ok {
		return e.Values
	}
	return nil
}

/**
First entry without a value, used for positional names like external:"dataSource"
*/
func (t *tagAttrs) positional() string {
	if len(t.entries) > 0 && len(t.entries[0].Values) == 0 {
		return t.entries[0].Key
	}
	return ""
}

func (t *tagAttrs) tristate(key string) (Tristate, error) {
	e, ok := t.lookup(key)
	if !ok {
		return TristateUnspecified, nil
	}
	if len(e.Values) == 0 {
		return TristateTrue, nil
	}
	b, err := parseBool(e.Values[0])
	if err != nil {
		return TristateUnspecified, errors.Errorf("tag %s attribute '%s', %v", t.source, key, err)
	}
	if b {
		return TristateTrue, nil
	}
	return TristateFalse, nil
}

func (t *tagAttrs) flag(key string) (bool, error) {
	ts, err := t.tristate(key)
	return ts == TristateTrue, err
}

func (t *tagAttrs) autowire(key string) (Autowire, error) {
	switch v := t.value(key); v {
	case "":
		return AutowireInherited, nil
	case "no":
		return AutowireNo, nil
	case "byName":
		return AutowireByName, nil
	case "byType":
		return AutowireByType, nil
	default:
		return AutowireInherited, errors.Errorf("tag %s has unknown autowire mode '%s'", t.source, v)
	}
}

func (t *tagAttrs) dependencyCheck(key string) (DependencyCheck, error) {
	switch v := t.value(key); v {
	case "":
		return DependencyCheckUnspecified, nil
	case "none":
		return DependencyCheckNone, nil
	case "objects":
		return DependencyCheckObjects, nil
	case "simple":
		return DependencyCheckSimple, nil
	case "all":
		return DependencyCheckAll, nil
	default:
		return DependencyCheckUnspecified, errors.Errorf("tag %s has unknown dependency check '%s'", t.source, v)
	}
}

func (t *tagAttrs) meta(key string) ([]Meta, error) {
	var list []Meta
	for _, pair := range t.list(key) {
		i := strings.IndexByte(pair, ':')
		if i <= 0 {
			return nil, errors.Errorf("tag %s has invalid meta pair '%s', expected key:value", t.source, pair)
		}
		list = append(list, Meta{Key: pair[:i], Value: pair[i+1:]})
	}
	return list, nil
}

/**
Bean marker from bean:"..." tag
*/
func parseBeanTag(tag string) (Bean, bool, error) {
	attrs, err := parseTag("bean", tag)
	if err != nil {
		return Bean{}, false, err
	}
	b := Bean{
		Aliases:           attrs.list("aliases"),
		Scope:             attrs.value("scope"),
		InitMethodName:    attrs.value("init"),
		DestroyMethodName: attrs.value("destroy"),
		DependsOn:         attrs.list("dependsOn"),
	}
	if b.Lazy, err = attrs.tristate("lazy"); err != nil {
		return b, false, err
	}
	if b.Primary, err = attrs.tristate("primary"); err != nil {
		return b, false, err
	}
	if b.Autowire, err = attrs.autowire("autowire"); err != nil {
		return b, false, err
	}
	if b.DependencyCheck, err = attrs.dependencyCheck("dependencyCheck"); err != nil {
		return b, false, err
	}
	if b.Meta, err = attrs.meta("meta"); err != nil {
		return b, false, err
	}
	if b.AllowOverriding, err = attrs.flag("allowOverriding"); err != nil {
		return b, false, err
	}
	hidden, err := attrs.flag("hidden")
	return b, hidden, err
}

func parseExternalTag(tag string) (ExternalBean, error) {
	attrs, err := parseTag("external", tag)
	if err != nil {
		return ExternalBean{}, err
	}
	name := attrs.value("name")
	if name == "" {
		name = attrs.positional()
	}
	return ExternalBean{Name: name}, nil
}

func parseAutoTag(tag string) (AutoBean, error) {
	attrs, err := parseTag("auto", tag)
	if err != nil {
		return AutoBean{}, err
	}
	mode, err := attrs.autowire("autowire")
	return AutoBean{Autowire: mode}, err
}

func parseScopedProxyTag(tag string) (ScopedProxy, error) {
	attrs, err := parseTag("scopedProxy", tag)
	if err != nil {
		return ScopedProxy{}, err
	}
	targetClass, err := attrs.flag("proxyTargetClass")
	return ScopedProxy{ProxyTargetClass: targetClass}, err
}

func parseDefaultsTag(tag string) (Defaults, error) {
	attrs, err := parseTag("defaults", tag)
	if err != nil {
		return Defaults{}, err
	}
	d := Defaults{DefaultScope: attrs.value("scope")}
	if d.DefaultLazy, err = attrs.tristate("lazy"); err != nil {
		return d, err
	}
	if d.DefaultAutowire, err = attrs.autowire("autowire"); err != nil {
		return d, err
	}
	d.DefaultDependencyCheck, err = attrs.dependencyCheck("dependencyCheck")
	return d, err
}

/**
Value tags keep free text in defaults and layouts, so they are split by hand:

	value:"db.url,default=jdbc:h2:mem,layout=2006-01-02 15:04"
*/
func parseValueTag(tag string) (ExternalValue, error) {
	var v ExternalValue
	pairs := strings.Split(tag, ",")
	for i, pair := range pairs {
		p := strings.TrimSpace(pair)
		if i == 0 {
			v.Key = p
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		switch strings.TrimSpace(kv[0]) {
		case "default":
			v.HasDefault = true
			if len(kv) > 1 {
				v.Default = strings.TrimSpace(kv[1])
			}
		case "layout":
			if len(kv) > 1 {
				v.Layout = strings.TrimSpace(kv[1])
			}
		default:
			return v, errors.Errorf("unknown attribute '%s' in value tag \"%s\"", kv[0], tag)
		}
	}
	return v, nil
}

/**
Injection tag of auto bean fields
*/
type injectTag struct {
	qualifier string
	optional  bool
}

func parseInjectTag(tag string) (injectTag, error) {
	attrs, err := parseTag("inject", tag)
	if err != nil {
		return injectTag{}, err
	}
	optional, err := attrs.flag("optional")
	return injectTag{qualifier: attrs.value("bean"), optional: optional}, err
}
