// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package params models the flat-key parameter surface the core reads
// at Initialize time: a map from string keys to values with typed
// getters and defaults, the same shape as gonum/linsolve's Settings but
// keyed by string rather than struct field since the parameter set is
// open-ended (hierarchical per-level/per-axis keys).
package params

import "fmt"

// List is a flat key/value parameter surface. The zero value is not
// usable; construct with New.
type List struct {
	values map[string]interface{}
}

// New returns an empty List.
func New() *List {
	return &List{values: make(map[string]interface{})}
}

// Set stores v under key and returns the List, so calls can be chained.
func (l *List) Set(key string, v interface{}) *List {
	l.values[key] = v
	return l
}

// Has reports whether key was explicitly set.
func (l *List) Has(key string) bool {
	_, ok := l.values[key]
	return ok
}

// Int returns the integer stored at key, or def if key is unset.
// It panics if the stored value is not an int, matching the
// teacher's convention of panicking on caller-side configuration
// mistakes rather than silently coercing.
func (l *List) Int(key string, def int) int {
	v, ok := l.values[key]
	if !ok {
		return def
	}
	i, ok := v.(int)
	if !ok {
		panic(fmt.Sprintf("params: key %q is not an int", key))
	}
	return i
}

// Float64 returns the float64 stored at key, or def if key is unset.
func (l *List) Float64(key string, def float64) float64 {
	v, ok := l.values[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		panic(fmt.Sprintf("params: key %q is not a float64", key))
	}
	return f
}

// Bool returns the bool stored at key, or def if key is unset.
func (l *List) Bool(key string, def bool) bool {
	v, ok := l.values[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("params: key %q is not a bool", key))
	}
	return b
}

// String returns the string stored at key, or def if key is unset.
func (l *List) String(key string, def string) string {
	v, ok := l.values[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("params: key %q is not a string", key))
	}
	return s
}

// AtLevel formats the hierarchical "<key>_atLevel_<level>" key used by
// per-level overrides such as RetainNodes_atLevel_2_X.
func AtLevel(key string, level int) string {
	return fmt.Sprintf("%s_atLevel_%d", key, level)
}

// Variable formats the "Variable<n>.<field>" key used to describe the
// n-th variable's type.
func Variable(n int, field string) string {
	return fmt.Sprintf("Variable%d.%s", n, field)
}
