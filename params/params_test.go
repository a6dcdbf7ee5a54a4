// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package params

import "testing"

func TestDefaultsWhenUnset(t *testing.T) {
	l := New()
	if got := l.Int("NumberOfLevels", 1); got != 1 {
		t.Fatalf("Int default = %d, want 1", got)
	}
	if got := l.Bool("FixPressureLevel", true); got != true {
		t.Fatalf("Bool default = %v, want true", got)
	}
	if got := l.String("Partitioner", "Cartesian"); got != "Cartesian" {
		t.Fatalf("String default = %q, want Cartesian", got)
	}
}

func TestSetOverridesDefault(t *testing.T) {
	l := New().Set("NumberOfLevels", 3)
	if got := l.Int("NumberOfLevels", 1); got != 3 {
		t.Fatalf("Int = %d, want 3", got)
	}
	if !l.Has("NumberOfLevels") {
		t.Fatal("Has(NumberOfLevels) = false, want true")
	}
}

func TestAtLevelKeyFormat(t *testing.T) {
	if got, want := AtLevel("RetainNodes_X", 2), "RetainNodes_X_atLevel_2"; got != want {
		t.Fatalf("AtLevel = %q, want %q", got, want)
	}
}

func TestVariableKeyFormat(t *testing.T) {
	if got, want := Variable(0, "VariableType"), "Variable0.VariableType"; got != want {
		t.Fatalf("Variable = %q, want %q", got, want)
	}
}

func TestWrongTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Int on a string value: want panic")
		}
	}()
	l := New().Set("Partitioner", "Cartesian")
	l.Int("Partitioner", 0)
}
