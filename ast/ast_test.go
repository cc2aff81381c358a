// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewTerm(t *testing.T) {
	tests := []struct {
		token string
		want  Term
	}{
		{"x", Variable{"x"}},
		{"knows", Variable{"knows"}},
		{"Alice", Constant{"Alice"}},
		{"_under", Constant{"_under"}},
	}
	for _, tc := range tests {
		got := NewTerm(tc.token)
		if !got.Equals(tc.want) {
			t.Errorf("NewTerm(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestAtomApplySubst(t *testing.T) {
	a := NewAtom("knows", Variable{"x"}, Constant{"Bob"})
	got := a.ApplySubst(Subst{"x": "Alice"})
	want := NewAtom("knows", Constant{"Alice"}, Constant{"Bob"})
	if !got.Equals(want) {
		t.Errorf("ApplySubst() = %v, want %v", got, want)
	}
	if !got.IsGround() {
		t.Errorf("ApplySubst() result should be ground: %v", got)
	}
}

func TestSubstExtendDoesNotMutate(t *testing.T) {
	base := Subst{"x": "Alice"}
	extended := base.Extend("y", "Bob")
	if _, ok := base["y"]; ok {
		t.Fatalf("Extend mutated receiver: %v", base)
	}
	if c, _ := extended.Get("x"); c != "Alice" {
		t.Errorf("extended lost existing binding: %v", extended)
	}
	if c, _ := extended.Get("y"); c != "Bob" {
		t.Errorf("extended missing new binding: %v", extended)
	}
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{2, 5}
	for t2 := 0; t2 <= 7; t2++ {
		want := t2 >= 2 && t2 <= 5
		if got := iv.Contains(t2); got != want {
			t.Errorf("Contains(%d) = %v, want %v", t2, got, want)
		}
	}
}

func TestNewIntervalRejectsBackwards(t *testing.T) {
	if _, err := NewInterval(5, 2); err == nil {
		t.Error("NewInterval(5, 2) should fail")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		iv       Interval
		lo, hi   int
		want     Interval
		wantOK   bool
	}{
		{Interval{-3, 3}, 0, 10, Interval{0, 3}, true},
		{Interval{5, 20}, 0, 10, Interval{5, 10}, true},
		{Interval{-5, -1}, 0, 10, Interval{}, false},
		{Interval{11, 20}, 0, 10, Interval{}, false},
	}
	for _, tc := range tests {
		got, ok := Clamp(tc.iv, tc.lo, tc.hi)
		if ok != tc.wantOK {
			t.Errorf("Clamp(%v,%d,%d) ok = %v, want %v", tc.iv, tc.lo, tc.hi, ok, tc.wantOK)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("Clamp(%v,%d,%d) = %v, want %v", tc.iv, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestUnionMergesOverlaps(t *testing.T) {
	got := Union([]Interval{{5, 8}, {0, 3}, {3, 6}, {10, 12}})
	want := []Interval{{0, 8}, {10, 12}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Union() mismatch (-want +got):\n%s", diff)
	}
}

func TestTimestepsClampsToHorizon(t *testing.T) {
	got := Timesteps([]Interval{{-2, 2}, {8, 12}}, 10)
	want := []int{0, 1, 2, 8, 9, 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Timesteps() mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleIsActiveAt(t *testing.T) {
	alwaysOn := Rule{}
	for t2 := 0; t2 < 5; t2++ {
		if !alwaysOn.IsActiveAt(t2) {
			t.Errorf("rule with no ActiveIntervals should be always active at %d", t2)
		}
	}
	windowed := Rule{ActiveIntervals: []Interval{{0, 3}}}
	if !windowed.IsActiveAt(2) {
		t.Error("windowed rule should be active at 2")
	}
	if windowed.IsActiveAt(4) {
		t.Error("windowed rule should not be active at 4")
	}
}

func TestRuleString(t *testing.T) {
	r := Rule{
		Head:  NewAtom("friend", Variable{"x"}, Variable{"z"}),
		Delay: 1,
		Body: []Literal{
			{Atom: NewAtom("friend", Variable{"x"}, Variable{"y"})},
			{Atom: NewAtom("knows", Variable{"y"}, Variable{"z"})},
		},
	}
	want := "friend(x,z) <- friend(x,y), knows(y,z)"
	if got := r.String(); got != want {
		t.Errorf("Rule.String() = %q, want %q", got, want)
	}
}

func TestRuleVarsOrder(t *testing.T) {
	r := Rule{
		Head: NewAtom("canAccess", Variable{"u"}, Variable{"r"}),
		Body: []Literal{
			{Atom: NewAtom("guest", Variable{"u"})},
			{Atom: NewAtom("permission", Constant{"Guest"}, Variable{"r"})},
		},
	}
	got := r.Vars()
	want := []string{"u", "r"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Vars() mismatch (-want +got):\n%s", diff)
	}
}
