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

package parse

import (
	"strings"
	"testing"

	"github.com/mangle-temporal/tdr/ast"
)

func TestAtomBasic(t *testing.T) {
	a, err := Atom("knows(Alice,Bob)")
	if err != nil {
		t.Fatalf("Atom() error = %v", err)
	}
	want := ast.NewAtom("knows", ast.Constant{"Alice"}, ast.Constant{"Bob"})
	if !a.Equals(want) {
		t.Errorf("Atom() = %v, want %v", a, want)
	}
}

func TestAtomQuotedArgument(t *testing.T) {
	a, err := Atom(`label(x,"a, b")`)
	if err != nil {
		t.Fatalf("Atom() error = %v", err)
	}
	if len(a.Args) != 2 || a.Args[1].String() != `"a, b"` {
		t.Errorf("Atom() did not keep comma inside quotes intact: %v", a)
	}
}

func TestAtomMissingParen(t *testing.T) {
	if _, err := Atom("knows Alice,Bob"); err == nil {
		t.Error("expected ParseError for missing parentheses")
	}
}

func TestLiteralNegation(t *testing.T) {
	tests := []string{"not penguin(x)", "NOT penguin(x)", "not   penguin(x)"}
	for _, s := range tests {
		lit, err := Literal(s)
		if err != nil {
			t.Fatalf("Literal(%q) error = %v", s, err)
		}
		if lit.Polarity != ast.Negated {
			t.Errorf("Literal(%q) polarity = %v, want Negated", s, lit.Polarity)
		}
	}
	lit, err := Literal("penguin(x)")
	if err != nil {
		t.Fatalf("Literal() error = %v", err)
	}
	if lit.Polarity != ast.Positive {
		t.Errorf("Literal() polarity = %v, want Positive", lit.Polarity)
	}
}

func TestRuleTransitiveFriendship(t *testing.T) {
	r1, err := Rule("r1", "friend(x,y) <-1 knows(x,y)")
	if err != nil {
		t.Fatalf("Rule(r1) error = %v", err)
	}
	if r1.Delay != 1 {
		t.Errorf("r1.Delay = %d, want 1", r1.Delay)
	}
	if len(r1.Body) != 1 || r1.Body[0].Atom.String() != "knows(x,y)" {
		t.Errorf("r1.Body = %v", r1.Body)
	}

	r2, err := Rule("r2", "friend(x,z) <-1 friend(x,y), knows(y,z)")
	if err != nil {
		t.Fatalf("Rule(r2) error = %v", err)
	}
	if len(r2.Body) != 2 {
		t.Fatalf("r2.Body has %d literals, want 2", len(r2.Body))
	}
	if r2.Body[0].Atom.String() != "friend(x,y)" || r2.Body[1].Atom.String() != "knows(y,z)" {
		t.Errorf("r2.Body = %v", r2.Body)
	}
}

func TestRuleNegationAsFailure(t *testing.T) {
	r, err := Rule("canFly", "canFly(x) <-1 bird(x), not penguin(x)")
	if err != nil {
		t.Fatalf("Rule() error = %v", err)
	}
	if len(r.Body) != 2 {
		t.Fatalf("Body has %d literals, want 2", len(r.Body))
	}
	if r.Body[0].Polarity != ast.Positive || r.Body[1].Polarity != ast.Negated {
		t.Errorf("unexpected polarities: %v", r.Body)
	}
}

func TestRuleHeadInterval(t *testing.T) {
	r, err := Rule("alarm", "alarm(x) : [0,3] <-1 triggered(x)")
	if err != nil {
		t.Fatalf("Rule() error = %v", err)
	}
	if r.HeadStartOffset != 0 || r.HeadEndOffset != 3 {
		t.Errorf("head offsets = [%d,%d], want [0,3]", r.HeadStartOffset, r.HeadEndOffset)
	}
}

func TestRuleDefaultDelay(t *testing.T) {
	r, err := Rule("canAccess", "canAccess(u,r) <- guest(u), permission(Guest,r)")
	if err != nil {
		t.Fatalf("Rule() error = %v", err)
	}
	if r.Delay != 1 {
		t.Errorf("Delay = %d, want default 1", r.Delay)
	}
	if len(r.Body) != 2 {
		t.Fatalf("Body has %d literals, want 2", len(r.Body))
	}
}

func TestRuleMissingArrow(t *testing.T) {
	if _, err := Rule("bad", "friend(x,y) knows(x,y)"); err == nil {
		t.Error("expected ParseError for missing '<-'")
	}
}

func TestRuleMalformedHeadInterval(t *testing.T) {
	if _, err := Rule("bad", "alarm(x) : [3,0] <-1 triggered(x)"); err == nil {
		t.Error("expected ParseError for end < start")
	}
	if _, err := Rule("bad", "alarm(x) : [0] <-1 triggered(x)"); err == nil {
		t.Error("expected ParseError for malformed interval")
	}
}

func TestRuleSetAggregatesErrors(t *testing.T) {
	text := strings.Join([]string{
		"# a comment",
		"friend(x,y) <-1 knows(x,y)",
		"",
		"this is not a rule",
		"canFly(x) <-1 bird(x), not penguin(x)",
	}, "\n")
	rules, err := RuleSet(text)
	if len(rules) != 2 {
		t.Errorf("got %d rules, want 2: %v", len(rules), rules)
	}
	if err == nil {
		t.Error("expected an aggregated error for the malformed line")
	}
}

func TestFactSingleInterval(t *testing.T) {
	f, err := Fact("knows(Alice,Bob) : [0,10]")
	if err != nil {
		t.Fatalf("Fact() error = %v", err)
	}
	if f.Atom.String() != "knows(Alice,Bob)" {
		t.Errorf("Atom = %v", f.Atom)
	}
	if len(f.Intervals) != 1 || f.Intervals[0] != (ast.Interval{0, 10}) {
		t.Errorf("Intervals = %v", f.Intervals)
	}
	if f.ID == "" {
		t.Error("expected a generated fact ID")
	}
}

func TestFactMultipleIntervals(t *testing.T) {
	f, err := Fact("at(Alice,RoomA) : [0,5], [8,9]")
	if err != nil {
		t.Fatalf("Fact() error = %v", err)
	}
	if len(f.Intervals) != 2 {
		t.Fatalf("Intervals = %v, want 2 entries", f.Intervals)
	}
}

func TestFactRequiresInterval(t *testing.T) {
	if _, err := Fact("knows(Alice,Bob)"); err == nil {
		t.Error("expected ParseError for missing interval")
	}
}

func TestFactSetAggregatesErrors(t *testing.T) {
	text := "knows(Alice,Bob) : [0,10]\nmalformed\nknows(Bob,Charlie) : [0,10]"
	facts, err := FactSet(text)
	if len(facts) != 2 {
		t.Errorf("got %d facts, want 2", len(facts))
	}
	if err == nil {
		t.Error("expected an aggregated error")
	}
}

func TestFactStringRoundTrip(t *testing.T) {
	cases := []string{
		"knows(Alice,Bob) : [0,10]",
		"at(Alice,RoomA) : [0,5], [8,9]",
	}
	for _, text := range cases {
		f, err := Fact(text)
		if err != nil {
			t.Fatalf("Fact(%q) error = %v", text, err)
		}
		again, err := Fact(f.String())
		if err != nil {
			t.Fatalf("Fact(%q) (re-parsed) error = %v", f.String(), err)
		}
		if !again.Atom.Equals(f.Atom) {
			t.Errorf("round trip Atom = %v, want %v", again.Atom, f.Atom)
		}
		if len(again.Intervals) != len(f.Intervals) {
			t.Fatalf("round trip Intervals = %v, want %v", again.Intervals, f.Intervals)
		}
		for i := range f.Intervals {
			if again.Intervals[i] != f.Intervals[i] {
				t.Errorf("round trip Intervals[%d] = %v, want %v", i, again.Intervals[i], f.Intervals[i])
			}
		}
	}
}

func TestRuleStringRoundTrip(t *testing.T) {
	cases := []string{
		"friend(x,y) <-1 knows(x,y)",
		"friend(x,z) : [0,3] <-2 friend(x,y), knows(y,z)",
		"canFly(x) <-1 bird(x), not penguin(x)",
	}
	for _, text := range cases {
		r, err := Rule("r1", text)
		if err != nil {
			t.Fatalf("Rule(%q) error = %v", text, err)
		}
		again, err := Rule("r1", r.String())
		if err != nil {
			t.Fatalf("Rule(%q) (re-parsed) error = %v", r.String(), err)
		}
		if again.String() != r.String() {
			t.Errorf("round trip String() = %q, want %q", again.String(), r.String())
		}
	}
}
