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

package conflict

import (
	"testing"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/parse"
)

func mustRule(t *testing.T, name, text string) ast.Rule {
	t.Helper()
	r, err := parse.Rule(name, text)
	if err != nil {
		t.Fatalf("parse.Rule(%q) error = %v", text, err)
	}
	return r
}

func TestFindOverlappingHeadsSymmetricPair(t *testing.T) {
	rules := []ast.Rule{
		mustRule(t, "r1", "friend(x,y) <-1 knows(x,y)"),
		mustRule(t, "r2", "friend(a,b) <-1 trusts(a,b)"),
		mustRule(t, "r3", "enemy(x,y) <-1 rival(x,y)"),
	}
	got := FindOverlappingHeads(rules)
	if len(got) != 1 {
		t.Fatalf("got %d overlaps, want 1: %v", len(got), got)
	}
	if got[0].RuleA != "r1" || got[0].RuleB != "r2" {
		t.Errorf("overlap = %+v, want r1/r2", got[0])
	}
}

func TestFindOverlappingHeadsRejectsConstantMismatch(t *testing.T) {
	rules := []ast.Rule{
		mustRule(t, "r1", "status(x,Active) <-1 knows(x,y)"),
		mustRule(t, "r2", "status(x,Inactive) <-1 trusts(x,y)"),
	}
	got := FindOverlappingHeads(rules)
	if len(got) != 0 {
		t.Errorf("expected no overlap with conflicting constants, got %v", got)
	}
}

func TestFindCircularDependenciesDetectsCycle(t *testing.T) {
	rules := []ast.Rule{
		mustRule(t, "r1", "p(x) <-1 q(x)"),
		mustRule(t, "r2", "q(x) <-1 p(x)"),
		mustRule(t, "r3", "r(x) <-1 s(x)"),
	}
	groups := FindCircularDependencies(rules)
	if len(groups) != 1 {
		t.Fatalf("got %d SCC groups, want 1: %v", len(groups), groups)
	}
	if len(groups[0].Predicates) != 2 {
		t.Errorf("expected the p/q cycle to have 2 predicates, got %v", groups[0].Predicates)
	}
}

func TestFindCircularDependenciesDetectsSelfLoop(t *testing.T) {
	rules := []ast.Rule{
		mustRule(t, "r1", "ancestor(x,y) <-1 ancestor(x,y)"),
	}
	groups := FindCircularDependencies(rules)
	if len(groups) != 1 || len(groups[0].Predicates) != 1 {
		t.Fatalf("expected one singleton self-loop group, got %v", groups)
	}
}

func TestFindCircularDependenciesNoFalsePositive(t *testing.T) {
	rules := []ast.Rule{
		mustRule(t, "r1", "friend(x,y) <-1 knows(x,y)"),
		mustRule(t, "r2", "canFly(x) <-1 bird(x), not penguin(x)"),
	}
	groups := FindCircularDependencies(rules)
	if len(groups) != 0 {
		t.Errorf("expected no cycles in a strictly layered rule set, got %v", groups)
	}
}
