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

// Package conflict performs static analysis over a rule set only, with no
// fact store involved: it flags rules whose heads overlap and predicates
// whose dependencies form a cycle.
package conflict

import (
	"github.com/mangle-temporal/tdr/ast"
)

// HeadOverlap names two rules whose head predicates are equal and whose
// head argument patterns unify pairwise (in either direction, since
// matching is one-way but the relation being reported is symmetric).
type HeadOverlap struct {
	RuleA, RuleB string
	Predicate    ast.PredicateSym
}

// overlaps reports whether two head atoms of the same predicate can
// produce the same ground atom by comparing argument positions pairwise:
// two constants must agree, and a variable position is compatible with
// anything. Repeated variables within one head are not checked for
// consistency.
func overlaps(a, b ast.Atom) bool {
	if a.Predicate != b.Predicate {
		return false
	}
	for i := range a.Args {
		ca, aIsConst := a.Args[i].(ast.Constant)
		cb, bIsConst := b.Args[i].(ast.Constant)
		if aIsConst && bIsConst && ca.Name != cb.Name {
			return false
		}
	}
	return true
}

// FindOverlappingHeads reports every unordered pair of distinct rules whose
// heads can unify. The relation is symmetric: reporting (A,B) and (B,A)
// both would be redundant, so each unordered pair is reported once.
func FindOverlappingHeads(rules []ast.Rule) []HeadOverlap {
	var found []HeadOverlap
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if overlaps(rules[i].Head, rules[j].Head) {
				found = append(found, HeadOverlap{
					RuleA:     rules[i].Name,
					RuleB:     rules[j].Name,
					Predicate: rules[i].Head.Predicate,
				})
			}
		}
	}
	return found
}

// depGraph maps a predicate to the set of predicates it depends on: p -> q
// when p appears in some rule body whose head uses q.
type depGraph map[ast.PredicateSym]map[ast.PredicateSym]bool

func buildDepGraph(rules []ast.Rule) depGraph {
	dep := make(depGraph)
	initNode := func(p ast.PredicateSym) {
		if _, ok := dep[p]; !ok {
			dep[p] = make(map[ast.PredicateSym]bool)
		}
	}
	for _, r := range rules {
		head := r.Head.Predicate
		for _, lit := range r.Body {
			p := lit.Atom.Predicate
			initNode(p)
			initNode(head)
			dep[p][head] = true
		}
	}
	return dep
}

func (dep depGraph) transpose() depGraph {
	rev := make(depGraph)
	for src, edges := range dep {
		if _, ok := rev[src]; !ok {
			rev[src] = make(map[ast.PredicateSym]bool)
		}
		for dest := range edges {
			if _, ok := rev[dest]; !ok {
				rev[dest] = make(map[ast.PredicateSym]bool)
			}
			rev[dest][src] = true
		}
	}
	return rev
}

// SCCGroup is one strongly connected component of the predicate dependency
// graph, reported as a conflict when it has more than one member, or a
// single member with a self-edge (direct recursion).
type SCCGroup struct {
	Predicates []ast.PredicateSym
}

// sccs computes the strongly connected components of dep via Kosaraju's
// algorithm: a forward pass records a postorder finishing stack, then a
// reverse pass over the transposed graph, popping the stack, collects each
// component.
func (dep depGraph) sccs() []map[ast.PredicateSym]bool {
	var order []ast.PredicateSym
	seen := make(map[ast.PredicateSym]bool)
	var visit func(ast.PredicateSym)
	visit = func(p ast.PredicateSym) {
		if seen[p] {
			return
		}
		seen[p] = true
		for q := range dep[p] {
			visit(q)
		}
		order = append(order, p)
	}
	for p := range dep {
		visit(p)
	}

	rev := dep.transpose()
	seen = make(map[ast.PredicateSym]bool)
	var comp map[ast.PredicateSym]bool
	var rvisit func(ast.PredicateSym)
	rvisit = func(p ast.PredicateSym) {
		if seen[p] {
			return
		}
		seen[p] = true
		comp[p] = true
		for q := range rev[p] {
			rvisit(q)
		}
	}
	var comps []map[ast.PredicateSym]bool
	for i := len(order) - 1; i >= 0; i-- {
		top := order[i]
		if seen[top] {
			continue
		}
		comp = make(map[ast.PredicateSym]bool)
		rvisit(top)
		comps = append(comps, comp)
	}
	return comps
}

// FindCircularDependencies reports every strongly connected component of
// the predicate dependency graph with more than one predicate, plus any
// singleton component whose predicate depends on itself directly.
func FindCircularDependencies(rules []ast.Rule) []SCCGroup {
	dep := buildDepGraph(rules)
	var groups []SCCGroup
	for _, comp := range dep.sccs() {
		isCircular := len(comp) > 1
		if len(comp) == 1 {
			for p := range comp {
				if dep[p][p] {
					isCircular = true
				}
			}
		}
		if !isCircular {
			continue
		}
		group := SCCGroup{}
		for p := range comp {
			group.Predicates = append(group.Predicates, p)
		}
		groups = append(groups, group)
	}
	return groups
}

// Analysis groups the static conflicts found in a rule set.
type Analysis struct {
	OverlappingHeads    []HeadOverlap
	CircularDependency []SCCGroup
}

// Analyze runs every static check over rules.
func Analyze(rules []ast.Rule) Analysis {
	return Analysis{
		OverlappingHeads:   FindOverlappingHeads(rules),
		CircularDependency: FindCircularDependencies(rules),
	}
}
