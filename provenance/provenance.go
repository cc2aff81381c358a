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

// Package provenance records, for each derived (atom, time) pair, which
// rule produced it, from which source atoms, and under which substitution.
// It supports human-readable explanations and cycle-safe derivation trees.
package provenance

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mangle-temporal/tdr/ast"
)

// key identifies a (atom, time) pair. Atom carries a slice field so it is
// not itself comparable; key reduces it to its canonical string form.
type key struct {
	atom string
	t    int
}

func keyFor(atom ast.Atom, t int) key {
	return key{atom.String(), t}
}

// Source names one body atom, at the time it matched, that contributed to
// a derivation.
type Source struct {
	Atom ast.Atom
	Time int
}

// DerivationInfo records one way a fact was derived: the rule that fired,
// the grounded body atoms (and their times) it matched, and the
// substitution under which it fired.
type DerivationInfo struct {
	RuleName string
	Sources  []Source
	Subst    ast.Subst
}

// Store is an append-only map from (atom, time) to the list of ways that
// fact was derived. An atom with no records at a given time is a base
// fact, or simply not known.
type Store struct {
	mu      sync.Mutex
	records map[key][]DerivationInfo
	atoms   map[key]ast.Atom
}

// New constructs an empty provenance store.
func New() *Store {
	return &Store{
		records: make(map[key][]DerivationInfo),
		atoms:   make(map[key]ast.Atom),
	}
}

// Record appends info to the derivation list for (atom, t).
func (s *Store) Record(atom ast.Atom, t int, info DerivationInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyFor(atom, t)
	s.records[k] = append(s.records[k], info)
	s.atoms[k] = atom
}

// IsDerived reports whether at least one derivation record exists for
// (atom, t). A base fact appearing at t, or an atom never recorded, is not
// derived.
func (s *Store) IsDerived(atom ast.Atom, t int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[keyFor(atom, t)]) > 0
}

// Records returns every DerivationInfo recorded for (atom, t), in
// recording order.
func (s *Store) Records(atom ast.Atom, t int) []DerivationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[keyFor(atom, t)]
	out := make([]DerivationInfo, len(recs))
	copy(out, recs)
	return out
}

// Explain returns a human-readable account of one derivation of (atom, t):
// the rule name, each source atom and its time, and the substitution. When
// there is no record it reports the fact as a base fact; it does not check
// whether the fact is known at all.
func (s *Store) Explain(atom ast.Atom, t int) string {
	s.mu.Lock()
	recs := s.records[keyFor(atom, t)]
	s.mu.Unlock()
	if len(recs) == 0 {
		return fmt.Sprintf("%s at t=%d is a base fact (no derivation recorded)", atom, t)
	}
	info := recs[0]
	srcs := make([]string, len(info.Sources))
	for i, src := range info.Sources {
		srcs[i] = fmt.Sprintf("%s@%d", src.Atom, src.Time)
	}
	return fmt.Sprintf("%s@%d derived by rule %q from [%s] under {%s}",
		atom, t, info.RuleName, strings.Join(srcs, ", "), info.Subst.String())
}

// Node is one vertex of a DerivationTree: either a base fact, a cycle cut
// by the visited-set check, or a derivation step with one child per source
// atom of its first derivation record.
type Node struct {
	Atom     ast.Atom
	Time     int
	Base     bool
	Cycle    bool
	RuleName string
	Subst    ast.Subst
	Children []*Node
}

// DerivationTree builds the recursive explanation tree rooted at (atom, t),
// following the first DerivationInfo at each step. Revisiting a (atom, t)
// pair already on the current path yields a Cycle leaf instead of
// recursing, so the tree is always finite even when the underlying
// inflationary derivation is circular.
func (s *Store) DerivationTree(atom ast.Atom, t int) *Node {
	return s.buildTree(atom, t, map[key]bool{})
}

func (s *Store) buildTree(atom ast.Atom, t int, visited map[key]bool) *Node {
	k := keyFor(atom, t)
	if visited[k] {
		return &Node{Atom: atom, Time: t, Cycle: true}
	}
	s.mu.Lock()
	recs := s.records[k]
	s.mu.Unlock()
	if len(recs) == 0 {
		return &Node{Atom: atom, Time: t, Base: true}
	}
	info := recs[0]
	next := make(map[key]bool, len(visited)+1)
	for kk := range visited {
		next[kk] = true
	}
	next[k] = true
	node := &Node{Atom: atom, Time: t, RuleName: info.RuleName, Subst: info.Subst}
	for _, src := range info.Sources {
		node.Children = append(node.Children, s.buildTree(src.Atom, src.Time, next))
	}
	return node
}
