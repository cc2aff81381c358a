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

package engine

import (
	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/provenance"
	"github.com/mangle-temporal/tdr/unify"
)

// candidateSource returns the candidate atoms to try for body literal index
// i with the given predicate. Its shape lets the naive, indexed and
// semi-naive evaluators share one join routine while differing only in
// which atoms each literal is allowed to draw from.
type candidateSource func(literalIndex int, predicate ast.PredicateSym) []ast.Atom

// binding is one successful substitution together with the provenance
// sources (body atom + time) it matched, in body order.
type binding struct {
	subst   ast.Subst
	sources []provenance.Source
}

// joinBody finds every substitution under which every positive literal in
// body matches a candidate atom and every negated literal matches none,
// evaluating negation against negCandidates (always the full fact set at
// the firing time, per negation-as-failure semantics) rather than
// candidates, which may be delta-restricted for semi-naive evaluation.
func joinBody(body []ast.Literal, sourceTime int, candidates, negCandidates candidateSource) []binding {
	bindings := []binding{{subst: nil}}
	for i, lit := range body {
		var next []binding
		for _, b := range bindings {
			if lit.Polarity == ast.Negated {
				if !anyMatches(lit.Atom, b.subst, negCandidates(i, lit.Atom.Predicate)) {
					next = append(next, b)
				}
				continue
			}
			for _, atom := range candidates(i, lit.Atom.Predicate) {
				if ns, ok := unify.Match(lit.Atom, atom, b.subst); ok {
					sources := make([]provenance.Source, len(b.sources), len(b.sources)+1)
					copy(sources, b.sources)
					sources = append(sources, provenance.Source{Atom: atom, Time: sourceTime})
					next = append(next, binding{subst: ns, sources: sources})
				}
			}
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}
	return bindings
}

// positiveIndices returns the body indices of the rule's positive literals,
// in order: these are the literals a semi-naive round takes turns forcing
// against the delta set.
func positiveIndices(body []ast.Literal) []int {
	var idx []int
	for i, lit := range body {
		if lit.Polarity == ast.Positive {
			idx = append(idx, i)
		}
	}
	return idx
}

func anyMatches(pattern ast.Atom, sub ast.Subst, candidates []ast.Atom) bool {
	for _, atom := range candidates {
		if unify.Matches(pattern, atom, sub) {
			return true
		}
	}
	return false
}

// fullCandidates builds a candidateSource drawing every literal from the
// full fact set at t, optionally narrowed by predicate when indexed is
// true (predicate-indexed matching; results are identical to the naive
// scan, only the scan width differs).
func fullCandidates(e *Engine, t int, indexed bool) candidateSource {
	return func(_ int, pred ast.PredicateSym) []ast.Atom {
		if indexed {
			return e.Store.ByPredicate(t, pred)
		}
		return e.Store.At(t)
	}
}

// deltaCandidates builds a candidateSource for the p-th delta join of a
// semi-naive round: literal p draws only from delta[t], every other
// literal draws from the full fact set at t.
func deltaCandidates(e *Engine, t int, forcedIndex int) candidateSource {
	return func(i int, pred ast.PredicateSym) []ast.Atom {
		if i == forcedIndex {
			return e.Store.DeltaByPredicate(t, pred)
		}
		return e.Store.ByPredicate(t, pred)
	}
}

// applyBindings grounds the rule head under every binding and inserts it at
// each timestep the rule's head-interval offsets broadcast to, recording
// provenance for each newly added fact. It returns how many facts were
// newly added; callers treat a nonzero count as a change in the round.
func (e *Engine) applyBindings(r ast.Rule, baseTime int, bindings []binding) int {
	created := 0
	for _, b := range bindings {
		head := r.Head.ApplySubst(b.subst)
		for k := r.HeadStartOffset; k <= r.HeadEndOffset; k++ {
			tt := baseTime + k
			if tt < 0 || tt > e.Horizon {
				continue
			}
			if e.Store.Add(head, tt) {
				created++
				e.Provenance.Record(head, tt, provenance.DerivationInfo{
					RuleName: r.Name,
					Sources:  b.sources,
					Subst:    b.subst,
				})
			}
		}
	}
	return created
}
