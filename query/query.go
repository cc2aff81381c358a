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

// Package query answers pattern lookups over a reasoned engine's fact
// store: a pattern atom (possibly with variables), optional pre-bound
// variables, and a time filter.
package query

import (
	"bitbucket.org/creachadair/stringset"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/factstore"
	"github.com/mangle-temporal/tdr/unify"
)

// TimeKind selects how a Query's time filter narrows the timesteps visited.
type TimeKind int

const (
	// Exact restricts to a single timestep.
	Exact TimeKind = iota
	// Range restricts to a closed [Start, End] timestep range.
	Range
	// Any visits every timestep in the store's horizon.
	Any
)

// TimeSpec narrows the timesteps a Query visits.
type TimeSpec struct {
	Kind       TimeKind
	Start, End int // Start used alone for Exact; both for Range; ignored for Any.
}

// AtTime builds an exact-timestep TimeSpec.
func AtTime(t int) TimeSpec { return TimeSpec{Kind: Exact, Start: t} }

// InRange builds a closed-range TimeSpec.
func InRange(start, end int) TimeSpec { return TimeSpec{Kind: Range, Start: start, End: end} }

// AnyTime builds a TimeSpec visiting every timestep.
func AnyTime() TimeSpec { return TimeSpec{Kind: Any} }

// Query is a pattern atom, an optional substitution of already-bound
// variables, and a time filter.
type Query struct {
	Pattern  ast.Atom
	Bindings ast.Subst
	Time     TimeSpec
}

// Result is one successful match: the concrete atom, the timestep it held
// at, and the full substitution (Query.Bindings extended by the match).
type Result struct {
	Atom     ast.Atom
	Time     int
	Bindings ast.Subst
}

func timesteps(q Query, horizon int) []int {
	switch q.Time.Kind {
	case Exact:
		if q.Time.Start < 0 || q.Time.Start > horizon {
			return nil
		}
		return []int{q.Time.Start}
	case Range:
		start, end := q.Time.Start, q.Time.End
		if start < 0 {
			start = 0
		}
		if end > horizon {
			end = horizon
		}
		var ts []int
		for t := start; t <= end; t++ {
			ts = append(ts, t)
		}
		return ts
	default:
		ts := make([]int, horizon+1)
		for t := range ts {
			ts[t] = t
		}
		return ts
	}
}

// Execute runs q against store, returning one Result per atom matching the
// pattern (under the pre-bound Bindings) at every timestep q.Time selects.
func Execute(store *factstore.Store, q Query) []Result {
	var results []Result
	for _, t := range timesteps(q, store.Horizon) {
		for _, atom := range store.ByPredicate(t, q.Pattern.Predicate) {
			if sub, ok := unify.Match(q.Pattern, atom, q.Bindings); ok {
				results = append(results, Result{Atom: atom, Time: t, Bindings: sub})
			}
		}
	}
	return results
}

// UniqueBindings returns the set of distinct values bound to varName across
// results. Iteration order over the returned set is not meaningful.
func UniqueBindings(results []Result, varName string) stringset.Set {
	set := stringset.New()
	for _, r := range results {
		if v, ok := r.Bindings.Get(varName); ok {
			set.Add(v)
		}
	}
	return set
}
