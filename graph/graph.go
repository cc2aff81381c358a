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

// Package graph defines the contract between this module and an external
// graph-loading collaborator: it never reads a node/edge description file
// itself, it only turns the edges such a loader produces into ground
// TimedFacts covering the whole horizon.
package graph

import "github.com/mangle-temporal/tdr/ast"

// Edge is one edge of an externally loaded graph: a source and target node
// related by Predicate, with an optional attribute value. Node attributes
// are symmetric: either endpoint may be the source.
type Edge struct {
	Source, Target string
	Predicate      string
	Value          *string
}

// ToFacts converts a sequence of edges into TimedFacts holding across the
// whole [0, horizon] horizon: edge(source, target, predicateName[, value])
// becomes a ground atom predicateName(source, target) (or
// predicateName(source, target, value) when Value is set).
func ToFacts(edges []Edge, horizon int) []ast.TimedFact {
	iv, _ := ast.NewInterval(0, horizon)
	facts := make([]ast.TimedFact, 0, len(edges))
	for _, e := range edges {
		args := []ast.Term{ast.Constant{e.Source}, ast.Constant{e.Target}}
		if e.Value != nil {
			args = append(args, ast.Constant{*e.Value})
		}
		atom := ast.NewAtom(e.Predicate, args...)
		facts = append(facts, ast.NewTimedFact(atom, "", iv))
	}
	return facts
}
