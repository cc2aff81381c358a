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

// Package unify implements one-way pattern-to-ground matching: the left-hand
// side may contain variables, the right-hand side is always a ground atom.
// This is simpler than general unification (no variable-to-variable
// bindings are ever produced, matching the data-model invariant that a
// substitution never binds a variable to a variable) so it is implemented
// directly against a plain substitution map rather than a union-find
// structure.
package unify

import "github.com/mangle-temporal/tdr/ast"

// Match attempts to extend sub so that pattern, after substitution, equals
// ground. It returns the extended substitution and true on success. The
// input substitution is never mutated: on success a fresh map is returned,
// on failure sub is returned unchanged.
func Match(pattern, ground ast.Atom, sub ast.Subst) (ast.Subst, bool) {
	if pattern.Predicate != ground.Predicate {
		return sub, false
	}
	if len(pattern.Args) != len(ground.Args) {
		return sub, false
	}
	result := sub
	for i, arg := range pattern.Args {
		groundArg, ok := ground.Args[i].(ast.Constant)
		if !ok {
			// ground is expected to be fully ground; treat anything else as
			// a mismatch rather than panicking.
			return sub, false
		}
		switch t := arg.(type) {
		case ast.Constant:
			if t.Name != groundArg.Name {
				return sub, false
			}
		case ast.Variable:
			if bound, ok := result.Get(t.Name); ok {
				if bound != groundArg.Name {
					return sub, false
				}
				continue
			}
			result = result.Extend(t.Name, groundArg.Name)
		}
	}
	return result, true
}

// Matches reports whether pattern matches ground under sub, without
// returning the extended substitution.
func Matches(pattern, ground ast.Atom, sub ast.Subst) bool {
	_, ok := Match(pattern, ground, sub)
	return ok
}
