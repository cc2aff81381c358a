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

// Package validate checks a reasoned fact store against declarative
// constraints: uniqueness of a key argument and cardinality bounds on a
// predicate's fact count, evaluated independently at every timestep.
package validate

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/factstore"
)

// Violation names one constraint failure at one timestep.
type Violation struct {
	Constraint string
	Time       int
	Atoms      []ast.Atom
	Message    string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s at t=%d: %s", v.Constraint, v.Time, v.Message)
}

// Constraint checks a fact store at a single timestep, returning any
// Violations found.
type Constraint interface {
	// Name identifies the constraint in Violation.Constraint and as the key
	// of Result.Violations.
	Name() string
	// CheckAt evaluates the constraint against the atoms known at time t,
	// returning any violations found.
	CheckAt(store *factstore.Store, t int) []Violation
}

// Uniqueness requires that no two atoms of Predicate share the same value
// at KeyArgIndex, at any single timestep.
type Uniqueness struct {
	Predicate   ast.PredicateSym
	KeyArgIndex int
}

// Name implements Constraint.
func (u Uniqueness) Name() string { return fmt.Sprintf("Uniqueness(%s,%d)", u.Predicate, u.KeyArgIndex) }

// CheckAt implements Constraint.
func (u Uniqueness) CheckAt(store *factstore.Store, t int) []Violation {
	atoms := store.ByPredicate(t, u.Predicate)
	byKey := make(map[string][]ast.Atom)
	for _, a := range atoms {
		if u.KeyArgIndex < 0 || u.KeyArgIndex >= len(a.Args) {
			continue
		}
		key := a.Args[u.KeyArgIndex].String()
		byKey[key] = append(byKey[key], a)
	}
	var violations []Violation
	for key, group := range byKey {
		if len(group) > 1 {
			violations = append(violations, Violation{
				Constraint: u.Name(),
				Time:       t,
				Atoms:      group,
				Message:    fmt.Sprintf("key %q shared by %d atoms", key, len(group)),
			})
		}
	}
	return violations
}

// Cardinality requires that the number of atoms of Predicate at a timestep
// lies within [Min, Max].
type Cardinality struct {
	Predicate ast.PredicateSym
	Min, Max  int
}

// Name implements Constraint.
func (c Cardinality) Name() string { return fmt.Sprintf("Cardinality(%s,%d,%d)", c.Predicate, c.Min, c.Max) }

// CheckAt implements Constraint.
func (c Cardinality) CheckAt(store *factstore.Store, t int) []Violation {
	atoms := store.ByPredicate(t, c.Predicate)
	if len(atoms) >= c.Min && len(atoms) <= c.Max {
		return nil
	}
	return []Violation{{
		Constraint: c.Name(),
		Time:       t,
		Atoms:      atoms,
		Message:    fmt.Sprintf("count %d outside [%d,%d]", len(atoms), c.Min, c.Max),
	}}
}

// Result reports, per constraint, whether it passed at every timestep and
// the violations found where it did not.
type Result struct {
	Violations map[string][]Violation
}

// Passed reports whether no constraint was violated at any timestep.
func (r Result) Passed() bool {
	for _, vs := range r.Violations {
		if len(vs) > 0 {
			return false
		}
	}
	return true
}

// Err aggregates every violation into a single multierr error, or nil if
// Passed.
func (r Result) Err() error {
	var err error
	for _, vs := range r.Violations {
		for _, v := range vs {
			err = multierr.Append(err, v)
		}
	}
	return err
}

// Validate checks every constraint against store at every timestep in
// [0, store.Horizon].
func Validate(store *factstore.Store, constraints []Constraint) Result {
	result := Result{Violations: make(map[string][]Violation, len(constraints))}
	for _, c := range constraints {
		for t := 0; t <= store.Horizon; t++ {
			result.Violations[c.Name()] = append(result.Violations[c.Name()], c.CheckAt(store, t)...)
		}
	}
	return result
}
