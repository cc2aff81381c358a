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

// Package engine implements the temporal forward-chaining fixed-point loop:
// naive, predicate-indexed, semi-naive and parallel variants all compute the
// same result, differing only in how they avoid re-deriving facts already
// known.
package engine

import (
	"context"
	"time"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/factstore"
	"github.com/mangle-temporal/tdr/provenance"
)

// Mode selects which evaluation strategy Reason uses. All modes compute the
// identical fixed point; the final FactsAtTime sets do not depend on which
// one is chosen.
type Mode int

const (
	// Naive re-scans every atom at every timestep on every round.
	Naive Mode = iota
	// Indexed narrows body-literal matching to the matching predicate's
	// bucket instead of scanning every atom at a timestep.
	Indexed
	// SemiNaive evaluates each round as a union of delta joins, forcing one
	// body literal at a time to match only atoms added in the prior round.
	SemiNaive
	// Parallel runs SemiNaive's delta joins concurrently, one task per
	// (timestep, rule) pair within a round.
	Parallel
)

// Options configures a Reason call.
type Options struct {
	Mode Mode
	// CreatedFactLimit stops evaluation once this many facts have been
	// newly derived, leaving the interpretation partially evaluated. Zero
	// means unlimited.
	CreatedFactLimit int
}

// Option mutates Options; see WithMode and WithCreatedFactLimit.
type Option func(*Options)

// WithMode selects the evaluation strategy.
func WithMode(m Mode) Option {
	return func(o *Options) { o.Mode = m }
}

// WithCreatedFactLimit bounds the number of facts newly derived before
// evaluation stops early.
func WithCreatedFactLimit(limit int) Option {
	return func(o *Options) { o.CreatedFactLimit = limit }
}

func newOptions(opts ...Option) Options {
	o := Options{Mode: SemiNaive}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stats reports summary information about a completed Reason call.
type Stats struct {
	Rounds       int
	FactsCreated int
	Duration     time.Duration
	Mode         Mode
}

// Engine holds the fixed rule set, fact store and provenance store that
// together form a reasoning session over a bounded horizon.
type Engine struct {
	Rules      []ast.Rule
	Store      *factstore.Store
	Provenance *provenance.Store
	Horizon    int
}

// New constructs an Engine over [0, horizon] with no facts or rules yet.
func New(horizon int) *Engine {
	return &Engine{
		Store:      factstore.New(horizon),
		Provenance: provenance.New(),
		Horizon:    horizon,
	}
}

// AddRule registers a rule to be considered during Reason.
func (e *Engine) AddRule(r ast.Rule) {
	e.Rules = append(e.Rules, r)
}

// AddBaseFact inserts a base fact, unattributed in provenance: base facts
// have no DerivationInfo, which is how callers distinguish them from
// derived facts.
func (e *Engine) AddBaseFact(f ast.TimedFact) {
	e.Store.AddBase(f)
}

// Reason runs the fixed-point loop selected by opts (semi-naive by
// default) until no timestep gains a new fact, or until CreatedFactLimit is
// reached.
func (e *Engine) Reason(ctx context.Context, opts ...Option) (Stats, error) {
	o := newOptions(opts...)
	start := time.Now()
	var rounds, created int
	var err error
	switch o.Mode {
	case Naive:
		rounds, created, err = e.reasonNaive(ctx, o, false)
	case Indexed:
		rounds, created, err = e.reasonNaive(ctx, o, true)
	case SemiNaive:
		rounds, created, err = e.reasonSemiNaive(ctx, o, false)
	case Parallel:
		rounds, created, err = e.reasonSemiNaive(ctx, o, true)
	default:
		rounds, created, err = e.reasonSemiNaive(ctx, o, false)
	}
	return Stats{
		Rounds:       rounds,
		FactsCreated: created,
		Duration:     time.Since(start),
		Mode:         o.Mode,
	}, err
}
