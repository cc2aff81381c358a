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

// Package incremental wraps an engine together with the base facts and
// rules that produced its current state, so that adding a fact after an
// initial reasoning pass can be reconciled without the caller having to
// rebuild the engine by hand.
package incremental

import (
	"context"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/engine"
)

// Reasoner remembers every base fact and rule given to it, so that
// IncrementalReason can reproduce what a from-scratch Reason call would
// have produced with the augmented base.
type Reasoner struct {
	Horizon   int
	baseFacts []ast.TimedFact
	rules     []ast.Rule
	engine    *engine.Engine
}

// New constructs a Reasoner over [0, horizon] with no facts or rules yet.
func New(horizon int) *Reasoner {
	return &Reasoner{Horizon: horizon, engine: engine.New(horizon)}
}

// AddRule registers a rule with both the live engine and the remembered
// rule set used to rebuild future engines.
func (r *Reasoner) AddRule(rule ast.Rule) {
	r.rules = append(r.rules, rule)
	r.engine.AddRule(rule)
}

// AddFact registers a base fact with both the live engine and the
// remembered fact set. Call IncrementalReason afterwards to bring the
// reasoning result up to date.
func (r *Reasoner) AddFact(fact ast.TimedFact) {
	r.baseFacts = append(r.baseFacts, fact)
	r.engine.AddBaseFact(fact)
}

// Engine returns the live engine backing this reasoner.
func (r *Reasoner) Engine() *engine.Engine {
	return r.engine
}

// Reason runs the live engine's fixed point from its current state.
func (r *Reasoner) Reason(ctx context.Context, opts ...engine.Option) (engine.Stats, error) {
	return r.engine.Reason(ctx, opts...)
}

// IncrementalReason reproduces the result of running a fresh engine over
// every remembered base fact and rule. This minimal implementation rebuilds
// the engine and reruns the fixed point from scratch, which the governing
// contract for incremental reasoning accepts as a valid (if not maximally
// efficient) strategy: semi-naive evaluation already avoids re-deriving
// facts within the rerun itself.
func (r *Reasoner) IncrementalReason(ctx context.Context, opts ...engine.Option) (engine.Stats, error) {
	fresh := engine.New(r.Horizon)
	for _, rule := range r.rules {
		fresh.AddRule(rule)
	}
	for _, fact := range r.baseFacts {
		fresh.AddBaseFact(fact)
	}
	stats, err := fresh.Reason(ctx, opts...)
	r.engine = fresh
	return stats, err
}
