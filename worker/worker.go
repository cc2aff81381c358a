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

// Package worker defines the contract a distributed layer would use to
// shard rules across nodes, each wrapping a single-node reasoner. Local
// provides a reference, in-process implementation of that contract; it is
// not itself a distributed system.
package worker

import (
	"context"
	"time"

	"github.com/mangle-temporal/tdr/ast"
	"github.com/mangle-temporal/tdr/engine"
)

// Result is the outcome of one Reason call: derived facts, execution time,
// and a success flag. A failed call is reported through Success/Message
// rather than an error return, matching the synchronous, transport-layer
// failure model a remote worker would use.
type Result struct {
	DerivedFacts []ast.TimedFact
	Duration     time.Duration
	Success      bool
	Message      string
}

// Stats summarizes a worker's accumulated state for monitoring.
type Stats struct {
	RuleCount int
	FactCount int
	Horizon   int
}

// Service is the contract a distributed worker layer depends on. All calls
// are synchronous; a worker reports failure through Result.Success rather
// than a transport error, except where the method itself returns an error
// (construction-time problems such as a malformed rule or fact).
type Service interface {
	AddFact(ctx context.Context, f ast.TimedFact) error
	AddRule(ctx context.Context, r ast.Rule) error
	AddDerivedFacts(ctx context.Context, facts []ast.TimedFact) error
	Reason(ctx context.Context, startTime, endTime int) Result
	Reset(ctx context.Context)
	IsHealthy(ctx context.Context) bool
	GetStats(ctx context.Context) Stats
}

// Local is a reference Service implementation wrapping a single in-process
// Engine: it satisfies the contract without any network transport, useful
// for testing a distributed layer against a real local collaborator.
type Local struct {
	horizon int
	engine  *engine.Engine
}

// NewLocal constructs a Local worker over [0, horizon].
func NewLocal(horizon int) *Local {
	return &Local{horizon: horizon, engine: engine.New(horizon)}
}

// AddFact implements Service.
func (l *Local) AddFact(_ context.Context, f ast.TimedFact) error {
	l.engine.AddBaseFact(f)
	return nil
}

// AddRule implements Service.
func (l *Local) AddRule(_ context.Context, r ast.Rule) error {
	l.engine.AddRule(r)
	return nil
}

// AddDerivedFacts implements Service: facts handed down from a prior
// reasoning pass elsewhere (e.g. another shard) are folded in as base
// facts for this worker's own reasoning.
func (l *Local) AddDerivedFacts(_ context.Context, facts []ast.TimedFact) error {
	for _, f := range facts {
		l.engine.AddBaseFact(f)
	}
	return nil
}

// Reason implements Service, restricting derived-fact collection to the
// [startTime, endTime] sub-range while still reasoning over the full
// engine state (a rule's support may lie outside the reported range).
func (l *Local) Reason(ctx context.Context, startTime, endTime int) Result {
	start := time.Now()
	if _, err := l.engine.Reason(ctx); err != nil {
		return Result{Success: false, Message: err.Error(), Duration: time.Since(start)}
	}
	if startTime < 0 {
		startTime = 0
	}
	if endTime > l.horizon {
		endTime = l.horizon
	}
	var derived []ast.TimedFact
	for t := startTime; t <= endTime; t++ {
		for _, atom := range l.engine.Store.At(t) {
			if !l.engine.Provenance.IsDerived(atom, t) {
				continue
			}
			iv, _ := ast.NewInterval(t, t)
			derived = append(derived, ast.NewTimedFact(atom, "", iv))
		}
	}
	return Result{DerivedFacts: derived, Duration: time.Since(start), Success: true}
}

// Reset implements Service, discarding all rules and facts.
func (l *Local) Reset(_ context.Context) {
	l.engine = engine.New(l.horizon)
}

// IsHealthy implements Service: a Local worker is always healthy once
// constructed, since it has no network dependency to fail.
func (l *Local) IsHealthy(_ context.Context) bool {
	return l.engine != nil
}

// GetStats implements Service.
func (l *Local) GetStats(_ context.Context) Stats {
	return Stats{
		RuleCount: len(l.engine.Rules),
		FactCount: l.engine.Store.Size(),
		Horizon:   l.horizon,
	}
}
