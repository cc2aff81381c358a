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
	"context"

	log "github.com/golang/glog"
	"github.com/mangle-temporal/tdr/ast"
	"golang.org/x/sync/errgroup"
)

// reasonSemiNaive fires every rule once against the full fact set (round
// 0), then repeatedly unions, per rule, one delta join per positive body
// literal until no timestep's delta set gains anything. When parallel is
// true, the (timestep, rule) tasks within a round run concurrently; the
// result is identical either way because fact-store insertion is atomic.
func (e *Engine) reasonSemiNaive(ctx context.Context, o Options, parallel bool) (rounds, created int, err error) {
	round0, err := e.roundFull(ctx, o)
	created += round0
	rounds++
	log.V(1).Infof("semi-naive round 0 (full) created %d facts", round0)
	if err != nil || (o.CreatedFactLimit > 0 && created >= o.CreatedFactLimit) {
		return rounds, created, err
	}
	if !e.Store.Advance() {
		log.V(1).Infof("semi-naive reasoning converged after round 0")
		return rounds, created, nil
	}
	for {
		if err = ctx.Err(); err != nil {
			return rounds, created, err
		}
		rounds++
		var n int
		if parallel {
			n, err = e.roundDeltaParallel(ctx, o)
		} else {
			n, err = e.roundDelta(ctx, o)
		}
		created += n
		log.V(1).Infof("semi-naive round %d created %d facts (parallel=%t)", rounds, n, parallel)
		if err != nil || (o.CreatedFactLimit > 0 && created >= o.CreatedFactLimit) {
			return rounds, created, err
		}
		if !e.Store.Advance() {
			log.V(1).Infof("semi-naive reasoning converged after %d rounds, %d facts created", rounds, created)
			return rounds, created, nil
		}
	}
}

// roundFull runs one full join of every active rule at every timestep
// against the complete fact set, as required for round 0.
func (e *Engine) roundFull(ctx context.Context, o Options) (int, error) {
	created := 0
	for t := 0; t <= e.Horizon; t++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		for _, r := range e.Rules {
			if !r.IsActiveAt(t) {
				continue
			}
			baseTime := t + r.Delay
			if baseTime > e.Horizon {
				continue
			}
			candidates := fullCandidates(e, t, true)
			bindings := joinBody(r.Body, t, candidates, candidates)
			created += e.applyBindings(r, baseTime, bindings)
			if o.CreatedFactLimit > 0 && created >= o.CreatedFactLimit {
				return created, nil
			}
		}
	}
	return created, nil
}

// roundDelta runs one round's union of delta joins, one per positive body
// literal of each active rule, sequentially.
func (e *Engine) roundDelta(ctx context.Context, o Options) (int, error) {
	created := 0
	for t := 0; t <= e.Horizon; t++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		for _, r := range e.Rules {
			if !r.IsActiveAt(t) {
				continue
			}
			n := e.deltaJoinsForRule(r, t)
			created += n
			if o.CreatedFactLimit > 0 && created >= o.CreatedFactLimit {
				return created, nil
			}
		}
	}
	return created, nil
}

// roundDeltaParallel runs the same delta joins as roundDelta, but spreads
// the (timestep, rule) tasks of the round across goroutines. Fact-store
// insertion is atomic, so the set of facts produced is the same regardless
// of scheduling.
func (e *Engine) roundDeltaParallel(ctx context.Context, o Options) (int, error) {
	type task struct {
		t int
		r int
	}
	var tasks []task
	for t := 0; t <= e.Horizon; t++ {
		for ri, r := range e.Rules {
			if r.IsActiveAt(t) {
				tasks = append(tasks, task{t, ri})
			}
		}
	}
	counts := make([]int, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, tk := range tasks {
		i, tk := i, tk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			counts[i] = e.deltaJoinsForRule(e.Rules[tk.r], tk.t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	created := 0
	for _, c := range counts {
		created += c
	}
	return created, nil
}

// deltaJoinsForRule evaluates, for a single (timestep, rule) pair, the
// union of delta joins over every positive body literal, applying the
// resulting bindings.
func (e *Engine) deltaJoinsForRule(r ast.Rule, t int) int {
	baseTime := t + r.Delay
	if baseTime > e.Horizon {
		return 0
	}
	negCandidates := fullCandidates(e, t, true)
	created := 0
	for _, p := range positiveIndices(r.Body) {
		bindings := joinBody(r.Body, t, deltaCandidates(e, t, p), negCandidates)
		created += e.applyBindings(r, baseTime, bindings)
	}
	return created
}
