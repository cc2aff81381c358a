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
)

// reasonNaive implements the naive (indexed=false) and predicate-indexed
// (indexed=true) forward-chaining variants: every round re-scans the full
// fact set at each timestep and re-derives every consequence, stopping
// once a full round adds nothing new.
func (e *Engine) reasonNaive(ctx context.Context, o Options, indexed bool) (rounds, created int, err error) {
	for {
		if err = ctx.Err(); err != nil {
			return rounds, created, err
		}
		rounds++
		log.V(1).Infof("naive round %d starting, %d facts created so far", rounds, created)
		changed := false
		for t := 0; t <= e.Horizon; t++ {
			for _, r := range e.Rules {
				if !r.IsActiveAt(t) {
					continue
				}
				baseTime := t + r.Delay
				if baseTime > e.Horizon {
					continue
				}
				candidates := fullCandidates(e, t, indexed)
				bindings := joinBody(r.Body, t, candidates, candidates)
				n := e.applyBindings(r, baseTime, bindings)
				if n > 0 {
					changed = true
					created += n
				}
				if o.CreatedFactLimit > 0 && created >= o.CreatedFactLimit {
					return rounds, created, nil
				}
			}
		}
		if !changed {
			log.V(1).Infof("naive reasoning converged after %d rounds, %d facts created", rounds, created)
			return rounds, created, nil
		}
	}
}
