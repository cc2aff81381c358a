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

// Package factstore holds the ground atoms known to be true at each
// timestep of a bounded horizon, indexed by predicate for join lookups and
// tracking a per-round delta for semi-naive evaluation.
package factstore

import (
	"sync"

	"github.com/mangle-temporal/tdr/ast"
)

// shard holds every atom known at a single timestep, indexed by predicate
// and keyed within a predicate bucket by Atom.Hash to support atomic
// test-and-insert without a full scan.
type shard struct {
	mu      sync.Mutex
	byPred  map[ast.PredicateSym]map[uint64]ast.Atom
	pending map[ast.PredicateSym]map[uint64]ast.Atom // added this round, not yet promoted to delta
	delta   map[ast.PredicateSym]map[uint64]ast.Atom // added last round, visible to the current round's joins
}

func newShard() *shard {
	return &shard{
		byPred:  make(map[ast.PredicateSym]map[uint64]ast.Atom),
		pending: make(map[ast.PredicateSym]map[uint64]ast.Atom),
		delta:   make(map[ast.PredicateSym]map[uint64]ast.Atom),
	}
}

// Store is a fact store covering the discrete timesteps [0, Horizon]. All
// methods are safe for concurrent use by multiple goroutines evaluating
// distinct (timestep, rule) tasks in parallel.
type Store struct {
	Horizon int
	shards  []*shard
}

// New constructs an empty Store over [0, horizon].
func New(horizon int) *Store {
	shards := make([]*shard, horizon+1)
	for t := range shards {
		shards[t] = newShard()
	}
	return &Store{Horizon: horizon, shards: shards}
}

func (s *Store) shardAt(t int) *shard {
	if t < 0 || t > s.Horizon {
		return nil
	}
	return s.shards[t]
}

// AddBase inserts a base fact into every timestep covered by the clamped
// union of its intervals. Base facts seed evaluation and are never
// considered part of a round's delta.
func (s *Store) AddBase(fact ast.TimedFact) {
	for _, t := range ast.Timesteps(fact.Intervals, s.Horizon) {
		sh := s.shardAt(t)
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		insertLocked(sh, fact.Atom)
		sh.mu.Unlock()
	}
}

// insertLocked adds atom to sh.byPred if not already present. The caller
// must hold sh.mu.
func insertLocked(sh *shard, atom ast.Atom) bool {
	bucket, ok := sh.byPred[atom.Predicate]
	if !ok {
		bucket = make(map[uint64]ast.Atom)
		sh.byPred[atom.Predicate] = bucket
	}
	h := atom.Hash()
	if _, exists := bucket[h]; exists {
		return false
	}
	bucket[h] = atom
	return true
}

// Add atomically tests whether atom is already known at time t and, if not,
// inserts it and records it in the round's pending delta. It reports
// whether the atom was newly added.
func (s *Store) Add(atom ast.Atom, t int) bool {
	sh := s.shardAt(t)
	if sh == nil {
		return false
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if !insertLocked(sh, atom) {
		return false
	}
	addToBucket(sh.pending, atom)
	return true
}

func addToBucket(buckets map[ast.PredicateSym]map[uint64]ast.Atom, atom ast.Atom) {
	bucket, ok := buckets[atom.Predicate]
	if !ok {
		bucket = make(map[uint64]ast.Atom)
		buckets[atom.Predicate] = bucket
	}
	bucket[atom.Hash()] = atom
}

// Contains reports whether atom is known at time t.
func (s *Store) Contains(atom ast.Atom, t int) bool {
	sh := s.shardAt(t)
	if sh == nil {
		return false
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	bucket, ok := sh.byPred[atom.Predicate]
	if !ok {
		return false
	}
	_, ok = bucket[atom.Hash()]
	return ok
}

// At returns every atom known at time t, in no particular order.
func (s *Store) At(t int) []ast.Atom {
	sh := s.shardAt(t)
	if sh == nil {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	var out []ast.Atom
	for _, bucket := range sh.byPred {
		for _, a := range bucket {
			out = append(out, a)
		}
	}
	return out
}

// ByPredicate returns every atom with the given predicate known at time t.
func (s *Store) ByPredicate(t int, predicate ast.PredicateSym) []ast.Atom {
	sh := s.shardAt(t)
	if sh == nil {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	bucket, ok := sh.byPred[predicate]
	if !ok {
		return nil
	}
	out := make([]ast.Atom, 0, len(bucket))
	for _, a := range bucket {
		out = append(out, a)
	}
	return out
}

// Delta returns the atoms added during the round just promoted by the last
// call to Advance: the atoms a semi-naive join at time t should treat as
// "new since the previous round".
func (s *Store) Delta(t int) []ast.Atom {
	sh := s.shardAt(t)
	if sh == nil {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	var out []ast.Atom
	for _, bucket := range sh.delta {
		for _, a := range bucket {
			out = append(out, a)
		}
	}
	return out
}

// DeltaByPredicate returns the atoms with the given predicate added during
// the round just promoted by the last call to Advance.
func (s *Store) DeltaByPredicate(t int, predicate ast.PredicateSym) []ast.Atom {
	sh := s.shardAt(t)
	if sh == nil {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	bucket, ok := sh.delta[predicate]
	if !ok {
		return nil
	}
	out := make([]ast.Atom, 0, len(bucket))
	for _, a := range bucket {
		out = append(out, a)
	}
	return out
}

// Advance promotes every shard's pending atoms into its delta and clears
// pending, starting a new round. It reports whether any shard had a
// nonempty delta, which semi-naive evaluation uses as its fixed-point
// termination test: Advance returning false means no shard changed during
// the round that just completed.
func (s *Store) Advance() bool {
	changed := false
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.delta = sh.pending
		sh.pending = make(map[ast.PredicateSym]map[uint64]ast.Atom)
		if len(sh.delta) > 0 {
			changed = true
		}
		sh.mu.Unlock()
	}
	return changed
}

// Size returns the total number of atoms known across every timestep,
// counting an atom once per timestep at which it holds.
func (s *Store) Size() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, bucket := range sh.byPred {
			total += len(bucket)
		}
		sh.mu.Unlock()
	}
	return total
}
