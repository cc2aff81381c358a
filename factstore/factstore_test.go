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

package factstore

import (
	"sync"
	"testing"

	"github.com/mangle-temporal/tdr/ast"
)

func knowsFact(a, b string, start, end int) ast.TimedFact {
	atom := ast.NewAtom("knows", ast.Constant{a}, ast.Constant{b})
	iv, _ := ast.NewInterval(start, end)
	return ast.NewTimedFact(atom, "", iv)
}

func TestAddBaseCoversInterval(t *testing.T) {
	s := New(10)
	s.AddBase(knowsFact("Alice", "Bob", 2, 4))
	for t2 := 0; t2 <= 10; t2++ {
		want := t2 >= 2 && t2 <= 4
		got := s.Contains(ast.NewAtom("knows", ast.Constant{"Alice"}, ast.Constant{"Bob"}), t2)
		if got != want {
			t.Errorf("Contains(t=%d) = %v, want %v", t2, got, want)
		}
	}
}

func TestAddBaseClampsToHorizon(t *testing.T) {
	s := New(5)
	s.AddBase(knowsFact("Alice", "Bob", 3, 100))
	if !s.Contains(ast.NewAtom("knows", ast.Constant{"Alice"}, ast.Constant{"Bob"}), 5) {
		t.Error("expected fact to hold at the horizon")
	}
	if len(s.At(6)) != 0 {
		t.Error("expected no shard beyond the horizon to be touched")
	}
}

func TestAddReportsNewness(t *testing.T) {
	s := New(5)
	atom := ast.NewAtom("friend", ast.Constant{"Alice"}, ast.Constant{"Bob"})
	if !s.Add(atom, 1) {
		t.Error("first Add should report true")
	}
	if s.Add(atom, 1) {
		t.Error("second Add of the same atom should report false")
	}
}

func TestByPredicateFiltersAndIsolatesTimesteps(t *testing.T) {
	s := New(5)
	s.Add(ast.NewAtom("friend", ast.Constant{"A"}, ast.Constant{"B"}), 1)
	s.Add(ast.NewAtom("knows", ast.Constant{"A"}, ast.Constant{"B"}), 1)
	s.Add(ast.NewAtom("friend", ast.Constant{"C"}, ast.Constant{"D"}), 2)

	got := s.ByPredicate(1, ast.PredicateSym{"friend", 2})
	if len(got) != 1 {
		t.Fatalf("ByPredicate(t=1, friend/2) = %v, want 1 entry", got)
	}
	if len(s.ByPredicate(2, ast.PredicateSym{"friend", 2})) != 1 {
		t.Error("expected the t=2 friend fact to be isolated from t=1")
	}
}

func TestAdvancePromotesDeltaAndReportsChange(t *testing.T) {
	s := New(5)
	if s.Advance() {
		t.Error("Advance on an empty store should report no change")
	}
	s.Add(ast.NewAtom("friend", ast.Constant{"A"}, ast.Constant{"B"}), 1)
	if len(s.Delta(1)) != 0 {
		t.Error("Delta should be empty before Advance promotes pending")
	}
	if !s.Advance() {
		t.Error("Advance should report a change after a new Add")
	}
	if len(s.Delta(1)) != 1 {
		t.Fatalf("Delta(1) = %v, want 1 entry", s.Delta(1))
	}
	if s.Advance() {
		t.Error("second Advance with no new Adds should report no change")
	}
	if len(s.Delta(1)) != 0 {
		t.Error("Delta should be cleared once no new atoms were added")
	}
}

func TestAddOutOfHorizonIsNoop(t *testing.T) {
	s := New(3)
	if s.Add(ast.NewAtom("friend", ast.Constant{"A"}, ast.Constant{"B"}), 10) {
		t.Error("Add beyond the horizon should report false")
	}
	if s.Contains(ast.NewAtom("friend", ast.Constant{"A"}, ast.Constant{"B"}), 10) {
		t.Error("Contains beyond the horizon should report false")
	}
}

func TestConcurrentAddIsAtomic(t *testing.T) {
	s := New(1)
	atom := ast.NewAtom("friend", ast.Constant{"A"}, ast.Constant{"B"})
	var wg sync.WaitGroup
	results := make([]bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Add(atom, 0)
		}(i)
	}
	wg.Wait()
	newCount := 0
	for _, r := range results {
		if r {
			newCount++
		}
	}
	if newCount != 1 {
		t.Errorf("expected exactly one goroutine to win the race, got %d", newCount)
	}
}
