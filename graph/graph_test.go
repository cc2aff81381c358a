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

package graph

import "testing"

func TestToFactsCoversWholeHorizon(t *testing.T) {
	facts := ToFacts([]Edge{{Source: "Alice", Target: "Bob", Predicate: "knows"}}, 10)
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	f := facts[0]
	if f.Atom.String() != "knows(Alice,Bob)" {
		t.Errorf("Atom = %v", f.Atom)
	}
	if len(f.Intervals) != 1 || f.Intervals[0].Start != 0 || f.Intervals[0].End != 10 {
		t.Errorf("Intervals = %v, want [0,10]", f.Intervals)
	}
}

func TestToFactsIncludesValue(t *testing.T) {
	v := "5"
	facts := ToFacts([]Edge{{Source: "A", Target: "B", Predicate: "distance", Value: &v}}, 3)
	if facts[0].Atom.String() != "distance(A,B,5)" {
		t.Errorf("Atom = %v", facts[0].Atom)
	}
}
