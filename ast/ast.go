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

// Package ast contains the term, atom and rule representations shared by
// every other package in this module: the parser produces them, the engine
// consumes and derives them, provenance and queries refer to them.
package ast

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Term is an argument position of an Atom: either a Variable or a Constant.
// Variables are identified syntactically: an argument whose first character
// is lowercase is a variable, everything else is a constant.
type Term interface {
	isTerm()
	String() string
	Equals(Term) bool
}

// Variable is an argument that ranges over constants during matching.
type Variable struct {
	Name string
}

func (Variable) isTerm() {}

// String returns the variable's name.
func (v Variable) String() string { return v.Name }

// Equals reports whether t is the same variable.
func (v Variable) Equals(t Term) bool {
	o, ok := t.(Variable)
	return ok && o.Name == v.Name
}

// Constant is a ground argument value.
type Constant struct {
	Name string
}

func (Constant) isTerm() {}

// String returns the constant's textual form.
func (c Constant) String() string { return c.Name }

// Equals reports whether t is the same constant.
func (c Constant) Equals(t Term) bool {
	o, ok := t.(Constant)
	return ok && o.Name == c.Name
}

// IsVariableName reports whether a raw argument token denotes a variable:
// its first character is lowercase. Everything else is a constant.
func IsVariableName(token string) bool {
	if token == "" {
		return false
	}
	r := []rune(token)[0]
	return unicode.IsLower(r)
}

// NewTerm classifies a raw argument token as Variable or Constant.
func NewTerm(token string) Term {
	if IsVariableName(token) {
		return Variable{token}
	}
	return Constant{token}
}

// PredicateSym identifies a predicate by name and arity.
type PredicateSym struct {
	Symbol string
	Arity  int
}

func (p PredicateSym) String() string {
	return fmt.Sprintf("%s/%d", p.Symbol, p.Arity)
}

// Atom is a predicate symbol applied to an ordered sequence of arguments.
type Atom struct {
	Predicate PredicateSym
	Args      []Term
}

// NewAtom is a convenience constructor: the arity is taken from len(args).
func NewAtom(predicate string, args ...Term) Atom {
	return Atom{PredicateSym{predicate, len(args)}, args}
}

// String renders the atom in the PRED(arg1,...,argN) surface syntax.
func (a Atom) String() string {
	var sb strings.Builder
	sb.WriteString(a.Predicate.Symbol)
	sb.WriteRune('(')
	for i, arg := range a.Args {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteRune(')')
	return sb.String()
}

// Equals provides structural equality for atoms.
func (a Atom) Equals(o Atom) bool {
	if a.Predicate != o.Predicate || len(a.Args) != len(o.Args) {
		return false
	}
	for i, arg := range a.Args {
		if !arg.Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// IsGround reports whether every argument is a Constant.
func (a Atom) IsGround() bool {
	for _, arg := range a.Args {
		if _, ok := arg.(Constant); !ok {
			return false
		}
	}
	return true
}

// ApplySubst grounds every Variable argument using s, leaving Constants and
// any variable absent from s unchanged.
func (a Atom) ApplySubst(s Subst) Atom {
	args := make([]Term, len(a.Args))
	for i, arg := range a.Args {
		switch t := arg.(type) {
		case Variable:
			if c, ok := s.Get(t.Name); ok {
				args[i] = Constant{c}
				continue
			}
			args[i] = t
		default:
			args[i] = arg
		}
	}
	return Atom{a.Predicate, args}
}

// Hash returns an fnv-1a hash of the atom's canonical string form, for use
// as a map key by fact stores that shard atoms by predicate.
func (a Atom) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(a.String()))
	return h.Sum64()
}

// Vars returns the distinct variable names occurring in the atom, in
// first-occurrence order.
func (a Atom) Vars() []string {
	var vars []string
	seen := make(map[string]bool)
	for _, arg := range a.Args {
		if v, ok := arg.(Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			vars = append(vars, v.Name)
		}
	}
	return vars
}

// Polarity distinguishes a positive body literal from a negated one.
type Polarity int

const (
	// Positive literals must be matchable against the current fact set.
	Positive Polarity = iota
	// Negated literals must be un-matchable (negation-as-failure).
	Negated
)

// Literal is a body element of a Rule: an atom together with its polarity.
type Literal struct {
	Atom     Atom
	Polarity Polarity
}

// String renders the literal, prefixing negated literals with "not ".
func (l Literal) String() string {
	if l.Polarity == Negated {
		return "not " + l.Atom.String()
	}
	return l.Atom.String()
}

// Subst is a partial mapping from variable names to constant values. Per the
// data model invariant, a substitution never binds a variable to a variable.
type Subst map[string]string

// Get returns the constant bound to v, if any.
func (s Subst) Get(v string) (string, bool) {
	if s == nil {
		return "", false
	}
	c, ok := s[v]
	return c, ok
}

// Extend returns a new substitution equal to s plus the binding v->c. The
// receiver is never mutated.
func (s Subst) Extend(v, c string) Subst {
	next := make(Subst, len(s)+1)
	for k, val := range s {
		next[k] = val
	}
	next[v] = c
	return next
}

// SortedVars returns the domain of s in sorted order, for deterministic
// iteration in explanations and error messages.
func (s Subst) SortedVars() []string {
	vars := make([]string, 0, len(s))
	for v := range s {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// String renders a substitution as "v1=c1, v2=c2, ...", sorted by variable
// name for deterministic output.
func (s Subst) String() string {
	vars := s.SortedVars()
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%s=%s", v, s[v])
	}
	return strings.Join(parts, ", ")
}

// Interval is a closed integer range [Start, End] with Start <= End.
type Interval struct {
	Start, End int
}

// NewInterval constructs an Interval, rejecting End < Start.
func NewInterval(start, end int) (Interval, error) {
	if end < start {
		return Interval{}, fmt.Errorf("interval end %d is before start %d", end, start)
	}
	return Interval{start, end}, nil
}

// Contains reports whether t falls within the closed interval.
func (iv Interval) Contains(t int) bool {
	return iv.Start <= t && t <= iv.End
}

// String renders the interval as "[start,end]".
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End)
}

// Clamp intersects iv with [lo, hi], returning ok=false if the intersection
// is empty.
func Clamp(iv Interval, lo, hi int) (Interval, bool) {
	start, end := iv.Start, iv.End
	if start < lo {
		start = lo
	}
	if end > hi {
		end = hi
	}
	if start > end {
		return Interval{}, false
	}
	return Interval{start, end}, true
}

// Union merges a set of (possibly overlapping or adjacent) intervals into
// the minimal sorted list of disjoint intervals covering the same points.
func Union(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End+1 {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Timesteps expands the clamped union of intervals into the sorted set of
// individual timesteps in [0, horizon].
func Timesteps(intervals []Interval, horizon int) []int {
	var ts []int
	for _, iv := range Union(intervals) {
		clamped, ok := Clamp(iv, 0, horizon)
		if !ok {
			continue
		}
		for t := clamped.Start; t <= clamped.End; t++ {
			ts = append(ts, t)
		}
	}
	return ts
}

// TimedFact is a ground atom holding at every timestep covered by the union
// of Intervals, clamped to [0, horizon]. ID is opaque, reserved for
// provenance of base facts.
type TimedFact struct {
	Atom      Atom
	ID        string
	Intervals []Interval
}

// NewTimedFact constructs a TimedFact, minting a fresh opaque ID via uuid
// when id is empty.
func NewTimedFact(atom Atom, id string, intervals ...Interval) TimedFact {
	if id == "" {
		id = uuid.NewString()
	}
	return TimedFact{Atom: atom, ID: id, Intervals: intervals}
}

// String renders the fact in its surface syntax: the atom followed by its
// interval list, e.g. "knows(Alice,Bob) : [0,10]" or, with more than one
// interval, "knows(Alice,Bob) : [0,2], [5,10]". The ID is opaque and is not
// part of the surface form, matching parse.Fact's inverse, which mints a
// fresh ID rather than recovering one from text.
func (f TimedFact) String() string {
	var sb strings.Builder
	sb.WriteString(f.Atom.String())
	sb.WriteString(" : ")
	for i, iv := range f.Intervals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(iv.String())
	}
	return sb.String()
}

// Rule is a temporal forward-chaining rule: if every positive body literal
// matches and every negated literal fails to match at time t, the head is
// derived at t+Delay+k for every k in [HeadStartOffset, HeadEndOffset].
type Rule struct {
	Name                           string
	Head                           Atom
	HeadStartOffset, HeadEndOffset int
	Delay                          int
	Body                           []Literal
	ActiveIntervals                []Interval
}

// IsActiveAt reports whether the rule is eligible to fire at time t: true
// when ActiveIntervals is empty (always active) or t is covered by one of
// its intervals.
func (r Rule) IsActiveAt(t int) bool {
	if len(r.ActiveIntervals) == 0 {
		return true
	}
	for _, iv := range r.ActiveIntervals {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}

// String renders the rule in its surface syntax.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.Head.String())
	if r.HeadStartOffset != 0 || r.HeadEndOffset != 0 {
		fmt.Fprintf(&sb, " : [%d,%d]", r.HeadStartOffset, r.HeadEndOffset)
	}
	sb.WriteString(" <- ")
	if r.Delay != 1 {
		fmt.Fprintf(&sb, "%d ", r.Delay)
	}
	for i, lit := range r.Body {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(lit.String())
	}
	return sb.String()
}

// Vars returns the distinct variable names occurring anywhere in the rule
// (head and body), in first-occurrence order, head first.
func (r Rule) Vars() []string {
	var vars []string
	seen := make(map[string]bool)
	add := func(a Atom) {
		for _, v := range a.Vars() {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	add(r.Head)
	for _, lit := range r.Body {
		add(lit.Atom)
	}
	return vars
}
