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

// Package parse turns the textual rule and fact surface syntax into
// ast.Rule and ast.TimedFact values. The grammar is intentionally small (no
// operator precedence, no nesting beyond a single pair of parentheses per
// atom), so parsing proceeds by a literal split-and-repair algorithm rather
// than through a generated parser.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/mangle-temporal/tdr/ast"
)

// commentStart marks a line as a comment, ignored by RuleSet and FactSet.
const commentStart = '#'

// ParseError reports a malformed rule, fact or atom. It is fatal only to the
// single input that produced it.
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %q", e.Msg, e.Input)
}

func errf(input, format string, args ...any) error {
	return &ParseError{Input: input, Msg: fmt.Sprintf(format, args...)}
}

var headIntervalRe = regexp.MustCompile(`^:\s*\[\s*(-?\d+)\s*,\s*(-?\d+)\s*\]$`)
var notPrefixRe = regexp.MustCompile(`(?i)^not\s+`)

// Atom parses a single "PRED(arg1,...,argN)" atom.
func Atom(text string) (ast.Atom, error) {
	s := strings.TrimSpace(text)
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return ast.Atom{}, errf(text, "atom must have the form pred(arg1,...,argN)")
	}
	predicate := strings.TrimSpace(s[:open])
	if predicate == "" {
		return ast.Atom{}, errf(text, "missing predicate name")
	}
	close, err := findMatchingClose(s, open)
	if err != nil {
		return ast.Atom{}, errf(text, "%v", err)
	}
	if strings.TrimSpace(s[close+1:]) != "" {
		return ast.Atom{}, errf(text, "unexpected trailing text after atom")
	}
	argsText := s[open+1 : close]
	tokens, err := splitTopLevel(argsText, ',')
	if err != nil {
		return ast.Atom{}, errf(text, "%v", err)
	}
	var args []ast.Term
	if strings.TrimSpace(argsText) != "" {
		args = make([]ast.Term, len(tokens))
		for i, tok := range tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return ast.Atom{}, errf(text, "empty argument")
			}
			args[i] = ast.NewTerm(tok)
		}
	}
	return ast.NewAtom(predicate, args...), nil
}

// findMatchingClose returns the index of the ')' that closes the '(' at
// openIdx, skipping over characters inside a quoted string. Since the
// grammar has no function symbols, arguments never contain nested
// parentheses, so the first unquoted ')' is always the match.
func findMatchingClose(s string, openIdx int) (int, error) {
	inQuote := false
	for i := openIdx + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ')':
			if !inQuote {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated atom, missing ')'")
}

// splitTopLevel splits s on sep, ignoring any sep found inside a quoted
// string.
func splitTopLevel(s string, sep byte) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var parts []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == sep && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quoted string")
	}
	parts = append(parts, cur.String())
	return parts, nil
}

// Literal parses a single body literal: an atom, optionally prefixed with a
// case-insensitive, whitespace-tolerant "not ".
func Literal(text string) (ast.Literal, error) {
	s := strings.TrimSpace(text)
	polarity := ast.Positive
	if loc := notPrefixRe.FindStringIndex(s); loc != nil {
		polarity = ast.Negated
		s = s[loc[1]:]
	}
	atom, err := Atom(s)
	if err != nil {
		return ast.Literal{}, err
	}
	return ast.Literal{Atom: atom, Polarity: polarity}, nil
}

// Rule parses one rule of the form:
//
//	HEAD [ ':' '[' INT ',' INT ']' ]  '<-' [INT]  LITERAL (',' LITERAL)*
//
// name is assigned to the resulting rule (the grammar has no syntax for
// naming a rule; callers name rules as they see fit, e.g. by position).
func Rule(name, text string) (ast.Rule, error) {
	arrow := strings.Index(text, "<-")
	if arrow < 0 {
		return ast.Rule{}, errf(text, "missing '<-'")
	}
	left := strings.TrimSpace(text[:arrow])
	right := text[arrow+2:]

	head, startOffset, endOffset, err := parseHeadAndInterval(left)
	if err != nil {
		return ast.Rule{}, err
	}

	delay, bodyText, err := parseDelayAndBody(right)
	if err != nil {
		return ast.Rule{}, err
	}

	segments, err := splitBodySegments(bodyText)
	if err != nil {
		return ast.Rule{}, errf(text, "%v", err)
	}
	if len(segments) == 0 {
		return ast.Rule{}, errf(text, "rule body must have at least one literal")
	}
	body := make([]ast.Literal, len(segments))
	for i, seg := range segments {
		lit, err := Literal(seg)
		if err != nil {
			return ast.Rule{}, err
		}
		body[i] = lit
	}

	return ast.Rule{
		Name:            name,
		Head:            head,
		HeadStartOffset: startOffset,
		HeadEndOffset:   endOffset,
		Delay:           delay,
		Body:            body,
	}, nil
}

// parseHeadAndInterval parses the left-of-"<-" side: a head atom with an
// optional ": [s,e]" interval annotation, defaulting to [0,0].
func parseHeadAndInterval(left string) (ast.Atom, int, int, error) {
	open := strings.IndexByte(left, '(')
	if open <= 0 {
		return ast.Atom{}, 0, 0, errf(left, "malformed rule head")
	}
	close, err := findMatchingClose(left, open)
	if err != nil {
		return ast.Atom{}, 0, 0, errf(left, "%v", err)
	}
	head, err := Atom(left[:close+1])
	if err != nil {
		return ast.Atom{}, 0, 0, err
	}
	rest := strings.TrimSpace(left[close+1:])
	if rest == "" {
		return head, 0, 0, nil
	}
	m := headIntervalRe.FindStringSubmatch(rest)
	if m == nil {
		return ast.Atom{}, 0, 0, errf(left, "malformed head interval, expected ': [s,e]'")
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end < start {
		return ast.Atom{}, 0, 0, errf(left, "head interval end %d before start %d", end, start)
	}
	return head, start, end, nil
}

// parseDelayAndBody applies the delay-detection rule: the first
// whitespace-separated token on the right of "<-" is the delay if numeric,
// otherwise the delay defaults to 1 and the whole right side is the body.
func parseDelayAndBody(right string) (int, string, error) {
	right = strings.TrimLeft(right, " \t")
	idx := strings.IndexFunc(right, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		body := strings.TrimSpace(right)
		if body == "" {
			return 0, "", errf(right, "empty rule body")
		}
		return 1, body, nil
	}
	first := right[:idx]
	rest := strings.TrimSpace(right[idx:])
	if n, err := strconv.Atoi(first); err == nil && n >= 0 {
		if rest == "" {
			return 0, "", errf(right, "empty rule body")
		}
		return n, rest, nil
	}
	body := strings.TrimSpace(right)
	if body == "" {
		return 0, "", errf(right, "empty rule body")
	}
	return 1, body, nil
}

// splitBodySegments splits a rule body on "), " (closing parenthesis
// followed by comma), repairing each segment by re-appending the ')' the
// split consumed. This breaks if an argument value itself contains ')'; see
// the design note in DESIGN.md.
func splitBodySegments(body string) ([]string, error) {
	raw := strings.Split(body, "), ")
	segments := make([]string, len(raw))
	for i, seg := range raw {
		if i < len(raw)-1 {
			seg = seg + ")"
		}
		seg = strings.TrimSpace(seg)
		if !strings.HasSuffix(seg, ")") {
			return nil, fmt.Errorf("malformed body literal %q, expected closing ')'", seg)
		}
		segments[i] = seg
	}
	return segments, nil
}

// RuleSet parses a batch of rules, one per non-blank, non-comment line.
// Every malformed line is collected via multierr rather than aborting the
// whole batch; rules default to names "r1", "r2", ... by position.
func RuleSet(text string) ([]ast.Rule, error) {
	var rules []ast.Rule
	var errs error
	n := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == commentStart {
			continue
		}
		n++
		r, err := Rule(fmt.Sprintf("r%d", n), trimmed)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs
}

// Fact parses a fact line of the form "PRED(arg1,...,argN) : [s,e]" or with
// a comma-separated list of interval groups: "PRED(args) : [s1,e1], [s2,e2]".
// Unlike rules, a fact's intervals are mandatory: the model requires a
// TimedFact to carry a nonempty interval sequence.
func Fact(text string) (ast.TimedFact, error) {
	s := strings.TrimSpace(text)
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return ast.TimedFact{}, errf(text, "fact must have the form pred(arg1,...,argN) : [s,e]")
	}
	close, err := findMatchingClose(s, open)
	if err != nil {
		return ast.TimedFact{}, errf(text, "%v", err)
	}
	atom, err := Atom(s[:close+1])
	if err != nil {
		return ast.TimedFact{}, err
	}
	rest := strings.TrimSpace(s[close+1:])
	if rest == "" || rest[0] != ':' {
		return ast.TimedFact{}, errf(text, "fact requires at least one interval, e.g. ': [0,10]'")
	}
	intervals, err := parseIntervalList(strings.TrimSpace(rest[1:]))
	if err != nil {
		return ast.TimedFact{}, errf(text, "%v", err)
	}
	return ast.NewTimedFact(atom, "", intervals...), nil
}

// parseIntervalList parses a comma-separated list of "[s,e]" groups.
func parseIntervalList(s string) ([]ast.Interval, error) {
	var out []ast.Interval
	for len(s) > 0 {
		if s[0] != '[' {
			return nil, fmt.Errorf("expected '[' in interval list, got %q", s)
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated interval, missing ']'")
		}
		parts := strings.SplitN(s[1:end], ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("interval must have the form [start,end]")
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		stop, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("interval bounds must be integers")
		}
		iv, err := ast.NewInterval(start, stop)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
		s = strings.TrimSpace(s[end+1:])
		if len(s) == 0 {
			break
		}
		if s[0] != ',' {
			return nil, fmt.Errorf("expected ',' between intervals")
		}
		s = strings.TrimSpace(s[1:])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("interval list must not be empty")
	}
	return out, nil
}

// FactSet parses a batch of facts, one per non-blank, non-comment line,
// aggregating every malformed line via multierr.
func FactSet(text string) ([]ast.TimedFact, error) {
	var facts []ast.TimedFact
	var errs error
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == commentStart {
			continue
		}
		f, err := Fact(trimmed)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		facts = append(facts, f)
	}
	return facts, errs
}
