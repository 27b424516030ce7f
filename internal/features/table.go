// Package features turns validated requests into model rows in feature schema order.
package features

import (
	"sort"
	"strings"

	"estimator/pkg/errors"
)

// Outcome reports how a categorical value was resolved
type Outcome int

const (
	Exact Outcome = iota
	Fallback
	Unresolved
)

// String returns string representation
func (o Outcome) String() string {
	switch o {
	case Exact:
		return "exact"
	case Fallback:
		return "fallback"
	default:
		return "unresolved"
	}
}

// Table is an immutable category -> code mapping learned at training time
type Table struct {
	name     string
	codes    map[string]int
	policy   Policy
	fallback int
}

// NewTable validates codes (non-negative, one category per code) and binds the table's fallback policy
func NewTable(name string, codes map[string]int) (*Table, error) {
	seen := make(map[int]string, len(codes))
	for category, code := range codes {
		if code < 0 {
			return nil, errors.Newf("encoder %s: category %q has negative code %d", name, category, code)
		}
		if other, dup := seen[code]; dup {
			return nil, errors.Newf("encoder %s: code %d shared by %q and %q", name, code, other, category)
		}
		seen[code] = category
	}

	t := &Table{name: name, codes: codes, policy: PolicyFor(name)}

	switch t.policy.Kind {
	case PolicyFallbackCategory:
		code, ok := codes[t.policy.Category]
		if !ok {
			return nil, errors.Newf("encoder %s: fallback category %q not in table", name, t.policy.Category)
		}
		t.fallback = code
	case PolicyUnknownCode:
		t.fallback = t.policy.Code
	}

	return t, nil
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Policy returns the fallback policy bound to the table
func (t *Table) Policy() Policy {
	return t.policy
}

// Len returns the number of known categories
func (t *Table) Len() int {
	return len(t.codes)
}

// Categories returns known categories sorted by code
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.codes))
	for c := range t.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return t.codes[out[i]] < t.codes[out[j]] })
	return out
}

// Encode never fails. Unknown values resolve per the table's policy; Unresolved carries code -1.
func (t *Table) Encode(value string) (int, Outcome) {
	code, _, outcome := t.Resolve(value)
	return code, outcome
}

// Resolve is Encode plus the category the code belongs to
func (t *Table) Resolve(value string) (int, string, Outcome) {
	value = strings.TrimSpace(value)
	if code, ok := t.codes[value]; ok {
		return code, value, Exact
	}

	switch t.policy.Kind {
	case PolicyFallbackCategory:
		return t.fallback, t.policy.Category, Fallback
	case PolicyUnknownCode:
		return t.fallback, "", Fallback
	}
	return -1, "", Unresolved
}

// Require resolves value for a request field and rejects it when the policy has no fallback
func (t *Table) Require(field, value string) (int, string, Outcome, error) {
	code, category, outcome := t.Resolve(value)
	if outcome == Unresolved {
		return 0, "", outcome, errors.NewValidationError(field, "unknown "+strings.ReplaceAll(t.name, "_", " "), value)
	}
	return code, category, outcome, nil
}
