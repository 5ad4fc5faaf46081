// Package namematch resolves free-text names against a set of canonical names.
//
// Matching runs in three tiers and the first tier that produces a hit wins:
// case-insensitive equality, substring containment scored by length ratio, and
// sequence similarity (difflib ratio). Candidates are deduplicated and sorted
// before matching so ties resolve to the lexicographically first name no matter
// how the store enumerated them.
package namematch

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum confidence accepted by the substring and
// similarity tiers.
const DefaultThreshold = 0.4

// Tier identifies which rule produced a match.
type Tier string

const (
	TierNone       Tier = "none"
	TierExact      Tier = "exact"
	TierSubstring  Tier = "substring"
	TierSimilarity Tier = "similarity"
)

// Result is a canonical name and a confidence in [0,1]. MatchedName is empty
// exactly when Confidence is 0.
type Result struct {
	MatchedName string  `json:"matchedName,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Found reports whether a candidate was accepted.
func (r Result) Found() bool {
	return r.MatchedName != ""
}

var noMatch = Result{}

// Matcher applies a fixed threshold. The zero value uses DefaultThreshold.
type Matcher struct {
	threshold float64
}

func New(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

func (m *Matcher) Threshold() float64 {
	if m == nil || m.threshold <= 0 {
		return DefaultThreshold
	}
	return m.threshold
}

func (m *Matcher) Match(input string, candidates []string) Result {
	res, _ := MatchTier(input, candidates, m.Threshold())
	return res
}

func (m *Matcher) MatchTier(input string, candidates []string) (Result, Tier) {
	return MatchTier(input, candidates, m.Threshold())
}

// Match resolves input against candidates with the given threshold.
func Match(input string, candidates []string, threshold float64) Result {
	res, _ := MatchTier(input, candidates, threshold)
	return res
}

// MatchTier is Match that also reports the tier that decided the result.
func MatchTier(input string, candidates []string, threshold float64) (Result, Tier) {
	in := Normalize(input)
	if in == "" || len(candidates) == 0 {
		return noMatch, TierNone
	}

	pool := prepare(candidates)
	if len(pool) == 0 {
		return noMatch, TierNone
	}

	for _, c := range pool {
		if c.norm == in {
			return Result{MatchedName: c.name, Confidence: 1.0}, TierExact
		}
	}

	inLen := utf8.RuneCountInString(in)
	for _, c := range pool {
		if !strings.Contains(c.norm, in) && !strings.Contains(in, c.norm) {
			continue
		}
		ratio := lengthRatio(inLen, utf8.RuneCountInString(c.norm))
		if ratio >= threshold {
			return Result{MatchedName: c.name, Confidence: ratio}, TierSubstring
		}
	}

	if best, ok := closest(in, pool, threshold); ok {
		return best, TierSimilarity
	}
	return noMatch, TierNone
}

type candidate struct {
	name string
	norm string
}

func prepare(candidates []string) []candidate {
	seen := make(map[string]struct{}, len(candidates))
	pool := make([]candidate, 0, len(candidates))
	for _, name := range candidates {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		norm := Normalize(name)
		if norm == "" {
			continue
		}
		pool = append(pool, candidate{name: name, norm: norm})
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].name < pool[j].name })
	return pool
}

// closest mirrors difflib.get_close_matches with n=1: cheap upper bounds are
// checked before the full ratio.
func closest(in string, pool []candidate, threshold float64) (Result, bool) {
	sm := difflib.NewMatcher(nil, chars(in))

	var best Result
	for _, c := range pool {
		sm.SetSeq1(chars(c.norm))
		if sm.RealQuickRatio() < threshold || sm.QuickRatio() < threshold {
			continue
		}
		score := sm.Ratio()
		// strict > keeps the lexicographically first candidate on ties
		if score >= threshold && score > best.Confidence {
			best = Result{MatchedName: c.name, Confidence: score}
		}
	}
	if !best.Found() {
		return noMatch, false
	}
	return best, true
}

// Similarity is the difflib ratio between two normalized strings.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// Normalize lowercases s and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}

func lengthRatio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}
