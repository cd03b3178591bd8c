// Package fuzzy resolves free-text names to canonical candidates using
// character-level sequence similarity (Ratcliff/Obershelp, as
// implemented by go-difflib's SequenceMatcher).
package fuzzy

import (
	"errors"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// Argument contract violations. These indicate a programming error in
// the caller, not a runtime data problem.
var (
	// ErrInvalidMaxResults indicates maxResults was not positive.
	ErrInvalidMaxResults = errors.New("fuzzy: max results must be > 0")

	// ErrInvalidCutoff indicates the cutoff was outside [0, 1].
	ErrInvalidCutoff = errors.New("fuzzy: cutoff must be in [0.0, 1.0]")
)

// Match is one candidate that cleared the similarity cutoff.
type Match struct {
	// Candidate is the original candidate string.
	Candidate string

	// Score is the exact similarity ratio in [0, 1].
	Score float64
}

// BestMatches scores every candidate against the query and returns the
// ones whose similarity ratio meets the cutoff, ordered by descending
// score and truncated to maxResults. Candidates with equal scores keep
// their original order, so the tie-break is deterministic.
//
// Each candidate must pass three increasingly expensive estimates
// (length-based upper bound, multiset ratio, exact ratio); the cheap
// tiers only skip work for obviously poor candidates and never change
// the result set.
func BestMatches(query string, candidates []string, maxResults int, cutoff float64) ([]Match, error) {
	if maxResults <= 0 {
		return nil, ErrInvalidMaxResults
	}
	if cutoff < 0.0 || cutoff > 1.0 {
		return nil, ErrInvalidCutoff
	}

	m := difflib.NewMatcher(nil, splitChars(query))

	var matches []Match
	for _, candidate := range candidates {
		m.SetSeq1(splitChars(candidate))
		if m.RealQuickRatio() >= cutoff &&
			m.QuickRatio() >= cutoff {
			if ratio := m.Ratio(); ratio >= cutoff {
				matches = append(matches, Match{Candidate: candidate, Score: ratio})
			}
		}
	}

	// Stable: equal scores preserve first-seen candidate order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// splitChars splits a string into single-rune sequence elements so the
// line-oriented SequenceMatcher compares at character level.
func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
