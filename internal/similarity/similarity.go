// Package similarity scores how alike two descriptions are. Scores follow the
// Ratcliff/Obershelp "gestalt" ratio computed character by character, the
// same measure used to build the categorization history, so thresholds keep
// their meaning across imports.
package similarity

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns 2*M/T for the character sequences a and b, where M is the
// number of matched characters and T the total length. Two empty strings
// score 1.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// Match is a candidate that cleared the cutoff.
type Match struct {
	Text  string
	Score float64
}

// CloseMatches returns at most n possibilities whose ratio to word is at
// least cutoff, best first. Ties on score are ordered by text, descending.
// n <= 0 or a cutoff outside [0, 1] returns nil.
func CloseMatches(word string, possibilities []string, n int, cutoff float64) []string {
	scored := Scored(word, possibilities, n, cutoff)
	if len(scored) == 0 {
		return nil
	}
	out := make([]string, len(scored))
	for i, m := range scored {
		out[i] = m.Text
	}
	return out
}

// Scored is CloseMatches with the scores kept.
func Scored(word string, possibilities []string, n int, cutoff float64) []Match {
	if n <= 0 || cutoff < 0 || cutoff > 1 {
		return nil
	}

	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(chars(word))

	var result []Match
	for _, p := range possibilities {
		m.SetSeq1(chars(p))
		if m.RealQuickRatio() >= cutoff && m.QuickRatio() >= cutoff {
			if score := m.Ratio(); score >= cutoff {
				result = append(result, Match{Text: p, Score: score})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Text > result[j].Text
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// Similar reports whether candidate is at least cutoff-similar to word, and
// the score.
func Similar(word, candidate string, cutoff float64) (float64, bool) {
	score := difflib.NewMatcher(chars(candidate), chars(word)).Ratio()
	return score, score >= cutoff
}

func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
