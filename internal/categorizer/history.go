package categorizer

import (
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/similarity"
	"kharnish/budgie/internal/store"
)

// HistoryStrategy categorizes by fuzzy matching the original description
// against the account's already categorized descriptions. Among the close
// matches, the most recently posted one supplies the category.
type HistoryStrategy struct {
	account      string
	descriptions []string
	hints        map[string]store.CategoryHint
	cutoff       float64
	maxMatches   int
}

// NewHistoryStrategy builds the strategy from a LatestCategories snapshot.
func NewHistoryStrategy(account string, hints []store.CategoryHint, cutoff float64, maxMatches int) *HistoryStrategy {
	h := &HistoryStrategy{
		account:    account,
		hints:      make(map[string]store.CategoryHint, len(hints)),
		cutoff:     cutoff,
		maxMatches: maxMatches,
	}
	for _, hint := range hints {
		if _, dup := h.hints[hint.Description]; !dup {
			h.descriptions = append(h.descriptions, hint.Description)
		}
		h.hints[hint.Description] = hint
	}
	return h
}

// Name implements Strategy.
func (h *HistoryStrategy) Name() string {
	return "History"
}

// Len returns the number of known descriptions.
func (h *HistoryStrategy) Len() int {
	return len(h.descriptions)
}

// Categorize implements Strategy.
func (h *HistoryStrategy) Categorize(tx models.Transaction) (Result, bool) {
	if len(h.descriptions) == 0 {
		return Result{}, false
	}
	matches := similarity.Scored(tx.MatchText(), h.descriptions, h.maxMatches, h.cutoff)
	if len(matches) == 0 {
		return Result{}, false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if h.hints[m.Text].PostedDate.After(h.hints[best.Text].PostedDate) {
			best = m
		}
	}
	hint := h.hints[best.Text]
	if hint.Category == "" {
		return Result{}, false
	}
	return Result{Strategy: h.Name(), Category: hint.Category, Match: best.Text, Score: best.Score}, true
}
