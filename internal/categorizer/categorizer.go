// Package categorizer assigns categories to incoming transactions from the
// categories previously given to similar descriptions of the same account.
package categorizer

import (
	"context"
	"fmt"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/store"
)

// Default matching parameters.
const (
	DefaultCutoff     = 0.7
	DefaultMaxMatches = 3
)

// Options tunes the history match.
type Options struct {
	// Cutoff is the minimum similarity ratio, inclusive.
	Cutoff float64
	// MaxMatches is how many close matches compete on recency.
	MaxMatches int
}

// DefaultOptions returns the standard matching parameters.
func DefaultOptions() Options {
	return Options{Cutoff: DefaultCutoff, MaxMatches: DefaultMaxMatches}
}

// Categorizer holds one history snapshot per account. Build every account
// before categorizing, so all rows of an import see the same history.
type Categorizer struct {
	store     store.Store
	logger    logging.Logger
	opts      Options
	histories map[string]*HistoryStrategy
	fallback  Strategy
}

// New creates a categorizer reading history from s.
func New(s store.Store, logger logging.Logger, opts Options) *Categorizer {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Cutoff == 0 {
		opts.Cutoff = DefaultCutoff
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultMaxMatches
	}
	return &Categorizer{
		store:     s,
		logger:    logger,
		opts:      opts,
		histories: make(map[string]*HistoryStrategy),
		fallback:  FallbackStrategy{},
	}
}

// Build loads the category history of account. Building an account twice
// keeps the first snapshot.
func (c *Categorizer) Build(ctx context.Context, account string) error {
	if _, ok := c.histories[account]; ok {
		return nil
	}
	hints, err := c.store.LatestCategories(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to load category history for %q: %w", account, err)
	}
	h := NewHistoryStrategy(account, hints, c.opts.Cutoff, c.opts.MaxMatches)
	c.histories[account] = h
	c.logger.Debug("Built category history",
		logging.F(logging.FieldAccount, account),
		logging.F(logging.FieldCount, h.Len()))
	return nil
}

// Categorize returns the category for tx.
func (c *Categorizer) Categorize(tx models.Transaction) string {
	return c.Explain(tx).Category
}

// Explain is Categorize with the deciding strategy and match.
func (c *Categorizer) Explain(tx models.Transaction) Result {
	if h, ok := c.histories[tx.AccountName]; ok {
		if res, found := h.Categorize(tx); found {
			return res
		}
	}
	res, _ := c.fallback.Categorize(tx)
	return res
}
