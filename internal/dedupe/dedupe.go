// Package dedupe decides whether an incoming transaction is already stored.
// Re-uploading a file, or uploading overlapping exports of the same account,
// must not create duplicates, while a pending charge that later settles with
// a new posted date and a reworded description must still be recognized.
package dedupe

import (
	"context"
	"fmt"
	"sort"

	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/similarity"
	"kharnish/budgie/internal/store"
)

// Verdict is the outcome of duplicate resolution for one row.
type Verdict int

const (
	// Insert means the row is new.
	Insert Verdict = iota
	// InsertWithWarning means the row is inserted although a stored row
	// shares its amount and account; most likely a recurring charge.
	InsertWithWarning
	// Skip means the row is already stored.
	Skip
)

func (v Verdict) String() string {
	switch v {
	case Insert:
		return "insert"
	case InsertWithWarning:
		return "insert_with_warning"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Inserts reports whether the row should be written.
func (v Verdict) Inserts() bool {
	return v != Skip
}

// Reasons attached to a Decision.
const (
	ReasonNoCandidate   = "no stored row with the same amount and account"
	ReasonOnlyLater     = "every stored match was posted after this row"
	ReasonSameDay       = "stored row posted the same day"
	ReasonOutsideWindow = "closest earlier match is outside the recency window"
	ReasonSettled       = "similar stored row within the recency window"
	ReasonDissimilar    = "dissimilar stored row within the recency window"
)

// Defaults for Options.
const (
	DefaultRecencyDays = 10
	DefaultThreshold   = 0.35
)

// Options holds the tunable constants of the decision.
type Options struct {
	// RecencyDays is the largest posted-date gap, in days, within which a
	// similar stored row is taken to be the same transaction.
	RecencyDays int
	// Threshold is the minimum description similarity, inclusive.
	Threshold float64
}

// DefaultOptions returns the standard constants.
func DefaultOptions() Options {
	return Options{RecencyDays: DefaultRecencyDays, Threshold: DefaultThreshold}
}

// Decision is the verdict for one row and the stored row that decided it.
type Decision struct {
	Verdict Verdict
	Match   *models.Transaction
	Reason  string
	Score   float64
	GapDays int
}

// Resolver looks up stored rows sharing amount and account with an incoming
// row and classifies it. It never writes.
type Resolver struct {
	store  store.Store
	logger logging.Logger
	opts   Options
}

// NewResolver creates a resolver reading from s.
func NewResolver(s store.Store, logger logging.Logger, opts Options) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.RecencyDays <= 0 {
		opts.RecencyDays = DefaultRecencyDays
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Resolver{store: s, logger: logger, opts: opts}
}

// WithLogger returns a copy of r logging to logger.
func (r *Resolver) WithLogger(logger logging.Logger) *Resolver {
	cp := *r
	cp.logger = logger
	return &cp
}

// Resolve classifies tx against the stored rows of its account and amount.
func (r *Resolver) Resolve(ctx context.Context, tx models.Transaction) (Decision, error) {
	amount := tx.Amount
	candidates, err := r.store.FindTransactions(ctx, store.Filter{
		Amount:  &amount,
		Account: tx.AccountName,
		Order:   store.PostedDesc,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to look up duplicates: %w", err)
	}
	return r.Classify(tx, candidates), nil
}

// Classify decides tx against candidates. Candidates are scanned newest
// posted date first whatever order they arrive in; those posted after tx
// are passed over and the first remaining one decides.
func (r *Resolver) Classify(tx models.Transaction, candidates []models.Transaction) Decision {
	if len(candidates) == 0 {
		return Decision{Verdict: Insert, Reason: ReasonNoCandidate}
	}

	sorted := make([]models.Transaction, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PostedDate.After(sorted[j].PostedDate)
	})

	for i := range sorted {
		cand := &sorted[i]
		order := dateutils.CompareDates(cand.PostedDate, tx.PostedDate)
		if order > 0 {
			continue
		}

		log := r.logger.WithFields(
			logging.F(logging.FieldAccount, tx.AccountName),
			logging.F(logging.FieldAmount, models.FormatAmount(tx.Amount)),
			logging.F(logging.FieldPostedDate, dateutils.ToISODate(tx.PostedDate)),
			logging.F(logging.FieldDescription, tx.MatchText()),
			logging.F(logging.FieldExistingDate, dateutils.ToISODate(cand.PostedDate)),
			logging.F(logging.FieldExistingDesc, cand.MatchText()),
		)

		if order == 0 {
			if cand.MatchText() != tx.MatchText() {
				log.Info("Skipping same-day row with a different description")
			}
			return Decision{Verdict: Skip, Match: cand, Reason: ReasonSameDay}
		}

		gap := dateutils.DaysBetween(tx.PostedDate, cand.PostedDate)
		if gap > r.opts.RecencyDays {
			log.Warn("Inserting row matching an older stored row, possibly recurring",
				logging.F(logging.FieldGapDays, gap))
			return Decision{Verdict: InsertWithWarning, Match: cand, Reason: ReasonOutsideWindow, GapDays: gap}
		}

		score, similar := similarity.Similar(tx.MatchText(), cand.MatchText(), r.opts.Threshold)
		log = log.WithFields(logging.F(logging.FieldGapDays, gap), logging.F(logging.FieldSimilarity, score))
		if similar {
			log.Info("Skipping row already stored under an earlier posted date")
			return Decision{Verdict: Skip, Match: cand, Reason: ReasonSettled, Score: score, GapDays: gap}
		}
		log.Info("Inserting row sharing amount with a dissimilar recent row")
		return Decision{Verdict: Insert, Match: cand, Reason: ReasonDissimilar, Score: score, GapDays: gap}
	}

	return Decision{Verdict: Insert, Reason: ReasonOnlyLater}
}
