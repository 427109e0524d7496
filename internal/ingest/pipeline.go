// Package ingest runs one uploaded file through normalization,
// categorization and duplicate resolution, and writes the accepted rows in
// a single batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"kharnish/budgie/internal/categorizer"
	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/dedupe"
	"kharnish/budgie/internal/ingesterror"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/normalizer"
	"kharnish/budgie/internal/sheet"
	"kharnish/budgie/internal/store"

	"github.com/google/uuid"
)

// DefaultStaleDays is the age after which an imported row is reported as
// stale.
const DefaultStaleDays = 30

// State is the stage an import reached.
type State int

const (
	Received State = iota
	Normalized
	Categorized
	Resolved
	Persisted
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Normalized:
		return "normalized"
	case Categorized:
		return "categorized"
	case Resolved:
		return "resolved"
	case Persisted:
		return "persisted"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one import: either a count of inserted rows,
// possibly zero, or an error.
type Result struct {
	ImportID string
	// Count is the number of rows written.
	Count int
	// Skipped counts rows recognized as already stored.
	Skipped int
	// Warned counts rows inserted despite a similar older stored row.
	Warned int
	// Rejected counts rows the normalizer could not parse and rows missing a
	// field persistence requires.
	Rejected int
	State    State
	Err      *ingesterror.Error
}

// OK reports whether the import succeeded. Zero inserted rows is a success.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message is the user-facing summary of the import.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Err.Msg
	}
	if r.Count == 0 {
		return "No new transactions to upload"
	}
	return fmt.Sprintf("Successfully uploaded %d new transactions", r.Count)
}

// Options tunes the pipeline stages.
type Options struct {
	Categorizer categorizer.Options
	Dedupe      dedupe.Options
	// StaleDays is the age, in days, past which an inserted row is logged.
	StaleDays int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Categorizer: categorizer.DefaultOptions(),
		Dedupe:      dedupe.DefaultOptions(),
		StaleDays:   DefaultStaleDays,
	}
}

// Pipeline is the only writer of transactions. Imports through one Pipeline
// run one at a time, so every import reads the history left by the previous
// one.
type Pipeline struct {
	mu         sync.Mutex
	store      store.Store
	normalizer *normalizer.Normalizer
	resolver   *dedupe.Resolver
	logger     logging.Logger
	opts       Options
}

// New creates a pipeline writing to s.
func New(s store.Store, logger logging.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.StaleDays <= 0 {
		opts.StaleDays = DefaultStaleDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		store:      s,
		normalizer: normalizer.New(logger),
		resolver:   dedupe.NewResolver(s, logger, opts.Dedupe),
		logger:     logger,
		opts:       opts,
	}
}

// ImportFile reads a .csv file and imports it.
func (p *Pipeline) ImportFile(ctx context.Context, path, accountHint string) Result {
	s, err := sheet.ReadFile(path)
	if err != nil {
		return p.readFailure(err, logging.F(logging.FieldFile, path))
	}
	return p.Import(ctx, s, accountHint)
}

// ImportReader decodes CSV from r and imports it.
func (p *Pipeline) ImportReader(ctx context.Context, r io.Reader, accountHint string) Result {
	s, err := sheet.Read(r)
	if err != nil {
		return p.readFailure(err)
	}
	return p.Import(ctx, s, accountHint)
}

func (p *Pipeline) readFailure(err error, fields ...logging.Field) Result {
	var ierr *ingesterror.Error
	if !errors.As(err, &ierr) {
		ierr = ingesterror.NotCSV(err)
	}
	p.logger.WithError(err).Warn("Rejected upload", fields...)
	return Result{State: Failed, Err: ierr}
}

// Import normalizes s, decides every row and writes the new ones in one
// batch. accountHint names the account of rows whose sheet does not carry
// one; "" means no hint.
func (p *Pipeline) Import(ctx context.Context, s *sheet.Sheet, accountHint string) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := Result{ImportID: uuid.NewString(), State: Received}
	log := p.logger.WithFields(logging.F(logging.FieldImportID, res.ImportID))
	start := time.Now()

	fail := func(err *ingesterror.Error) Result {
		res.Err = err
		log.WithError(err).Warn("Import failed",
			logging.F(logging.FieldStatus, res.State.String()),
			logging.F(logging.FieldReason, err.Kind.String()))
		res.State = Failed
		return res
	}

	normalized, ierr := p.normalizer.Normalize(s, accountHint)
	if ierr != nil {
		return fail(ierr)
	}
	res.Rejected = normalized.Rejected
	res.State = Normalized
	log.Debug("Normalized sheet",
		logging.F(logging.FieldCount, len(normalized.Transactions)),
		logging.F("rejected", normalized.Rejected))

	cat := categorizer.New(p.store, log, p.opts.Categorizer)
	for _, account := range normalized.Accounts() {
		if err := cat.Build(ctx, account); err != nil {
			return fail(ingesterror.StorageFailure(err))
		}
	}
	txs := make([]models.Transaction, len(normalized.Transactions))
	for i, tx := range normalized.Transactions {
		tx.Category = cat.Categorize(tx)
		txs[i] = tx
	}
	txs, invalid := rejectInvalid(log, txs)
	res.Rejected += invalid
	res.State = Categorized

	resolver := p.resolver.WithLogger(log)
	var batch []models.Transaction
	for _, tx := range txs {
		decision, err := resolver.Resolve(ctx, tx)
		if err != nil {
			return fail(ingesterror.StorageFailure(err))
		}
		switch decision.Verdict {
		case dedupe.Skip:
			res.Skipped++
			continue
		case dedupe.InsertWithWarning:
			res.Warned++
		}
		batch = append(batch, tx)
	}
	res.State = Resolved

	if len(batch) > 0 {
		if err := p.store.InsertTransactions(ctx, batch); err != nil {
			return fail(ingesterror.StorageFailure(err))
		}
		res.Count = len(batch)
		p.reportStale(log, batch)
	}
	res.State = Persisted

	if err := p.registerHintAccount(ctx, log, accountHint, batch); err != nil {
		log.WithError(err).Warn("Failed to register account", logging.F(logging.FieldAccount, accountHint))
	}

	res.State = Done
	log.Info("Import finished",
		logging.F(logging.FieldCount, res.Count),
		logging.F("skipped", res.Skipped),
		logging.F("warned", res.Warned),
		logging.F("rejected", res.Rejected),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return res
}

// rejectInvalid drops rows missing a field persistence requires and returns
// the remaining rows with the number dropped.
func rejectInvalid(log logging.Logger, txs []models.Transaction) ([]models.Transaction, int) {
	kept := txs[:0]
	rejected := 0
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			rowErr := &ingesterror.RowError{Row: i + 1, Err: err}
			var fe *models.FieldError
			if errors.As(err, &fe) {
				rowErr.Field = fe.Field
			}
			rejected++
			log.WithError(rowErr).Warn("Dropping invalid transaction",
				logging.F(logging.FieldRow, i+1))
			continue
		}
		kept = append(kept, tx)
	}
	return kept, rejected
}

// registerHintAccount adds the hint account when rows were written to it
// and the store does not know it yet.
func (p *Pipeline) registerHintAccount(ctx context.Context, log logging.Logger, hint string, batch []models.Transaction) error {
	if hint == "" {
		return nil
	}
	used := false
	for _, tx := range batch {
		if tx.AccountName == hint {
			used = true
			break
		}
	}
	if !used {
		return nil
	}
	known, err := store.AccountNames(ctx, p.store)
	if err != nil {
		return err
	}
	if known[hint] {
		return nil
	}
	err = p.store.AddAccount(ctx, models.NewAccount(hint))
	if errors.Is(err, store.ErrExists) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("Registered new account", logging.F(logging.FieldAccount, hint))
	return nil
}

func (p *Pipeline) reportStale(log logging.Logger, batch []models.Transaction) {
	today := dateutils.TruncateDay(p.opts.Now())
	stale := 0
	for _, tx := range batch {
		if dateutils.TruncateDay(tx.PostedDate).Before(today) && dateutils.DaysBetween(today, tx.PostedDate) > p.opts.StaleDays {
			stale++
			log.Info("Imported stale transaction",
				logging.F(logging.FieldAccount, tx.AccountName),
				logging.F(logging.FieldPostedDate, dateutils.ToISODate(tx.PostedDate)),
				logging.F(logging.FieldDescription, tx.Description))
		}
	}
	if stale > 0 {
		log.Warn("Import contains old transactions",
			logging.F(logging.FieldCount, stale),
			logging.F("stale_days", p.opts.StaleDays))
	}
}
