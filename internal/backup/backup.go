// Package backup exports every collection of a store to CSV files, in a
// local directory or a Google Cloud Storage prefix, and restores them.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/store"
)

const gcsScheme = "gs://"

// ErrNoDestination is returned when no backup location is configured.
var ErrNoDestination = errors.New("no backup destination: set BACKUP_DIR or pass one")

// Exporter writes store snapshots to a destination.
type Exporter struct {
	logger      logging.Logger
	newUploader func(ctx context.Context) (Uploader, error)
}

// NewExporter creates an exporter. credentialsFile is used for gs://
// destinations; empty means Application Default Credentials.
func NewExporter(logger logging.Logger, credentialsFile string) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{
		logger: logger,
		newUploader: func(ctx context.Context) (Uploader, error) {
			u, err := NewGCSUploader(ctx, credentialsFile)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
	}
}

// WithUploader returns a copy of e that sends gs:// exports to u.
func (e *Exporter) WithUploader(u Uploader) *Exporter {
	cp := *e
	cp.newUploader = func(context.Context) (Uploader, error) { return u, nil }
	return &cp
}

// Export writes one <collection>.csv per collection under dest and returns
// the written locations.
func (e *Exporter) Export(ctx context.Context, s store.Store, dest string) ([]string, error) {
	if dest == "" {
		return nil, ErrNoDestination
	}
	snap, err := store.Dump(ctx, s)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(dest, gcsScheme) {
		return e.exportGCS(ctx, snap, dest)
	}
	return e.exportLocal(snap, dest)
}

func (e *Exporter) exportLocal(snap *store.Snapshot, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	var written []string
	for _, collection := range store.Collections {
		var buf bytes.Buffer
		if err := snap.WriteCSV(collection, &buf); err != nil {
			return written, fmt.Errorf("failed to encode %s: %w", collection, err)
		}
		target := filepath.Join(dir, collection+".csv")
		if err := os.WriteFile(target, buf.Bytes(), models.PermissionFile); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
		e.logger.Debug("Exported collection", logging.F(logging.FieldFile, target))
	}
	e.logger.Info("Backup written", logging.F(logging.FieldDestination, dir), logging.F(logging.FieldCount, len(written)))
	return written, nil
}

func (e *Exporter) exportGCS(ctx context.Context, snap *store.Snapshot, uri string) ([]string, error) {
	bucket, prefix, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	uploader, err := e.newUploader(ctx)
	if err != nil {
		return nil, err
	}
	defer uploader.Close()

	var written []string
	for _, collection := range store.Collections {
		var buf bytes.Buffer
		if err := snap.WriteCSV(collection, &buf); err != nil {
			return written, fmt.Errorf("failed to encode %s: %w", collection, err)
		}
		object := path.Join(prefix, collection+".csv")
		if err := uploader.Upload(ctx, bucket, object, &buf); err != nil {
			return written, err
		}
		written = append(written, gcsScheme+bucket+"/"+object)
	}
	e.logger.Info("Backup uploaded", logging.F(logging.FieldDestination, uri), logging.F(logging.FieldCount, len(written)))
	return written, nil
}

// ParseGCSURI splits gs://bucket/prefix into bucket and prefix. The prefix
// may be empty.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return parts[0], prefix, nil
}

// RestoreReport counts what Restore added.
type RestoreReport struct {
	Transactions int
	Accounts     int
	Categories   int
	Budget       int
}

// Restore loads the <collection>.csv files found in dir into s. Accounts and
// categories already present are kept; budget values are replaced. Missing
// files are skipped.
func Restore(ctx context.Context, s store.Store, dir string, logger logging.Logger) (RestoreReport, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var report RestoreReport
	snap := &store.Snapshot{}
	for _, collection := range store.Collections {
		p := filepath.Join(dir, collection+".csv")
		f, err := os.Open(p)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No backup file", logging.F(logging.FieldFile, p))
			continue
		}
		if err != nil {
			return report, fmt.Errorf("error opening %s: %w", p, err)
		}
		err = snap.ReadCSV(collection, f)
		f.Close()
		if err != nil {
			return report, fmt.Errorf("error reading %s: %w", p, err)
		}
	}

	if len(snap.Transactions) > 0 {
		txs := make([]models.Transaction, len(snap.Transactions))
		for i, tx := range snap.Transactions {
			tx.ID = ""
			txs[i] = tx
		}
		if err := s.InsertTransactions(ctx, txs); err != nil {
			return report, fmt.Errorf("failed to restore transactions: %w", err)
		}
		report.Transactions = len(txs)
	}
	for _, a := range snap.Accounts {
		err := s.AddAccount(ctx, a)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to restore account %q: %w", a.Name, err)
		}
		report.Accounts++
	}
	added, err := store.SeedCategories(ctx, s, snap.Categories, logger)
	report.Categories = added
	if err != nil {
		return report, err
	}
	for _, b := range snap.Budget {
		if err := s.AddBudgetItem(ctx, b); err != nil {
			return report, fmt.Errorf("failed to restore budget for %q: %w", b.Category, err)
		}
		report.Budget++
	}

	logger.Info("Backup restored",
		logging.F(logging.FieldSource, dir),
		logging.F(logging.FieldCount, report.Transactions))
	return report, nil
}
