package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
)

// CSV is a flat-file Store: one CSV file per collection in a data directory.
// Reads are served from memory; every write rewrites the affected file.
type CSV struct {
	*Memory
	dir    string
	logger logging.Logger
	// writeMu serializes file rewrites.
	writeMu sync.Mutex
}

// NewCSV opens the flat-file store in dir, creating the directory when
// needed. Missing collection files start empty.
func NewCSV(dir string, logger logging.Logger) (*CSV, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	snap := &Snapshot{}
	for _, name := range Collections {
		path := filepath.Join(dir, name+".csv")
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", path, err)
		}
		err = snap.ReadCSV(name, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	mem := NewMemory()
	mem.load(snap.Transactions, snap.Accounts, snap.Categories, snap.Budget)
	logger.Info("Opened flat-file store",
		logging.F(logging.FieldFile, dir),
		logging.F(logging.FieldCount, len(snap.Transactions)))
	return &CSV{Memory: mem, dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (c *CSV) Dir() string {
	return c.dir
}

// InsertTransactions implements Store. When the file cannot be written the
// in-memory batch is rolled back.
func (c *CSV) InsertTransactions(ctx context.Context, txs []models.Transaction) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	before, accounts, categories, budget := c.snapshot()
	if err := c.Memory.InsertTransactions(ctx, txs); err != nil {
		return err
	}
	if err := c.persist(CollectionTransactions); err != nil {
		c.Memory.load(before, accounts, categories, budget)
		return err
	}
	return nil
}

// AddAccount implements Store.
func (c *CSV) AddAccount(ctx context.Context, account models.Account) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Memory.AddAccount(ctx, account); err != nil {
		return err
	}
	return c.persist(CollectionAccounts)
}

// AddCategory implements Store.
func (c *CSV) AddCategory(ctx context.Context, category models.Category) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Memory.AddCategory(ctx, category); err != nil {
		return err
	}
	return c.persist(CollectionCategories)
}

// AddBudgetItem implements Store.
func (c *CSV) AddBudgetItem(ctx context.Context, item models.BudgetItem) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Memory.AddBudgetItem(ctx, item); err != nil {
		return err
	}
	return c.persist(CollectionBudget)
}

// persist rewrites one collection file through a temp file and rename.
func (c *CSV) persist(collection string) error {
	txs, accounts, categories, budget := c.snapshot()
	snap := &Snapshot{Transactions: txs, Accounts: accounts, Categories: categories, Budget: budget}

	path := filepath.Join(c.dir, collection+".csv")
	tmp, err := os.CreateTemp(c.dir, collection+"-*.csv.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snap.WriteCSV(collection, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	c.logger.Debug("Saved collection", logging.F(logging.FieldFile, path))
	return nil
}
