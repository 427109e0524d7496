package backup

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"kharnish/budgie/internal/backup"
	"kharnish/budgie/internal/container/containertest"
	"kharnish/budgie/internal/dateutils/datetest"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.AddAccount(ctx, models.NewAccount("Checking")))
	require.NoError(t, s.AddCategory(ctx, models.Category{Name: "Dining"}))
	require.NoError(t, s.AddBudgetItem(ctx, models.BudgetItem{Category: "Dining", Value: decimal.NewFromInt(200)}))
	require.NoError(t, s.InsertTransactions(ctx, []models.Transaction{{
		TransactionDate:     datetest.Day("2024-03-01"),
		PostedDate:          datetest.Day("2024-03-02"),
		Description:         "Coffee Shop",
		OriginalDescription: "COFFEE SHOP 123",
		Amount:              decimal.RequireFromString("-4.50"),
		AccountName:         "Checking",
		Category:            "Dining",
	}}))
}

func TestExportThenRestore(t *testing.T) {
	src, mem, _ := containertest.New(t)
	seed(t, mem)
	dir := filepath.Join(t.TempDir(), "export")

	var out bytes.Buffer
	require.NoError(t, Export(context.Background(), src, dir, &out))
	for _, collection := range store.Collections {
		assert.Contains(t, out.String(), filepath.Join(dir, collection+".csv"))
	}

	dst, restored, _ := containertest.New(t)
	out.Reset()
	require.NoError(t, Restore(context.Background(), dst, dir, &out))
	assert.Equal(t, "Restored 1 transactions, 1 accounts, 1 categories, 1 budget lines\n", out.String())

	txs, err := restored.FindTransactions(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "COFFEE SHOP 123", txs[0].OriginalDescription)
}

func TestExport_UsesConfiguredDirectory(t *testing.T) {
	c, mem, _ := containertest.New(t)
	seed(t, mem)
	dir := t.TempDir()
	c.GetConfig().Backup.Dir = dir

	var out bytes.Buffer
	require.NoError(t, Export(context.Background(), c, "", &out))
	assert.FileExists(t, filepath.Join(dir, store.CollectionTransactions+".csv"))
}

func TestExport_NoDestination(t *testing.T) {
	c, _, _ := containertest.New(t)
	err := Export(context.Background(), c, "", &bytes.Buffer{})
	assert.ErrorIs(t, err, backup.ErrNoDestination)
}

func TestCommands(t *testing.T) {
	assert.Equal(t, "export [destination]", ExportCmd.Use)
	assert.NotNil(t, ExportCmd.Flags().Lookup("output"))
	assert.Equal(t, "restore <directory>", RestoreCmd.Use)
	assert.Error(t, RestoreCmd.Args(RestoreCmd, nil))
}
