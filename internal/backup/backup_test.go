package backup

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kharnish/budgie/internal/dateutils/datetest"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.InsertTransactions(ctx, []models.Transaction{{
		TransactionDate:     datetest.Day("2024-03-01"),
		PostedDate:          datetest.Day("2024-03-02"),
		Description:         "Coffee Shop",
		OriginalDescription: "SQ *COFFEE SHOP",
		Amount:              decimal.RequireFromString("-12.50"),
		AccountName:         "Checking",
		Category:            "Dining",
	}}))
	require.NoError(t, s.AddAccount(ctx, models.NewAccount("Checking")))
	require.NoError(t, s.AddCategory(ctx, models.Category{Name: "Dining", Parent: "Food"}))
	require.NoError(t, s.AddBudgetItem(ctx, models.BudgetItem{Category: "Dining", Value: decimal.RequireFromString("-200")}))
	return s
}

func TestExport_LocalDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backup")
	e := NewExporter(logging.NewMockLogger(), "")

	written, err := e.Export(context.Background(), seeded(t), dir)
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.Equal(t, filepath.Join(dir, "transactions.csv"), written[0])

	raw, err := os.ReadFile(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2024-03-01,2024-03-02,Dining,Coffee Shop,-12.50,SQ *COFFEE SHOP,Checking")
}

func TestExport_NoDestination(t *testing.T) {
	_, err := NewExporter(logging.NewMockLogger(), "").Export(context.Background(), store.NewMemory(), "")
	assert.ErrorIs(t, err, ErrNoDestination)
}

type fakeUploader struct {
	objects map[string]string
	closed  bool
}

func (f *fakeUploader) Upload(_ context.Context, bucket, object string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.objects[bucket+"/"+object] = buf.String()
	return nil
}

func (f *fakeUploader) Close() error {
	f.closed = true
	return nil
}

func TestExport_GCS(t *testing.T) {
	up := &fakeUploader{objects: map[string]string{}}
	e := NewExporter(logging.NewMockLogger(), "").WithUploader(up)

	written, err := e.Export(context.Background(), seeded(t), "gs://budgie-backups/nightly/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gs://budgie-backups/nightly/transactions.csv",
		"gs://budgie-backups/nightly/budget.csv",
		"gs://budgie-backups/nightly/accounts.csv",
		"gs://budgie-backups/nightly/categories.csv",
	}, written)
	assert.Contains(t, up.objects["budgie-backups/nightly/categories.csv"], "Dining,Food,false")
	assert.True(t, up.closed)
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		prefix string
		err    bool
	}{
		{"gs://bucket", "bucket", "", false},
		{"gs://bucket/a/b/", "bucket", "a/b", false},
		{"gs:///a", "", "", true},
		{"/local/dir", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseGCSURI(tt.uri)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := NewExporter(logging.NewMockLogger(), "").Export(ctx, seeded(t), dir)
	require.NoError(t, err)

	target := store.NewMemory()
	require.NoError(t, target.AddAccount(ctx, models.NewAccount("Checking")))

	report, err := Restore(ctx, target, dir, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, RestoreReport{Transactions: 1, Accounts: 0, Categories: 1, Budget: 1}, report)

	txs, err := target.FindTransactions(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "SQ *COFFEE SHOP", txs[0].OriginalDescription)
	assert.Equal(t, datetest.Day("2024-03-02"), txs[0].PostedDate)

	cats, err := target.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{Name: "Dining", Parent: "Food"}}, cats)
}

func TestRestore_MissingFilesAreSkipped(t *testing.T) {
	report, err := Restore(context.Background(), store.NewMemory(), t.TempDir(), logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, RestoreReport{}, report)
}
