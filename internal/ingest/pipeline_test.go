package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kharnish/budgie/internal/dateutils/datetest"
	"kharnish/budgie/internal/ingesterror"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/sheet"
	"kharnish/budgie/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bankHeader = []string{"Transaction Date", "Posted Date", "Description", "Amount"}

func newPipeline(s store.Store) (*Pipeline, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	opts := DefaultOptions()
	opts.Now = func() time.Time { return datetest.Day("2024-03-20") }
	return New(s, logger, opts), logger
}

func coffeeSheet() *sheet.Sheet {
	return sheet.New(bankHeader, [][]string{{"2024-03-01", "2024-03-01", "Coffee Shop", "-12.50"}})
}

func allTransactions(t *testing.T, s store.Store) []models.Transaction {
	t.Helper()
	txs, err := s.FindTransactions(context.Background(), store.Filter{Order: store.PostedAsc})
	require.NoError(t, err)
	return txs
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p, _ := newPipeline(s)

	first := p.Import(ctx, coffeeSheet(), "Checking")
	require.True(t, first.OK())
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, Done, first.State)
	assert.Equal(t, "Successfully uploaded 1 new transactions", first.Message())
	assert.NotEmpty(t, first.ImportID)

	second := p.Import(ctx, coffeeSheet(), "Checking")
	require.True(t, second.OK())
	assert.Equal(t, 0, second.Count)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, "No new transactions to upload", second.Message())
	assert.NotEqual(t, first.ImportID, second.ImportID)

	txs := allTransactions(t, s)
	require.Len(t, txs, 1)
	assert.Equal(t, "Checking", txs[0].AccountName)
	assert.Equal(t, models.CategoryUnknown, txs[0].Category)
	assert.True(t, decimal.RequireFromString("-12.50").Equal(txs[0].Amount))
}

func TestImport_RecurringChargeIsCategorizedFromHistory(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	existing := models.Transaction{
		TransactionDate:     datetest.Day("2024-03-01"),
		PostedDate:          datetest.Day("2024-03-01"),
		Description:         "Coffee Shop",
		OriginalDescription: "Coffee Shop",
		Amount:              decimal.RequireFromString("-12.50"),
		AccountName:         "Checking",
		Category:            "Dining",
	}
	require.NoError(t, s.InsertTransactions(ctx, []models.Transaction{existing}))
	require.NoError(t, s.AddAccount(ctx, models.NewAccount("Checking")))
	p, logger := newPipeline(s)

	res := p.Import(ctx, sheet.New(bankHeader, [][]string{{"2024-03-15", "2024-03-15", "Coffee Shop Monthly", "-12.50"}}), "Checking")
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.Warned)

	txs := allTransactions(t, s)
	require.Len(t, txs, 2)
	assert.Equal(t, "Coffee Shop Monthly", txs[1].Description)
	assert.Equal(t, "Dining", txs[1].Category)

	warnings := logger.GetEntriesByLevel("WARN")
	require.NotEmpty(t, warnings)
	id, ok := warnings[0].FieldValue(logging.FieldImportID)
	require.True(t, ok)
	assert.Equal(t, res.ImportID, id)
}

func TestImport_MissingDescriptionColumn(t *testing.T) {
	s := store.NewMemory()
	p, _ := newPipeline(s)

	res := p.Import(context.Background(), sheet.New(
		[]string{"Transaction Date", "Posted Date", "Amount"},
		[][]string{{"2024-03-01", "2024-03-01", "-12.50"}},
	), "Checking")

	require.False(t, res.OK())
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, ingesterror.Structural, res.Err.Kind)
	assert.Equal(t, ingesterror.MsgNoDescription, res.Message())
	assert.Empty(t, allTransactions(t, s))
}

func TestImport_AccountContext(t *testing.T) {
	ctx := context.Background()

	t.Run("account column without hint", func(t *testing.T) {
		s := store.NewMemory()
		p, _ := newPipeline(s)
		res := p.Import(ctx, sheet.New(
			[]string{"Transaction Date", "Posted Date", "Description", "Amount", "Account Name", "Category"},
			[][]string{
				{"2024-03-01", "2024-03-02", "Payroll", "1500.00", "Checking", "Income"},
				{"2024-03-03", "2024-03-04", "Grocer", "-54.20", "Credit Card", "Groceries"},
			},
		), "")
		require.True(t, res.OK())
		assert.Equal(t, 2, res.Count)

		txs := allTransactions(t, s)
		require.Len(t, txs, 2)
		assert.Equal(t, "Checking", txs[0].AccountName)
		assert.Equal(t, "Income", txs[0].Category)
		assert.Equal(t, "Credit Card", txs[1].AccountName)

		accounts, err := s.Accounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("no column and no hint", func(t *testing.T) {
		s := store.NewMemory()
		p, _ := newPipeline(s)
		res := p.Import(ctx, coffeeSheet(), "")
		require.False(t, res.OK())
		assert.Equal(t, ingesterror.MissingContext, res.Err.Kind)
		assert.Equal(t, ingesterror.MsgNoAccount, res.Message())
		assert.Empty(t, allTransactions(t, s))
	})
}

func TestImport_RegistersHintAccount(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p, _ := newPipeline(s)

	require.True(t, p.Import(ctx, coffeeSheet(), "Checking").OK())
	require.True(t, p.Import(ctx, coffeeSheet(), "Checking").OK())

	accounts, err := s.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, models.AccountStatusOpen, accounts[0].Status)

	other := store.NewMemory()
	q, _ := newPipeline(other)
	require.NoError(t, other.InsertTransactions(ctx, []models.Transaction{{
		TransactionDate: datetest.Day("2024-03-01"), PostedDate: datetest.Day("2024-03-01"),
		Description: "Coffee Shop", OriginalDescription: "Coffee Shop",
		Amount: decimal.RequireFromString("-12.50"), AccountName: "Savings", Category: "Dining",
	}}))
	res := q.Import(ctx, coffeeSheet(), "Savings")
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Count)
	accounts, err = other.Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts, "nothing inserted, nothing registered")
}

func TestImport_StaleRowsAreReported(t *testing.T) {
	s := store.NewMemory()
	p, logger := newPipeline(s)
	p.opts.Now = func() time.Time { return datetest.Day("2024-06-01") }

	res := p.Import(context.Background(), coffeeSheet(), "Checking")
	require.True(t, res.OK())
	assert.True(t, logger.HasEntry("WARN", "Import contains old transactions"))
	assert.True(t, logger.HasEntry("INFO", "Imported stale transaction"))
}

func TestImport_RejectedRowsAreCounted(t *testing.T) {
	s := store.NewMemory()
	p, _ := newPipeline(s)
	res := p.Import(context.Background(), sheet.New(bankHeader, [][]string{
		{"2024-03-01", "2024-03-01", "Coffee Shop", "-12.50"},
		{"2024-03-02", "not a date", "Bakery", "-3.00"},
	}), "Checking")
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.Rejected)
}

type failingInsert struct {
	*store.Memory
}

func (failingInsert) InsertTransactions(context.Context, []models.Transaction) error {
	return errors.New("disk full")
}

func TestImport_StorageFailure(t *testing.T) {
	s := failingInsert{Memory: store.NewMemory()}
	p, logger := newPipeline(s)

	res := p.Import(context.Background(), coffeeSheet(), "Checking")
	require.False(t, res.OK())
	assert.Equal(t, ingesterror.Storage, res.Err.Kind)
	assert.Equal(t, ingesterror.MsgStorage, res.Message())
	assert.ErrorContains(t, res.Err, "disk full")
	assert.Equal(t, 0, res.Count)

	accounts, err := s.Accounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.True(t, logger.HasEntry("WARN", "Import failed"))
}

func TestImportReader(t *testing.T) {
	s := store.NewMemory()
	p, _ := newPipeline(s)

	res := p.ImportReader(context.Background(), strings.NewReader(""), "Checking")
	require.False(t, res.OK())
	assert.Equal(t, ingesterror.MsgNotCSV, res.Message())

	csv := "Transaction Date,Posted Date,Description,Amount\n2024-03-01,2024-03-01,Coffee Shop,-12.50\n"
	res = p.ImportReader(context.Background(), strings.NewReader(csv), "Checking")
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Count)
}

func TestImportFile_RejectsNonCSV(t *testing.T) {
	p, _ := newPipeline(store.NewMemory())
	res := p.ImportFile(context.Background(), "statement.xlsx", "Checking")
	require.False(t, res.OK())
	assert.Equal(t, ingesterror.Structural, res.Err.Kind)
	assert.Equal(t, ingesterror.MsgNotCSV, res.Message())
}

func TestImport_ConcurrentUploadsDoNotDuplicate(t *testing.T) {
	s := store.NewMemory()
	p, _ := newPipeline(s)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Import(context.Background(), coffeeSheet(), "Checking")
		}(i)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		require.True(t, r.OK())
		total += r.Count
	}
	assert.Equal(t, 1, total)
	assert.Len(t, allTransactions(t, s), 1)
}

func TestRejectInvalid(t *testing.T) {
	logger := logging.NewMockLogger()
	valid := models.Transaction{
		TransactionDate: datetest.Day("2024-03-01"), PostedDate: datetest.Day("2024-03-01"),
		Description: "Coffee Shop", OriginalDescription: "Coffee Shop",
		Amount: decimal.RequireFromString("-12.50"), AccountName: "Checking", Category: "Dining",
	}
	noCategory := valid
	noCategory.Category = ""
	noDate := valid
	noDate.PostedDate = time.Time{}

	kept, rejected := rejectInvalid(logger, []models.Transaction{noCategory, valid, noDate})
	assert.Equal(t, 2, rejected)
	require.Len(t, kept, 1)
	assert.Equal(t, "Dining", kept[0].Category)

	warns := logger.GetEntriesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, "Dropping invalid transaction", warns[0].Message)
	row, ok := warns[0].FieldValue(logging.FieldRow)
	require.True(t, ok)
	assert.Equal(t, 1, row)

	var rowErr *ingesterror.RowError
	require.ErrorAs(t, warns[0].Error, &rowErr)
	assert.Equal(t, "category", rowErr.Field)
	var fieldErr *models.FieldError
	assert.ErrorAs(t, warns[1].Error, &fieldErr)
	assert.Equal(t, "posted date", fieldErr.Field)
}

func TestImport_CategorizedRowsPassValidation(t *testing.T) {
	s := store.NewMemory()
	p, logger := newPipeline(s)
	res := p.Import(context.Background(), coffeeSheet(), "Checking")
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Rejected)
	assert.False(t, logger.HasEntry("WARN", "Dropping invalid transaction"))
}
