package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"kharnish/budgie/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(iso string) time.Time {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(posted, desc, amount, account, category string) models.Transaction {
	return models.Transaction{
		TransactionDate:     day(posted),
		PostedDate:          day(posted),
		Description:         desc,
		OriginalDescription: desc,
		Amount:              decimal.RequireFromString(amount),
		AccountName:         account,
		Category:            category,
	}
}

// runContract exercises the Store contract against an empty store.
func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.InsertTransactions(ctx, []models.Transaction{
		tx("2024-01-05", "Coffee Shop", "-12.50", "Checking", "Dining"),
		tx("2024-01-10", "Coffee Shop", "-12.50", "Checking", "Coffee"),
		tx("2024-01-07", "Coffee Shop", "-12.50", "Credit Card", "Dining"),
		tx("2024-01-08", "Payroll", "1500.00", "Checking", "Income"),
	}))
	require.NoError(t, s.InsertTransactions(ctx, nil))

	t.Run("find by amount and account newest first", func(t *testing.T) {
		amount := decimal.RequireFromString("-12.5")
		got, err := s.FindTransactions(ctx, Filter{Amount: &amount, Account: "Checking", Order: PostedDesc})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, day("2024-01-10"), got[0].PostedDate.UTC())
		assert.Equal(t, day("2024-01-05"), got[1].PostedDate.UTC())
		assert.NotEmpty(t, got[0].ID)
		assert.True(t, amount.Equal(got[0].Amount))
	})

	t.Run("find by posted range", func(t *testing.T) {
		got, err := s.FindTransactions(ctx, Filter{PostedFrom: day("2024-01-06"), PostedTo: day("2024-01-08"), Order: PostedAsc})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Credit Card", got[0].AccountName)
		assert.Equal(t, "Payroll", got[1].Description)
	})

	t.Run("distinct", func(t *testing.T) {
		accounts, err := s.Distinct(ctx, FieldAccountName)
		require.NoError(t, err)
		assert.Equal(t, []string{"Checking", "Credit Card"}, accounts)

		_, err = s.Distinct(ctx, "amount")
		assert.True(t, errors.Is(err, ErrUnknownField))
	})

	t.Run("latest categories per description", func(t *testing.T) {
		hints, err := s.LatestCategories(ctx, "Checking")
		require.NoError(t, err)
		byDesc := map[string]CategoryHint{}
		for _, h := range hints {
			byDesc[h.Description] = h
		}
		require.Len(t, byDesc, 2)
		assert.Equal(t, "Coffee", byDesc["Coffee Shop"].Category)
		assert.Equal(t, day("2024-01-10"), byDesc["Coffee Shop"].PostedDate.UTC())
		assert.Equal(t, "Income", byDesc["Payroll"].Category)
	})

	t.Run("accounts", func(t *testing.T) {
		require.NoError(t, s.AddAccount(ctx, models.NewAccount("Checking")))
		err := s.AddAccount(ctx, models.NewAccount("Checking"))
		assert.True(t, errors.Is(err, ErrExists))
		assert.Error(t, s.AddAccount(ctx, models.Account{}))

		accounts, err := s.Accounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, models.AccountStatusOpen, accounts[0].Status)
	})

	t.Run("categories keep parent and hidden", func(t *testing.T) {
		require.NoError(t, s.AddCategory(ctx, models.Category{Name: "Food"}))
		require.NoError(t, s.AddCategory(ctx, models.Category{Name: "Dining", Parent: "Food", Hidden: true}))
		assert.True(t, errors.Is(s.AddCategory(ctx, models.Category{Name: "Food"}), ErrExists))

		cats, err := s.Categories(ctx)
		require.NoError(t, err)
		var dining models.Category
		for _, c := range cats {
			if c.Name == "Dining" {
				dining = c
			}
		}
		assert.Equal(t, "Food", dining.Parent)
		assert.True(t, dining.Hidden)
	})

	t.Run("budget upsert", func(t *testing.T) {
		require.NoError(t, s.AddBudgetItem(ctx, models.BudgetItem{Category: "Dining", Value: decimal.RequireFromString("-200")}))
		require.NoError(t, s.AddBudgetItem(ctx, models.BudgetItem{Category: "Dining", Value: decimal.RequireFromString("-250")}))
		items, err := s.BudgetItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, decimal.RequireFromString("-250").Equal(items[0].Value))
	})
}
