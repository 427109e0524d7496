package store

import (
	"context"
	"errors"
	"testing"

	"kharnish/budgie/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	runContract(t, NewMemory())
}

func TestMemory_UniqueBackstop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.EnforceUnique(true)

	row := tx("2024-03-01", "Coffee Shop", "-12.50", "Checking", "Dining")
	require.NoError(t, m.InsertTransactions(ctx, []models.Transaction{row}))

	err := m.InsertTransactions(ctx, []models.Transaction{
		tx("2024-03-02", "Bakery", "-3.00", "Checking", "Dining"),
		row,
	})
	assert.True(t, errors.Is(err, ErrConflict))

	all, err := m.FindTransactions(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "a conflicting batch is not partially applied")
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.InsertTransactions(ctx, []models.Transaction{tx("2024-03-01", "A", "1", "X", "c")}))

	got, err := m.FindTransactions(ctx, Filter{})
	require.NoError(t, err)
	got[0].Description = "changed"

	again, err := m.FindTransactions(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, "A", again[0].Description)
}

func TestMemory_CanceledInsert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewMemory().InsertTransactions(ctx, []models.Transaction{tx("2024-03-01", "A", "1", "X", "c")}))
}

func TestLatestCategories_TieKeepsLaterRow(t *testing.T) {
	hints := latestCategories([]models.Transaction{
		tx("2024-03-01", "Shop", "1", "X", "Old"),
		tx("2024-03-01", "Shop", "2", "X", "New"),
		tx("2024-02-01", "Shop", "3", "X", "Older"),
		tx("2024-04-01", "Shop", "4", "Y", "Other account"),
	}, "X")
	require.Len(t, hints, 1)
	assert.Equal(t, "New", hints[0].Category)
}
