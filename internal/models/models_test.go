package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "plain negative", input: "-12.50", expected: "-12.5"},
		{name: "dollar and thousands", input: "$1,234.50", expected: "1234.5"},
		{name: "negative dollar", input: "-$12.50", expected: "-12.5"},
		{name: "parentheses negative", input: "$(1,234.50)", expected: "-1234.5"},
		{name: "parentheses outside symbol", input: "($1,234.50)", expected: "-1234.5"},
		{name: "payment app prefix", input: "- $ 4.00", expected: "-4"},
		{name: "explicit plus", input: "+ $20.00", expected: "20"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "twelve", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := Transaction{
		TransactionDate: day,
		PostedDate:      day,
		Description:     "Coffee Shop",
		Amount:          decimal.RequireFromString("-12.50"),
		AccountName:     "Checking",
		Category:        CategoryUnknown,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		mut   func(*Transaction)
		field string
	}{
		{"no transaction date", func(tx *Transaction) { tx.TransactionDate = time.Time{} }, "transaction date"},
		{"no posted date", func(tx *Transaction) { tx.PostedDate = time.Time{} }, "posted date"},
		{"no description", func(tx *Transaction) { tx.Description = "" }, "description"},
		{"no account", func(tx *Transaction) { tx.AccountName = "" }, "account name"},
		{"no category", func(tx *Transaction) { tx.Category = "" }, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mut(&tx)
			err := tx.Validate()
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestMatchTextFallsBackToDescription(t *testing.T) {
	assert.Equal(t, "ORIG", Transaction{Description: "shown", OriginalDescription: "ORIG"}.MatchText())
	assert.Equal(t, "shown", Transaction{Description: "shown"}.MatchText())
}

func TestNewAccount(t *testing.T) {
	acc := NewAccount("Checking")
	assert.Equal(t, AccountStatusOpen, acc.Status)
	assert.True(t, acc.InitialBalance.IsZero())
}
