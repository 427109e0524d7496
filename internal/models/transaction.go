// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical, post-normalization shape of one ledger row.
// Dates are calendar dates held at UTC midnight.
type Transaction struct {
	ID                  string          `json:"id,omitempty"`
	TransactionDate     time.Time       `json:"transaction_date"`
	PostedDate          time.Time       `json:"posted_date"`
	Description         string          `json:"description"`
	OriginalDescription string          `json:"original_description"`
	Amount              decimal.Decimal `json:"amount"`
	AccountName         string          `json:"account_name"`
	Category            string          `json:"category"`
	Notes               string          `json:"notes,omitempty"`
}

// Validate checks the fields persistence requires: both dates, a description, an
// account and a category must be present.
func (t Transaction) Validate() error {
	switch {
	case t.TransactionDate.IsZero():
		return &FieldError{Field: "transaction date", Reason: "missing"}
	case t.PostedDate.IsZero():
		return &FieldError{Field: "posted date", Reason: "missing"}
	case t.Description == "":
		return &FieldError{Field: "description", Reason: "empty"}
	case t.AccountName == "":
		return &FieldError{Field: "account name", Reason: "empty"}
	case t.Category == "":
		return &FieldError{Field: "category", Reason: "empty"}
	}
	return nil
}

// MatchText returns the text used for fuzzy matching: the original
// description, falling back to the display description.
func (t Transaction) MatchText() string {
	if t.OriginalDescription != "" {
		return t.OriginalDescription
	}
	return t.Description
}

// String renders a short, log-friendly summary.
func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s [%s]", t.PostedDate.Format("2006-01-02"), t.Amount.StringFixed(2), t.MatchText(), t.AccountName)
}

// FieldError reports a Transaction that lacks a field persistence requires.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("transaction %s is %s", e.Field, e.Reason)
}
