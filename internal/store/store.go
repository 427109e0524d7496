// Package store provides the persistence collaborators of the ingestion core.
// Every backend satisfies Store; the pipeline never learns which one it has.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kharnish/budgie/internal/models"

	"github.com/shopspring/decimal"
)

// Collection names, shared by every backend.
const (
	CollectionTransactions = "transactions"
	CollectionAccounts     = "accounts"
	CollectionCategories   = "categories"
	CollectionBudget       = "budget"
)

// Fields accepted by Store.Distinct.
const (
	FieldAccountName = "account name"
	FieldCategory    = "category"
)

var (
	// ErrExists is returned when adding an account or category whose name
	// is already taken.
	ErrExists = errors.New("already exists")
	// ErrUnknownField is returned by Distinct for unsupported fields.
	ErrUnknownField = errors.New("unknown field")
	// ErrConflict is returned when a batch violates the uniqueness backstop
	// on (account, amount, posted date, original description).
	ErrConflict = errors.New("duplicate transaction")
)

// Order selects how FindTransactions sorts its result.
type Order int

const (
	// Unordered leaves the order to the backend.
	Unordered Order = iota
	// PostedAsc sorts oldest posted date first.
	PostedAsc
	// PostedDesc sorts newest posted date first.
	PostedDesc
)

// Filter narrows FindTransactions. Zero values do not filter.
type Filter struct {
	Amount     *decimal.Decimal
	Account    string
	PostedFrom time.Time
	PostedTo   time.Time
	Order      Order
}

// Matches reports whether tx passes the filter.
func (f Filter) Matches(tx models.Transaction) bool {
	if f.Amount != nil && !tx.Amount.Equal(*f.Amount) {
		return false
	}
	if f.Account != "" && tx.AccountName != f.Account {
		return false
	}
	if !f.PostedFrom.IsZero() && tx.PostedDate.Before(f.PostedFrom) {
		return false
	}
	if !f.PostedTo.IsZero() && tx.PostedDate.After(f.PostedTo) {
		return false
	}
	return true
}

// CategoryHint is the latest known category of one original description.
type CategoryHint struct {
	Description string
	Category    string
	PostedDate  time.Time
}

// Store is the storage contract of the ingestion core.
type Store interface {
	FindTransactions(ctx context.Context, filter Filter) ([]models.Transaction, error)
	Distinct(ctx context.Context, field string) ([]string, error)
	// InsertTransactions writes the batch all-or-nothing.
	InsertTransactions(ctx context.Context, txs []models.Transaction) error
	// LatestCategories groups the account's transactions by original
	// description and keeps the category of the most recently posted one.
	LatestCategories(ctx context.Context, account string) ([]CategoryHint, error)

	Accounts(ctx context.Context) ([]models.Account, error)
	AddAccount(ctx context.Context, account models.Account) error
	Categories(ctx context.Context) ([]models.Category, error)
	AddCategory(ctx context.Context, category models.Category) error
	BudgetItems(ctx context.Context) ([]models.BudgetItem, error)
	// AddBudgetItem creates the budget line of a category or replaces its
	// value.
	AddBudgetItem(ctx context.Context, item models.BudgetItem) error

	Close(ctx context.Context) error
}

// AccountNames returns the names of every known account.
func AccountNames(ctx context.Context, s Store) (map[string]bool, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		names[a.Name] = true
	}
	return names, nil
}

func sortTransactions(txs []models.Transaction, order Order) {
	switch order {
	case PostedAsc:
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].PostedDate.Before(txs[j].PostedDate) })
	case PostedDesc:
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].PostedDate.After(txs[j].PostedDate) })
	}
}

// latestCategories is the in-process version of the grouping aggregate. On
// equal posted dates the later row in txs wins.
func latestCategories(txs []models.Transaction, account string) []CategoryHint {
	latest := make(map[string]CategoryHint)
	var order []string
	for _, tx := range txs {
		if tx.AccountName != account {
			continue
		}
		key := tx.MatchText()
		prev, seen := latest[key]
		if !seen {
			order = append(order, key)
		}
		if !seen || !tx.PostedDate.Before(prev.PostedDate) {
			latest[key] = CategoryHint{Description: key, Category: tx.Category, PostedDate: tx.PostedDate}
		}
	}
	out := make([]CategoryHint, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}

func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	return nil
}

func uniqueKey(tx models.Transaction) string {
	return strings.Join([]string{tx.AccountName, tx.Amount.String(), tx.PostedDate.Format("2006-01-02"), tx.MatchText()}, "\x1f")
}
