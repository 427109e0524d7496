package models

import "github.com/shopspring/decimal"

// Account is a named ledger account. Name is the unique key that
// transactions reference.
type Account struct {
	Name           string          `json:"account_name" yaml:"name"`
	Status         string          `json:"status" yaml:"status"`
	InitialBalance decimal.Decimal `json:"initial_balance" yaml:"initial_balance"`
}

// NewAccount returns an open account with a zero starting balance.
func NewAccount(name string) Account {
	return Account{Name: name, Status: AccountStatusOpen, InitialBalance: decimal.Zero}
}

// Category is a spending/income category. Parent optionally names another
// category for grouped budgets; Hidden categories are left out of trends.
type Category struct {
	Name   string `json:"category_name" yaml:"name"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Hidden bool   `json:"hidden" yaml:"hidden,omitempty"`
}

// BudgetItem is a monthly budget line for one category. IsParent marks
// group budgets derived from child categories.
type BudgetItem struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	IsParent bool            `json:"is_parent"`
}
