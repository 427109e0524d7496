package store

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Collections lists every collection in export order.
var Collections = []string{CollectionTransactions, CollectionBudget, CollectionAccounts, CollectionCategories}

// Snapshot is the full content of a store.
type Snapshot struct {
	Transactions []models.Transaction
	Accounts     []models.Account
	Categories   []models.Category
	Budget       []models.BudgetItem
}

// Dump reads every collection of s.
func Dump(ctx context.Context, s Store) (*Snapshot, error) {
	txs, err := s.FindTransactions(ctx, Filter{Order: PostedAsc})
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	budget, err := s.BudgetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read budget: %w", err)
	}
	return &Snapshot{Transactions: txs, Accounts: accounts, Categories: categories, Budget: budget}, nil
}

// WriteCSV encodes one collection as CSV. Column names follow the Budgie
// export format, so an exported transactions file can be imported again.
func (s *Snapshot) WriteCSV(collection string, w io.Writer) error {
	switch collection {
	case CollectionTransactions:
		rows := make([]transactionRow, len(s.Transactions))
		for i, tx := range s.Transactions {
			rows[i] = toTransactionRow(tx)
		}
		return gocsv.Marshal(&rows, w)
	case CollectionAccounts:
		rows := make([]accountRow, len(s.Accounts))
		for i, a := range s.Accounts {
			rows[i] = accountRow{Name: a.Name, Status: a.Status, InitialBalance: models.FormatAmount(a.InitialBalance)}
		}
		return gocsv.Marshal(&rows, w)
	case CollectionCategories:
		rows := make([]categoryRow, len(s.Categories))
		for i, c := range s.Categories {
			rows[i] = categoryRow{Name: c.Name, Parent: c.Parent, Hidden: strconv.FormatBool(c.Hidden)}
		}
		return gocsv.Marshal(&rows, w)
	case CollectionBudget:
		rows := make([]budgetRow, len(s.Budget))
		for i, b := range s.Budget {
			rows[i] = budgetRow{Category: b.Category, Value: models.FormatAmount(b.Value), IsParent: strconv.FormatBool(b.IsParent)}
		}
		return gocsv.Marshal(&rows, w)
	}
	return fmt.Errorf("collection %q: %w", collection, ErrUnknownField)
}

// ReadCSV decodes one collection from r into the snapshot.
func (s *Snapshot) ReadCSV(collection string, r io.Reader) error {
	switch collection {
	case CollectionTransactions:
		var rows []transactionRow
		if err := unmarshal(r, &rows); err != nil {
			return err
		}
		s.Transactions = make([]models.Transaction, 0, len(rows))
		for i, row := range rows {
			tx, err := row.toModel()
			if err != nil {
				return fmt.Errorf("transactions row %d: %w", i+1, err)
			}
			s.Transactions = append(s.Transactions, tx)
		}
	case CollectionAccounts:
		var rows []accountRow
		if err := unmarshal(r, &rows); err != nil {
			return err
		}
		s.Accounts = make([]models.Account, 0, len(rows))
		for _, row := range rows {
			s.Accounts = append(s.Accounts, models.Account{Name: row.Name, Status: row.Status, InitialBalance: parseDecimal(row.InitialBalance)})
		}
	case CollectionCategories:
		var rows []categoryRow
		if err := unmarshal(r, &rows); err != nil {
			return err
		}
		s.Categories = make([]models.Category, 0, len(rows))
		for _, row := range rows {
			hidden, _ := strconv.ParseBool(row.Hidden)
			s.Categories = append(s.Categories, models.Category{Name: row.Name, Parent: row.Parent, Hidden: hidden})
		}
	case CollectionBudget:
		var rows []budgetRow
		if err := unmarshal(r, &rows); err != nil {
			return err
		}
		s.Budget = make([]models.BudgetItem, 0, len(rows))
		for _, row := range rows {
			isParent, _ := strconv.ParseBool(row.IsParent)
			s.Budget = append(s.Budget, models.BudgetItem{Category: row.Category, Value: parseDecimal(row.Value), IsParent: isParent})
		}
	default:
		return fmt.Errorf("collection %q: %w", collection, ErrUnknownField)
	}
	return nil
}

type transactionRow struct {
	ID                  string `csv:"_id"`
	TransactionDate     string `csv:"transaction date"`
	PostedDate          string `csv:"posted date"`
	Category            string `csv:"category"`
	Description         string `csv:"description"`
	Amount              string `csv:"amount"`
	OriginalDescription string `csv:"original description"`
	AccountName         string `csv:"account name"`
	Notes               string `csv:"notes"`
}

type accountRow struct {
	Name           string `csv:"account name"`
	Status         string `csv:"status"`
	InitialBalance string `csv:"initial balance"`
}

type categoryRow struct {
	Name   string `csv:"category name"`
	Parent string `csv:"parent"`
	Hidden string `csv:"hidden"`
}

type budgetRow struct {
	Category string `csv:"category"`
	Value    string `csv:"value"`
	IsParent string `csv:"is_parent"`
}

func toTransactionRow(tx models.Transaction) transactionRow {
	return transactionRow{
		ID:                  tx.ID,
		TransactionDate:     dateutils.ToISODate(tx.TransactionDate),
		PostedDate:          dateutils.ToISODate(tx.PostedDate),
		Category:            tx.Category,
		Description:         tx.Description,
		Amount:              models.FormatAmount(tx.Amount),
		OriginalDescription: tx.OriginalDescription,
		AccountName:         tx.AccountName,
		Notes:               tx.Notes,
	}
}

func (r transactionRow) toModel() (models.Transaction, error) {
	initiated, _, err := dateutils.ParseDate(r.TransactionDate)
	if err != nil {
		return models.Transaction{}, err
	}
	posted, _, err := dateutils.ParseDate(r.PostedDate)
	if err != nil {
		return models.Transaction{}, err
	}
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		ID:                  r.ID,
		TransactionDate:     initiated,
		PostedDate:          posted,
		Description:         r.Description,
		OriginalDescription: r.OriginalDescription,
		Amount:              amount,
		AccountName:         r.AccountName,
		Category:            r.Category,
		Notes:               r.Notes,
	}, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := models.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func unmarshal(r io.Reader, out interface{}) error {
	if err := gocsv.Unmarshal(r, out); err != nil && err != gocsv.ErrEmptyCSVFile {
		return err
	}
	return nil
}
