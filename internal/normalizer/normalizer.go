// Package normalizer maps bank, card and payment-app CSV exports onto the
// canonical transaction shape.
package normalizer

import (
	"errors"
	"strings"

	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/ingesterror"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/sheet"

	"github.com/shopspring/decimal"
)

// Canonical column names.
const (
	colTransactionDate     = "transaction date"
	colPostedDate          = "posted date"
	colDescription         = "description"
	colOriginalDescription = "original description"
	colAmount              = "amount"
	colAccountName         = "account name"
	colCategory            = "category"
	colNotes               = "notes"
	colCredit              = "credit"
	colDebit               = "debit"
	colIndicator           = "credit debit indicator"
	colPayee               = "payee"
	colOriginalName        = "original name"
)

var postedDateAliases = map[string]string{
	"posting date": colPostedDate,
	"post date":    colPostedDate,
	"booking date": colPostedDate,
}

var requiredColumns = []string{colTransactionDate, colPostedDate, colDescription, colAmount}

// Result is the normalized content of one sheet.
type Result struct {
	Transactions []models.Transaction
	// Rejected counts rows dropped during normalization: unparseable dates
	// or amounts, or no account to attach them to.
	Rejected int
	// AccountColumn is true when the sheet named the account of each row.
	AccountColumn bool
}

// Accounts returns the distinct account names of the result, in first-seen
// order.
func (r Result) Accounts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range r.Transactions {
		if !seen[tx.AccountName] {
			seen[tx.AccountName] = true
			out = append(out, tx.AccountName)
		}
	}
	return out
}

// Normalizer converts sheets into transactions.
type Normalizer struct {
	logger logging.Logger
}

// New creates a Normalizer. A nil logger falls back to the default logger.
func New(logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{logger: logger}
}

type amountFunc func(row int) (decimal.Decimal, error)

// Normalize converts s into canonical transactions. accountHint is the
// account chosen by the user, "" when none was given. s is not modified.
//
// A returned *ingesterror.Error rejects the whole sheet. Individual rows that
// cannot be converted are logged and counted in Result.Rejected.
func (n *Normalizer) Normalize(s *sheet.Sheet, accountHint string) (Result, *ingesterror.Error) {
	s = s.Clone()
	accountHint = strings.TrimSpace(accountHint)

	if isVenmo(s) {
		if err := n.unwrapVenmo(s); err != nil {
			return Result{}, ingesterror.NotCSV(err)
		}
	}

	s.DropEmptyColumns()
	s.MapHeader(func(h string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), "_", " ")
	})

	s.Rename(postedDateAliases)
	switch {
	case s.Has(colTransactionDate) && !s.Has(colPostedDate):
		col, _ := s.Column(colTransactionDate)
		s.SetColumn(colPostedDate, col)
	case s.Has(colPostedDate) && !s.Has(colTransactionDate):
		col, _ := s.Column(colPostedDate)
		s.SetColumn(colTransactionDate, col)
	}

	if s.Has(colOriginalName) {
		s.Rename(map[string]string{colPayee: colDescription, colOriginalName: colOriginalDescription})
	} else {
		s.Rename(map[string]string{colPayee: colDescription})
	}
	if !s.Has(colOriginalDescription) {
		col, ok := s.Column(colDescription)
		if !ok {
			return Result{}, ingesterror.NoDescription()
		}
		s.SetColumn(colOriginalDescription, col)
	}

	amountOf := n.amountStrategy(s)

	accountColumn := s.Has(colAccountName)
	if !accountColumn && accountHint == "" {
		return Result{}, ingesterror.NoAccount()
	}

	trustCategory := s.Has(colCategory) && accountHint == ""

	for _, col := range requiredColumns {
		if col == colAmount {
			if amountOf == nil {
				return Result{}, ingesterror.MissingColumn(col)
			}
			continue
		}
		if !s.Has(col) {
			return Result{}, ingesterror.MissingColumn(col)
		}
	}

	res := Result{AccountColumn: accountColumn}
	for i := 0; i < s.Len(); i++ {
		tx, rowErr := n.convertRow(s, i, amountOf, accountHint, trustCategory)
		if rowErr != nil {
			res.Rejected++
			n.logger.WithError(rowErr).Warn("Dropping row that cannot be normalized",
				logging.F(logging.FieldRow, i+1))
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}

	n.logger.Debug("Normalized sheet",
		logging.F(logging.FieldCount, len(res.Transactions)),
		logging.F("rejected", res.Rejected))
	return res, nil
}

// amountStrategy picks how the signed amount is derived. It returns nil when
// the sheet carries no amount information at all.
func (n *Normalizer) amountStrategy(s *sheet.Sheet) amountFunc {
	switch {
	case s.Has(colCredit) && s.Has(colDebit):
		return func(i int) (decimal.Decimal, error) {
			if credit := strings.TrimSpace(s.Cell(i, colCredit)); credit != "" {
				return models.ParseAmount(credit)
			}
			debit, err := models.ParseAmount(s.Cell(i, colDebit))
			if err != nil {
				return decimal.Zero, err
			}
			return debit.Neg(), nil
		}
	case s.Has(colIndicator) && s.Has(colAmount):
		return func(i int) (decimal.Decimal, error) {
			amount, err := models.ParseAmount(s.Cell(i, colAmount))
			if err != nil {
				return decimal.Zero, err
			}
			if strings.EqualFold(strings.TrimSpace(s.Cell(i, colIndicator)), "credit") {
				return amount, nil
			}
			return amount.Neg(), nil
		}
	case s.Has(colAmount):
		return func(i int) (decimal.Decimal, error) {
			return models.ParseAmount(s.Cell(i, colAmount))
		}
	}
	return nil
}

func (n *Normalizer) convertRow(s *sheet.Sheet, i int, amountOf amountFunc, accountHint string, trustCategory bool) (models.Transaction, error) {
	row := i + 1

	posted, _, err := dateutils.ParseDate(s.Cell(i, colPostedDate))
	if err != nil {
		return models.Transaction{}, &ingesterror.RowError{Row: row, Field: colPostedDate, Value: s.Cell(i, colPostedDate), Err: err}
	}
	initiated, _, err := dateutils.ParseDate(s.Cell(i, colTransactionDate))
	if err != nil {
		return models.Transaction{}, &ingesterror.RowError{Row: row, Field: colTransactionDate, Value: s.Cell(i, colTransactionDate), Err: err}
	}

	amount, err := amountOf(i)
	if err != nil {
		return models.Transaction{}, &ingesterror.RowError{Row: row, Field: colAmount, Value: s.Cell(i, colAmount), Err: err}
	}

	description := strings.TrimSpace(s.Cell(i, colDescription))
	original := strings.TrimSpace(s.Cell(i, colOriginalDescription))
	switch {
	case description == "" && original == "":
		return models.Transaction{}, &ingesterror.RowError{Row: row, Field: colDescription, Err: errors.New("empty description")}
	case description == "":
		description = original
	case original == "":
		original = description
	}

	account := strings.TrimSpace(s.Cell(i, colAccountName))
	if account == "" {
		account = accountHint
	}
	if account == "" {
		return models.Transaction{}, &ingesterror.RowError{Row: row, Field: colAccountName, Err: errors.New("no account for row")}
	}

	category := ""
	if trustCategory {
		category = strings.TrimSpace(s.Cell(i, colCategory))
	}

	return models.Transaction{
		TransactionDate:     initiated,
		PostedDate:          posted,
		Description:         description,
		OriginalDescription: original,
		Amount:              amount,
		AccountName:         account,
		Category:            category,
		Notes:               strings.TrimSpace(s.Cell(i, colNotes)),
	}, nil
}
