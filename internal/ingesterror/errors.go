// Package ingesterror defines the error taxonomy of an import. An *Error
// aborts the whole file; a *RowError only drops one row.
package ingesterror

import (
	"errors"
	"fmt"
)

// Kind classifies a failed import.
type Kind int

const (
	// Structural means the input is not a usable table: not CSV, or a
	// required column is missing after normalization.
	Structural Kind = iota + 1
	// MissingContext means no account was supplied and none is in the sheet.
	MissingContext
	// Storage means the store rejected a read or the batch write.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case MissingContext:
		return "missing_context"
	case Storage:
		return "storage"
	default:
		return "unknown"
	}
}

// User-facing messages. They are surfaced verbatim by the CLI and HTTP layer.
const (
	MsgNotCSV        = "Error: File must be in CSV format"
	MsgNoDescription = `Error: Must provide "description" column in the CSV`
	MsgNoAccount     = "Error: Must provide account name if not given in CSV"
	MsgStorage       = "Error: Could not save transactions"
)

// Error is a whole-file import failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotCSV reports input that could not be decoded as a table.
func NotCSV(err error) *Error {
	return &Error{Kind: Structural, Msg: MsgNotCSV, Err: err}
}

// NoDescription reports a sheet without any description source column.
func NoDescription() *Error {
	return &Error{Kind: Structural, Msg: MsgNoDescription}
}

// MissingColumn reports a required canonical column absent after
// normalization.
func MissingColumn(column string) *Error {
	return &Error{Kind: Structural, Msg: fmt.Sprintf("CSV does not contain '%s' column", column)}
}

// NoAccount reports a single-account sheet imported without an account.
func NoAccount() *Error {
	return &Error{Kind: MissingContext, Msg: MsgNoAccount}
}

// StorageFailure wraps an error returned by the store.
func StorageFailure(err error) *Error {
	return &Error{Kind: Storage, Msg: MsgStorage, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return 0
}

// RowError represents a single row that could not be normalized. Row is the
// 1-based data row index within the sheet.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: failed to parse %s='%s': %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
