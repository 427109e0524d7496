package normalizer

import (
	"strings"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/sheet"
)

// Venmo statement layout. The first physical line is a title, the second a
// section label, the third the real header. The first data row after the
// header carries the opening balance and the last row the closing summary.
const (
	venmoHeaderRow        = 1
	venmoOwnBalance       = "Venmo balance"
	venmoStandardTransfer = "Standard Transfer"
)

var venmoColumns = map[string]string{
	"Datetime":       colPostedDate,
	"Note":           colDescription,
	"Amount (total)": colAmount,
}

// isVenmo detects a Venmo statement by its unlabeled second column.
func isVenmo(s *sheet.Sheet) bool {
	h := s.Header()
	return len(h) > 1 && strings.TrimSpace(h[1]) == ""
}

// unwrapVenmo rewrites a Venmo statement in place into a plain table with
// canonical date, description and amount columns.
func (n *Normalizer) unwrapVenmo(s *sheet.Sheet) error {
	if err := s.Promote(venmoHeaderRow); err != nil {
		return err
	}
	if s.Len() > 0 {
		s.DropRows(0, s.Len()-1)
	}
	s.Rename(venmoColumns)

	for i := 0; i < s.Len(); i++ {
		s.Set(i, colAmount, strings.ReplaceAll(s.Cell(i, colAmount), " $", ""))
		s.Set(i, colPostedDate, strings.SplitN(s.Cell(i, colPostedDate), "T", 2)[0])
	}

	if sources, ok := s.Column("Funding Source"); ok {
		notes := make([]string, len(sources))
		found := false
		for i, src := range sources {
			src = strings.TrimSpace(src)
			if src != "" && src != venmoOwnBalance {
				notes[i] = "Source: " + src
				found = true
			}
		}
		if found {
			s.SetColumn(colNotes, notes)
		}
	}

	if s.Has("Type") {
		for i := 0; i < s.Len(); i++ {
			if s.Cell(i, "Type") == venmoStandardTransfer {
				s.Set(i, colDescription, "Transfer to "+s.Cell(i, "Destination"))
			}
		}
	}

	n.logger.Debug("Unwrapped Venmo statement", logging.F(logging.FieldCount, s.Len()))
	return nil
}
