// Package datetest provides date literals for tests.
package datetest

import "time"

// Day parses an ISO date as UTC midnight and panics on failure.
func Day(iso string) time.Time {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		panic(err)
	}
	return t
}
