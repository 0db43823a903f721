// Package sequence allocates human-facing document numbers by scanning
// the stores that already hold numbered records and continuing past the
// highest value found. Numbers survive deletion of individual records:
// the scan spans active and archived stores, so a number is never handed
// out twice even when the record that carried it has moved on.
package sequence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// Store is the slice of a record store the allocator needs: the raw
// value of the numbering field on whichever record sorts highest by its
// numeric prefix. Implementations return "" when the store is empty or
// the field is absent everywhere.
type Store interface {
	MaxFieldValue(ctx context.Context, field string) (string, error)
}

// Source names one (store, field) pair a numbering domain scans.
type Source struct {
	Name  string
	Store Store
	Field string
}

// Domain is one independent numbering range. Every store a number can
// live in must be listed as a source, otherwise archiving a record
// would free its number for reuse.
type Domain struct {
	Name    string
	Sources []Source
	Format  Formatter
}

var digits = regexp.MustCompile(`[0-9]+`)

// NumericPrefix extracts the first contiguous run of digits from a
// stored number. Values without digits, including the empty string,
// count as zero.
func NumericPrefix(value string) int {
	run := digits.FindString(value)
	if run == "" {
		return 0
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0
	}
	return n
}

// Next returns the next unused integer for the domain: one past the
// highest numeric prefix found across all sources. An empty domain
// starts at 1.
//
// Two concurrent calls can observe the same maximum and return the same
// integer. The allocator takes no lock; callers that need hard
// uniqueness must enforce it on insert.
func (d Domain) Next(ctx context.Context) (int, error) {
	max := 0
	for _, src := range d.Sources {
		value, err := src.Store.MaxFieldValue(ctx, src.Field)
		if err != nil {
			return 0, fmt.Errorf("scan %s.%s: %w", src.Name, src.Field, err)
		}
		if n := NumericPrefix(value); n > max {
			max = n
		}
	}
	return max + 1, nil
}

// NextFormatted allocates the next integer and renders it in the
// domain's display format.
func (d Domain) NextFormatted(ctx context.Context) (string, error) {
	n, err := d.Next(ctx)
	if err != nil {
		return "", err
	}
	return d.Format(n), nil
}
