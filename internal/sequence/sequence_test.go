package sequence

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	values map[string]string
	err    error
}

func (f fakeStore) MaxFieldValue(_ context.Context, field string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[field], nil
}

func TestNumericPrefix(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"plain prefix", "SF-7", 7},
		{"zero padded", "IGP-000042", 42},
		{"bare integer", "17", 17},
		{"empty string", "", 0},
		{"no digits", "DRAFT", 0},
		{"digits after text", "CASE-2024-9", 2024},
		{"leading digits", "12-B", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumericPrefix(tt.value); got != tt.want {
				t.Errorf("NumericPrefix(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestDomainNextEmpty(t *testing.T) {
	d := Domain{
		Name: "blotter",
		Sources: []Source{
			{Name: "blotter", Store: fakeStore{}, Field: "caseNumber"},
			{Name: "blotter-complete", Store: fakeStore{}, Field: "caseNumber"},
		},
		Format: PrefixFormat("SF"),
	}

	n, err := d.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n != 1 {
		t.Errorf("empty domain Next = %d, want 1", n)
	}

	formatted, err := d.NextFormatted(context.Background())
	if err != nil {
		t.Fatalf("NextFormatted: %v", err)
	}
	if formatted != "SF-1" {
		t.Errorf("empty domain NextFormatted = %q, want %q", formatted, "SF-1")
	}
}

func TestDomainNextSpansArchivedStores(t *testing.T) {
	// SF-3 is the highest active record but SF-5 sits in the archive.
	// The next allocation must clear both.
	d := Domain{
		Name: "blotter",
		Sources: []Source{
			{Name: "blotter", Store: fakeStore{values: map[string]string{"caseNumber": "SF-3"}}, Field: "caseNumber"},
			{Name: "blotter-complete", Store: fakeStore{values: map[string]string{"caseNumber": "SF-5"}}, Field: "caseNumber"},
		},
		Format: PrefixFormat("SF"),
	}

	formatted, err := d.NextFormatted(context.Background())
	if err != nil {
		t.Fatalf("NextFormatted: %v", err)
	}
	if formatted != "SF-6" {
		t.Errorf("NextFormatted = %q, want %q", formatted, "SF-6")
	}
}

func TestDomainNextIgnoresUnnumberedRecords(t *testing.T) {
	d := Domain{
		Name: "cfa",
		Sources: []Source{
			{Name: "cfa", Store: fakeStore{values: map[string]string{"caseNumber": ""}}, Field: "caseNumber"},
			{Name: "cfa-complete", Store: fakeStore{values: map[string]string{"caseNumber": "2"}}, Field: "caseNumber"},
		},
		Format: BareFormat(),
	}

	formatted, err := d.NextFormatted(context.Background())
	if err != nil {
		t.Fatalf("NextFormatted: %v", err)
	}
	if formatted != "3" {
		t.Errorf("NextFormatted = %q, want %q", formatted, "3")
	}
}

func TestDomainNextPropagatesStoreErrors(t *testing.T) {
	scanErr := errors.New("connection reset")
	d := Domain{
		Name: "blotter",
		Sources: []Source{
			{Name: "blotter", Store: fakeStore{err: scanErr}, Field: "caseNumber"},
		},
		Format: PrefixFormat("SF"),
	}

	if _, err := d.Next(context.Background()); !errors.Is(err, scanErr) {
		t.Errorf("Next error = %v, want wrapped %v", err, scanErr)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format Formatter
		n      int
		want   string
	}{
		{"prefix", PrefixFormat("SF"), 7, "SF-7"},
		{"padded", PaddedFormat("IGP", 6), 42, "IGP-000042"},
		{"padded overflow keeps digits", PaddedFormat("IGP", 6), 1234567, "IGP-1234567"},
		{"bare", BareFormat(), 9, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format(tt.n); got != tt.want {
				t.Errorf("format(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}
