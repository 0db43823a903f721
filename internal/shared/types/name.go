package types

import "strings"

// PersonName is the first/middle/last name triple used for complainants,
// complainees and document requesters. Middle name may be empty.
type PersonName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

// Full returns the display form "First Middle Last", omitting an empty
// middle name without doubling the space.
func (n PersonName) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.FirstName, n.MiddleName, n.LastName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

// IsZero reports whether all three components are empty.
func (n PersonName) IsZero() bool {
	return n.FirstName == "" && n.MiddleName == "" && n.LastName == ""
}
