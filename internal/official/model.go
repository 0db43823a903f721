// Package official manages the roster of elected and appointed
// barangay officials shown on the public pages and offered in the
// hearing forms.
package official

import (
	"time"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Positions a barangay fills exactly once.
var keyPositions = map[string]bool{
	"Punong Barangay":   true,
	"Secretary":         true,
	"Treasurer":         true,
	"SK Chairperson":    true,
	"Lupon Chairperson": true,
}

// IsKeyPosition reports whether a position can only be held by one
// official at a time. Kagawad, Lupon Tagapamayapa and Imbestigador
// seats repeat.
func IsKeyPosition(position string) bool {
	return keyPositions[position]
}

// Official is one roster entry.
type Official struct {
	ID        types.ID         `json:"id"`
	Name      types.PersonName `json:"name"`
	Position  string           `json:"position"`
	PhotoURL  string           `json:"photoUrl"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewOfficial builds a validated roster entry.
func NewOfficial(name types.PersonName, position, photoURL string) (*Official, error) {
	if name.FirstName == "" || name.LastName == "" {
		return nil, errors.Validation("official name is incomplete", nil)
	}
	if position == "" {
		return nil, errors.Validation("position is required", nil)
	}
	now := time.Now().UTC()
	return &Official{
		ID:        types.NewID(),
		Name:      name,
		Position:  position,
		PhotoURL:  photoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
