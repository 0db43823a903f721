// Package docrequest handles resident document requests: barangay
// certifications, clearances and certificates of indigency, plus
// barangay ID issuance with its own numbering range.
package docrequest

import (
	"time"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Kind distinguishes the document a resident is requesting.
type Kind string

const (
	KindCertification Kind = "certification"
	KindClearance     Kind = "clearance"
	KindIndigency     Kind = "indigency"
)

// ParseKind maps a route segment to a known document kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindCertification, KindClearance, KindIndigency:
		return Kind(s), true
	}
	return "", false
}

// Request is one resident's pending document request. Fulfilled
// requests move to the archive via Transfer, mirroring how cases leave
// their live stores.
type Request struct {
	ID           types.ID         `json:"id"`
	Kind         Kind             `json:"kind"`
	Requester    types.PersonName `json:"requester"`
	Purpose      string           `json:"purpose"`
	RequestDate  string           `json:"requestDate"`
	ContactEmail string           `json:"contactEmail"`
	PaymentLink  string           `json:"paymentLink"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// NewRequest builds a validated pending request.
func NewRequest(kind Kind, requester types.PersonName, purpose, requestDate, contactEmail string) (*Request, error) {
	if requester.FirstName == "" || requester.LastName == "" {
		return nil, errors.Validation("requester name is incomplete", nil)
	}
	now := time.Now().UTC()
	return &Request{
		ID:           types.NewID(),
		Kind:         kind,
		Requester:    requester,
		Purpose:      purpose,
		RequestDate:  requestDate,
		ContactEmail: contactEmail,
		Status:       "Processing",
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// BarangayID is an ID card issuance record carrying an IGP number.
type BarangayID struct {
	ID        types.ID         `json:"id"`
	IGPNumber string           `json:"igp"`
	Holder    types.PersonName `json:"holder"`
	Address   string           `json:"address"`
	BirthDate string           `json:"birthDate"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewBarangayID builds a validated issuance record. The IGP number is
// allocated by the caller.
func NewBarangayID(igpNumber string, holder types.PersonName, address, birthDate string) (*BarangayID, error) {
	if holder.FirstName == "" || holder.LastName == "" {
		return nil, errors.Validation("holder name is incomplete", nil)
	}
	now := time.Now().UTC()
	return &BarangayID{
		ID:        types.NewID(),
		IGPNumber: igpNumber,
		Holder:    holder,
		Address:   address,
		BirthDate: birthDate,
		Status:    "Processing",
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
