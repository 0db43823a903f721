// Package domain holds the case pipeline: the record model shared by
// every stage, the stage catalogue, and the transition engine that
// moves a case from intake through the hearings to referral.
package domain

import (
	"strconv"
	"time"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Status is the lifecycle marker on a live case record.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusSettled    Status = "Settled"
	StatusDismissed  Status = "Dismissed"
)

// Record is a case at one stage of the pipeline. The typed fields are
// common to every stage; stage-specific values (hearing schedule,
// pangkat composition, mediation notes) live in Fields under their
// conventional keys.
type Record struct {
	ID           types.ID           `json:"id"`
	CaseNumber   string             `json:"caseNumber"`
	Complainants []types.PersonName `json:"complainants"`
	Complainees  []types.PersonName `json:"complainees"`
	Narrative    string             `json:"narrative"`
	Status       Status             `json:"status"`
	Fields       map[string]string  `json:"fields"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// NewRecord builds a validated live record. The case number may be
// empty when the stage is not a numbering entry point.
func NewRecord(caseNumber string, complainants, complainees []types.PersonName, narrative string, fields map[string]string) (*Record, error) {
	if err := ValidateParties(complainants, complainees); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]string{}
	}
	now := time.Now().UTC()
	return &Record{
		ID:           types.NewID(),
		CaseNumber:   caseNumber,
		Complainants: clonePersons(complainants),
		Complainees:  clonePersons(complainees),
		Narrative:    narrative,
		Status:       StatusProcessing,
		Fields:       cloneFields(fields),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateParties checks that both sides of a case are present and that
// every listed person carries at least first and last name.
func ValidateParties(complainants, complainees []types.PersonName) error {
	if len(complainants) == 0 {
		return errors.Validation("at least one complainant is required", nil)
	}
	if len(complainees) == 0 {
		return errors.Validation("at least one complainee is required", nil)
	}
	for i, p := range complainants {
		if p.FirstName == "" || p.LastName == "" {
			return errors.Validation("complainant name is incomplete", map[string]string{"index": strconv.Itoa(i)})
		}
	}
	for i, p := range complainees {
		if p.FirstName == "" || p.LastName == "" {
			return errors.Validation("complainee name is incomplete", map[string]string{"index": strconv.Itoa(i)})
		}
	}
	return nil
}

// Field returns a stage-specific value, "" when unset.
func (r *Record) Field(key string) string {
	return r.Fields[key]
}

// Clone returns a deep copy safe to mutate independently.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Complainants = clonePersons(r.Complainants)
	cp.Complainees = clonePersons(r.Complainees)
	cp.Fields = cloneFields(r.Fields)
	return &cp
}

func clonePersons(in []types.PersonName) []types.PersonName {
	if in == nil {
		return nil
	}
	out := make([]types.PersonName, len(in))
	copy(out, in)
	return out
}

func cloneFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
