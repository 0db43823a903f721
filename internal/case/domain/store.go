package domain

import (
	"context"

	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Filter narrows a Find over one stage store.
type Filter struct {
	Status     Status
	CaseNumber string
	Limit      int
}

// Store persists the records of one stage. Each stage has its own
// store; the transition engine never moves a record in place, it copies
// between stores and deletes the source.
type Store interface {
	FindByID(ctx context.Context, id types.ID) (*Record, error)
	Find(ctx context.Context, f Filter) ([]Record, error)

	// FindMaxByField returns the record whose named field carries the
	// highest numeric prefix, or nil when the store is empty. The field
	// "caseNumber" addresses the typed case number; any other name is
	// looked up in Fields.
	FindMaxByField(ctx context.Context, field string) (*Record, error)

	Insert(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	DeleteByID(ctx context.Context, id types.ID) error
}

// Stores maps every stage to its store. The engine and the HTTP layer
// share one Stores value.
type Stores map[Stage]Store

// FieldCaseNumber is the field name numbering domains scan on stage
// stores.
const FieldCaseNumber = "caseNumber"

type numberSource struct {
	store Store
}

func (s numberSource) MaxFieldValue(ctx context.Context, field string) (string, error) {
	rec, err := s.store.FindMaxByField(ctx, field)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	if field == FieldCaseNumber {
		return rec.CaseNumber, nil
	}
	return rec.Fields[field], nil
}

// NumberSources builds allocator sources over the given stages' case
// numbers. A domain must list every stage its numbers can rest in,
// including archives, or allocation could reissue an archived number.
func NumberSources(stores Stores, stages ...Stage) []sequence.Source {
	out := make([]sequence.Source, 0, len(stages))
	for _, st := range stages {
		out = append(out, sequence.Source{
			Name:  string(st),
			Store: numberSource{store: stores[st]},
			Field: FieldCaseNumber,
		})
	}
	return out
}

// BlotterNumberDomain spans every store a blotter-born case number can
// end up in: the intake stores, all hearing stores sharing the number
// as it escalates, and the referral stores it reaches via hearing 3.
func BlotterNumberDomain(stores Stores, format sequence.Formatter) sequence.Domain {
	return sequence.Domain{
		Name: "blotter",
		Sources: NumberSources(stores,
			StageBlotter, StageBlotterComplete,
			StageLupon, StageLupon2, StageLupon3, StageLuponComplete,
			StageCFA, StageCFAComplete,
		),
		Format: format,
	}
}

// CFANumberDomain numbers directly filed referral cases. Cases arriving
// from hearing 3 keep their blotter-born number and are outside this
// range.
func CFANumberDomain(stores Stores, format sequence.Formatter) sequence.Domain {
	return sequence.Domain{
		Name:    "cfa",
		Sources: NumberSources(stores, StageCFA, StageCFAComplete),
		Format:  format,
	}
}
