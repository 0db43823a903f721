package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// DeriveFunc computes a destination field value from the source record.
type DeriveFunc func(src *Record) string

// Const returns a derive function that always yields v.
func Const(v string) DeriveFunc {
	return func(*Record) string { return v }
}

func todayDate(*Record) string {
	return time.Now().Format("2006-01-02")
}

// Edge describes one transition of the pipeline declaratively: where it
// reads, where it writes, where it archives, and how the destination's
// stage fields are built. Parties, narrative, case number and record id
// always carry; everything else is governed by Carry, Reset and Derive.
//
// An Edge with To == "" is terminal: the case is archived and removed
// with no successor.
type Edge struct {
	Name    string
	From    Stage
	To      Stage
	Archive Stage

	// Carry lists source stage fields copied into the destination.
	Carry []string
	// Reset lists destination stage fields set to the empty string.
	Reset []string
	// Derive computes destination stage fields from the source.
	Derive map[string]DeriveFunc
}

// Terminal reports whether the edge archives without a successor.
func (e Edge) Terminal() bool {
	return e.To == ""
}

// Every forward advance clears the adjudication slate: the panel is
// reconstituted and a new hearing scheduled at the next stage.
var adjudicationFields = []string{
	"luponmom", "hearingDate", "hearingTime",
	"pangkatChairperson", "pangkatMember1", "pangkatMember2",
}

// EdgeEscalateToLupon moves an intake blotter into hearing 1. The
// blotter's own log fields (incident date and time, duty officer) stay
// behind in the archive copy; the hearing record starts a fresh docket.
var EdgeEscalateToLupon = Edge{
	Name:    "blotter-to-lupon",
	From:    StageBlotter,
	To:      StageLupon,
	Archive: StageBlotterComplete,
	Carry:   []string{"reason"},
	Reset:   append([]string{"lunas"}, adjudicationFields...),
	Derive: map[string]DeriveFunc{
		"petsa":        todayDate,
		"hearingStage": Const("1"),
	},
}

// EdgeAdvanceToLupon2 moves an unsettled hearing 1 case to hearing 2.
var EdgeAdvanceToLupon2 = Edge{
	Name:    "lupon-to-lupon2",
	From:    StageLupon,
	To:      StageLupon2,
	Archive: StageLuponComplete,
	Carry:   []string{"petsa", "reason", "lunas"},
	Reset:   adjudicationFields,
	Derive: map[string]DeriveFunc{
		"hearingStage": Const("2"),
	},
}

// EdgeAdvanceToLupon3 moves an unsettled hearing 2 case to hearing 3.
var EdgeAdvanceToLupon3 = Edge{
	Name:    "lupon2-to-lupon3",
	From:    StageLupon2,
	To:      StageLupon3,
	Archive: StageLuponComplete,
	Carry:   []string{"petsa", "reason", "lunas"},
	Reset:   adjudicationFields,
	Derive: map[string]DeriveFunc{
		"hearingStage": Const("3"),
	},
}

// EdgeEscalateToCFA certifies a case unresolved after hearing 3 for
// filing in court. The pangkat that heard it is named on the
// certification, so those fields carry instead of resetting.
var EdgeEscalateToCFA = Edge{
	Name:    "lupon3-to-cfa",
	From:    StageLupon3,
	To:      StageCFA,
	Archive: StageLuponComplete,
	Carry:   []string{"pangkatChairperson", "pangkatMember1", "pangkatMember2"},
	Reset:   []string{"dateIssued"},
}

var forwardEdges = map[Stage]Edge{
	StageBlotter: EdgeEscalateToLupon,
	StageLupon:   EdgeAdvanceToLupon2,
	StageLupon2:  EdgeAdvanceToLupon3,
	StageLupon3:  EdgeEscalateToCFA,
}

// ForwardEdge returns the single forward transition out of a live
// stage. The referral stage has none.
func ForwardEdge(from Stage) (Edge, bool) {
	e, ok := forwardEdges[from]
	return e, ok
}

// ResolveEdge returns the terminal transition that closes a case at the
// given live stage.
func ResolveEdge(stage Stage) (Edge, bool) {
	archive := stage.Archive()
	if archive == "" {
		return Edge{}, false
	}
	return Edge{
		Name:    string(stage) + "-resolve",
		From:    stage,
		Archive: archive,
	}, true
}

// Engine executes transitions over a set of stage stores.
//
// Steps run in a fixed order with no wrapping transaction: insert
// destination, insert archive, delete source. A failure mid-sequence
// stops there and surfaces; earlier inserts are not rolled back, so a
// crashed transition can leave the case visible in two stores until an
// operator reconciles it. The order guarantees the case is never lost.
type Engine struct {
	stores Stores
}

func NewEngine(stores Stores) *Engine {
	return &Engine{stores: stores}
}

// Transfer runs one edge against the record with the given id. For a
// forward edge it returns the destination record; for a terminal edge
// it returns the archived snapshot.
func (e *Engine) Transfer(ctx context.Context, edge Edge, id types.ID) (*Record, error) {
	rec, err := e.transfer(ctx, edge, id)
	metrics.RecordTransition(string(edge.From), string(edge.To), transitionOutcome(err))
	return rec, err
}

func (e *Engine) transfer(ctx context.Context, edge Edge, id types.ID) (*Record, error) {
	src, err := e.stores[edge.From].FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	archived := src.Clone()
	var dest *Record
	if !edge.Terminal() {
		// The live record keeps its id across the move; the snapshot
		// left behind gets a fresh one. Identifier continuity into the
		// archive is not part of the contract.
		archived.ID = types.NewID()

		dest = deriveRecord(edge, src)
		if err := e.stores[edge.To].Insert(ctx, dest); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%s: destination insert failed", edge.Name))
		}
	}

	if err := e.stores[edge.Archive].Insert(ctx, archived); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s: archive insert failed", edge.Name))
	}

	if err := e.stores[edge.From].DeleteByID(ctx, id); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s: source delete failed after archive", edge.Name))
	}

	if dest != nil {
		return dest, nil
	}
	return archived, nil
}

func deriveRecord(edge Edge, src *Record) *Record {
	now := time.Now().UTC()
	dest := &Record{
		ID:           src.ID,
		CaseNumber:   src.CaseNumber,
		Complainants: clonePersons(src.Complainants),
		Complainees:  clonePersons(src.Complainees),
		Narrative:    src.Narrative,
		Status:       StatusProcessing,
		Fields:       make(map[string]string, len(edge.Carry)+len(edge.Reset)+len(edge.Derive)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, k := range edge.Carry {
		if v, ok := src.Fields[k]; ok {
			dest.Fields[k] = v
		}
	}
	for _, k := range edge.Reset {
		dest.Fields[k] = ""
	}
	for k, f := range edge.Derive {
		dest.Fields[k] = f(src)
	}
	return dest
}

func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
