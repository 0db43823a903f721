package domain_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/brgy-santafe/registry/internal/case/domain"
	"github.com/brgy-santafe/registry/internal/case/infrastructure"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

func newBlotter(t *testing.T, caseNumber string) *domain.Record {
	t.Helper()
	rec, err := domain.NewRecord(caseNumber,
		[]types.PersonName{{FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz"}},
		[]types.PersonName{{FirstName: "Pedro", LastName: "Reyes"}},
		"Nagreklamo tungkol sa ingay ng videoke hanggang hatinggabi.",
		map[string]string{
			"date":          "2026-08-30",
			"time":          "22:15",
			"reason":        "Disturbance",
			"justiceOnDuty": "Kgd. Ramos",
		})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

func mustInsert(t *testing.T, stores domain.Stores, stage domain.Stage, rec *domain.Record) {
	t.Helper()
	if err := stores[stage].Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert into %s: %v", stage, err)
	}
}

func onlyRecord(t *testing.T, stores domain.Stores, stage domain.Stage) domain.Record {
	t.Helper()
	recs, err := stores[stage].Find(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("find in %s: %v", stage, err)
	}
	if len(recs) != 1 {
		t.Fatalf("store %s holds %d records, want 1", stage, len(recs))
	}
	return recs[0]
}

func countRecords(t *testing.T, stores domain.Stores, stage domain.Stage) int {
	t.Helper()
	recs, err := stores[stage].Find(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("find in %s: %v", stage, err)
	}
	return len(recs)
}

func TestEscalateBlotterToHearing(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	src := newBlotter(t, "SF-9")
	mustInsert(t, stores, domain.StageBlotter, src)

	dest, err := engine.Transfer(context.Background(), domain.EdgeEscalateToLupon, src.ID)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	t.Run("source record is gone", func(t *testing.T) {
		if got := countRecords(t, stores, domain.StageBlotter); got != 0 {
			t.Errorf("blotter still holds %d records", got)
		}
	})

	t.Run("archive holds the full intake snapshot", func(t *testing.T) {
		archived := onlyRecord(t, stores, domain.StageBlotterComplete)
		if archived.Narrative != src.Narrative {
			t.Errorf("archived narrative = %q, want %q", archived.Narrative, src.Narrative)
		}
		if archived.Complainants[0] != src.Complainants[0] {
			t.Errorf("archived complainant = %+v, want %+v", archived.Complainants[0], src.Complainants[0])
		}
		if archived.Field("justiceOnDuty") != "Kgd. Ramos" {
			t.Errorf("archive lost the duty officer: %q", archived.Field("justiceOnDuty"))
		}
	})

	t.Run("destination carries parties, narrative and number", func(t *testing.T) {
		if dest.CaseNumber != "SF-9" {
			t.Errorf("caseNumber = %q, want SF-9", dest.CaseNumber)
		}
		if dest.Narrative != src.Narrative {
			t.Errorf("narrative = %q, want %q", dest.Narrative, src.Narrative)
		}
		if dest.Complainants[0].LastName != "Dela Cruz" {
			t.Errorf("complainant = %+v", dest.Complainants[0])
		}
		if dest.Field("reason") != "Disturbance" {
			t.Errorf("reason = %q, want Disturbance", dest.Field("reason"))
		}
	})

	t.Run("destination opens a fresh hearing docket", func(t *testing.T) {
		if dest.Status != domain.StatusProcessing {
			t.Errorf("status = %q, want %q", dest.Status, domain.StatusProcessing)
		}
		if dest.Field("hearingStage") != "1" {
			t.Errorf("hearingStage = %q, want 1", dest.Field("hearingStage"))
		}
		if dest.Field("petsa") != time.Now().Format("2006-01-02") {
			t.Errorf("petsa = %q, want today", dest.Field("petsa"))
		}
		for _, f := range []string{"hearingDate", "hearingTime", "luponmom", "pangkatChairperson", "pangkatMember1", "pangkatMember2", "lunas"} {
			if v, ok := dest.Fields[f]; !ok || v != "" {
				t.Errorf("field %s = %q (present=%v), want empty string", f, v, ok)
			}
		}
	})

	t.Run("blotter log fields stay behind", func(t *testing.T) {
		for _, f := range []string{"date", "time", "justiceOnDuty"} {
			if _, ok := dest.Fields[f]; ok {
				t.Errorf("field %s leaked into the hearing record", f)
			}
		}
	})
}

func TestAdvanceResetsAdjudicationFields(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	rec, err := domain.NewRecord("SF-4",
		[]types.PersonName{{FirstName: "Maria", LastName: "Lopez"}},
		[]types.PersonName{{FirstName: "Jose", LastName: "Garcia"}},
		"Hindi binayaran ang inutang na halagang 5,000 piso.",
		map[string]string{
			"petsa":              "2026-07-01",
			"reason":             "Utang",
			"lunas":              "Hulugang bayad",
			"luponmom":           "Napag-usapan ang hulugan.",
			"hearingStage":       "1",
			"hearingDate":        "2026-07-10",
			"hearingTime":        "09:00",
			"pangkatChairperson": "Kgd. Cruz",
			"pangkatMember1":     "Kgd. Bautista",
			"pangkatMember2":     "Kgd. Flores",
		})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	mustInsert(t, stores, domain.StageLupon, rec)

	dest, err := engine.Transfer(context.Background(), domain.EdgeAdvanceToLupon2, rec.ID)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	for _, f := range []string{"luponmom", "hearingDate", "hearingTime", "pangkatChairperson", "pangkatMember1", "pangkatMember2"} {
		if v := dest.Field(f); v != "" {
			t.Errorf("field %s = %q, want reset to empty", f, v)
		}
	}
	if dest.Field("hearingStage") != "2" {
		t.Errorf("hearingStage = %q, want 2", dest.Field("hearingStage"))
	}
	if dest.Field("lunas") != "Hulugang bayad" {
		t.Errorf("lunas = %q, want carried forward", dest.Field("lunas"))
	}
	if dest.ID != rec.ID {
		t.Errorf("live record id changed across the advance: %s -> %s", rec.ID, dest.ID)
	}

	// The archive snapshot keeps the full hearing 1 state.
	archived := onlyRecord(t, stores, domain.StageLuponComplete)
	if archived.Field("luponmom") != "Napag-usapan ang hulugan." {
		t.Errorf("archive lost the minutes: %q", archived.Field("luponmom"))
	}
	if archived.ID == rec.ID {
		t.Error("archive snapshot reused the live record id")
	}
}

func TestCertifyToReferral(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	rec, err := domain.NewRecord("SF-9",
		[]types.PersonName{{FirstName: "Ana", LastName: "Torres"}},
		[]types.PersonName{{FirstName: "Ben", LastName: "Ramos"}},
		"Hindi naayos ang hangganan ng lupa.",
		map[string]string{
			"petsa":              "2026-06-15",
			"reason":             "Boundary dispute",
			"hearingStage":       "3",
			"hearingDate":        "2026-08-20",
			"hearingTime":        "14:00",
			"pangkatChairperson": "Kgd. Cruz",
			"pangkatMember1":     "Kgd. Bautista",
			"pangkatMember2":     "Kgd. Flores",
		})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	mustInsert(t, stores, domain.StageLupon3, rec)

	dest, err := engine.Transfer(context.Background(), domain.EdgeEscalateToCFA, rec.ID)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if dest.CaseNumber != "SF-9" {
		t.Errorf("referral caseNumber = %q, want the hearing number SF-9", dest.CaseNumber)
	}
	if dest.Field("pangkatChairperson") != "Kgd. Cruz" {
		t.Errorf("certification lost the pangkat chairperson: %q", dest.Field("pangkatChairperson"))
	}
	if v, ok := dest.Fields["dateIssued"]; !ok || v != "" {
		t.Errorf("dateIssued = %q (present=%v), want empty string", v, ok)
	}

	if got := countRecords(t, stores, domain.StageLupon3); got != 0 {
		t.Errorf("hearing 3 still holds %d records", got)
	}
	archived := onlyRecord(t, stores, domain.StageLuponComplete)
	if archived.Narrative != rec.Narrative {
		t.Errorf("archived narrative = %q", archived.Narrative)
	}
	if archived.ID == dest.ID {
		t.Error("archive snapshot shares the live record id")
	}
}

func TestResolveIsTerminal(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	src := newBlotter(t, "SF-2")
	mustInsert(t, stores, domain.StageBlotter, src)

	edge, ok := domain.ResolveEdge(domain.StageBlotter)
	if !ok {
		t.Fatal("no resolve edge for blotter")
	}
	archived, err := engine.Transfer(context.Background(), edge, src.ID)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if archived.ID != src.ID {
		t.Errorf("terminal archive id = %s, want the live id %s", archived.ID, src.ID)
	}
	if got := countRecords(t, stores, domain.StageBlotter); got != 0 {
		t.Errorf("blotter still holds %d records", got)
	}
	if got := countRecords(t, stores, domain.StageBlotterComplete); got != 1 {
		t.Errorf("blotter-complete holds %d records, want 1", got)
	}
	for _, st := range []domain.Stage{domain.StageLupon, domain.StageLupon2, domain.StageLupon3, domain.StageCFA} {
		if got := countRecords(t, stores, st); got != 0 {
			t.Errorf("stage %s unexpectedly holds %d records", st, got)
		}
	}
}

func TestHearingsShareOneArchive(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	src := newBlotter(t, "SF-1")
	mustInsert(t, stores, domain.StageBlotter, src)

	ctx := context.Background()
	rec, err := engine.Transfer(ctx, domain.EdgeEscalateToLupon, src.ID)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if rec, err = engine.Transfer(ctx, domain.EdgeAdvanceToLupon2, rec.ID); err != nil {
		t.Fatalf("advance to hearing 2: %v", err)
	}
	if rec, err = engine.Transfer(ctx, domain.EdgeAdvanceToLupon3, rec.ID); err != nil {
		t.Fatalf("advance to hearing 3: %v", err)
	}
	edge, _ := domain.ResolveEdge(domain.StageLupon3)
	if _, err = engine.Transfer(ctx, edge, rec.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Three hearing snapshots accumulate in the shared archive.
	if got := countRecords(t, stores, domain.StageLuponComplete); got != 3 {
		t.Errorf("lupon-complete holds %d snapshots, want 3", got)
	}
	if got := countRecords(t, stores, domain.StageBlotterComplete); got != 1 {
		t.Errorf("blotter-complete holds %d snapshots, want 1", got)
	}
}

func TestTransferMissingRecordHasNoSideEffects(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	engine := domain.NewEngine(stores)

	_, err := engine.Transfer(context.Background(), domain.EdgeEscalateToLupon, types.NewID())
	if !errors.IsNotFound(err) {
		t.Fatalf("Transfer error = %v, want not found", err)
	}
	if got := countRecords(t, stores, domain.StageLupon); got != 0 {
		t.Errorf("lupon holds %d records after failed transfer", got)
	}
	if got := countRecords(t, stores, domain.StageBlotterComplete); got != 0 {
		t.Errorf("archive holds %d records after failed transfer", got)
	}
}

type failingStore struct {
	domain.Store
	insertErr error
}

func (f failingStore) Insert(ctx context.Context, rec *domain.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Store.Insert(ctx, rec)
}

func TestArchiveFailureLeavesSourceIntact(t *testing.T) {
	stores := infrastructure.NewMemoryStores()
	boom := stderrors.New("disk full")
	stores[domain.StageBlotterComplete] = failingStore{Store: stores[domain.StageBlotterComplete], insertErr: boom}
	engine := domain.NewEngine(stores)

	src := newBlotter(t, "SF-3")
	mustInsert(t, stores, domain.StageBlotter, src)

	_, err := engine.Transfer(context.Background(), domain.EdgeEscalateToLupon, src.ID)
	if err == nil {
		t.Fatal("Transfer succeeded despite archive failure")
	}

	// The source is deleted last, so the case is still where it was.
	if got := countRecords(t, stores, domain.StageBlotter); got != 1 {
		t.Errorf("blotter holds %d records, want the original still present", got)
	}
}
