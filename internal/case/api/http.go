// Package api exposes the case pipeline over HTTP. Route names follow
// the desk clerks' vocabulary: fetch, add, update, delete, transfer,
// and transfer-to-<next> per stage.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brgy-santafe/registry/internal/case/domain"
	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/events"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Handler provides the HTTP handlers for the case pipeline.
type Handler struct {
	stores        domain.Stores
	engine        *domain.Engine
	blotterNumber sequence.Domain
	cfaNumber     sequence.Domain
	bus           events.EventBus
	logger        *slog.Logger
}

func NewHandler(stores domain.Stores, engine *domain.Engine, blotterNumber, cfaNumber sequence.Domain, bus events.EventBus, logger *slog.Logger) *Handler {
	return &Handler{
		stores:        stores,
		engine:        engine,
		blotterNumber: blotterNumber,
		cfaNumber:     cfaNumber,
		bus:           bus,
		logger:        logger,
	}
}

// Routes registers the case pipeline routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Intake blotter.
	r.Get("/fetch-blotter", h.list(domain.StageBlotter))
	r.Get("/fetch-blotter/{id}", h.get(domain.StageBlotter))
	r.Post("/add-blotter", h.addNumbered(domain.StageBlotter, &h.blotterNumber))
	r.Put("/update-blotter/{id}", h.update(domain.StageBlotter))
	r.Delete("/delete-blotter/{id}", h.del(domain.StageBlotter))
	r.Put("/transfer-blotter/{id}", h.resolve(domain.StageBlotter))
	r.Put("/transfer-to-lupon/{id}", h.forward(domain.EdgeEscalateToLupon))
	r.Get("/fetch-completed-blotters", h.list(domain.StageBlotterComplete))
	r.Get("/fetch-completed-blotters/{id}", h.get(domain.StageBlotterComplete))
	r.Get("/next-blotter-no", h.nextNumber(&h.blotterNumber, "nextBlotterNo"))

	// Hearing 1.
	r.Get("/fetch-lupon", h.list(domain.StageLupon))
	r.Get("/fetch-lupon/{id}", h.get(domain.StageLupon))
	r.Post("/add-lupon", h.add(domain.StageLupon))
	r.Put("/update-lupon/{id}", h.update(domain.StageLupon))
	r.Delete("/delete-lupon/{id}", h.del(domain.StageLupon))
	r.Put("/transfer-lupon/{id}", h.resolve(domain.StageLupon))
	r.Put("/transfer-to-lupon2/{id}", h.forward(domain.EdgeAdvanceToLupon2))

	// Hearing 2.
	r.Get("/fetch-lupon2", h.list(domain.StageLupon2))
	r.Get("/fetch-lupon2/{id}", h.get(domain.StageLupon2))
	r.Post("/add-lupon2", h.add(domain.StageLupon2))
	r.Put("/update-lupon2/{id}", h.update(domain.StageLupon2))
	r.Delete("/delete-lupon2/{id}", h.del(domain.StageLupon2))
	r.Put("/transfer-lupon2/{id}", h.resolve(domain.StageLupon2))
	r.Put("/transfer-to-lupon3/{id}", h.forward(domain.EdgeAdvanceToLupon3))

	// Hearing 3.
	r.Get("/fetch-lupon3", h.list(domain.StageLupon3))
	r.Get("/fetch-lupon3/{id}", h.get(domain.StageLupon3))
	r.Post("/add-lupon3", h.add(domain.StageLupon3))
	r.Put("/update-lupon3/{id}", h.update(domain.StageLupon3))
	r.Delete("/delete-lupon3/{id}", h.del(domain.StageLupon3))
	r.Put("/transfer-lupon3/{id}", h.resolve(domain.StageLupon3))
	r.Put("/transfer-to-cfa/{id}", h.forward(domain.EdgeEscalateToCFA))

	// Shared hearing archive.
	r.Get("/fetch-completed-lupon", h.list(domain.StageLuponComplete))
	r.Get("/fetch-lupon-complete/{id}", h.get(domain.StageLuponComplete))

	// Referral (certificate to file action).
	r.Get("/fetch-cfa-data", h.list(domain.StageCFA))
	r.Get("/fetch-cfa-data/{id}", h.get(domain.StageCFA))
	r.Post("/add-cfa", h.addNumbered(domain.StageCFA, &h.cfaNumber))
	r.Put("/update-cfa/{id}", h.update(domain.StageCFA))
	r.Delete("/delete-cfa/{id}", h.del(domain.StageCFA))
	r.Put("/transfer-cfa/{id}", h.resolve(domain.StageCFA))
	r.Get("/fetch-cfa-complete-data", h.list(domain.StageCFAComplete))
	r.Get("/fetch-cfa-complete-data/{id}", h.get(domain.StageCFAComplete))
	r.Get("/next-brgy-case-no-cfa", h.nextNumber(&h.cfaNumber, "nextBrgyCaseNo"))

	return r
}

type casePayload struct {
	CaseNumber   string             `json:"caseNumber"`
	Complainants []types.PersonName `json:"complainants"`
	Complainees  []types.PersonName `json:"complainees"`
	Narrative    string             `json:"narrative"`
	Status       domain.Status      `json:"status"`
	Fields       map[string]string  `json:"fields"`
}

func (h *Handler) list(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := domain.Filter{
			Status:     domain.Status(r.URL.Query().Get("status")),
			CaseNumber: r.URL.Query().Get("caseNumber"),
		}
		recs, err := h.stores[stage].Find(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		if recs == nil {
			recs = []domain.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    recs,
			"total":   len(recs),
		})
	}
}

func (h *Handler) get(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		rec, err := h.stores[stage].FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
	}
}

// addNumbered creates a record at a numbering entry point, allocating
// the next number when the client did not reserve one via the
// next-number endpoint.
func (h *Handler) addNumbered(stage domain.Stage, number *sequence.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodePayload(w, r)
		if !ok {
			return
		}
		if payload.CaseNumber == "" {
			start := time.Now()
			allocated, err := number.NextFormatted(r.Context())
			if err != nil {
				writeError(w, errors.Wrap(err, "failed to allocate case number"))
				return
			}
			metrics.RecordAllocation(number.Name, time.Since(start))
			payload.CaseNumber = allocated
		}
		h.insert(w, r, stage, payload)
	}
}

// add creates a record at a stage that is not a numbering entry point.
// The case number, if any, comes from the payload.
func (h *Handler) add(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodePayload(w, r)
		if !ok {
			return
		}
		h.insert(w, r, stage, payload)
	}
}

func (h *Handler) insert(w http.ResponseWriter, r *http.Request, stage domain.Stage, payload *casePayload) {
	rec, err := domain.NewRecord(payload.CaseNumber, payload.Complainants, payload.Complainees, payload.Narrative, payload.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	if payload.Status != "" {
		rec.Status = payload.Status
	}
	if err := h.stores[stage].Insert(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseCreated(string(stage))
	h.publish(r.Context(), "case.created", map[string]any{
		"stage":  stage,
		"record": rec,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
}

// update replaces the mutable parts of a record. The id and case
// number are fixed at creation and ignored in the payload.
func (h *Handler) update(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		payload, ok := decodePayload(w, r)
		if !ok {
			return
		}
		if err := domain.ValidateParties(payload.Complainants, payload.Complainees); err != nil {
			writeError(w, err)
			return
		}

		rec, err := h.stores[stage].FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		rec.Complainants = payload.Complainants
		rec.Complainees = payload.Complainees
		rec.Narrative = payload.Narrative
		if payload.Status != "" {
			rec.Status = payload.Status
		}
		if payload.Fields != nil {
			rec.Fields = payload.Fields
		}
		rec.UpdatedAt = time.Now().UTC()

		if err := h.stores[stage].Update(r.Context(), rec); err != nil {
			writeError(w, err)
			return
		}

		h.publish(r.Context(), "case.updated", map[string]any{
			"stage":  stage,
			"record": rec,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
	}
}

func (h *Handler) del(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := h.stores[stage].DeleteByID(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		h.publish(r.Context(), "case.deleted", map[string]any{
			"stage": stage,
			"id":    id,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// forward runs the advancing edge out of a stage: archive the source,
// create the successor, remove the source.
func (h *Handler) forward(edge domain.Edge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		dest, err := h.engine.Transfer(r.Context(), edge, id)
		if err != nil {
			writeError(w, err)
			return
		}

		h.publish(r.Context(), "case.transferred", map[string]any{
			"from":   edge.From,
			"to":     edge.To,
			"record": dest,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": dest})
	}
}

// resolve closes a case at its stage: archive it and remove the live
// record. There is no successor.
func (h *Handler) resolve(stage domain.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		edge, ok := domain.ResolveEdge(stage)
		if !ok {
			writeError(w, errors.BadRequest("stage cannot be resolved: "+string(stage)))
			return
		}
		archived, err := h.engine.Transfer(r.Context(), edge, id)
		if err != nil {
			writeError(w, err)
			return
		}

		h.publish(r.Context(), "case.resolved", map[string]any{
			"stage":  stage,
			"record": archived,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": archived})
	}
}

// nextNumber previews the next number without reserving it. Two clerks
// previewing concurrently can see the same value.
func (h *Handler) nextNumber(number *sequence.Domain, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next, err := number.NextFormatted(r.Context())
		if err != nil {
			writeError(w, errors.Wrap(err, "failed to compute next number"))
			return
		}
		metrics.RecordAllocation(number.Name, time.Since(start))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, key: next})
	}
}

func (h *Handler) publish(ctx context.Context, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, events.NewEvent(eventType, "case", data)); err != nil {
		h.logger.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

// --- Helpers ---

func pathID(w http.ResponseWriter, r *http.Request) (types.ID, bool) {
	id, err := types.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid record id"))
		return "", false
	}
	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request) (*casePayload, bool) {
	var payload casePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return nil, false
	}
	return &payload, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "Internal Server Error",
	})
}
