package docrequest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/events"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// PaymentLinker creates a hosted payment link for a document fee.
type PaymentLinker interface {
	CreateLink(ctx context.Context, amountCentavos int, description, remarks string) (string, error)
}

// EmailDirectory resolves a resident's contact email from the city
// hall resident directory.
type EmailDirectory interface {
	FindResidentEmail(ctx context.Context, name types.PersonName) (string, error)
}

// Handler provides the HTTP handlers for document requests and
// barangay ID issuance.
type Handler struct {
	repo      Repository
	igpNumber sequence.Domain
	payments  PaymentLinker
	directory EmailDirectory
	bus       events.EventBus
	logger    *slog.Logger
}

func NewHandler(repo Repository, igpNumber sequence.Domain, payments PaymentLinker, directory EmailDirectory, bus events.EventBus, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		igpNumber: igpNumber,
		payments:  payments,
		directory: directory,
		bus:       bus,
		logger:    logger,
	}
}

// Routes registers the document request routes. Each document kind
// keeps its own route names so the desk pages stay stable.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	kinds := map[Kind]string{
		KindCertification: "certification",
		KindClearance:     "clearance",
		KindIndigency:     "indigency",
	}
	for kind, slug := range kinds {
		r.Get("/fetch-"+slug+"-requests", h.listRequests(kind, false))
		r.Get("/fetch-"+slug+"-request/{id}", h.getRequest)
		r.Post("/add-request-"+slug, h.addRequest(kind))
		r.Put("/update-request-"+slug+"/{id}", h.updateRequest)
		r.Delete("/delete-request-"+slug+"/{id}", h.deleteRequest)
		r.Put("/transfer-request-"+slug+"/{id}", h.transferRequest)
		r.Get("/fetch-"+slug+"-requests-complete", h.listRequests(kind, true))
	}

	// Resident-facing submission aliases.
	r.Post("/add-request-document-cert", h.addRequest(KindCertification))
	r.Post("/add-request-document-clear", h.addRequest(KindClearance))
	r.Post("/add-request-indigency", h.addRequest(KindIndigency))

	r.Post("/request-cert-payment", h.requestPayment)

	r.Get("/barangay-ids", h.listBarangayIDs(false))
	r.Get("/barangay-ids-complete", h.listBarangayIDs(true))
	r.Get("/barangay-ids/{id}", h.getBarangayID)
	r.Post("/barangay-ids", h.addBarangayID)
	r.Put("/barangay-ids/transfer/{id}", h.transferBarangayID)
	r.Put("/barangay-ids/{id}", h.updateBarangayID)
	r.Delete("/barangay-ids/{id}", h.deleteBarangayID)
	r.Get("/next-igp-no", h.nextIGP)

	return r
}

type requestPayload struct {
	Requester    types.PersonName `json:"requester"`
	Purpose      string           `json:"purpose"`
	RequestDate  string           `json:"requestDate"`
	ContactEmail string           `json:"contactEmail"`
	Status       string           `json:"status"`
}

func (h *Handler) listRequests(kind Kind, archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := h.repo.ListRequests(r.Context(), kind, archived)
		if err != nil {
			writeError(w, err)
			return
		}
		if reqs == nil {
			reqs = []Request{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": reqs, "total": len(reqs)})
	}
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.repo.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": req})
}

func (h *Handler) addRequest(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload requestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
			return
		}
		req, err := NewRequest(kind, payload.Requester, payload.Purpose, payload.RequestDate, payload.ContactEmail)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.repo.CreateRequest(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}

		metrics.RecordDocumentRequest(string(kind))
		h.publish(r.Context(), "docrequest.created", map[string]any{"request": req})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "request": req})
	}
}

func (h *Handler) updateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	req, err := h.repo.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !payload.Requester.IsZero() {
		req.Requester = payload.Requester
	}
	req.Purpose = payload.Purpose
	req.RequestDate = payload.RequestDate
	req.ContactEmail = payload.ContactEmail
	if payload.Status != "" {
		req.Status = payload.Status
	}
	req.UpdatedAt = time.Now().UTC()

	if err := h.repo.UpdateRequest(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "request": req})
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteRequest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) transferRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.TransferRequest(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context(), "docrequest.fulfilled", map[string]any{"id": id})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// requestPayment creates a hosted payment link for a certificate fee
// and announces it so the notification service can mail the requester.
func (h *Handler) requestPayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Requester types.PersonName `json:"requester"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if payload.Requester.FirstName == "" || payload.Requester.LastName == "" {
		writeError(w, errors.Validation("requester name is incomplete", nil))
		return
	}

	email, err := h.directory.FindResidentEmail(r.Context(), payload.Requester)
	if err != nil {
		writeError(w, err)
		return
	}

	// Certificate fee, in centavos.
	link, err := h.payments.CreateLink(r.Context(), 10000,
		"Certificate Request", payload.Requester.Full()+"'s Document Request")
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to create payment link"))
		return
	}

	h.publish(r.Context(), "docrequest.payment_link", map[string]any{
		"requester":   payload.Requester,
		"email":       email,
		"paymentLink": link,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "paymentLink": link})
}

type barangayIDPayload struct {
	IGPNumber string           `json:"igp"`
	Holder    types.PersonName `json:"holder"`
	Address   string           `json:"address"`
	BirthDate string           `json:"birthDate"`
	Status    string           `json:"status"`
}

func (h *Handler) listBarangayIDs(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bids, err := h.repo.ListBarangayIDs(r.Context(), archived)
		if err != nil {
			writeError(w, err)
			return
		}
		if bids == nil {
			bids = []BarangayID{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": bids, "total": len(bids)})
	}
}

func (h *Handler) getBarangayID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bid, err := h.repo.GetBarangayID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": bid})
}

func (h *Handler) addBarangayID(w http.ResponseWriter, r *http.Request) {
	var payload barangayIDPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if payload.IGPNumber == "" {
		start := time.Now()
		allocated, err := h.igpNumber.NextFormatted(r.Context())
		if err != nil {
			writeError(w, errors.Wrap(err, "failed to allocate IGP number"))
			return
		}
		metrics.RecordAllocation(h.igpNumber.Name, time.Since(start))
		payload.IGPNumber = allocated
	}

	bid, err := NewBarangayID(payload.IGPNumber, payload.Holder, payload.Address, payload.BirthDate)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.CreateBarangayID(r.Context(), bid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": bid})
}

// updateBarangayID replaces the holder details. The IGP number is
// fixed at issuance and ignored in the payload.
func (h *Handler) updateBarangayID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload barangayIDPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	bid, err := h.repo.GetBarangayID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !payload.Holder.IsZero() {
		bid.Holder = payload.Holder
	}
	bid.Address = payload.Address
	bid.BirthDate = payload.BirthDate
	if payload.Status != "" {
		bid.Status = payload.Status
	}
	bid.UpdatedAt = time.Now().UTC()

	if err := h.repo.UpdateBarangayID(r.Context(), bid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": bid})
}

func (h *Handler) deleteBarangayID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteBarangayID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) transferBarangayID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.TransferBarangayID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) nextIGP(w http.ResponseWriter, r *http.Request) {
	next, err := h.igpNumber.NextFormatted(r.Context())
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to compute next IGP number"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "nextIgp": next})
}

func (h *Handler) publish(ctx context.Context, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, events.NewEvent(eventType, "docrequest", data)); err != nil {
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
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Internal Server Error"})
}
