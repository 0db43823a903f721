package official

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Handler provides the HTTP handlers for the officials roster.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the roster routes. The dropdown endpoints feed the
// hearing forms with position-filtered slices of the roster.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/get-officials", h.list(""))
	r.Get("/get-justice-on-duty", h.list("Imbestigador"))
	r.Get("/get-lupon-chairpersons", h.list("Lupon Chairperson"))
	r.Get("/get-pangkat-members", h.list("Lupon Tagapamayapa"))
	r.Get("/get-kagawads", h.list("Kagawad"))

	r.Post("/modules", h.create)
	r.Get("/modules/{id}", h.get)
	r.Put("/modules/{id}", h.update)
	r.Delete("/modules/{id}", h.delete)

	return r
}

type officialPayload struct {
	Name     types.PersonName `json:"name"`
	Position string           `json:"position"`
	PhotoURL string           `json:"photoUrl"`
}

// checkSeat enforces the roster rules: a person holds one seat, and
// key positions hold one person.
func (h *Handler) checkSeat(r *http.Request, name types.PersonName, position string, excludeID types.ID) error {
	existing, err := h.repo.FindByName(r.Context(), name, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.BadRequest("this person is already assigned to a position")
	}

	if IsKeyPosition(position) {
		holder, err := h.repo.FindByPosition(r.Context(), position, excludeID)
		if err != nil {
			return err
		}
		if holder != nil {
			return errors.BadRequest("position " + position + " is already filled")
		}
	}
	return nil
}

func (h *Handler) list(position string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		officials, err := h.repo.List(r.Context(), position)
		if err != nil {
			writeError(w, err)
			return
		}
		if officials == nil {
			officials = []Official{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": officials, "total": len(officials)})
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": o})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload officialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	o, err := NewOfficial(payload.Name, payload.Position, payload.PhotoURL)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.checkSeat(r, o.Name, o.Position, o.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.Create(r.Context(), o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": o})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload officialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	o, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !payload.Name.IsZero() {
		o.Name = payload.Name
	}
	if payload.Position != "" {
		o.Position = payload.Position
	}
	if payload.PhotoURL != "" {
		o.PhotoURL = payload.PhotoURL
	}
	if err := h.checkSeat(r, o.Name, o.Position, o.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.Update(r.Context(), o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": o})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
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
