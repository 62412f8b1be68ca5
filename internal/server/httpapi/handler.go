// Package httpapi exposes the notes REST resource consumed by the sync
// clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

// NoteService is the business logic behind the handlers.
type NoteService interface {
	Create(ctx context.Context, in services.CreateInput) (*models.Note, error)
	Get(ctx context.Context, id, userID string) (*models.Note, error)
	List(ctx context.Context, userID string) ([]models.Note, error)
	Update(ctx context.Context, id, userID string, p models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id, userID string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type noteDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func toDTO(n models.Note) noteDTO {
	return noteDTO{
		ID:         n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Content:    n.Content,
		CreatedAt:  n.CreatedAt,
		ModifiedAt: n.ModifiedAt,
	}
}

type createRequest struct {
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type updateRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	ModifiedAt time.Time `json:"modified_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	svc    NoteService
	pinger Pinger
	log    logging.Logger
}

func NewHandler(svc NoteService, p Pinger, l logging.Logger) *Handler {
	return &Handler{svc: svc, pinger: p, log: l.With("module", "httpapi")}
}

// Routes returns the router for the REST API and the liveness probe.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("GET /api/notes/{id}", h.GetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)

	mux.HandleFunc("GET /healthz", h.Health)

	return h.withLogging(mux)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = userID(r)
	}

	n, err := h.svc.Create(r.Context(), services.CreateInput{
		UserID:     req.UserID,
		Title:      req.Title,
		Content:    req.Content,
		CreatedAt:  req.CreatedAt,
		ModifiedAt: req.ModifiedAt,
	})
	if err != nil {
		h.serviceError(r.Context(), w, "create note", err)
		return
	}

	h.jsonResponse(w, toDTO(*n), http.StatusCreated)
}

// ListNotes handles GET /api/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		h.serviceError(r.Context(), w, "list notes", err)
		return
	}

	out := make([]noteDTO, 0, len(list))
	for _, n := range list {
		out = append(out, toDTO(n))
	}
	h.jsonResponse(w, out, http.StatusOK)
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		h.serviceError(r.Context(), w, "get note", err)
		return
	}
	h.jsonResponse(w, toDTO(*n), http.StatusOK)
}

// UpdateNote handles PATCH /api/notes/{id}. A stored copy newer than the
// request's modified_at answers 409.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := h.svc.Update(r.Context(), r.PathValue("id"), userID(r), models.NotePatch{
		Title:      req.Title,
		Content:    req.Content,
		ModifiedAt: req.ModifiedAt,
	})
	if err != nil {
		h.serviceError(r.Context(), w, "update note", err)
		return
	}
	h.jsonResponse(w, toDTO(*n), http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		h.serviceError(r.Context(), w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.jsonError(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func userID(r *http.Request) string {
	return r.URL.Query().Get(common.UserIDQueryParam)
}

func (h *Handler) serviceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorNotFound):
		h.jsonError(w, "note not found", http.StatusNotFound)
	case errors.Is(err, common.ErrVersionConflict):
		h.jsonError(w, common.ErrVersionConflict.Error(), http.StatusConflict)
	default:
		h.log.Error(ctx, "failed to "+op, "error", err)
		h.jsonError(w, common.ErrorInternal.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, msg string, status int) {
	h.jsonResponse(w, errorResponse{Error: msg}, status)
}
