package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/model/chat"
	chatService "github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/pkg/utils"
)

// Handler exposes chat sessions over REST.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates the session handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleCloseSession)
		r.Post("/activate", h.handleActivate)
		r.Put("/draft", h.handleUpdateDraft)
		r.Post("/submit", h.handleSubmit)
	})
}

type draftRequest struct {
	Text *string `json:"text"`
}

// SubmitResponse reports whether the draft was sent and the resulting state.
type SubmitResponse struct {
	Accepted bool       `json:"accepted"`
	State    chat.State `json:"state"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}
	h.respond(w, http.StatusCreated, session.State())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, session.State())
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	session.Activate()
	h.respond(w, http.StatusOK, session.State())
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload draftRequest
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Text == nil {
		h.respondError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	session.UpdateDraft(*payload.Text)
	h.respond(w, http.StatusOK, session.State())
}

// handleSubmit optionally replaces the draft, then submits it and waits for
// the reply. The completion outlives a dropped client connection.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload draftRequest
	if err := utils.DecodeJSON(r, &payload, true); err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Text != nil {
		session.UpdateDraft(*payload.Text)
	}

	accepted := session.Submit(context.WithoutCancel(r.Context()))
	h.respond(w, http.StatusOK, SubmitResponse{Accepted: accepted, State: session.State()})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, statusFor(err), err)
		return nil, false
	}
	return session, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload interface{}) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("chat request failed", zap.Error(err))
	}
	if werr := utils.RespondError(w, status, err.Error()); werr != nil {
		h.logger.Warn("failed to encode error response", zap.Error(werr))
	}
}

func statusFor(err error) int {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
