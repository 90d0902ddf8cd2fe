package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatService "github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler pushes session state changes to the browser via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	logger    *zap.Logger
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger, heartbeat: heartbeatInterval}
}

// RegisterRoutes mounts the event stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents sends a "state" event for every transition until the client
// leaves or the session closes.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	updates, cancel := session.Subscribe()
	defer cancel()

	logger := h.logger.With(zap.String("session", sessionID))
	logger.Debug("event stream opened")
	defer logger.Debug("event stream closed")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				logger.Debug("event stream write failed", zap.Error(err))
				return
			}
			if state.Closed {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
