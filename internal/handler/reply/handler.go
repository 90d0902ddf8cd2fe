package reply

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	aiService "github.com/mait-chat/backend/internal/service/ai"
	"github.com/mait-chat/backend/pkg/utils"
)

// VisitorCookie identifies a browser across reply requests.
const VisitorCookie = "mait_visitor"

const visitorTTL = 30 * 24 * time.Hour

// Replier answers a visitor's message.
type Replier interface {
	GenerateReply(ctx context.Context, visitorID, message string) (string, error)
	ForgetVisitor(visitorID string)
}

// Handler implements the chat endpoint the widget posts to.
type Handler struct {
	replier Replier
	logger  *zap.Logger
}

// New creates the reply handler.
func New(replier Replier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{replier: replier, logger: logger}
}

// RegisterRoutes mounts the reply routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Delete("/chat", h.handleForget)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	visitorID := h.visitor(w, r)

	reply, err := h.replier.GenerateReply(r.Context(), visitorID, payload.Message)
	if err != nil {
		if errors.Is(err, aiService.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("reply generation failed", zap.String("visitor", visitorID), zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "The assistant is unavailable right now. Please try again in a moment.")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (h *Handler) handleForget(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(VisitorCookie); err == nil && c.Value != "" {
		h.replier.ForgetVisitor(c.Value)
	}
	w.WriteHeader(http.StatusNoContent)
}

// visitor returns the caller's visitor id, issuing a cookie on first contact.
func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: sameSite(r),
	})
	return id
}

// Cross-site cookies need SameSite=None, which browsers only accept with Secure.
func sameSite(r *http.Request) http.SameSite {
	if r.TLS != nil {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
