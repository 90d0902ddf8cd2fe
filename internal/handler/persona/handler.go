package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mait-chat/backend/internal/model/persona"
	"github.com/mait-chat/backend/pkg/utils"
)

// Handler serves the assistant profile to the widget.
type Handler struct {
	personas persona.Store
}

// New creates the profile handler.
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes mounts the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assistant", h.handleAssistant)
	r.Get("/personas", h.handleListPersonas)
}

func (h *Handler) handleAssistant(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Default())
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
