// internal/discovery/handler.go
package discovery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bookreview/internal/envelope"
	"bookreview/internal/validate"
)

type registerRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Handler exposes a Registry over HTTP.
type Handler struct {
	registry Registry
	logger   zerolog.Logger
}

func NewHandler(registry Registry, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/registry/{service}/instances", func(r chi.Router) {
		r.Get("/", h.HandleInstances)
		r.Put("/{id}", h.HandleRegister)
		r.Delete("/{id}", h.HandleDeregister)
	})
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Invalid registration", err.Error())
		return
	}

	inst, err := h.registry.Register(r.Context(), Instance{
		Service: chi.URLParam(r, "service"),
		ID:      chi.URLParam(r, "id"),
		URL:     req.URL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, inst)
}

func (h *Handler) HandleDeregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Deregister(r.Context(), chi.URLParam(r, "service"), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("Instance deregistered", id))
}

func (h *Handler) HandleInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.registry.Instances(r.Context(), chi.URLParam(r, "service"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, instances)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		l = &h.logger
	}
	l.Error().Err(err).Str("path", r.URL.Path).Msg("registry request failed")
	envelope.Fail(w, http.StatusServiceUnavailable, "", "registry unavailable")
}
