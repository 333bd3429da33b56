// internal/review/handler.go
package review

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bookreview/internal/envelope"
	"bookreview/internal/validate"
)

type Handler struct {
	service Service
	logger  zerolog.Logger
}

func NewHandler(service Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes registers the review endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", h.HandleListReviews)
		r.Post("/", h.HandleSaveReview)
		r.Get("/book/{bookId}", h.HandleListByBook)
		r.Get("/user/{userId}", h.HandleListByUser)
		r.Get("/{id}", h.HandleGetReview)
		r.Get("/{id}/history", h.HandleHistory)
		r.Put("/{id}", h.HandleUpdateReview)
		r.Delete("/{id}", h.HandleDeleteReview)
	})
}

func (h *Handler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponses(reviews))
}

func (h *Handler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "review")
	if !ok {
		return
	}

	rv, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponse(rv))
}

func (h *Handler) HandleListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseID(w, r, "bookId", "book")
	if !ok {
		return
	}

	reviews, err := h.service.ListByBook(r.Context(), bookID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponses(reviews))
}

func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, r, "userId", "user")
	if !ok {
		return
	}

	reviews, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponses(reviews))
}

func (h *Handler) HandleSaveReview(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	rv, err := h.service.SaveReview(r.Context(), req.Rating, req.BookID, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Created(w, "Review created successfully", toResponse(rv))
}

func (h *Handler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "review")
	if !ok {
		return
	}

	var req writeRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	rv, err := h.service.UpdateReview(r.Context(), id, req.Rating, req.BookID, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("Review updated successfully", toResponse(rv)))
}

func (h *Handler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "review")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("Review deleted successfully", id))
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "review")
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toHistory(entries))
}

func parseID(w http.ResponseWriter, r *http.Request, param, kind string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		envelope.Fail(w, http.StatusBadRequest, "", "invalid "+kind+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		l = &h.logger
	}

	var (
		validation *ValidationError
		missing    *ReferenceNotFoundError
		dependency *DependencyError
	)
	switch {
	case errors.As(err, &validation):
		envelope.Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.As(err, &missing):
		envelope.Fail(w, http.StatusNotFound, titleCase(string(missing.Kind))+" not found", err.Error())
	case errors.As(err, &dependency):
		l.Warn().Err(err).
			Str("dependency", string(dependency.Kind)).
			Str("cause", dependency.Cause.String()).
			Int("remote_status", dependency.Status).
			Msg("reference check failed")
		envelope.Fail(w, http.StatusBadGateway, "Could not validate "+string(dependency.Kind), "dependency unavailable")
	case errors.Is(err, ErrNotFound):
		envelope.Fail(w, http.StatusNotFound, "Review not found", "not found")
	default:
		l.Error().Err(err).Str("path", r.URL.Path).Msg("review request failed")
		envelope.Fail(w, http.StatusInternalServerError, "", "an internal error occurred")
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
