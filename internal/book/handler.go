// internal/book/handler.go
package book

import (
	"errors"
	"net/http"

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

// Routes registers the book endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", h.HandleListBooks)
		r.Post("/", h.HandleAddBook)
		r.Get("/{id}", h.HandleGetBook)
		r.Put("/{id}", h.HandleUpdateBook)
		r.Delete("/{id}", h.HandleDeleteBook)
	})
}

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponses(books))
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponse(b))
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Invalid book", err.Error())
		return
	}

	b, err := h.service.AddBook(r.Context(), req.Title, req.Author)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Created(w, "Book created", toResponse(b))
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req writeRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Invalid book", err.Error())
		return
	}

	b, err := h.service.UpdateBook(r.Context(), id, req.Title, req.Author)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("Book updated", toResponse(b)))
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("Book deleted", id))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		envelope.Fail(w, http.StatusBadRequest, "", "invalid book ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		envelope.Fail(w, http.StatusNotFound, "Book not found", "not found")
		return
	}

	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		l = &h.logger
	}
	l.Error().Err(err).Str("path", r.URL.Path).Msg("book request failed")
	envelope.Fail(w, http.StatusInternalServerError, "", "an internal error occurred")
}
