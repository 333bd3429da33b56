// internal/user/handler.go
package user

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

// Routes registers the user endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/", h.HandleListUsers)
		r.Post("/", h.HandleRegisterUser)
		r.Post("/login", h.HandleLogin)
		r.Get("/email/{email}", h.HandleGetUserByEmail)
		r.Get("/{id}", h.HandleGetUser)
		r.Delete("/{id}", h.HandleDeleteUser)
	})
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponses(users))
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		envelope.Fail(w, http.StatusBadRequest, "", "invalid user ID")
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("User retrieved successfully", toResponse(u)))
}

func (h *Handler) HandleGetUserByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUserByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("User retrieved successfully", toResponse(u)))
}

func (h *Handler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Created(w, "User created successfully", toResponse(u))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := validate.DecodeJSON(r, &req); err != nil {
		envelope.Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			envelope.Fail(w, http.StatusUnauthorized, "Authentication failed", "invalid credentials")
			return
		}
		h.writeError(w, r, err)
		return
	}
	envelope.OK(w, toResponse(u))
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		envelope.Fail(w, http.StatusBadRequest, "", "invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	envelope.Write(w, http.StatusOK, envelope.SuccessMessage("User deleted successfully", true))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		envelope.Fail(w, http.StatusNotFound, "User not found", "not found")
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		envelope.Fail(w, http.StatusConflict, "Duplicate resource", err.Error())
	case errors.Is(err, ErrRateLimited):
		envelope.Fail(w, http.StatusTooManyRequests, "", err.Error())
	default:
		l := zerolog.Ctx(r.Context())
		if l.GetLevel() == zerolog.Disabled {
			l = &h.logger
		}
		l.Error().Err(err).Str("path", r.URL.Path).Msg("user request failed")
		envelope.Fail(w, http.StatusInternalServerError, "", "an internal error occurred")
	}
}
