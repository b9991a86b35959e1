package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"atelier/internal/auth/models"
	"atelier/internal/platform/middleware"
	"atelier/internal/transport/shared"
	dErrors "atelier/pkg/domain-errors"
)

// Service defines the auth operations the transport needs.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest, userAgent string) (*models.LoginResult, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Handler exposes /auth endpoints.
type Handler struct {
	logger       *slog.Logger
	auth         Service
	jwtValidator middleware.JWTValidator
}

func New(auth Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		auth:         auth,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the auth routes. Login stays public; profile requires a
// bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Get("/auth/profile", h.handleProfile)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(ctx, req, r.UserAgent())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteData(w, http.StatusOK, result)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		// RequireAuth always sets a parseable ID; a miss here is a wiring bug.
		h.logger.ErrorContext(ctx, "user id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	user, err := h.auth.Profile(ctx, userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteData(w, http.StatusOK, user)
}
