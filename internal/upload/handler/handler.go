package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
	"atelier/internal/platform/middleware"
	"atelier/internal/transport/shared"
	uploadservice "atelier/internal/upload/service"
	dErrors "atelier/pkg/domain-errors"
)

// Service defines the upload operation the transport needs.
type Service interface {
	Presign(ctx context.Context, req uploadservice.PresignRequest, actorID uuid.UUID) (*uploadservice.PresignResult, error)
}

type Handler struct {
	logger       *slog.Logger
	uploads      Service
	jwtValidator middleware.JWTValidator
}

func New(uploads Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		uploads:      uploads,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the upload routes behind editorial auth.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Use(middleware.RequireRole(h.logger,
			string(authmodels.RoleModerator), string(authmodels.RoleAdmin)))

		pr.Post("/upload/presign", h.handlePresign)
	})
}

func (h *Handler) handlePresign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadservice.PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "user id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	result, err := h.uploads.Presign(ctx, req, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, result)
}
