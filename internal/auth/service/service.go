package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"atelier/internal/auth/models"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/middleware"
	dErrors "atelier/pkg/domain-errors"
	audit "atelier/pkg/platform/audit"
	"atelier/pkg/platform/sentinel"
)

// UserStore is the persistence dependency, satisfied by the user package.
type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs bearer tokens, satisfied by jwttoken.Service.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email, role string, expiresIn time.Duration) (string, error)
}

// AuditPublisher records security events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements authentication use cases: login and profile lookup.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	audit      AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(
	users UserStore,
	tokens TokenIssuer,
	auditPub AuditPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	accessTTL, refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		audit:      auditPub,
		metrics:    m,
		logger:     logger,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login verifies credentials and issues access + refresh tokens. Credential
// and account-state failures collapse into one unauthorized error so the
// response does not reveal which part was wrong.
func (s *Service) Login(ctx context.Context, req models.LoginRequest, userAgent string) (*models.LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.loginFailed(ctx, email, "unknown email")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "user lookup failed", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, s.loginFailed(ctx, user.ID.String(), "bad password")
	}
	if !user.IsActive {
		return nil, s.loginFailed(ctx, user.ID.String(), "account inactive")
	}

	accessToken, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "sign access token", err)
	}
	refreshToken, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role), s.refreshTTL)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "sign refresh token", err)
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		UserID:   user.ID.String(),
		Action:   string(audit.EventUserLogin),
		Device:   deviceSummary(userAgent),
	})

	return &models.LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Profile returns the identity for an authenticated user ID.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "user lookup failed", err)
	}
	if !user.IsActive {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account inactive")
	}
	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, subject, reason string) error {
	s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	s.emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		UserID:   subject,
		Action:   string(audit.EventLoginFailed),
		Reason:   reason,
	})
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// deviceSummary condenses a raw User-Agent header into "Browser x.y on OS".
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	os := ua.OS()
	switch {
	case name == "" && os == "":
		return ""
	case os == "":
		return fmt.Sprintf("%s %s", name, version)
	case name == "":
		return os
	}
	return fmt.Sprintf("%s %s on %s", name, version, os)
}

// HashPassword is used by seeding and admin tooling when creating accounts.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
