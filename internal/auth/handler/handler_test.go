package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"atelier/internal/auth/handler/mocks"
	"atelier/internal/auth/models"
	"atelier/internal/jwttoken"
	dErrors "atelier/pkg/domain-errors"
)

const testTokenTTL = time.Hour

//go:generate mockgen -source=handler.go -destination=mocks/auth-mocks.go -package=mocks Service
type AuthHandlerSuite struct {
	suite.Suite
	jwt *jwttoken.Service
}

func (s *AuthHandlerSuite) SetupSuite() {
	s.jwt = jwttoken.NewService("test-signing-key", "test-issuer")
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) newRouter() (chi.Router, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger, s.jwt).Register(r)
	return r, mockService
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("returns data envelope with tokens", func() {
		router, mockService := s.newRouter()
		user := &models.User{ID: uuid.New(), Email: "jane@example.com", Role: models.RoleAdmin, IsActive: true}
		mockService.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "jane@example.com", Password: "pw"}, gomock.Any()).
			Return(&models.LoginResult{User: user, AccessToken: "at", RefreshToken: "rt"}, nil)

		body, _ := json.Marshal(map[string]string{"email": "jane@example.com", "password": "pw"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Data models.LoginResult `json:"data"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "at", resp.Data.AccessToken)
		assert.Equal(s.T(), user.Email, resp.Data.User.Email)
	})

	s.Run("maps unauthorized service error to 401", func() {
		router, mockService := s.newRouter()
		mockService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		body, _ := json.Marshal(map[string]string{"email": "jane@example.com", "password": "bad"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
		var resp map[string]string
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "unauthorized", resp["error"])
	})

	s.Run("rejects malformed body", func() {
		router, _ := s.newRouter()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})
}

func (s *AuthHandlerSuite) TestProfile() {
	s.Run("requires a bearer token", func() {
		router, _ := s.newRouter()
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})

	s.Run("returns the profile for a valid token", func() {
		router, mockService := s.newRouter()
		userID := uuid.New()
		token, err := s.jwt.GenerateToken(userID, "jane@example.com", "ADMIN", testTokenTTL)
		require.NoError(s.T(), err)

		mockService.EXPECT().Profile(gomock.Any(), userID).
			Return(&models.User{ID: userID, Email: "jane@example.com", Role: models.RoleAdmin}, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Data models.User `json:"data"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), userID, resp.Data.ID)
	})

	s.Run("rejects an expired token", func() {
		router, _ := s.newRouter()
		token, err := s.jwt.GenerateToken(uuid.New(), "jane@example.com", "ADMIN", -testTokenTTL)
		require.NoError(s.T(), err)

		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})
}
