package handler

import (
	"bytes"
	"context"
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

	authmodels "atelier/internal/auth/models"
	"atelier/internal/jwttoken"
	uploadservice "atelier/internal/upload/service"
	dErrors "atelier/pkg/domain-errors"
)

const testTokenTTL = time.Hour

type fakeService struct {
	result *uploadservice.PresignResult
	err    error
	actor  uuid.UUID
}

func (f *fakeService) Presign(_ context.Context, _ uploadservice.PresignRequest, actorID uuid.UUID) (*uploadservice.PresignResult, error) {
	f.actor = actorID
	return f.result, f.err
}

type UploadHandlerSuite struct {
	suite.Suite
	jwt *jwttoken.Service
}

func (s *UploadHandlerSuite) SetupSuite() {
	s.jwt = jwttoken.NewService("test-signing-key", "test-issuer")
}

func TestUploadHandlerSuite(t *testing.T) {
	suite.Run(t, new(UploadHandlerSuite))
}

func (s *UploadHandlerSuite) newRouter(svc Service) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger, s.jwt).Register(r)
	return r
}

func (s *UploadHandlerSuite) token(userID uuid.UUID, role authmodels.Role) string {
	token, err := s.jwt.GenerateToken(userID, "editor@example.com", string(role), testTokenTTL)
	require.NoError(s.T(), err)
	return token
}

func (s *UploadHandlerSuite) TestPresign() {
	s.Run("requires a token", func() {
		router := s.newRouter(&fakeService{})

		req := httptest.NewRequest(http.MethodPost, "/upload/presign", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})

	s.Run("rejects the reader role", func() {
		router := s.newRouter(&fakeService{})

		req := httptest.NewRequest(http.MethodPost, "/upload/presign", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Authorization", "Bearer "+s.token(uuid.New(), authmodels.RoleUser))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusForbidden, w.Code)
	})

	s.Run("returns the signed url and passes the actor through", func() {
		fake := &fakeService{result: &uploadservice.PresignResult{
			UploadURL: "https://signed.example.com/article-covers/x.png",
			Key:       "article-covers/x.png",
			PublicURL: "https://cdn.example.com/article-covers/x.png",
			ExpiresIn: 600,
		}}
		router := s.newRouter(fake)
		editor := uuid.New()

		body, _ := json.Marshal(uploadservice.PresignRequest{
			Folder: "article-covers", FileName: "x.png", ContentType: "image/png",
		})
		req := httptest.NewRequest(http.MethodPost, "/upload/presign", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+s.token(editor, authmodels.RoleModerator))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusOK, w.Code)
		assert.Equal(s.T(), editor, fake.actor)

		var resp struct {
			Data uploadservice.PresignResult `json:"data"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "article-covers/x.png", resp.Data.Key)
	})

	s.Run("maps bad folder to 400", func() {
		fake := &fakeService{err: dErrors.New(dErrors.CodeBadRequest, "unknown upload folder")}
		router := s.newRouter(fake)

		body, _ := json.Marshal(uploadservice.PresignRequest{Folder: "nope"})
		req := httptest.NewRequest(http.MethodPost, "/upload/presign", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+s.token(uuid.New(), authmodels.RoleAdmin))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})
}
