package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	blogmodels "atelier/internal/blog/models"
)

type APIClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestAPIClientSuite(t *testing.T) {
	suite.Run(t, new(APIClientSuite))
}

func (s *APIClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *APIClientSuite) newServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	client := New(srv.URL, func() string { return "session-token" })
	return srv, client
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (s *APIClientSuite) TestLogin() {
	s.Run("decodes the data envelope", func() {
		_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(s.T(), http.MethodPost, r.Method)
			assert.Equal(s.T(), "/api/v1/auth/login", r.URL.Path)
			assert.Empty(s.T(), r.Header.Get("Authorization"), "login is unauthenticated")

			var body map[string]string
			require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(s.T(), "jane@example.com", body["email"])

			writeData(w, http.StatusOK, map[string]any{
				"user":         map[string]any{"id": uuid.New(), "email": "jane@example.com"},
				"accessToken":  "at",
				"refreshToken": "rt",
			})
		})

		result, err := client.Login(s.ctx, "jane@example.com", "pw")
		s.Require().NoError(err)
		s.Equal("at", result.AccessToken)
		s.Equal("jane@example.com", result.User.Email)
	})

	s.Run("error payload becomes a plain message", func() {
		_, client := s.newServer(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "unauthorized", "message": "invalid credentials",
			})
		})

		_, err := client.Login(s.ctx, "jane@example.com", "bad")
		s.Require().Error(err)
		s.Equal("invalid credentials", err.Error())
	})

	s.Run("unexpected error body falls back to status text", func() {
		_, client := s.newServer(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream exploded"))
		})

		_, err := client.Login(s.ctx, "jane@example.com", "pw")
		s.Require().Error(err)
		s.Equal("Bad Gateway", err.Error())
	})
}

func (s *APIClientSuite) TestFetchProfile() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), "/api/v1/auth/profile", r.URL.Path)
		assert.Equal(s.T(), "Bearer stored-token", r.Header.Get("Authorization"))
		writeData(w, http.StatusOK, map[string]any{"id": uuid.New(), "email": "jane@example.com"})
	})

	user, err := client.FetchProfile(s.ctx, "stored-token")
	s.Require().NoError(err)
	s.Equal("jane@example.com", user.Email)
}

func (s *APIClientSuite) TestListArticles() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), "/api/v1/articles", r.URL.Path)
		assert.Equal(s.T(), "DRAFT", r.URL.Query().Get("status"))
		assert.Equal(s.T(), "2", r.URL.Query().Get("page"))
		assert.Equal(s.T(), "Bearer session-token", r.Header.Get("Authorization"))

		writeData(w, http.StatusOK, blogmodels.ArticlePage{
			Data: []*blogmodels.Article{{ID: uuid.New(), Title: "Hello", Slug: "hello"}},
			Meta: blogmodels.NewPageMeta(11, 2, 10),
		})
	})

	page, err := client.ListArticles(s.ctx, blogmodels.ListFilter{Status: blogmodels.StatusDraft, Page: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Data, 1)
	s.Equal("hello", page.Data[0].Slug)
	s.Equal(11, page.Meta.Total)
	s.True(page.Meta.HasPreviousPage)
}

func (s *APIClientSuite) TestArticleMutations() {
	s.Run("update sends a PATCH with bearer token", func() {
		id := uuid.New()
		_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(s.T(), http.MethodPatch, r.Method)
			assert.Equal(s.T(), "/api/v1/articles/"+id.String(), r.URL.Path)
			assert.Equal(s.T(), "Bearer session-token", r.Header.Get("Authorization"))
			writeData(w, http.StatusOK, blogmodels.Article{ID: id, Title: "Renamed"})
		})

		title := "Renamed"
		article, err := client.UpdateArticle(s.ctx, id, blogmodels.UpdateArticleRequest{Title: &title})
		s.Require().NoError(err)
		s.Equal("Renamed", article.Title)
	})

	s.Run("delete tolerates an empty 204", func() {
		id := uuid.New()
		_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(s.T(), http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})

		s.Require().NoError(client.DeleteArticle(s.ctx, id))
	})
}

func (s *APIClientSuite) TestTaxonomy() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/categories":
			writeData(w, http.StatusOK, []*blogmodels.Category{{ID: uuid.New(), Name: "Engineering"}})
		case "/api/v1/tags":
			writeData(w, http.StatusOK, []*blogmodels.Tag{{ID: uuid.New(), Name: "Golang"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	cats, err := client.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cats, 1)
	s.Equal("Engineering", cats[0].Name)

	tags, err := client.ListTags(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tags, 1)
	s.Equal("Golang", tags[0].Name)
}
