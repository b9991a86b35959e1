// Package api is the HTTP client for the content service. Responses arrive
// in a {"data": ...} envelope; errors carry {"error", "message"} and are
// converted to plain error strings for the caller to display.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
	blogmodels "atelier/internal/blog/models"
)

const apiPrefix = "/api/v1"

// TokenSource yields the current bearer token, empty when logged out.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

// LoginResult mirrors the server's login payload.
type LoginResult struct {
	User         *authmodels.User `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchProfile resolves the identity behind an access token. The token is
// explicit rather than sourced so session restoration can probe a stored
// token before it becomes current.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*authmodels.User, error) {
	var user authmodels.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListArticles fetches a page of articles with the given filter.
func (c *Client) ListArticles(ctx context.Context, filter blogmodels.ListFilter) (*blogmodels.ArticlePage, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.TagSlug != "" {
		q.Set("tag", filter.TagSlug)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/articles"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	// The listing endpoint envelopes the page itself, so data holds
	// another data/meta pair.
	var page blogmodels.ArticlePage
	if err := c.do(ctx, http.MethodGet, path, nil, c.token(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetArticle(ctx context.Context, slugOrID string) (*blogmodels.Article, error) {
	var article blogmodels.Article
	if err := c.do(ctx, http.MethodGet, "/articles/"+url.PathEscape(slugOrID), nil, c.token(), &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) CreateArticle(ctx context.Context, req blogmodels.CreateArticleRequest) (*blogmodels.Article, error) {
	var article blogmodels.Article
	if err := c.do(ctx, http.MethodPost, "/articles", req, c.token(), &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) UpdateArticle(ctx context.Context, id uuid.UUID, req blogmodels.UpdateArticleRequest) (*blogmodels.Article, error) {
	var article blogmodels.Article
	if err := c.do(ctx, http.MethodPatch, "/articles/"+id.String(), req, c.token(), &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/articles/"+id.String(), nil, c.token(), nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]*blogmodels.Category, error) {
	var cats []*blogmodels.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, c.token(), &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) ListTags(ctx context.Context) ([]*blogmodels.Tag, error) {
	var tags []*blogmodels.Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, c.token(), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) CreateCategory(ctx context.Context, req blogmodels.CreateCategoryRequest) (*blogmodels.Category, error) {
	var cat blogmodels.Category
	if err := c.do(ctx, http.MethodPost, "/categories", req, c.token(), &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) CreateTag(ctx context.Context, req blogmodels.CreateTagRequest) (*blogmodels.Tag, error) {
	var tag blogmodels.Tag
	if err := c.do(ctx, http.MethodPost, "/tags", req, c.token(), &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one request and decodes the data envelope into out. A nil out
// discards the body (204 responses).
func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// decodeError turns an error payload into a display-ready message. Bodies
// that are not the expected shape fall back to the HTTP status text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%s", apiErr.Message)
	}
	return fmt.Errorf("%s", http.StatusText(resp.StatusCode))
}
