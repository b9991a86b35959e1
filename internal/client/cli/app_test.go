package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authmodels "atelier/internal/auth/models"
	blogmodels "atelier/internal/blog/models"
	apiclient "atelier/internal/client/api"
	"atelier/internal/client/session"
)

type fakeBackend struct {
	loginResult *apiclient.LoginResult
	loginErr    error
	page        *blogmodels.ArticlePage
	updated     *blogmodels.Article
	updateErr   error
	deleteErr   error
	cats        []*blogmodels.Category
	tags        []*blogmodels.Tag

	deletedID uuid.UUID
}

func (f *fakeBackend) Login(_ context.Context, _, _ string) (*apiclient.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) FetchProfile(_ context.Context, _ string) (*authmodels.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeBackend) ListArticles(_ context.Context, _ blogmodels.ListFilter) (*blogmodels.ArticlePage, error) {
	return f.page, nil
}

func (f *fakeBackend) UpdateArticle(_ context.Context, _ uuid.UUID, _ blogmodels.UpdateArticleRequest) (*blogmodels.Article, error) {
	return f.updated, f.updateErr
}

func (f *fakeBackend) DeleteArticle(_ context.Context, id uuid.UUID) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeBackend) ListCategories(_ context.Context) ([]*blogmodels.Category, error) {
	return f.cats, nil
}

func (f *fakeBackend) ListTags(_ context.Context) ([]*blogmodels.Tag, error) {
	return f.tags, nil
}

type AppSuite struct {
	suite.Suite
	ctx     context.Context
	backend *fakeBackend
	store   *session.Store
	out     *bytes.Buffer
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = &fakeBackend{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = session.NewStore(session.NewMemoryStore(), logger)
	s.out = &bytes.Buffer{}
}

func (s *AppSuite) newApp(input string) *App {
	return NewApp(s.backend, s.store, strings.NewReader(input), s.out)
}

func (s *AppSuite) loggedInApp(input string) *App {
	s.store.Login(session.Session{
		User:        &authmodels.User{ID: uuid.New(), Email: "ed@example.com", FirstName: "Ed", Role: authmodels.RoleAdmin},
		AccessToken: "token",
	})
	// A session installed by login is already terminal for the guard.
	restorer := session.NewRestorer(s.store, s.backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
	restorer.Restore(s.ctx)
	return s.newApp(input)
}

func (s *AppSuite) article(title string, status blogmodels.ArticleStatus) *blogmodels.Article {
	return &blogmodels.Article{ID: uuid.New(), Title: title, Slug: title, Status: status}
}

func (s *AppSuite) TestLogin() {
	restore := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("hunter2"), nil }
	defer func() { readPassword = restore }()

	s.Run("success installs the session", func() {
		s.backend.loginResult = &apiclient.LoginResult{
			User:         &authmodels.User{ID: uuid.New(), Email: "jane@example.com", FirstName: "Jane"},
			AccessToken:  "at",
			RefreshToken: "rt",
		}
		app := s.newApp("jane@example.com\n")

		s.Require().NoError(app.Login(s.ctx))

		sess := s.store.Read()
		s.Require().NotNil(sess)
		s.Equal("at", sess.AccessToken)
		s.Contains(s.out.String(), "logged in as Jane")
	})

	s.Run("failure leaves the session untouched", func() {
		s.SetupTest()
		s.backend.loginErr = errors.New("invalid credentials")
		app := s.newApp("jane@example.com\n")

		s.Require().NoError(app.Login(s.ctx))

		s.Nil(s.store.Read())
		s.Contains(s.out.String(), "login failed")
	})
}

func (s *AppSuite) TestArticlesListing() {
	s.backend.page = &blogmodels.ArticlePage{
		Data: []*blogmodels.Article{
			s.article("first", blogmodels.StatusPublished),
			s.article("second", blogmodels.StatusDraft),
		},
		Meta: blogmodels.NewPageMeta(2, 1, 50),
	}
	app := s.loggedInApp("")

	s.Require().NoError(app.Articles(s.ctx))

	s.Len(app.rows, 2)
	s.Contains(s.out.String(), "first")
	s.Contains(s.out.String(), "second")
}

func (s *AppSuite) TestPublishPatchesCachedRow() {
	draft := s.article("piece", blogmodels.StatusDraft)
	s.backend.page = &blogmodels.ArticlePage{
		Data: []*blogmodels.Article{draft},
		Meta: blogmodels.NewPageMeta(1, 1, 50),
	}
	published := *draft
	published.Status = blogmodels.StatusPublished
	s.backend.updated = &published

	app := s.loggedInApp("1\n")
	s.Require().NoError(app.Articles(s.ctx))

	s.Require().NoError(app.Publish(s.ctx))

	s.Require().Len(app.rows, 1)
	s.Equal(blogmodels.StatusPublished, app.rows[0].Status)
	s.Contains(s.out.String(), "piece is now PUBLISHED")
}

func (s *AppSuite) TestUpdateFailureLeavesListingUnchanged() {
	draft := s.article("piece", blogmodels.StatusDraft)
	s.backend.page = &blogmodels.ArticlePage{
		Data: []*blogmodels.Article{draft},
		Meta: blogmodels.NewPageMeta(1, 1, 50),
	}
	s.backend.updateErr = errors.New("boom")

	app := s.loggedInApp("1\n")
	s.Require().NoError(app.Articles(s.ctx))

	s.Require().NoError(app.Publish(s.ctx))

	s.Equal(blogmodels.StatusDraft, app.rows[0].Status, "failed mutation never touches the cache")
	s.Contains(s.out.String(), "update failed")
}

func (s *AppSuite) TestDeleteRemovesCachedRow() {
	first := s.article("first", blogmodels.StatusPublished)
	second := s.article("second", blogmodels.StatusDraft)
	s.backend.page = &blogmodels.ArticlePage{
		Data: []*blogmodels.Article{first, second},
		Meta: blogmodels.NewPageMeta(2, 1, 50),
	}

	app := s.loggedInApp("1\n")
	s.Require().NoError(app.Articles(s.ctx))

	s.Require().NoError(app.Delete(s.ctx))

	s.Require().Len(app.rows, 1)
	s.Equal("second", app.rows[0].Title)
	s.Equal(first.ID, s.backend.deletedID)
}

func (s *AppSuite) TestMutationsNeedAListingFirst() {
	app := s.loggedInApp("")

	s.Require().NoError(app.Delete(s.ctx))

	s.Contains(s.out.String(), "run 'articles' first")
}

func (s *AppSuite) TestTaxonomy() {
	s.backend.cats = []*blogmodels.Category{{Name: "Engineering", ArticlesCount: 4}}
	s.backend.tags = []*blogmodels.Tag{{Name: "Golang", ArticlesCount: 2}}
	app := s.loggedInApp("")

	s.Require().NoError(app.Taxonomy(s.ctx))

	s.Contains(s.out.String(), "Engineering (4 articles)")
	s.Contains(s.out.String(), "Golang (2 articles)")
}

func (s *AppSuite) TestWhoami() {
	s.Run("logged out", func() {
		app := s.newApp("")
		restorer := session.NewRestorer(s.store, s.backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
		restorer.Restore(s.ctx)

		s.Require().NoError(app.Whoami(s.ctx))
		s.Contains(s.out.String(), "not logged in")
	})

	s.Run("logged in", func() {
		s.SetupTest()
		app := s.loggedInApp("")

		s.Require().NoError(app.Whoami(s.ctx))
		s.Contains(s.out.String(), "ed@example.com")
	})
}

type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isLoggedIn() bool                 { return s.loggedIn }
func (s *stubExec) Login(context.Context) error      { return s.record("login") }
func (s *stubExec) Logout(context.Context) error     { return s.record("logout") }
func (s *stubExec) Whoami(context.Context) error     { return s.record("whoami") }
func (s *stubExec) Articles(context.Context) error   { return s.record("articles") }
func (s *stubExec) Publish(context.Context) error    { return s.record("publish") }
func (s *stubExec) Archive(context.Context) error    { return s.record("archive") }
func (s *stubExec) Delete(context.Context) error     { return s.record("delete") }
func (s *stubExec) Taxonomy(context.Context) error   { return s.record("taxonomy") }

func TestRunLoop(t *testing.T) {
	t.Run("dispatches commands and exits", func(t *testing.T) {
		stub := &stubExec{loggedIn: true}
		out := &bytes.Buffer{}
		input := "whoami\narticles\npublish\nexit\narticles\n"

		runLoop(context.Background(), stub, bufio.NewScanner(strings.NewReader(input)), out)

		want := []string{"whoami", "articles", "publish"}
		if len(stub.calls) != len(want) {
			t.Fatalf("calls = %v, want %v", stub.calls, want)
		}
		for i := range want {
			if stub.calls[i] != want[i] {
				t.Fatalf("calls = %v, want %v", stub.calls, want)
			}
		}
	})

	t.Run("gates editorial commands behind login", func(t *testing.T) {
		stub := &stubExec{loggedIn: false}
		out := &bytes.Buffer{}

		runLoop(context.Background(), stub, bufio.NewScanner(strings.NewReader("articles\ndelete\nexit\n")), out)

		if len(stub.calls) != 0 {
			t.Fatalf("gated commands dispatched: %v", stub.calls)
		}
		if !strings.Contains(out.String(), "log in first") {
			t.Fatalf("missing gate message in %q", out.String())
		}
	})

	t.Run("unknown command reported", func(t *testing.T) {
		stub := &stubExec{}
		out := &bytes.Buffer{}

		runLoop(context.Background(), stub, bufio.NewScanner(strings.NewReader("frobnicate\nexit\n")), out)

		if !strings.Contains(out.String(), "unknown command") {
			t.Fatalf("missing unknown-command message in %q", out.String())
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		stub := &stubExec{}
		out := &bytes.Buffer{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		runLoop(ctx, stub, bufio.NewScanner(strings.NewReader("whoami\nexit\n")), out)

		if len(stub.calls) != 0 {
			t.Fatalf("loop ran after cancellation: %v", stub.calls)
		}
	})
}
