// Package cli is the interactive admin console for the content service. It
// signs in against the API, keeps the session alive across runs through the
// session store, and lets editors manage articles from a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	authmodels "atelier/internal/auth/models"
	blogmodels "atelier/internal/blog/models"
	apiclient "atelier/internal/client/api"
	"atelier/internal/client/listsync"
	"atelier/internal/client/session"
)

// Backend is the API surface the console uses.
type Backend interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
	FetchProfile(ctx context.Context, accessToken string) (*authmodels.User, error)
	ListArticles(ctx context.Context, filter blogmodels.ListFilter) (*blogmodels.ArticlePage, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, req blogmodels.UpdateArticleRequest) (*blogmodels.Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*blogmodels.Category, error)
	ListTags(ctx context.Context) ([]*blogmodels.Tag, error)
}

// articleRow adapts an article to the list reconciliation helpers.
type articleRow struct {
	*blogmodels.Article
}

func (r articleRow) Key() string { return r.ID.String() }

type App struct {
	api     Backend
	session *session.Store
	guard   *session.Guard
	reader  *bufio.Reader
	out     io.Writer

	// rows is the last fetched article listing, kept consistent with
	// confirmed mutations without refetching.
	rows []articleRow
}

func NewApp(api Backend, store *session.Store, in io.Reader, out io.Writer) *App {
	return &App{
		api:     api,
		session: store,
		guard:   session.NewGuard(store),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.guard.Resolve().State == session.StateAuthenticated
}

// Login prompts for credentials and installs the returned session. Failures
// are printed, never fatal; the session is left untouched.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	result, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "login failed: %v\n", err)
		return nil
	}

	a.session.Login(session.Session{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
	fmt.Fprintf(a.out, "logged in as %s\n", a.session.Read().DisplayName())
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.session.Logout()
	a.rows = nil
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) Whoami(_ context.Context) error {
	res := a.guard.Resolve()
	switch res.State {
	case session.StateLoading:
		fmt.Fprintln(a.out, "session still restoring")
	case session.StateUnauthenticated:
		fmt.Fprintln(a.out, "not logged in")
	default:
		fmt.Fprintf(a.out, "%s <%s> (%s)\n",
			res.Session.DisplayName(), res.Session.User.Email, res.Session.User.Role)
	}
	return nil
}

// Articles fetches and prints the article listing. Late results are dropped
// when the context was cancelled while the request was in flight.
func (a *App) Articles(ctx context.Context) error {
	page, err := a.api.ListArticles(ctx, blogmodels.ListFilter{Limit: 50})
	if err != nil {
		fmt.Fprintf(a.out, "listing failed: %v\n", err)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	a.rows = make([]articleRow, 0, len(page.Data))
	for _, article := range page.Data {
		a.rows = append(a.rows, articleRow{article})
	}
	a.printRows()
	fmt.Fprintf(a.out, "page %d of %d (%d total)\n",
		page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
	return nil
}

// Publish flips the selected article to PUBLISHED and patches the cached row
// with the server's response.
func (a *App) Publish(ctx context.Context) error {
	return a.transition(ctx, blogmodels.StatusPublished)
}

// Archive flips the selected article to ARCHIVED.
func (a *App) Archive(ctx context.Context) error {
	return a.transition(ctx, blogmodels.StatusArchived)
}

func (a *App) transition(ctx context.Context, status blogmodels.ArticleStatus) error {
	row, err := a.pickRow()
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}

	updated, err := a.api.UpdateArticle(ctx, row.ID, blogmodels.UpdateArticleRequest{Status: &status})
	if err != nil {
		fmt.Fprintf(a.out, "update failed: %v\n", err)
		return nil
	}

	a.rows = listsync.PatchItem(a.rows, row.Key(), func(r articleRow) articleRow {
		return articleRow{updated}
	})
	fmt.Fprintf(a.out, "%s is now %s\n", updated.Title, updated.Status)
	a.printRows()
	return nil
}

// Delete removes the selected article and drops it from the cached listing.
func (a *App) Delete(ctx context.Context) error {
	row, err := a.pickRow()
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}

	if err := a.api.DeleteArticle(ctx, row.ID); err != nil {
		fmt.Fprintf(a.out, "delete failed: %v\n", err)
		return nil
	}

	a.rows = listsync.RemoveItem(a.rows, row.Key())
	fmt.Fprintf(a.out, "deleted %s\n", row.Title)
	a.printRows()
	return nil
}

// Taxonomy fetches categories and tags concurrently and prints both.
func (a *App) Taxonomy(ctx context.Context) error {
	var (
		cats []*blogmodels.Category
		tags []*blogmodels.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = a.api.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = a.api.ListTags(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(a.out, "taxonomy fetch failed: %v\n", err)
		return nil
	}

	fmt.Fprintln(a.out, "categories:")
	for _, c := range cats {
		fmt.Fprintf(a.out, "  %s (%d articles)\n", c.Name, c.ArticlesCount)
	}
	fmt.Fprintln(a.out, "tags:")
	for _, t := range tags {
		fmt.Fprintf(a.out, "  %s (%d articles)\n", t.Name, t.ArticlesCount)
	}
	return nil
}

// pickRow prompts for a listing index. A nil row with nil error means the
// selection was invalid and already reported.
func (a *App) pickRow() (*articleRow, error) {
	if len(a.rows) == 0 {
		fmt.Fprintln(a.out, "run 'articles' first")
		return nil, nil
	}
	raw, err := GetSimpleText(a.reader, "Article number", a.out)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > len(a.rows) {
		fmt.Fprintf(a.out, "pick a number between 1 and %d\n", len(a.rows))
		return nil, nil
	}
	return &a.rows[n-1], nil
}

func (a *App) printRows() {
	for i, row := range a.rows {
		fmt.Fprintf(a.out, "%3d. [%s] %s (%d views)\n", i+1, row.Status, row.Title, row.Views)
	}
}
