package session

import (
	"context"
	"log/slog"

	authmodels "atelier/internal/auth/models"
)

// ProfileFetcher resolves the identity behind an access token, satisfied by
// the API client's profile call.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*authmodels.User, error)
}

// Restorer reconciles the persisted record with server truth once at
// startup. Well-formed records are accepted without a network call; a record
// that kept its token but lost its identity gets one profile-fetch repair;
// everything else is discarded.
type Restorer struct {
	store    *Store
	profiles ProfileFetcher
	logger   *slog.Logger
}

func NewRestorer(store *Store, profiles ProfileFetcher, logger *slog.Logger) *Restorer {
	return &Restorer{
		store:    store,
		profiles: profiles,
		logger:   logger,
	}
}

// Restore runs the restoration procedure. Every branch terminates by
// installing a session (possibly absent) and flipping readiness; readiness
// is never set before the terminal branch.
func (r *Restorer) Restore(ctx context.Context) {
	raw, ok, err := r.store.persisted.Read()
	if err != nil {
		r.logger.Warn("session read failed, starting logged out", "error", err)
		r.store.set(nil)
		return
	}
	if !ok {
		r.store.set(nil)
		return
	}

	sess, outcome := ParseRecord(raw)
	switch outcome {
	case OutcomeValid:
		// Fast path: no network call.
		r.store.set(sess)

	case OutcomeRepairable:
		r.repair(ctx, sess)

	default:
		r.logger.Warn("discarding malformed session record")
		r.discard()
	}
}

// repair completes a token-only record with a profile fetch. Any fetch
// failure, expired token included, discards the record; the user simply logs
// in again.
func (r *Restorer) repair(ctx context.Context, sess *Session) {
	user, err := r.profiles.FetchProfile(ctx, sess.AccessToken)
	if err != nil {
		r.logger.Warn("session repair failed, starting logged out", "error", err)
		r.discard()
		return
	}

	repaired := &Session{
		User:         user,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}

	r.store.mu.Lock()
	r.store.persist(repaired)
	r.store.mu.Unlock()
	r.store.set(repaired)
}

func (r *Restorer) discard() {
	if err := r.store.persisted.Delete(); err != nil {
		r.logger.Warn("session delete failed", "error", err)
	}
	r.store.set(nil)
}
