// Package session manages the client-side authenticated session: the
// in-memory value, its persisted mirror, startup restoration, and the
// three-state view gate derived from them.
package session

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
)

// Session is the client-held identity plus its bearer credentials. It is
// either fully absent or fully populated: User and AccessToken both set.
// RefreshToken is stored for a future renewal flow but never consumed.
type Session struct {
	User         *authmodels.User `json:"user,omitempty"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

// Complete reports whether the session can be exposed to consumers.
func (s *Session) Complete() bool {
	return s != nil && s.User != nil && s.User.ID != uuid.Nil && s.AccessToken != ""
}

// DisplayName renders a human label for the session owner. Identity records
// from older server versions may lack name fields; those collapse into one
// explicit unknown-user label instead of per-view fallbacks.
func (s *Session) DisplayName() string {
	if s == nil || s.User == nil {
		return "unknown user"
	}
	name := strings.TrimSpace(strings.TrimSpace(s.User.FirstName) + " " + strings.TrimSpace(s.User.LastName))
	if name != "" {
		return name
	}
	if s.User.Email != "" {
		return s.User.Email
	}
	return "unknown user"
}

// ParseOutcome tags the result of decoding a persisted record.
type ParseOutcome int

const (
	// OutcomeValid means user and access token are both present.
	OutcomeValid ParseOutcome = iota
	// OutcomeRepairable means a token survived but the identity did not;
	// the record can be completed with one profile fetch.
	OutcomeRepairable
	// OutcomeMalformed means the record is corrupt or carries nothing
	// usable and must be discarded.
	OutcomeMalformed
)

// ParseRecord decodes a raw persisted record into a tagged result. Callers
// branch on the outcome instead of probing optional fields.
func ParseRecord(raw []byte) (*Session, ParseOutcome) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, OutcomeMalformed
	}
	switch {
	case s.Complete():
		return &s, OutcomeValid
	case s.AccessToken != "":
		return &s, OutcomeRepairable
	default:
		return nil, OutcomeMalformed
	}
}
