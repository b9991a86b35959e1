package session

// State is the three-way gate every protected view branches on.
type State int

const (
	// StateLoading holds until restoration completes. Views render a
	// placeholder and must not guess at the outcome.
	StateLoading State = iota
	// StateUnauthenticated means restoration finished with no session.
	StateUnauthenticated
	// StateAuthenticated carries a fully-populated session.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "authenticated"
	}
}

// Resolution is the guard's verdict. Session is non-nil only when State is
// StateAuthenticated, and then it is always complete.
type Resolution struct {
	State   State
	Session *Session
}

// Guard derives the render state for protected views. It is a pure read of
// the store: no side effects, no failure modes of its own.
type Guard struct {
	store *Store
}

func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

func (g *Guard) Resolve() Resolution {
	if !g.store.Ready() {
		return Resolution{State: StateLoading}
	}
	sess := g.store.Read()
	if !sess.Complete() {
		return Resolution{State: StateUnauthenticated}
	}
	return Resolution{State: StateAuthenticated, Session: sess}
}
