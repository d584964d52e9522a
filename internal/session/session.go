package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrMissingUID   = errors.New("session: user uid is required")
	ErrMissingEmail = errors.New("session: user email is required")
)

// Session is the signed-in user. The zero value is signed out.
type Session struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// SignedIn reports whether both fields are present.
func (s Session) SignedIn() bool {
	return s.UID != "" && s.Email != ""
}

// User is the input to SetUser, typically built from a verified auth token.
type User struct {
	UID   string
	Email string
}

// Validate checks that both fields are present.
func (u User) Validate() error {
	var errs []error
	if strings.TrimSpace(u.UID) == "" {
		errs = append(errs, ErrMissingUID)
	}
	if strings.TrimSpace(u.Email) == "" {
		errs = append(errs, ErrMissingEmail)
	}
	return errors.Join(errs...)
}

// State owns one Session. SetUser and ClearUser are the only mutators;
// observers registered with Subscribe see every change.
type State struct {
	mu        sync.RWMutex
	cur       Session
	observers map[int]func(Session)
	nextID    int

	log    *zap.Logger
	tracer trace.Tracer
}

type Option func(*State)

// WithLogger sets the logger that receives ClearUser diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *State) { s.log = l }
}

// WithSession starts the state from a previously persisted session.
func WithSession(sess Session) Option {
	return func(s *State) {
		if sess.SignedIn() {
			s.cur = sess
		}
	}
}

// NewState returns a signed-out state.
func NewState(opts ...Option) *State {
	s := &State{
		observers: map[int]func(Session){},
		log:       zap.NewNop(),
		tracer:    otel.Tracer("guffcircle/session"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Session returns the current snapshot.
func (s *State) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// SetUser replaces both fields with the user's. Invalid input leaves the
// state untouched.
func (s *State) SetUser(u User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = Session{UID: u.UID, Email: u.Email}
	snap := s.cur
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// ClearUser signs the state out.
func (s *State) ClearUser(ctx context.Context) {
	_, span := s.tracer.Start(ctx, "session.ClearUser")
	defer span.End()
	span.AddEvent("clearUser called", trace.WithStackTrace(true))
	s.log.Debug("clearUser called", zap.Stack("stack"))

	s.mu.Lock()
	s.cur = Session{}
	s.mu.Unlock()

	s.notify(Session{})
}

// Subscribe registers fn to run after every mutation. The returned func
// removes it.
func (s *State) Subscribe(fn func(Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *State) notify(snap Session) {
	s.mu.RLock()
	fns := make([]func(Session), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s Session) String() string {
	if !s.SignedIn() {
		return "signed-out"
	}
	return fmt.Sprintf("signed-in(%s)", s.UID)
}
