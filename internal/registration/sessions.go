package registration

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	form     *Form
	lastUsed time.Time
}

// Sessions tracks open registration forms by id. A session counts as
// used whenever it is opened or looked up; Expire ends the ones left
// idle.
type Sessions struct {
	newForm func() *Form
	now     func() time.Time

	mu    sync.Mutex
	forms map[string]*session
}

// SessionsOption configures a Sessions store.
type SessionsOption func(*Sessions)

// WithSessionClock replaces time.Now as the source of last-use times.
func WithSessionClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) { s.now = now }
}

// NewSessions returns an empty store that opens forms with newForm.
func NewSessions(newForm func() *Form, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		newForm: newForm,
		now:     time.Now,
		forms:   make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a new form session and returns its id.
func (s *Sessions) Open() (string, *Form) {
	id := uuid.NewString()
	f := s.newForm()

	s.mu.Lock()
	s.forms[id] = &session{form: f, lastUsed: s.now()}
	s.mu.Unlock()

	return id, f
}

func (s *Sessions) Get(id string) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.forms[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess.form, nil
}

// Discard closes a session, releasing its previews, and forgets it.
func (s *Sessions) Discard(id string) error {
	s.mu.Lock()
	sess, ok := s.forms[id]
	delete(s.forms, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return sess.form.Close()
}

// Expire discards every session not used for longer than maxIdle and
// returns their ids. A session whose submit is still running is kept.
func (s *Sessions) Expire(maxIdle time.Duration) []string {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var (
		ids   []string
		forms []*Form
	)
	for id, sess := range s.forms {
		if !sess.lastUsed.Before(cutoff) || sess.form.State() == StateSubmitting {
			continue
		}
		ids = append(ids, id)
		forms = append(forms, sess.form)
		delete(s.forms, id)
	}
	s.mu.Unlock()

	for _, f := range forms {
		_ = f.Close()
	}
	return ids
}

// CloseAll discards every open session. Used on shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	forms := s.forms
	s.forms = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range forms {
		_ = sess.form.Close()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}
