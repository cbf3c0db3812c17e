package turn

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/lang"
	"github.com/speak2fill/speak2fill/internal/store"
)

// saveAttempts bounds internal retries when Save reports a revision
// conflict. Conflicts under the per-session lock mean an out-of-band writer;
// each retry re-runs the full load -> decide cycle against fresh state.
const saveAttempts = 3

// SessionStore is the persistence surface the turn flow needs. Satisfied
// by *store.Store; tests may substitute any implementation that honors the
// store package's ErrNotFound/ErrConflict sentinels.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*form.Session, error)
	Save(ctx context.Context, sess *form.Session) error
	AppendMessage(ctx context.Context, sessionID, role, text string) error
}

// Service wires the processor, composer and store into the per-request
// turn flow. Construct once at service start and share across requests.
type Service struct {
	store           SessionStore
	processor       *Processor
	composer        *Composer
	locks           *sessionLocks
	defaultLanguage string
	logger          *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProcessor overrides the default Processor.
func WithProcessor(p *Processor) ServiceOption {
	return func(s *Service) {
		s.processor = p
	}
}

// WithComposer overrides the default Composer.
func WithComposer(c *Composer) ServiceOption {
	return func(s *Service) {
		s.composer = c
	}
}

// WithDefaultLanguage sets the fallback language for sessions without a
// sticky language.
func WithDefaultLanguage(code string) ServiceOption {
	return func(s *Service) {
		if code != "" {
			s.defaultLanguage = code
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a turn Service backed by the given store.
func NewService(st SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:           st,
		processor:       NewProcessor(),
		composer:        NewComposer(),
		locks:           newSessionLocks(),
		defaultLanguage: lang.DefaultLanguage,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleTurn processes one conversational turn for a session.
//
// Holds the session's lock across load -> decide -> persist. The session
// is mutated on a clone, so any failure before a successful save leaves
// stored state exactly as loaded. The message log is appended best-effort
// after the state is durable; it is never read by decision logic.
func (s *Service) HandleTurn(ctx context.Context, sessionID string, ev Event) (Reply, error) {
	if ev.Kind == "" {
		ev.Kind = EventUserSpoke
	}
	if ev.Kind == EventUserSpoke && strings.TrimSpace(ev.Text) == "" {
		return Reply{}, NewInvalidUserTextError(sessionID)
	}

	unlock := s.locks.acquire(sessionID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		reply, err := s.runTurn(ctx, sessionID, ev)
		if errors.Is(err, store.ErrConflict) {
			s.logger.Warn("session save conflicted, retrying turn",
				"session_id", sessionID, "attempt", attempt+1)
			lastErr = err
			continue
		}
		return reply, err
	}
	return Reply{}, NewStoreConflictError(sessionID, lastErr)
}

// Greet returns the opening instruction for a session without consuming a
// turn. A placeholder field at the front emits its write guide immediately,
// which moves the session to AWAIT_CONFIRMATION and is persisted.
func (s *Service) Greet(ctx context.Context, sessionID string) (Reply, error) {
	unlock := s.locks.acquire(sessionID)
	defer unlock()

	loaded, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Reply{}, NewSessionNotFoundError(sessionID, err)
		}
		return Reply{}, err
	}

	sess := loaded.Clone()
	langCode, _ := lang.Resolve(sess.DetectedLanguage, "", s.defaultLanguage)

	outcome := s.processor.enterCurrentField(sess)

	if sessionMutated(loaded, sess) {
		if err := s.store.Save(ctx, sess); err != nil {
			return Reply{}, err
		}
	}

	reply := s.composer.Compose(ctx, sess, outcome, langCode)

	if err := s.store.AppendMessage(ctx, sessionID, form.RoleAssistant, reply.AssistantText); err != nil {
		s.logger.Warn("append assistant message failed", "session_id", sessionID, "error", err)
	}

	return reply, nil
}

// runTurn is one load -> decide -> persist cycle.
// Returns store.ErrConflict unwrapped so HandleTurn can retry.
func (s *Service) runTurn(ctx context.Context, sessionID string, ev Event) (Reply, error) {
	loaded, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Reply{}, NewSessionNotFoundError(sessionID, err)
		}
		return Reply{}, err
	}

	sess := loaded.Clone()

	langCode, persist := lang.Resolve(sess.DetectedLanguage, ev.DetectedLanguage, s.defaultLanguage)
	if persist {
		sess.DetectedLanguage = langCode
	}

	outcome, err := s.processor.Process(ctx, sess, ev)
	if err != nil {
		return Reply{}, err
	}

	if sessionMutated(loaded, sess) {
		if err := s.store.Save(ctx, sess); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Reply{}, NewSessionNotFoundError(sessionID, err)
			}
			return Reply{}, err
		}
	}

	reply := s.composer.Compose(ctx, sess, outcome, langCode)

	s.logTurn(ctx, sessionID, ev, reply)

	return reply, nil
}

// sessionMutated reports whether the decision changed persistent state.
// Collected values are only ever added, so a length comparison suffices.
func sessionMutated(before, after *form.Session) bool {
	return before.CurrentFieldIndex != after.CurrentFieldIndex ||
		before.Phase != after.Phase ||
		before.DetectedLanguage != after.DetectedLanguage ||
		len(before.CollectedValues) != len(after.CollectedValues)
}

// logTurn appends the turn to the session's audit log. Best-effort: a log
// failure never fails the turn.
func (s *Service) logTurn(ctx context.Context, sessionID string, ev Event, reply Reply) {
	userText := ev.Text
	if userText == "" {
		userText = string(ev.Kind)
	}
	if err := s.store.AppendMessage(ctx, sessionID, form.RoleUser, userText); err != nil {
		s.logger.Warn("append user message failed", "session_id", sessionID, "error", err)
	}
	if err := s.store.AppendMessage(ctx, sessionID, form.RoleAssistant, reply.AssistantText); err != nil {
		s.logger.Warn("append assistant message failed", "session_id", sessionID, "error", err)
	}
}
