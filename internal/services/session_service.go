package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
	"github.com/google/uuid"
)

// SessionService keeps the open marksheet forms. Events on one session are
// applied one at a time; different sessions proceed independently.
type SessionService interface {
	Create(ctx context.Context) (*SessionResponse, error)
	Get(ctx context.Context, id string) (*SessionResponse, error)
	Delete(ctx context.Context, id string) error

	SetMeta(ctx context.Context, id string, meta marksheet.StudentMeta) (*SessionResponse, error)
	AddSubject(ctx context.Context, id string) (*SessionResponse, error)
	RemoveSubject(ctx context.Context, id string, index int) (*SessionResponse, error)
	EditSubject(ctx context.Context, id string, index int, req *EditSubjectRequest) (*SessionResponse, error)
	BlurSubject(ctx context.Context, id string, index int, req *BlurSubjectRequest) (*SessionResponse, error)
	Import(ctx context.Context, id string, req *ImportSessionRequest) (*SessionResponse, error)
	Reset(ctx context.Context, id string) (*SessionResponse, error)
	Submit(ctx context.Context, id string) (*SubmitResponse, error)

	// PurgeIdle drops sessions unused since before the cutoff and returns
	// how many were dropped.
	PurgeIdle(cutoff time.Time) int
	// Run purges idle sessions until ctx is done.
	Run(ctx context.Context)
	Count() int
}

// ===== REQUEST / RESPONSE TYPES =====

type EditSubjectRequest struct {
	Field string `json:"field" validate:"required,subject_field"`
	Value string `json:"value"`
}

type BlurSubjectRequest struct {
	Field string `json:"field" validate:"required,subject_field"`
}

// ImportSessionRequest fills a session from externally parsed data. Student
// is optional; Subjects replaces the whole list.
type ImportSessionRequest struct {
	Student  *marksheet.StudentMeta  `json:"student,omitempty"`
	Subjects []marksheet.ImportRecord `json:"subjects" validate:"dive"`
}

type SessionResponse struct {
	ID string `json:"id"`
	marksheet.Snapshot
}

type SubmitResponse struct {
	ID string `json:"id"`
	marksheet.SubmitOutcome
}

type SessionConfig struct {
	Bounds         *marksheet.Bounds
	SubmitFallback time.Duration
	IdleTimeout    time.Duration
}

// DefaultSessionIdleTimeout applies when SessionConfig.IdleTimeout is not set.
const DefaultSessionIdleTimeout = 2 * time.Hour

type sessionEntry struct {
	mu       sync.Mutex
	session  *marksheet.Session
	lastUsed time.Time
}

type sessionService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	transport     marksheet.Transport
	notifications NotificationEventService
	config        SessionConfig
	logger        *slog.Logger
	validator     *validator.Validator
	serviceLogger *ServiceLogger
	now           func() time.Time
}

func NewSessionService(
	transport marksheet.Transport,
	notifications NotificationEventService,
	config SessionConfig,
	logger *slog.Logger,
	validator *validator.Validator,
) SessionService {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultSessionIdleTimeout
	}
	return &sessionService{
		sessions:      make(map[string]*sessionEntry),
		transport:     transport,
		notifications: notifications,
		config:        config,
		logger:        logger,
		validator:     validator,
		serviceLogger: NewServiceLogger(logger, LogConfig{Service: "marksheet-service", Component: "session"}),
		now:           time.Now,
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Create(ctx context.Context) (*SessionResponse, error) {
	id := uuid.NewString()
	session := marksheet.NewSession(marksheet.Options{
		Bounds:         s.config.Bounds,
		Notifier:       s.notifications.SessionNotifier(id),
		Transport:      s.transport,
		SubmitFallback: s.config.SubmitFallback,
	})

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: session, lastUsed: s.now()}
	s.mu.Unlock()

	s.logger.Info("Form session created", "session_id", id)
	return &SessionResponse{ID: id, Snapshot: session.Snapshot()}, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionResponse, error) {
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.Snapshot(), nil
	})
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	entry.mu.Lock()
	entry.session.Close()
	entry.mu.Unlock()

	s.logger.Info("Form session closed", "session_id", id)
	return nil
}

func (s *sessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionService) PurgeIdle(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*sessionEntry
	for id, entry := range s.sessions {
		entry.mu.Lock()
		stale := entry.lastUsed.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			idle = append(idle, entry)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range idle {
		entry.mu.Lock()
		entry.session.Close()
		entry.mu.Unlock()
	}
	return len(idle)
}

func (s *sessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PurgeIdle(s.now().Add(-s.config.IdleTimeout)); n > 0 {
				s.logger.Info("Purged idle form sessions", "count", n)
			}
		}
	}
}

// ===== FORM EVENTS =====

func (s *sessionService) SetMeta(ctx context.Context, id string, meta marksheet.StudentMeta) (*SessionResponse, error) {
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.SetMeta(meta), nil
	})
}

func (s *sessionService) AddSubject(ctx context.Context, id string) (*SessionResponse, error) {
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.AddSubject(ctx), nil
	})
}

func (s *sessionService) RemoveSubject(ctx context.Context, id string, index int) (*SessionResponse, error) {
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.RemoveSubject(ctx, index)
	})
}

func (s *sessionService) EditSubject(ctx context.Context, id string, index int, req *EditSubjectRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.EditSubject(ctx, index, marksheet.SubjectField(req.Field), req.Value)
	})
}

func (s *sessionService) BlurSubject(ctx context.Context, id string, index int, req *BlurSubjectRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.BlurSubject(ctx, index, marksheet.SubjectField(req.Field))
	})
}

func (s *sessionService) Import(ctx context.Context, id string, req *ImportSessionRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.Import(ctx, req.Student, req.Subjects), nil
	})
}

func (s *sessionService) Reset(ctx context.Context, id string) (*SessionResponse, error) {
	return s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		return session.Reset(ctx), nil
	})
}

// Submit runs the form submission. A blocked submission still returns the
// outcome along with the error so callers can render the flags.
func (s *sessionService) Submit(ctx context.Context, id string) (*SubmitResponse, error) {
	op := s.serviceLogger.WithOperation(ctx, "submit_form", actorFromContext(ctx))

	var outcome marksheet.SubmitOutcome
	_, err := s.apply(id, func(session *marksheet.Session) (marksheet.Snapshot, error) {
		var err error
		outcome, err = session.Submit(ctx)
		return outcome.Snapshot, err
	})
	op.LogResult(id, "session", err)

	if IsNotFound(err) {
		return nil, err
	}
	return &SubmitResponse{ID: id, SubmitOutcome: outcome}, err
}

// apply runs fn with the session locked and returns the resulting snapshot.
// The snapshot is returned together with fn's error.
func (s *sessionService) apply(id string, fn func(*marksheet.Session) (marksheet.Snapshot, error)) (*SessionResponse, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastUsed = s.now()
	snapshot, err := fn(entry.session)
	return &SessionResponse{ID: id, Snapshot: snapshot}, err
}
