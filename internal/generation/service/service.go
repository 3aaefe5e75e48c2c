// Package service exposes the generation use cases a transport layer calls:
// starting a run, reading session status, streaming state changes, and
// listing an owner's past landings.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/lunagrove/landingforge/internal/generation/domain"
	"github.com/lunagrove/landingforge/internal/generation/orchestrator"
	"github.com/lunagrove/landingforge/internal/generation/registry"
	"github.com/lunagrove/landingforge/internal/generation/storage"
	"github.com/lunagrove/landingforge/internal/pathsafe"
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

// SessionView is the transport-facing snapshot of a session, served from the
// live registry when the session is in flight and from the store afterwards.
type SessionView struct {
	ID          string
	OwnerID     int64
	State       domain.State
	Progress    int
	ErrorDetail string
	ArchivePath string
	PreviewPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service wires the registry, orchestrator, and store into the public
// generation operations.
type Service struct {
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	store        storage.SessionStore
}

// New creates a Service. The store may be nil, in which case terminal
// sessions are only retrievable until registry eviction.
func New(reg *registry.Registry, orch *orchestrator.Orchestrator, store storage.SessionStore) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if orch == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	return &Service{
		registry:     reg,
		orchestrator: orch,
		store:        store,
	}, nil
}

// StartGeneration creates a session, runs the full pipeline synchronously,
// and returns the run result. Whatever the outcome, the terminal session is
// persisted best-effort and its registry entry switched to retention TTL so
// memory is reclaimed.
func (s *Service) StartGeneration(ctx context.Context, ownerID int64, req orchestrator.Request) (*domain.Session, orchestrator.Result, error) {
	if !pathsafe.ValidOwnerID(ownerID) {
		return nil, orchestrator.Result{}, errors.New(errors.CodeInvalidOwnerID, "malformed owner id")
	}

	session, err := s.registry.Create(ownerID)
	if err != nil {
		return nil, orchestrator.Result{}, err
	}
	log.Printf("generation started session_id=%s owner_id=%d", session.ID(), ownerID)

	result, runErr := s.orchestrator.Run(ctx, session, req)

	s.persistTerminal(ctx, session)
	s.registry.Expire(session.ID())

	if runErr != nil {
		return session, orchestrator.Result{}, runErr
	}
	return session, result, nil
}

// GetSession resolves a session snapshot, preferring the live registry and
// falling back to the durable store for evicted sessions.
func (s *Service) GetSession(ctx context.Context, sessionID string) (SessionView, error) {
	if !pathsafe.ValidSessionID(sessionID) {
		return SessionView{}, errors.New(errors.CodeInvalidSessionID, "malformed session id")
	}

	if session, err := s.registry.Get(sessionID); err == nil {
		return snapshotSession(session), nil
	}

	if s.store == nil {
		return SessionView{}, registry.ErrNotFound
	}
	record, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return SessionView{}, registry.ErrNotFound
		}
		return SessionView{}, err
	}
	return viewFromRecord(record), nil
}

// WatchSession subscribes to a live session's state changes. Only sessions
// still present in the registry can be watched.
func (s *Service) WatchSession(ctx context.Context, sessionID string) (<-chan domain.StateChange, error) {
	if !pathsafe.ValidSessionID(sessionID) {
		return nil, errors.New(errors.CodeInvalidSessionID, "malformed session id")
	}
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Subscribe(ctx), nil
}

// ListSessions returns an owner's persisted sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, ownerID int64, limit int) ([]SessionView, error) {
	if !pathsafe.ValidOwnerID(ownerID) {
		return nil, errors.New(errors.CodeInvalidOwnerID, "malformed owner id")
	}
	if s.store == nil {
		return nil, nil
	}

	records, err := s.store.ListSessionsByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(records))
	for _, record := range records {
		views = append(views, viewFromRecord(record))
	}
	return views, nil
}

// persistTerminal writes the session's terminal snapshot to the store.
// Persistence failure never fails the run; it is logged and the result stays
// available through the registry until retention expires.
func (s *Service) persistTerminal(ctx context.Context, session *domain.Session) {
	if s.store == nil {
		return
	}

	record := recordFromSession(session)
	if err := s.store.PutSession(ctx, record); err != nil {
		log.Printf("session persistence failed session_id=%s err=%v", session.ID(), err)
	}
}

func recordFromSession(session *domain.Session) storage.SessionRecord {
	archivePath, previewPath := session.Artifacts()
	record := storage.SessionRecord{
		ID:          session.ID(),
		OwnerID:     session.OwnerID(),
		State:       string(session.State()),
		Progress:    session.Progress(),
		ErrorDetail: session.LastError(),
		ArchivePath: archivePath,
		PreviewPath: previewPath,
		CreatedAt:   session.CreatedAt(),
		UpdatedAt:   session.UpdatedAt(),
	}
	if analysis, ok := session.Analysis(); ok {
		record.Mechanic = analysis.MechanicName()
		record.Theme = analysis.Theme
		record.Language = analysis.Language
	}
	return record
}

func snapshotSession(session *domain.Session) SessionView {
	archivePath, previewPath := session.Artifacts()
	return SessionView{
		ID:          session.ID(),
		OwnerID:     session.OwnerID(),
		State:       session.State(),
		Progress:    session.Progress(),
		ErrorDetail: session.LastError(),
		ArchivePath: archivePath,
		PreviewPath: previewPath,
		CreatedAt:   session.CreatedAt(),
		UpdatedAt:   session.UpdatedAt(),
	}
}

func viewFromRecord(record storage.SessionRecord) SessionView {
	return SessionView{
		ID:          record.ID,
		OwnerID:     record.OwnerID,
		State:       domain.State(record.State),
		Progress:    record.Progress,
		ErrorDetail: record.ErrorDetail,
		ArchivePath: record.ArchivePath,
		PreviewPath: record.PreviewPath,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
