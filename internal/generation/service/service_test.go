package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lunagrove/landingforge/internal/assembly"
	"github.com/lunagrove/landingforge/internal/generation/collab"
	"github.com/lunagrove/landingforge/internal/generation/domain"
	"github.com/lunagrove/landingforge/internal/generation/orchestrator"
	"github.com/lunagrove/landingforge/internal/generation/registry"
	"github.com/lunagrove/landingforge/internal/generation/storage"
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

type fakeAnalyzer struct {
	analysis domain.Analysis
	err      error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, _ []byte) (domain.Analysis, error) {
	return f.analysis, f.err
}

type fakeImageGenerator struct{}

func (fakeImageGenerator) GenerateImage(_ context.Context, prompt string, _ string) (collab.GeneratedImage, error) {
	return collab.GeneratedImage{Data: []byte("\x89PNG" + prompt)}, nil
}

type fakeCodeGenerator struct{}

func (fakeCodeGenerator) GenerateMarkup(_ context.Context, _ domain.Analysis, _ map[string]string, _ domain.Palette) (string, error) {
	return `<img src="{{asset:wheel}}">`, nil
}

// memoryStore is an in-memory SessionStore for service tests.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]storage.SessionRecord
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]storage.SessionRecord)}
}

func (m *memoryStore) PutSession(_ context.Context, record storage.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records[record.ID] = record
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, sessionID string) (storage.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[sessionID]
	if !ok {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memoryStore) ListSessionsByOwner(_ context.Context, ownerID int64, _ int) ([]storage.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.SessionRecord
	for _, record := range m.records {
		if record.OwnerID == ownerID {
			out = append(out, record)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, set collab.Set, store storage.SessionStore) (*Service, *registry.Registry) {
	t.Helper()

	asm, err := assembly.New(assembly.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("assembly.New() error = %v", err)
	}
	orch, err := orchestrator.New(set, asm)
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	reg := registry.New(time.Minute, time.Minute)
	svc, err := New(reg, orch, store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, reg
}

func workingSet() collab.Set {
	return collab.Set{
		Analyzer:       &fakeAnalyzer{analysis: domain.Analysis{MechanicType: domain.MechanicWheel, Theme: "fruit", Language: "en"}},
		ImageGenerator: fakeImageGenerator{},
		CodeGenerator:  fakeCodeGenerator{},
	}
}

func TestStartGenerationPersistsTerminalSession(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(t, workingSet(), store)

	session, result, err := svc.StartGeneration(context.Background(), 11, orchestrator.Request{Prompt: "spin to win"})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}
	if session.State() != domain.StateComplete {
		t.Fatalf("state = %v, want COMPLETE", session.State())
	}
	if result.ArchivePath == "" {
		t.Fatal("result missing archive path")
	}

	record, err := store.GetSession(context.Background(), session.ID())
	if err != nil {
		t.Fatalf("persisted record missing: %v", err)
	}
	if record.State != string(domain.StateComplete) {
		t.Fatalf("record state = %q, want COMPLETE", record.State)
	}
	if record.Progress != 100 {
		t.Fatalf("record progress = %d, want 100", record.Progress)
	}
	if record.Mechanic != "wheel" || record.Theme != "fruit" {
		t.Fatalf("record analysis fields = %q/%q", record.Mechanic, record.Theme)
	}
	if record.ArchivePath != result.ArchivePath {
		t.Fatalf("record archive = %q, want %q", record.ArchivePath, result.ArchivePath)
	}
}

func TestStartGenerationPersistsFailedSession(t *testing.T) {
	store := newMemoryStore()
	set := workingSet()
	set.Analyzer = &fakeAnalyzer{err: fmt.Errorf("model unavailable")}
	svc, _ := newTestService(t, set, store)

	session, _, err := svc.StartGeneration(context.Background(), 11, orchestrator.Request{Prompt: "spin"})
	if got := errors.CodeOf(err); got != errors.CodeAnalysisFailed {
		t.Fatalf("code = %v, want %v", got, errors.CodeAnalysisFailed)
	}

	record, getErr := store.GetSession(context.Background(), session.ID())
	if getErr != nil {
		t.Fatalf("failed run must still be persisted: %v", getErr)
	}
	if record.State != string(domain.StateError) {
		t.Fatalf("record state = %q, want ERROR", record.State)
	}
	if record.ErrorDetail == "" {
		t.Fatal("record missing error detail")
	}
}

func TestStartGenerationSurvivesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.putErr = fmt.Errorf("disk full")
	svc, _ := newTestService(t, workingSet(), store)

	session, _, err := svc.StartGeneration(context.Background(), 11, orchestrator.Request{Prompt: "spin"})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v, persistence failure must not fail the run", err)
	}
	if session.State() != domain.StateComplete {
		t.Fatalf("state = %v, want COMPLETE", session.State())
	}
}

func TestStartGenerationRejectsInvalidOwner(t *testing.T) {
	svc, reg := newTestService(t, workingSet(), newMemoryStore())

	_, _, err := svc.StartGeneration(context.Background(), 0, orchestrator.Request{Prompt: "spin"})
	if got := errors.CodeOf(err); got != errors.CodeInvalidOwnerID {
		t.Fatalf("code = %v, want %v", got, errors.CodeInvalidOwnerID)
	}
	if reg.Len() != 0 {
		t.Fatalf("registry len = %d, no session may be created for invalid owner", reg.Len())
	}
}

func TestGetSessionPrefersRegistry(t *testing.T) {
	store := newMemoryStore()
	svc, reg := newTestService(t, workingSet(), store)

	session, _, err := svc.StartGeneration(context.Background(), 11, orchestrator.Request{Prompt: "spin"})
	if err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	view, err := svc.GetSession(context.Background(), session.ID())
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if view.State != domain.StateComplete || view.Progress != 100 {
		t.Fatalf("view = %+v", view)
	}

	// After registry eviction the durable record serves the lookup.
	reg.Delete(session.ID())
	view, err = svc.GetSession(context.Background(), session.ID())
	if err != nil {
		t.Fatalf("GetSession() after eviction error = %v", err)
	}
	if view.State != domain.StateComplete {
		t.Fatalf("evicted view state = %v, want COMPLETE", view.State)
	}
}

func TestGetSessionUnknownID(t *testing.T) {
	svc, _ := newTestService(t, workingSet(), newMemoryStore())

	_, err := svc.GetSession(context.Background(), "never-created")
	if got := errors.CodeOf(err); got != errors.CodeNotFound {
		t.Fatalf("code = %v, want %v", got, errors.CodeNotFound)
	}
}

func TestGetSessionMalformedID(t *testing.T) {
	svc, _ := newTestService(t, workingSet(), newMemoryStore())

	_, err := svc.GetSession(context.Background(), "../../etc/passwd")
	if got := errors.CodeOf(err); got != errors.CodeInvalidSessionID {
		t.Fatalf("code = %v, want %v", got, errors.CodeInvalidSessionID)
	}
}

func TestWatchSessionStreamsChanges(t *testing.T) {
	svc, reg := newTestService(t, workingSet(), newMemoryStore())

	session, err := reg.Create(11)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := svc.WatchSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("WatchSession() error = %v", err)
	}

	if err := session.SetState(domain.StateAnalyzing, domain.Update{Progress: 5}); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	select {
	case change := <-changes:
		if change.State != domain.StateAnalyzing || change.Progress != 5 {
			t.Fatalf("change = %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state change")
	}
}

func TestListSessionsByOwner(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(t, workingSet(), store)

	if _, _, err := svc.StartGeneration(context.Background(), 11, orchestrator.Request{Prompt: "spin"}); err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}
	if _, _, err := svc.StartGeneration(context.Background(), 12, orchestrator.Request{Prompt: "boxes"}); err != nil {
		t.Fatalf("StartGeneration() error = %v", err)
	}

	views, err := svc.ListSessions(context.Background(), 11, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len(views) = %d, want 1", len(views))
	}
	if views[0].OwnerID != 11 {
		t.Fatalf("owner = %d, want 11", views[0].OwnerID)
	}
}
