package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lunagrove/landingforge/internal/generation/pubsub"
	"github.com/lunagrove/landingforge/internal/platform/id"
)

// StateChange is published to session subscribers on every state update.
type StateChange struct {
	SessionID   string
	State       State
	Progress    int
	Message     string
	ErrorDetail string
	OccurredAt  time.Time
}

// KeepProgress passed as Update.Progress leaves the current progress value
// untouched. The zero value behaves the same way, so Update{} is a pure
// state change.
const KeepProgress = 0

// Update carries the optional fields of a state change.
type Update struct {
	Progress    int // 0 (KeepProgress) leaves the current value
	Message     string
	ErrorDetail string
}

// Session is the mutable record of one generation, tracked from creation to
// a terminal outcome. All access is guarded; the orchestrator is the only
// writer, while transport-layer readers may snapshot concurrently.
type Session struct {
	mu sync.Mutex

	id      string
	ownerID int64

	state     State
	progress  int
	createdAt time.Time
	updatedAt time.Time
	lastError string

	analysis    *Analysis
	reference   *Reference
	palette     Palette
	assets      map[string]Asset
	assetOrder  []string
	sounds      []Sound
	markup      string
	archivePath string
	previewPath string

	events *pubsub.Broker[StateChange]
	clock  func() time.Time
}

// NewSession creates an IDLE session owned by ownerID. The now and
// idGenerator arguments default to time.Now and the platform id generator.
func NewSession(ownerID int64, now func() time.Time, idGenerator func() (string, error)) (*Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("owner id must be positive, got %d", ownerID)
	}

	sessionID, err := idGenerator()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return &Session{
		id:        sessionID,
		ownerID:   ownerID,
		state:     StateIdle,
		createdAt: createdAt,
		updatedAt: createdAt,
		assets:    make(map[string]Asset),
		events:    pubsub.NewBroker[StateChange](),
		clock:     now,
	}, nil
}

// ID returns the immutable session identifier.
func (s *Session) ID() string { return s.id }

// OwnerID returns the requesting principal's identifier.
func (s *Session) OwnerID() int64 { return s.ownerID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the current progress in the 0–100 range.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// LastError returns the error detail recorded on transition to ERROR.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the time of the last state change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SetState transitions the session and publishes a StateChange to all
// subscribers. Progress never decreases; COMPLETE forces progress 100 and
// ERROR records the update's error detail.
func (s *Session) SetState(state State, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return ErrSessionTerminal
	}
	if !CanTransition(s.state, state) {
		return ErrInvalidStateTransition
	}

	progress := s.progress
	if update.Progress > KeepProgress {
		if update.Progress < s.progress || update.Progress > 100 {
			return ErrInvalidStateTransition
		}
		progress = update.Progress
	}
	if state == StateComplete {
		progress = 100
	}

	s.state = state
	s.progress = progress
	s.updatedAt = s.clock().UTC()
	if state == StateError {
		s.lastError = update.ErrorDetail
	}

	s.events.Publish(StateChange{
		SessionID:   s.id,
		State:       state,
		Progress:    progress,
		Message:     update.Message,
		ErrorDetail: s.lastError,
		OccurredAt:  s.updatedAt,
	})
	return nil
}

// Subscribe returns a channel of future state changes. The subscription ends
// when ctx is cancelled or the session is evicted from the registry.
func (s *Session) Subscribe(ctx context.Context) <-chan StateChange {
	return s.events.Subscribe(ctx)
}

// CloseEvents shuts down the session's event broker. Called on registry
// eviction; safe to call more than once.
func (s *Session) CloseEvents() {
	s.events.Close()
}

// SetAnalysis stores the analysis phase output.
func (s *Session) SetAnalysis(analysis Analysis) error {
	return s.mutate(func() { s.analysis = &analysis })
}

// Analysis returns the stored analysis, or a zero value before the phase ran.
func (s *Session) Analysis() (Analysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysis == nil {
		return Analysis{}, false
	}
	return *s.analysis, true
}

// SetReference stores the fetched reference image.
func (s *Session) SetReference(reference Reference) error {
	return s.mutate(func() { s.reference = &reference })
}

// Reference returns the stored reference image, if any.
func (s *Session) Reference() (Reference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reference == nil {
		return Reference{}, false
	}
	return *s.reference, true
}

// SetPalette stores the resolved palette.
func (s *Session) SetPalette(palette Palette) error {
	return s.mutate(func() { s.palette = palette })
}

// Palette returns the resolved palette.
func (s *Session) Palette() Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette
}

// PutAsset stores or overwrites one generated asset keyed by Asset.Key.
// First insertion order is preserved for deterministic downstream output.
func (s *Session) PutAsset(asset Asset) error {
	return s.mutate(func() {
		if _, exists := s.assets[asset.Key]; !exists {
			s.assetOrder = append(s.assetOrder, asset.Key)
		}
		s.assets[asset.Key] = asset
	})
}

// Assets returns the accumulated assets in insertion order.
func (s *Session) Assets() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Asset, 0, len(s.assetOrder))
	for _, key := range s.assetOrder {
		out = append(out, s.assets[key])
	}
	return out
}

// SetSounds stores the session's sound set.
func (s *Session) SetSounds(sounds []Sound) error {
	return s.mutate(func() { s.sounds = append([]Sound(nil), sounds...) })
}

// Sounds returns the session's sound set.
func (s *Session) Sounds() []Sound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sound(nil), s.sounds...)
}

// SetMarkup stores the generated markup document.
func (s *Session) SetMarkup(markup string) error {
	return s.mutate(func() { s.markup = markup })
}

// Markup returns the generated markup document.
func (s *Session) Markup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markup
}

// SetArtifacts stores the assembled archive and preview locations.
func (s *Session) SetArtifacts(archivePath, previewPath string) error {
	return s.mutate(func() {
		s.archivePath = archivePath
		s.previewPath = previewPath
	})
}

// Artifacts returns the assembled archive and preview locations.
func (s *Session) Artifacts() (archivePath, previewPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archivePath, s.previewPath
}

// mutate applies fn under the session lock unless the session is terminal.
func (s *Session) mutate(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return ErrSessionTerminal
	}
	fn()
	return nil
}
