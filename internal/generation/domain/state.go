package domain

import (
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

// State describes the lifecycle phase of a generation session.
type State string

const (
	// StateIdle is the initial state of a freshly created session.
	StateIdle State = "IDLE"
	// StateAnalyzing covers prompt/reference analysis.
	StateAnalyzing State = "ANALYZING"
	// StateFetchingReference covers the optional branded-reference lookup.
	StateFetchingReference State = "FETCHING_REFERENCE"
	// StateExtractingPalette covers color extraction from the reference image.
	StateExtractingPalette State = "EXTRACTING_PALETTE"
	// StateGeneratingAssets covers per-descriptor image generation.
	StateGeneratingAssets State = "GENERATING_ASSETS"
	// StateRemovingBackgrounds covers transparency post-processing.
	StateRemovingBackgrounds State = "REMOVING_BACKGROUNDS"
	// StateGeneratingCode covers markup generation.
	StateGeneratingCode State = "GENERATING_CODE"
	// StateAssembling covers artifact materialization and archiving.
	StateAssembling State = "ASSEMBLING"
	// StateComplete is the successful terminal state.
	StateComplete State = "COMPLETE"
	// StateError is the failed terminal state, reachable from any
	// non-terminal state.
	StateError State = "ERROR"
)

// stateOrder is the happy-path phase sequence. Conditional phases may be
// skipped, so transitions only need to move forward through this order.
var stateOrder = map[State]int{
	StateIdle:                0,
	StateAnalyzing:           1,
	StateFetchingReference:   2,
	StateExtractingPalette:   3,
	StateGeneratingAssets:    4,
	StateRemovingBackgrounds: 5,
	StateGeneratingCode:      6,
	StateAssembling:          7,
	StateComplete:            8,
}

// ErrInvalidStateTransition indicates a transition outside the phase graph.
var ErrInvalidStateTransition = errors.New(errors.CodeInvalidStateTransition, "invalid session state transition")

// ErrSessionTerminal indicates a mutation attempt on a finished session.
var ErrSessionTerminal = errors.New(errors.CodeSessionTerminal, "session already reached a terminal state")

// Terminal reports whether s ends the session lifecycle.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// Valid reports whether s is a known state value.
func (s State) Valid() bool {
	if s == StateError {
		return true
	}
	_, ok := stateOrder[s]
	return ok
}

// CanTransition reports whether from → to is a legal move through the phase
// graph. Re-emitting the current state is allowed so a phase can publish
// incremental progress; ERROR is reachable from any non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if !to.Valid() {
		return false
	}
	if to == StateError {
		return true
	}
	if to == from {
		return true
	}
	return stateOrder[to] > stateOrder[from]
}
