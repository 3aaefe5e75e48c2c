package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors, rejected before any I/O.
	CodeInvalidSessionID Code = "INVALID_SESSION_ID"
	CodeInvalidOwnerID   Code = "INVALID_OWNER_ID"
	CodeEmptyPrompt      Code = "EMPTY_PROMPT"

	// Fatal pipeline phase errors.
	CodeAnalysisFailed       Code = "ANALYSIS_FAILED"
	CodeAssetsBelowMinimum   Code = "ASSETS_BELOW_MINIMUM"
	CodeCodeGenerationFailed Code = "CODE_GENERATION_FAILED"
	CodeAssemblyFailed       Code = "ASSEMBLY_FAILED"

	// Concurrency conflicts.
	CodeAssemblyInFlight Code = "ASSEMBLY_IN_FLIGHT"

	// Session lifecycle errors.
	CodeSessionTerminal        Code = "SESSION_TERMINAL"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"

	// Storage errors.
	CodeNotFound Code = "NOT_FOUND"
)
