package schemas

import "errors"

// Sentinel errors forming the workbench error taxonomy. Callers classify
// failures with errors.Is; components wrap these with context via fmt.Errorf
// and %w.
var (
	// ErrValidation indicates bad caller input (empty identifier, empty case
	// title). Surfaced to the caller, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrClassifierUnavailable indicates the external inference service could
	// not be reached or answered with a non-success status. The core performs
	// no implicit retry; the calling layer owns retry policy.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrMalformedResponse indicates the inference response failed schema
	// validation beyond what field coercion can recover.
	ErrMalformedResponse = errors.New("malformed classifier response")

	// ErrNotFound indicates an operation referenced an unknown investigation
	// or entity profile id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition indicates an illegal status change; the record is
	// left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIncompleteAnalysis indicates report assembly was attempted without a
	// prior successful classification.
	ErrIncompleteAnalysis = errors.New("incomplete analysis")
)
