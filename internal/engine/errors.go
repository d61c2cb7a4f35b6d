package engine

import (
	"errors"
	"fmt"
	"strings"

	"medmatch/matching-service/internal/lifecycle"
)

// Sentinel errors. All engine errors are terminal for the calling
// operation: the engine never retries internally.
var (
	// ErrNotFound is returned when a candidate, posting or application id
	// does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateApplication is returned when a non-withdrawn application
	// already exists for the (candidate, posting) pair.
	ErrDuplicateApplication = errors.New("an open application already exists for this candidate and posting")

	// ErrAlreadyRated is returned when a party attempts to rate an
	// application a second time.
	ErrAlreadyRated = errors.New("this party has already rated the application")

	// ErrConcurrentAcceptConflict is returned to the loser of two
	// concurrent accepts on the same posting. It must never be retried
	// automatically — the caller has to re-fetch state and decide.
	ErrConcurrentAcceptConflict = errors.New("another application was already accepted for this posting")
)

// ValidationError reports malformed input to an operation. Input is never
// silently coerced.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// NotEligibleError carries the eligibility gate's structured reasons.
type NotEligibleError struct{ Reasons []string }

func (e *NotEligibleError) Error() string {
	return "not eligible to apply: " + strings.Join(e.Reasons, "; ")
}

// IllegalTransitionError reports an edge that is not in the relevant
// transition table for the entity's current state.
type IllegalTransitionError struct {
	Entity string // "application" or "posting"
	From   string
	To     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s transition %s → %s is not allowed", e.Entity, e.From, e.To)
}

// ForbiddenError reports an actor lacking authority for a transition.
type ForbiddenError struct {
	Role   lifecycle.ActorRole
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

// UpstreamError wraps a collaborator failure (profile/posting store timeout
// or error). The only engine error a caller may reasonably retry.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream %s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }
