// Package engine drives the application and posting lifecycles: submission,
// validated transitions, the accept-cascade, and ratings. It owns no
// transport and no storage — both are injected through the ports below.
package engine

import (
	"context"
	"time"

	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
)

// ProfileStore supplies read-only candidate snapshots. The engine never
// writes to it.
type ProfileStore interface {
	GetCandidate(ctx context.Context, id string) (model.CandidateProfile, error)
	// ListSeekingCandidates returns candidates with an active account that
	// are seeking opportunities, in creation order.
	ListSeekingCandidates(ctx context.Context) ([]model.CandidateProfile, error)
}

// PostingStore supplies posting snapshots. Status is the only field the
// engine writes, and only through SetPostingStatus.
type PostingStore interface {
	GetPosting(ctx context.Context, id string) (model.PostingSnapshot, error)
	// ListActivePostings returns postings in ACTIVE status, in creation order.
	ListActivePostings(ctx context.Context) ([]model.PostingSnapshot, error)
	SetPostingStatus(ctx context.Context, id string, status lifecycle.PostingStatus) error
}

// ApplicationStore persists applications. Applications are never deleted;
// terminal states are retained for audit and rating.
type ApplicationStore interface {
	GetApplication(ctx context.Context, id string) (model.Application, error)
	// CreateApplication inserts a new application. It fails with
	// ErrDuplicateApplication when a non-withdrawn application already
	// exists for the same (candidate, posting) pair.
	CreateApplication(ctx context.Context, app model.Application) error
	UpdateApplication(ctx context.Context, app model.Application) error
	ListByPosting(ctx context.Context, postingID string) ([]model.Application, error)
	HasOpenApplication(ctx context.Context, candidateID, postingID string) (bool, error)
	// LinkedPostingIDs returns the posting ids the candidate has a
	// non-withdrawn application for. Used to exclude already-linked pairs
	// from recommendations.
	LinkedPostingIDs(ctx context.Context, candidateID string) (map[string]bool, error)
	// LinkedCandidateIDs is the posting-side counterpart.
	LinkedCandidateIDs(ctx context.Context, postingID string) (map[string]bool, error)
}

// Store bundles the persistence ports with per-posting serialization.
type Store interface {
	ProfileStore
	PostingStore
	ApplicationStore

	// WithPostingLock runs fn against a store view that holds an exclusive
	// lock scoped to postingID, so two concurrent accept-cascades (or an
	// accept and a submit) on the same posting cannot interleave. Writes
	// made inside fn become visible only if fn returns nil.
	WithPostingLock(ctx context.Context, postingID string, fn func(Store) error) error
}

// Decision is the eligibility gate's verdict, with structured reasons when
// the candidate may not apply.
type Decision struct {
	OK      bool     `json:"ok"`
	Reasons []string `json:"reasons,omitempty"`
}

// EligibilityGate decides whether a candidate may apply to a posting at all
// (role, verification, deadline, quota). External collaborator.
type EligibilityGate interface {
	CanApply(ctx context.Context, c model.CandidateProfile, p model.PostingSnapshot) (Decision, error)
}

// Event types emitted on lifecycle changes.
const (
	EventApplicationSubmitted    = "application.submitted"
	EventApplicationTransitioned = "application.transitioned"
	EventApplicationRated        = "application.rated"
	EventPostingTransitioned     = "posting.transitioned"
)

// Event is a lifecycle notification for downstream messaging collaborators.
type Event struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"applicationId,omitempty"`
	CandidateID   string    `json:"candidateId,omitempty"`
	PostingID     string    `json:"postingId"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to"`
	At            time.Time `json:"at"`
}

// NotificationSink receives lifecycle events fire-and-forget: the engine
// never waits on delivery and never fails an operation over a sink error.
type NotificationSink interface {
	OnTransition(ctx context.Context, ev Event)
}
