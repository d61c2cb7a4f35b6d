// Package lifecycle defines the two state machines of the matching engine:
// one for applications, one for postings.
//
// Valid application status graph:
//
//	DRAFT ──► SUBMITTED ──► UNDER_REVIEW ──► SHORTLISTED ──► INTERVIEW_SCHEDULED ──► ACCEPTED ──► COMPLETED
//	  │           │               │               │    │              │                  ▲
//	  │           │               └───────────────┼────┼──────────────┴──► REJECTED      │
//	  │           │                               │    └────────────────────────────────┘
//	  └───────────┴──► WITHDRAWN                  └──► ACCEPTED
//
// REJECTED, WITHDRAWN and COMPLETED are terminal states.
package lifecycle

import "fmt"

// ApplicationStatus values mirror the application_status enum in PostgreSQL.
type ApplicationStatus string

const (
	AppDraft              ApplicationStatus = "DRAFT"
	AppSubmitted          ApplicationStatus = "SUBMITTED"
	AppUnderReview        ApplicationStatus = "UNDER_REVIEW"
	AppShortlisted        ApplicationStatus = "SHORTLISTED"
	AppInterviewScheduled ApplicationStatus = "INTERVIEW_SCHEDULED"
	AppAccepted           ApplicationStatus = "ACCEPTED"
	AppCompleted          ApplicationStatus = "COMPLETED"
	AppRejected           ApplicationStatus = "REJECTED"
	AppWithdrawn          ApplicationStatus = "WITHDRAWN"
)

// applicationTransitions lists every allowed (from → to) pair.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	AppDraft:              {AppSubmitted, AppWithdrawn},
	AppSubmitted:          {AppUnderReview, AppRejected, AppWithdrawn},
	AppUnderReview:        {AppShortlisted, AppRejected},
	AppShortlisted:        {AppInterviewScheduled, AppAccepted, AppRejected},
	AppInterviewScheduled: {AppAccepted, AppRejected},
	AppAccepted:           {AppCompleted},
	// REJECTED, WITHDRAWN and COMPLETED are terminal — no outgoing transitions
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus,
// returning an error for unknown values.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case AppDraft, AppSubmitted, AppUnderReview, AppShortlisted,
		AppInterviewScheduled, AppAccepted, AppCompleted, AppRejected, AppWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// CanTransition returns true when moving from → to is permitted by the
// application state machine.
func CanTransition(from, to ApplicationStatus) bool {
	allowed, ok := applicationTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions.
func IsTerminal(s ApplicationStatus) bool {
	_, ok := applicationTransitions[s]
	return !ok
}

// OpenStatuses are the non-terminal, non-draft statuses an employer still has
// to act on. The accept-cascade batch-rejects every rival application in one
// of these statuses.
func OpenStatuses() []ApplicationStatus {
	return []ApplicationStatus{AppSubmitted, AppUnderReview, AppShortlisted, AppInterviewScheduled}
}

// IsOpen returns true when the status is one of OpenStatuses.
func IsOpen(s ApplicationStatus) bool {
	switch s {
	case AppSubmitted, AppUnderReview, AppShortlisted, AppInterviewScheduled:
		return true
	}
	return false
}
