package lifecycle

import "fmt"

// PostingStatus values mirror the posting_status enum in PostgreSQL.
//
// Valid posting status graph:
//
//	DRAFT ──► ACTIVE ⇄ PAUSED
//	  │         │  │      │
//	  │         │  └──► COMPLETED
//	  └─────────┴─────────┴──► CLOSED ──► ACTIVE (reopen)
//
// COMPLETED is terminal.
type PostingStatus string

const (
	PostingDraft     PostingStatus = "DRAFT"
	PostingActive    PostingStatus = "ACTIVE"
	PostingPaused    PostingStatus = "PAUSED"
	PostingClosed    PostingStatus = "CLOSED"
	PostingCompleted PostingStatus = "COMPLETED"
)

// postingTransitions lists every allowed owner-initiated (from → to) pair.
// The accept-cascade and the deadline sweeper use CanForceClose instead:
// administrative closing is always possible from a non-terminal state and is
// deliberately not part of this table.
var postingTransitions = map[PostingStatus][]PostingStatus{
	PostingDraft:  {PostingActive, PostingClosed},
	PostingActive: {PostingPaused, PostingClosed, PostingCompleted},
	PostingPaused: {PostingActive, PostingClosed},
	PostingClosed: {PostingActive},
	// COMPLETED is terminal — no outgoing transitions
}

// ParsePostingStatus converts a raw string to a PostingStatus, returning an
// error for unknown values.
func ParsePostingStatus(s string) (PostingStatus, error) {
	st := PostingStatus(s)
	switch st {
	case PostingDraft, PostingActive, PostingPaused, PostingClosed, PostingCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

// CanTransitionPosting returns true when an owner may move a posting
// from → to.
func CanTransitionPosting(from, to PostingStatus) bool {
	allowed, ok := postingTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// CanForceClose reports whether the engine may administratively close a
// posting in the given status. Used by the accept-cascade and the deadline
// sweeper; never exposed to owners directly.
func CanForceClose(from PostingStatus) bool {
	return from != PostingCompleted && from != PostingClosed
}

// IsPostingTerminal returns true for posting statuses with no outgoing
// transitions.
func IsPostingTerminal(s PostingStatus) bool {
	_, ok := postingTransitions[s]
	return !ok
}
