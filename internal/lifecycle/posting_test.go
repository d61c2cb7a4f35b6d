package lifecycle_test

import (
	"testing"

	"medmatch/matching-service/internal/lifecycle"
)

// ── ParsePostingStatus ─────────────────────────────────────────────────────

func TestParsePostingStatus_ValidValues(t *testing.T) {
	valid := []string{"DRAFT", "ACTIVE", "PAUSED", "CLOSED", "COMPLETED"}
	for _, s := range valid {
		got, err := lifecycle.ParsePostingStatus(s)
		if err != nil {
			t.Errorf("ParsePostingStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParsePostingStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParsePostingStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"OPEN", "", "active"} {
		if _, err := lifecycle.ParsePostingStatus(s); err == nil {
			t.Errorf("ParsePostingStatus(%q) expected error, got nil", s)
		}
	}
}

// ── CanTransitionPosting ───────────────────────────────────────────────────

func TestCanTransitionPosting_Valid(t *testing.T) {
	cases := []struct {
		from lifecycle.PostingStatus
		to   lifecycle.PostingStatus
	}{
		{lifecycle.PostingDraft, lifecycle.PostingActive},
		{lifecycle.PostingDraft, lifecycle.PostingClosed},
		{lifecycle.PostingActive, lifecycle.PostingPaused},
		{lifecycle.PostingActive, lifecycle.PostingClosed},
		{lifecycle.PostingActive, lifecycle.PostingCompleted},
		{lifecycle.PostingPaused, lifecycle.PostingActive},
		{lifecycle.PostingPaused, lifecycle.PostingClosed},
		{lifecycle.PostingClosed, lifecycle.PostingActive},
	}
	for _, c := range cases {
		if !lifecycle.CanTransitionPosting(c.from, c.to) {
			t.Errorf("CanTransitionPosting(%s → %s) should be true", c.from, c.to)
		}
	}
}

func TestCanTransitionPosting_Invalid(t *testing.T) {
	cases := []struct {
		from lifecycle.PostingStatus
		to   lifecycle.PostingStatus
	}{
		{lifecycle.PostingDraft, lifecycle.PostingPaused},
		{lifecycle.PostingDraft, lifecycle.PostingCompleted},
		{lifecycle.PostingPaused, lifecycle.PostingCompleted},
		{lifecycle.PostingClosed, lifecycle.PostingPaused},
		{lifecycle.PostingClosed, lifecycle.PostingCompleted},
		{lifecycle.PostingActive, lifecycle.PostingDraft},
	}
	for _, c := range cases {
		if lifecycle.CanTransitionPosting(c.from, c.to) {
			t.Errorf("CanTransitionPosting(%s → %s) should be false", c.from, c.to)
		}
	}
}

func TestCanTransitionPosting_CompletedIsTerminal(t *testing.T) {
	all := []lifecycle.PostingStatus{
		lifecycle.PostingDraft, lifecycle.PostingActive, lifecycle.PostingPaused,
		lifecycle.PostingClosed, lifecycle.PostingCompleted,
	}
	for _, to := range all {
		if lifecycle.CanTransitionPosting(lifecycle.PostingCompleted, to) {
			t.Errorf("CanTransitionPosting(COMPLETED → %s) should be false", to)
		}
	}
	if !lifecycle.IsPostingTerminal(lifecycle.PostingCompleted) {
		t.Error("IsPostingTerminal(COMPLETED) should be true")
	}
	if lifecycle.IsPostingTerminal(lifecycle.PostingClosed) {
		t.Error("IsPostingTerminal(CLOSED) should be false (reopen allowed)")
	}
}

// ── CanForceClose ──────────────────────────────────────────────────────────

func TestCanForceClose(t *testing.T) {
	closable := map[lifecycle.PostingStatus]bool{
		lifecycle.PostingDraft:     true,
		lifecycle.PostingActive:    true,
		lifecycle.PostingPaused:    true,
		lifecycle.PostingClosed:    false,
		lifecycle.PostingCompleted: false,
	}
	for s, want := range closable {
		if got := lifecycle.CanForceClose(s); got != want {
			t.Errorf("CanForceClose(%s) = %v, want %v", s, got, want)
		}
	}
}
