package lifecycle_test

import (
	"testing"

	"medmatch/matching-service/internal/lifecycle"
)

// ── ParseApplicationStatus ─────────────────────────────────────────────────

func TestParseApplicationStatus_ValidValues(t *testing.T) {
	valid := []string{
		"DRAFT", "SUBMITTED", "UNDER_REVIEW", "SHORTLISTED",
		"INTERVIEW_SCHEDULED", "ACCEPTED", "COMPLETED", "REJECTED", "WITHDRAWN",
	}
	for _, s := range valid {
		got, err := lifecycle.ParseApplicationStatus(s)
		if err != nil {
			t.Errorf("ParseApplicationStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseApplicationStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseApplicationStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"UNKNOWN", "", "submitted", "Accepted "} {
		if _, err := lifecycle.ParseApplicationStatus(s); err == nil {
			t.Errorf("ParseApplicationStatus(%q) expected error, got nil", s)
		}
	}
}

// ── CanTransition — valid forward transitions ──────────────────────────────

func TestCanTransition_ValidForward(t *testing.T) {
	cases := []struct {
		from lifecycle.ApplicationStatus
		to   lifecycle.ApplicationStatus
	}{
		{lifecycle.AppDraft, lifecycle.AppSubmitted},
		{lifecycle.AppSubmitted, lifecycle.AppUnderReview},
		{lifecycle.AppUnderReview, lifecycle.AppShortlisted},
		{lifecycle.AppShortlisted, lifecycle.AppInterviewScheduled},
		{lifecycle.AppShortlisted, lifecycle.AppAccepted},
		{lifecycle.AppInterviewScheduled, lifecycle.AppAccepted},
		{lifecycle.AppAccepted, lifecycle.AppCompleted},
	}
	for _, c := range cases {
		if !lifecycle.CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── CanTransition — rejection and withdrawal ───────────────────────────────

func TestCanTransition_ToRejected(t *testing.T) {
	rejectable := []lifecycle.ApplicationStatus{
		lifecycle.AppSubmitted,
		lifecycle.AppUnderReview,
		lifecycle.AppShortlisted,
		lifecycle.AppInterviewScheduled,
	}
	for _, from := range rejectable {
		if !lifecycle.CanTransition(from, lifecycle.AppRejected) {
			t.Errorf("CanTransition(%s → REJECTED) should be true", from)
		}
	}
	// Draft applications were never visible to the employer.
	if lifecycle.CanTransition(lifecycle.AppDraft, lifecycle.AppRejected) {
		t.Error("CanTransition(DRAFT → REJECTED) should be false")
	}
	// Accepted applications can only complete.
	if lifecycle.CanTransition(lifecycle.AppAccepted, lifecycle.AppRejected) {
		t.Error("CanTransition(ACCEPTED → REJECTED) should be false")
	}
}

func TestCanTransition_ToWithdrawn(t *testing.T) {
	for _, from := range []lifecycle.ApplicationStatus{lifecycle.AppDraft, lifecycle.AppSubmitted} {
		if !lifecycle.CanTransition(from, lifecycle.AppWithdrawn) {
			t.Errorf("CanTransition(%s → WITHDRAWN) should be true", from)
		}
	}
	for _, from := range []lifecycle.ApplicationStatus{
		lifecycle.AppUnderReview,
		lifecycle.AppShortlisted,
		lifecycle.AppInterviewScheduled,
		lifecycle.AppAccepted,
	} {
		if lifecycle.CanTransition(from, lifecycle.AppWithdrawn) {
			t.Errorf("CanTransition(%s → WITHDRAWN) should be false", from)
		}
	}
}

// ── CanTransition — no skipping, no backwards moves ────────────────────────

func TestCanTransition_NoSkipping(t *testing.T) {
	cases := []struct {
		from lifecycle.ApplicationStatus
		to   lifecycle.ApplicationStatus
	}{
		{lifecycle.AppDraft, lifecycle.AppUnderReview},
		{lifecycle.AppDraft, lifecycle.AppAccepted},
		{lifecycle.AppSubmitted, lifecycle.AppShortlisted},
		{lifecycle.AppSubmitted, lifecycle.AppAccepted},
		{lifecycle.AppUnderReview, lifecycle.AppAccepted},
		{lifecycle.AppUnderReview, lifecycle.AppInterviewScheduled},
		{lifecycle.AppSubmitted, lifecycle.AppCompleted},
	}
	for _, c := range cases {
		if lifecycle.CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s → %s) should be false (skips stages)", c.from, c.to)
		}
	}
}

func TestCanTransition_NoBackwards(t *testing.T) {
	cases := []struct {
		from lifecycle.ApplicationStatus
		to   lifecycle.ApplicationStatus
	}{
		{lifecycle.AppSubmitted, lifecycle.AppDraft},
		{lifecycle.AppUnderReview, lifecycle.AppSubmitted},
		{lifecycle.AppShortlisted, lifecycle.AppUnderReview},
		{lifecycle.AppInterviewScheduled, lifecycle.AppShortlisted},
		{lifecycle.AppAccepted, lifecycle.AppInterviewScheduled},
	}
	for _, c := range cases {
		if lifecycle.CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

// ── Terminal states ────────────────────────────────────────────────────────

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	terminals := []lifecycle.ApplicationStatus{
		lifecycle.AppRejected,
		lifecycle.AppWithdrawn,
		lifecycle.AppCompleted,
	}
	all := []lifecycle.ApplicationStatus{
		lifecycle.AppDraft, lifecycle.AppSubmitted, lifecycle.AppUnderReview,
		lifecycle.AppShortlisted, lifecycle.AppInterviewScheduled,
		lifecycle.AppAccepted, lifecycle.AppCompleted,
		lifecycle.AppRejected, lifecycle.AppWithdrawn,
	}
	for _, from := range terminals {
		for _, to := range all {
			if lifecycle.CanTransition(from, to) {
				t.Errorf("CanTransition(%s → %s) should be false (terminal)", from, to)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[lifecycle.ApplicationStatus]bool{
		lifecycle.AppDraft:              false,
		lifecycle.AppSubmitted:          false,
		lifecycle.AppUnderReview:        false,
		lifecycle.AppShortlisted:        false,
		lifecycle.AppInterviewScheduled: false,
		lifecycle.AppAccepted:           false,
		lifecycle.AppCompleted:          true,
		lifecycle.AppRejected:           true,
		lifecycle.AppWithdrawn:          true,
	}
	for s, want := range terminal {
		if got := lifecycle.IsTerminal(s); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, want)
		}
	}
}

// ── Self-transitions ───────────────────────────────────────────────────────

func TestCanTransition_NoSelfTransitions(t *testing.T) {
	all := []lifecycle.ApplicationStatus{
		lifecycle.AppDraft, lifecycle.AppSubmitted, lifecycle.AppUnderReview,
		lifecycle.AppShortlisted, lifecycle.AppInterviewScheduled,
		lifecycle.AppAccepted, lifecycle.AppCompleted,
		lifecycle.AppRejected, lifecycle.AppWithdrawn,
	}
	for _, s := range all {
		if lifecycle.CanTransition(s, s) {
			t.Errorf("CanTransition(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── Open statuses ──────────────────────────────────────────────────────────

func TestIsOpen(t *testing.T) {
	open := map[lifecycle.ApplicationStatus]bool{
		lifecycle.AppDraft:              false,
		lifecycle.AppSubmitted:          true,
		lifecycle.AppUnderReview:        true,
		lifecycle.AppShortlisted:        true,
		lifecycle.AppInterviewScheduled: true,
		lifecycle.AppAccepted:           false,
		lifecycle.AppCompleted:          false,
		lifecycle.AppRejected:           false,
		lifecycle.AppWithdrawn:          false,
	}
	for s, want := range open {
		if got := lifecycle.IsOpen(s); got != want {
			t.Errorf("IsOpen(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestOpenStatuses_AllRejectable(t *testing.T) {
	// The accept-cascade rejects every open rival; the table has to allow it.
	for _, s := range lifecycle.OpenStatuses() {
		if !lifecycle.CanTransition(s, lifecycle.AppRejected) {
			t.Errorf("open status %s must allow transition to REJECTED", s)
		}
	}
}
