package lifecycle_test

import (
	"testing"

	"medmatch/matching-service/internal/lifecycle"
)

// ── ParseActorRole ─────────────────────────────────────────────────────────

func TestParseActorRole_Valid(t *testing.T) {
	for _, s := range []string{"APPLICANT", "EMPLOYER"} {
		got, err := lifecycle.ParseActorRole(s)
		if err != nil {
			t.Errorf("ParseActorRole(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseActorRole(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseActorRole_RejectsSystem(t *testing.T) {
	if _, err := lifecycle.ParseActorRole("SYSTEM"); err == nil {
		t.Error("ParseActorRole(\"SYSTEM\") expected error, got nil")
	}
}

func TestParseActorRole_Invalid(t *testing.T) {
	for _, s := range []string{"", "admin", "applicant"} {
		if _, err := lifecycle.ParseActorRole(s); err == nil {
			t.Errorf("ParseActorRole(%q) expected error, got nil", s)
		}
	}
}

// ── RoleMayDrive ───────────────────────────────────────────────────────────

func TestRoleMayDrive_Applicant(t *testing.T) {
	may := []lifecycle.ApplicationStatus{lifecycle.AppSubmitted, lifecycle.AppWithdrawn}
	for _, target := range may {
		if !lifecycle.RoleMayDrive(lifecycle.RoleApplicant, target) {
			t.Errorf("RoleMayDrive(APPLICANT, %s) should be true", target)
		}
	}
	mayNot := []lifecycle.ApplicationStatus{
		lifecycle.AppUnderReview, lifecycle.AppShortlisted,
		lifecycle.AppInterviewScheduled, lifecycle.AppAccepted,
		lifecycle.AppRejected, lifecycle.AppCompleted,
	}
	for _, target := range mayNot {
		if lifecycle.RoleMayDrive(lifecycle.RoleApplicant, target) {
			t.Errorf("RoleMayDrive(APPLICANT, %s) should be false", target)
		}
	}
}

func TestRoleMayDrive_Employer(t *testing.T) {
	may := []lifecycle.ApplicationStatus{
		lifecycle.AppUnderReview, lifecycle.AppShortlisted,
		lifecycle.AppInterviewScheduled, lifecycle.AppAccepted,
		lifecycle.AppRejected, lifecycle.AppCompleted,
	}
	for _, target := range may {
		if !lifecycle.RoleMayDrive(lifecycle.RoleEmployer, target) {
			t.Errorf("RoleMayDrive(EMPLOYER, %s) should be true", target)
		}
	}
	mayNot := []lifecycle.ApplicationStatus{lifecycle.AppSubmitted, lifecycle.AppWithdrawn}
	for _, target := range mayNot {
		if lifecycle.RoleMayDrive(lifecycle.RoleEmployer, target) {
			t.Errorf("RoleMayDrive(EMPLOYER, %s) should be false", target)
		}
	}
}

func TestRoleMayDrive_SystemDrivesEverything(t *testing.T) {
	all := []lifecycle.ApplicationStatus{
		lifecycle.AppSubmitted, lifecycle.AppUnderReview, lifecycle.AppShortlisted,
		lifecycle.AppInterviewScheduled, lifecycle.AppAccepted,
		lifecycle.AppRejected, lifecycle.AppWithdrawn, lifecycle.AppCompleted,
	}
	for _, target := range all {
		if !lifecycle.RoleMayDrive(lifecycle.RoleSystem, target) {
			t.Errorf("RoleMayDrive(SYSTEM, %s) should be true", target)
		}
	}
}
