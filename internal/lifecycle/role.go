package lifecycle

import "fmt"

// ActorRole identifies who is driving a transition.
type ActorRole string

const (
	RoleApplicant ActorRole = "APPLICANT"
	RoleEmployer  ActorRole = "EMPLOYER"
	// RoleSystem is used for engine-internal transitions (cascade rejections,
	// deadline expiry). It is never accepted from the API layer.
	RoleSystem ActorRole = "SYSTEM"
)

// ParseActorRole converts a raw string to an ActorRole, rejecting SYSTEM:
// callers cannot impersonate the engine.
func ParseActorRole(s string) (ActorRole, error) {
	switch ActorRole(s) {
	case RoleApplicant:
		return RoleApplicant, nil
	case RoleEmployer:
		return RoleEmployer, nil
	}
	return "", fmt.Errorf("unknown actor role %q", s)
}

// targetAuthority maps each application transition target to the role that
// may drive it. Only the posting owner moves an application through the
// review pipeline; only the applicant can submit or withdraw.
var targetAuthority = map[ApplicationStatus]ActorRole{
	AppSubmitted:          RoleApplicant,
	AppWithdrawn:          RoleApplicant,
	AppUnderReview:        RoleEmployer,
	AppShortlisted:        RoleEmployer,
	AppInterviewScheduled: RoleEmployer,
	AppAccepted:           RoleEmployer,
	AppRejected:           RoleEmployer,
	AppCompleted:          RoleEmployer,
}

// RoleMayDrive reports whether role has the authority to move an application
// to target. RoleSystem may drive any target.
func RoleMayDrive(role ActorRole, target ApplicationStatus) bool {
	if role == RoleSystem {
		return true
	}
	owner, ok := targetAuthority[target]
	return ok && owner == role
}
