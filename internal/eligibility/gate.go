// Package eligibility implements the default eligibility gate: the
// precondition check (account, verification, deadline, quota) deciding
// whether a candidate may apply to a posting at all.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
)

// Quota counts a candidate's submissions for the current day.
type Quota interface {
	Used(ctx context.Context, candidateID string) (int, error)
	Record(ctx context.Context, candidateID string) error
}

// Gate is the default engine.EligibilityGate implementation.
type Gate struct {
	quota      Quota
	dailyLimit int
	now        func() time.Time
}

// NewGate returns a Gate enforcing dailyLimit submissions per candidate per
// day. A nil quota or non-positive limit disables the quota check.
func NewGate(quota Quota, dailyLimit int) *Gate {
	return &Gate{quota: quota, dailyLimit: dailyLimit, now: time.Now}
}

// WithClock overrides the gate clock. Test hook.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// CanApply collects every reason the pair is ineligible; an empty reason
// list means the candidate may apply.
func (g *Gate) CanApply(ctx context.Context, c model.CandidateProfile, p model.PostingSnapshot) (engine.Decision, error) {
	var reasons []string

	if !c.AccountActive {
		reasons = append(reasons, "candidate account is not active")
	}
	if !c.SeekingOpportunities {
		reasons = append(reasons, "candidate is not seeking opportunities")
	}
	if p.Status != lifecycle.PostingActive {
		reasons = append(reasons, "posting is not active")
	}
	if !p.Deadline.IsZero() && !p.Deadline.After(g.now()) {
		reasons = append(reasons, "posting deadline has passed")
	}

	switch p.Visibility {
	case model.VisibilityVerifiedOnly:
		if c.Verification != model.VerificationVerified {
			reasons = append(reasons, "posting requires a verified candidate")
		}
	case model.VisibilityInvitationOnly:
		// Invitations live with the posting collaborator; uninvited
		// applications never pass this gate.
		reasons = append(reasons, "posting is invitation-only")
	}

	if g.quota != nil && g.dailyLimit > 0 {
		used, err := g.quota.Used(ctx, c.ID)
		if err != nil {
			return engine.Decision{}, fmt.Errorf("quota lookup: %w", err)
		}
		if used >= g.dailyLimit {
			reasons = append(reasons, fmt.Sprintf("daily application quota of %d exhausted", g.dailyLimit))
		}
	}

	return engine.Decision{OK: len(reasons) == 0, Reasons: reasons}, nil
}

// Sink returns a notification sink that consumes submission events to keep
// the quota counter current. Wire it alongside the outbound event sink.
func (g *Gate) Sink() engine.NotificationSink {
	return quotaSink{gate: g}
}

type quotaSink struct{ gate *Gate }

func (s quotaSink) OnTransition(ctx context.Context, ev engine.Event) {
	if ev.Type != engine.EventApplicationSubmitted || s.gate.quota == nil {
		return
	}
	// Best-effort: a missed increment loosens the quota by one, never
	// blocks a submission.
	_ = s.gate.quota.Record(ctx, ev.CandidateID)
}
