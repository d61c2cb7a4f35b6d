package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/match"
	"medmatch/matching-service/internal/model"
)

// Service encapsulates the lifecycle business logic. It is
// transport-agnostic: usable from any API layer.
type Service struct {
	store Store
	gate  EligibilityGate
	sink  NotificationSink
	now   func() time.Time
}

// NewService returns a configured Service.
func NewService(store Store, gate EligibilityGate, sink NotificationSink) *Service {
	return &Service{store: store, gate: gate, sink: sink, now: time.Now}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AcceptResult is the outcome of a successful accept-cascade.
type AcceptResult struct {
	Application   model.Application     `json:"application"`
	Posting       model.PostingSnapshot `json:"posting"`
	RejectedCount int                   `json:"rejectedCount"`
}

// ── Scoring ───────────────────────────────────────────────────────────────

// ComputeScore scores one (candidate, posting) pair and returns the
// per-factor breakdown alongside the final score.
func (s *Service) ComputeScore(ctx context.Context, candidateID, postingID string) (int, match.Breakdown, error) {
	c, err := s.fetchCandidate(ctx, candidateID)
	if err != nil {
		return 0, match.Breakdown{}, err
	}
	p, err := s.fetchPosting(ctx, postingID)
	if err != nil {
		return 0, match.Breakdown{}, err
	}
	b := match.Explain(c, p)
	return b.Total, b, nil
}

// ── Submission ────────────────────────────────────────────────────────────

// SubmitApplication runs the eligibility gate, computes and stores the match
// score, and creates the application in SUBMITTED status. The
// posting-active and duplicate checks are re-validated inside the
// per-posting lock, so a submission cannot land on a posting that was closed
// between read and write.
func (s *Service) SubmitApplication(ctx context.Context, candidateID, postingID string, proposal model.Proposal) (model.Application, error) {
	c, err := s.fetchCandidate(ctx, candidateID)
	if err != nil {
		return model.Application{}, err
	}
	p, err := s.fetchPosting(ctx, postingID)
	if err != nil {
		return model.Application{}, err
	}

	decision, err := s.gate.CanApply(ctx, c, p)
	if err != nil {
		return model.Application{}, &UpstreamError{Op: "eligibility gate", Err: err}
	}
	if !decision.OK {
		return model.Application{}, &NotEligibleError{Reasons: decision.Reasons}
	}

	// Fast-path duplicate check; authoritative re-check happens on insert.
	dup, err := s.store.HasOpenApplication(ctx, candidateID, postingID)
	if err != nil {
		return model.Application{}, fmt.Errorf("submitApplication duplicate check: %w", err)
	}
	if dup {
		return model.Application{}, ErrDuplicateApplication
	}

	now := s.now()
	app := model.Application{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		PostingID:   postingID,
		Status:      lifecycle.AppSubmitted,
		MatchScore:  match.Score(c, p),
		Proposal:    proposal,
		CommunicationLog: []model.CommunicationEntry{{
			Type:       "status_change",
			Content:    "application submitted",
			AuthorRole: lifecycle.RoleApplicant,
			At:         now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithPostingLock(ctx, postingID, func(tx Store) error {
		fresh, err := tx.GetPosting(ctx, postingID)
		if err != nil {
			return fmt.Errorf("submitApplication posting re-check: %w", err)
		}
		if fresh.Status != lifecycle.PostingActive {
			return &NotEligibleError{Reasons: []string{"posting is no longer active"}}
		}
		if !fresh.Deadline.IsZero() && !fresh.Deadline.After(now) {
			return &NotEligibleError{Reasons: []string{"posting deadline has passed"}}
		}
		return tx.CreateApplication(ctx, app)
	})
	if err != nil {
		return model.Application{}, err
	}

	s.emit(ctx, Event{
		Type:          EventApplicationSubmitted,
		ApplicationID: app.ID,
		CandidateID:   candidateID,
		PostingID:     postingID,
		To:            string(lifecycle.AppSubmitted),
		At:            now,
	})
	return app, nil
}

// ── Transitions ───────────────────────────────────────────────────────────

// TransitionApplication validates actor authority and the transition edge,
// applies the change and appends a communication-log entry. ACCEPTED is not
// reachable through this path: accepting has cascade side effects and must
// go through AcceptApplication. An edge the table does not allow still
// fails as an illegal transition, not as a redirect.
func (s *Service) TransitionApplication(ctx context.Context, id string, target lifecycle.ApplicationStatus, role lifecycle.ActorRole) (model.Application, error) {
	if target == lifecycle.AppAccepted {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			return model.Application{}, err
		}
		if !lifecycle.CanTransition(app.Status, lifecycle.AppAccepted) {
			return model.Application{}, &IllegalTransitionError{Entity: "application", From: string(app.Status), To: string(lifecycle.AppAccepted)}
		}
		return model.Application{}, &ValidationError{Msg: "accepting an application must go through the accept operation"}
	}
	return s.applyTransition(ctx, id, target, role, nil)
}

// ScheduleInterview is the INTERVIEW_SCHEDULED transition; it is the only
// way interview details get onto an application.
func (s *Service) ScheduleInterview(ctx context.Context, id string, details model.InterviewDetails) (model.Application, error) {
	return s.applyTransition(ctx, id, lifecycle.AppInterviewScheduled, lifecycle.RoleEmployer,
		func(app *model.Application) {
			app.Interview = &details
		})
}

// applyTransition is the single validation routine every non-accept edge
// goes through.
func (s *Service) applyTransition(ctx context.Context, id string, target lifecycle.ApplicationStatus, role lifecycle.ActorRole, mutate func(*model.Application)) (model.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return model.Application{}, err
	}

	var from lifecycle.ApplicationStatus
	err = s.store.WithPostingLock(ctx, app.PostingID, func(tx Store) error {
		fresh, err := tx.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		if !lifecycle.RoleMayDrive(role, target) {
			return &ForbiddenError{Role: role, Action: fmt.Sprintf("move an application to %s", target)}
		}
		if !lifecycle.CanTransition(fresh.Status, target) {
			return &IllegalTransitionError{Entity: "application", From: string(fresh.Status), To: string(target)}
		}

		from = fresh.Status
		now := s.now()
		fresh.Status = target
		fresh.CommunicationLog = append(fresh.CommunicationLog, model.CommunicationEntry{
			Type:       "status_change",
			Content:    fmt.Sprintf("status changed from %s to %s", from, target),
			AuthorRole: role,
			At:         now,
		})
		if mutate != nil {
			mutate(&fresh)
		}
		fresh.UpdatedAt = now
		app = fresh
		return tx.UpdateApplication(ctx, fresh)
	})
	if err != nil {
		return model.Application{}, err
	}

	s.emit(ctx, Event{
		Type:          EventApplicationTransitioned,
		ApplicationID: app.ID,
		CandidateID:   app.CandidateID,
		PostingID:     app.PostingID,
		From:          string(from),
		To:            string(target),
		At:            app.UpdatedAt,
	})
	return app, nil
}

// ── Accept-cascade ────────────────────────────────────────────────────────

// AcceptApplication accepts one application and, in the same per-posting
// critical section, closes the posting and batch-rejects every open rival.
// Exactly one accept can succeed per posting: a concurrent rival accept
// loses with ErrConcurrentAcceptConflict.
func (s *Service) AcceptApplication(ctx context.Context, id string, contract model.ContractDetails) (AcceptResult, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return AcceptResult{}, err
	}

	var (
		result AcceptResult
		events []Event
	)
	err = s.store.WithPostingLock(ctx, app.PostingID, func(tx Store) error {
		fresh, err := tx.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		posting, err := tx.GetPosting(ctx, fresh.PostingID)
		if err != nil {
			return fmt.Errorf("accept posting fetch: %w", err)
		}

		siblings, err := tx.ListByPosting(ctx, fresh.PostingID)
		if err != nil {
			return fmt.Errorf("accept sibling fetch: %w", err)
		}
		for _, sib := range siblings {
			if sib.ID != fresh.ID && sib.Status == lifecycle.AppAccepted {
				return ErrConcurrentAcceptConflict
			}
		}
		if posting.Status == lifecycle.PostingCompleted {
			return &IllegalTransitionError{Entity: "posting", From: string(posting.Status), To: string(lifecycle.PostingClosed)}
		}

		if !lifecycle.CanTransition(fresh.Status, lifecycle.AppAccepted) {
			return &IllegalTransitionError{Entity: "application", From: string(fresh.Status), To: string(lifecycle.AppAccepted)}
		}

		now := s.now()
		from := fresh.Status
		fresh.Status = lifecycle.AppAccepted
		fresh.Contract = &contract
		fresh.CommunicationLog = append(fresh.CommunicationLog, model.CommunicationEntry{
			Type:       "status_change",
			Content:    fmt.Sprintf("status changed from %s to %s", from, lifecycle.AppAccepted),
			AuthorRole: lifecycle.RoleEmployer,
			At:         now,
		})
		fresh.UpdatedAt = now
		if err := tx.UpdateApplication(ctx, fresh); err != nil {
			return fmt.Errorf("accept update: %w", err)
		}
		events = append(events, Event{
			Type:          EventApplicationTransitioned,
			ApplicationID: fresh.ID,
			CandidateID:   fresh.CandidateID,
			PostingID:     fresh.PostingID,
			From:          string(from),
			To:            string(lifecycle.AppAccepted),
			At:            now,
		})

		// Administrative close: distinct from the owner-initiated table.
		if lifecycle.CanForceClose(posting.Status) {
			if err := tx.SetPostingStatus(ctx, posting.ID, lifecycle.PostingClosed); err != nil {
				return fmt.Errorf("accept posting close: %w", err)
			}
			events = append(events, Event{
				Type:      EventPostingTransitioned,
				PostingID: posting.ID,
				From:      string(posting.Status),
				To:        string(lifecycle.PostingClosed),
				At:        now,
			})
			posting.Status = lifecycle.PostingClosed
		}

		rejected := 0
		for _, sib := range siblings {
			if sib.ID == fresh.ID || !lifecycle.IsOpen(sib.Status) {
				continue
			}
			from := sib.Status
			sib.Status = lifecycle.AppRejected
			sib.CommunicationLog = append(sib.CommunicationLog, model.CommunicationEntry{
				Type:       "system",
				Content:    "position filled",
				AuthorRole: lifecycle.RoleSystem,
				At:         now,
			})
			sib.UpdatedAt = now
			if err := tx.UpdateApplication(ctx, sib); err != nil {
				return fmt.Errorf("accept rival rejection: %w", err)
			}
			events = append(events, Event{
				Type:          EventApplicationTransitioned,
				ApplicationID: sib.ID,
				CandidateID:   sib.CandidateID,
				PostingID:     sib.PostingID,
				From:          string(from),
				To:            string(lifecycle.AppRejected),
				At:            now,
			})
			rejected++
		}

		result = AcceptResult{Application: fresh, Posting: posting, RejectedCount: rejected}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}

	for _, ev := range events {
		s.emit(ctx, ev)
	}
	return result, nil
}

// ── Rating ────────────────────────────────────────────────────────────────

// RateApplication records a one-time 1–5 rating by one party. Only legal on
// a COMPLETED application; a second rating by the same role fails with
// ErrAlreadyRated.
func (s *Service) RateApplication(ctx context.Context, id string, rater lifecycle.ActorRole, rating int, review string) (model.Application, error) {
	if rating < 1 || rating > 5 {
		return model.Application{}, &ValidationError{Msg: "rating must be between 1 and 5"}
	}
	if rater != lifecycle.RoleApplicant && rater != lifecycle.RoleEmployer {
		return model.Application{}, &ValidationError{Msg: fmt.Sprintf("unknown rater role %q", rater)}
	}

	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return model.Application{}, err
	}

	err = s.store.WithPostingLock(ctx, app.PostingID, func(tx Store) error {
		fresh, err := tx.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		if fresh.Status != lifecycle.AppCompleted {
			return &ValidationError{Msg: "only completed applications can be rated"}
		}

		fb := &model.Feedback{Rating: rating, Review: review, RatedAt: s.now()}
		switch rater {
		case lifecycle.RoleApplicant:
			if fresh.CandidateFeedback != nil {
				return ErrAlreadyRated
			}
			fresh.CandidateFeedback = fb
		case lifecycle.RoleEmployer:
			if fresh.EmployerFeedback != nil {
				return ErrAlreadyRated
			}
			fresh.EmployerFeedback = fb
		}
		fresh.UpdatedAt = fb.RatedAt
		app = fresh
		return tx.UpdateApplication(ctx, fresh)
	})
	if err != nil {
		return model.Application{}, err
	}

	s.emit(ctx, Event{
		Type:          EventApplicationRated,
		ApplicationID: app.ID,
		CandidateID:   app.CandidateID,
		PostingID:     app.PostingID,
		To:            string(app.Status),
		At:            app.UpdatedAt,
	})
	return app, nil
}

// ── Posting transitions ───────────────────────────────────────────────────

// TransitionPosting applies an owner-initiated posting transition.
func (s *Service) TransitionPosting(ctx context.Context, id string, target lifecycle.PostingStatus, actorID string) (model.PostingSnapshot, error) {
	posting, err := s.fetchPosting(ctx, id)
	if err != nil {
		return model.PostingSnapshot{}, err
	}
	if posting.OwnerID != actorID {
		return model.PostingSnapshot{}, &ForbiddenError{Role: lifecycle.RoleEmployer, Action: "transition a posting it does not own"}
	}

	var from lifecycle.PostingStatus
	err = s.store.WithPostingLock(ctx, id, func(tx Store) error {
		fresh, err := tx.GetPosting(ctx, id)
		if err != nil {
			return err
		}
		if !lifecycle.CanTransitionPosting(fresh.Status, target) {
			return &IllegalTransitionError{Entity: "posting", From: string(fresh.Status), To: string(target)}
		}
		from = fresh.Status
		posting = fresh
		posting.Status = target
		return tx.SetPostingStatus(ctx, id, target)
	})
	if err != nil {
		return model.PostingSnapshot{}, err
	}

	s.emit(ctx, Event{
		Type:      EventPostingTransitioned,
		PostingID: id,
		From:      string(from),
		To:        string(target),
		At:        s.now(),
	})
	return posting, nil
}

// ExpirePostings administratively closes every ACTIVE posting whose deadline
// is at or before now. Returns the number of postings closed. Driven by the
// cron sweeper; keeps stored status converging with the recommendation
// predicate "active and deadline in the future".
func (s *Service) ExpirePostings(ctx context.Context, now time.Time) (int, error) {
	postings, err := s.store.ListActivePostings(ctx)
	if err != nil {
		return 0, &UpstreamError{Op: "posting store", Err: err}
	}

	closed := 0
	for _, p := range postings {
		if p.Deadline.IsZero() || p.Deadline.After(now) {
			continue
		}
		didClose := false
		err := s.store.WithPostingLock(ctx, p.ID, func(tx Store) error {
			fresh, err := tx.GetPosting(ctx, p.ID)
			if err != nil {
				return err
			}
			if fresh.Status != lifecycle.PostingActive || fresh.Deadline.After(now) {
				return nil // raced with an owner action; nothing to do
			}
			didClose = true
			return tx.SetPostingStatus(ctx, p.ID, lifecycle.PostingClosed)
		})
		if err != nil {
			slog.Warn("expirePostings close failed", "postingId", p.ID, "err", err)
			continue
		}
		if !didClose {
			continue
		}
		closed++
		s.emit(ctx, Event{
			Type:      EventPostingTransitioned,
			PostingID: p.ID,
			From:      string(lifecycle.PostingActive),
			To:        string(lifecycle.PostingClosed),
			At:        now,
		})
	}
	return closed, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────

func (s *Service) fetchCandidate(ctx context.Context, id string) (model.CandidateProfile, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.CandidateProfile{}, err
		}
		return model.CandidateProfile{}, &UpstreamError{Op: "profile store", Err: err}
	}
	return c, nil
}

func (s *Service) fetchPosting(ctx context.Context, id string) (model.PostingSnapshot, error) {
	p, err := s.store.GetPosting(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.PostingSnapshot{}, err
		}
		return model.PostingSnapshot{}, &UpstreamError{Op: "posting store", Err: err}
	}
	return p, nil
}

// emit forwards a lifecycle event to the sink. Never fatal, never waited on.
func (s *Service) emit(ctx context.Context, ev Event) {
	if s.sink == nil {
		return
	}
	s.sink.OnTransition(ctx, ev)
}
