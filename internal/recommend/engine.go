// Package recommend ranks candidates against postings (and vice versa)
// using the match scorer, excluding pairs that are ineligible or already
// linked by an application.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/match"
	"medmatch/matching-service/internal/model"
)

// Defaults and bounds. Limits are hard-capped so a single call can never
// trigger an unbounded scan.
const (
	DefaultJobLimit          = 10
	DefaultCandidateLimit    = 20
	MaxLimit                 = 50
	DefaultJobMinScore       = 50
	DefaultCandidateMinScore = 60
	MaxBatchIDs              = 20
)

// Options tune one recommendation call. Zero values mean defaults.
type Options struct {
	Limit    int `validate:"min=0,max=50"`
	MinScore int `validate:"min=0,max=100"`
}

// JobMatch is one ranked posting for a candidate.
type JobMatch struct {
	Posting model.PostingSnapshot `json:"posting"`
	Score   int                   `json:"score"`
}

// CandidateMatch is one ranked candidate for a posting.
type CandidateMatch struct {
	Candidate model.CandidateProfile `json:"candidate"`
	Score     int                    `json:"score"`
}

// BatchScore is one entry of a bulk scoring call. Failed marks ids whose
// scoring degraded to 0 instead of aborting the batch.
type BatchScore struct {
	PostingID string `json:"postingId"`
	Score     int    `json:"score"`
	Failed    bool   `json:"failed,omitempty"`
}

// Engine produces ranked recommendations over the snapshot stores.
type Engine struct {
	store engine.Store
	gate  engine.EligibilityGate
}

// New returns a recommendation Engine.
func New(store engine.Store, gate engine.EligibilityGate) *Engine {
	return &Engine{store: store, gate: gate}
}

// JobsFor returns active, not-yet-expired postings ranked for a candidate.
// Pairs already linked by a non-withdrawn application never surface.
func (e *Engine) JobsFor(ctx context.Context, candidateID string, opts Options) ([]JobMatch, error) {
	c, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	linked, err := e.store.LinkedPostingIDs(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("jobsFor linked pairs: %w", err)
	}
	postings, err := e.store.ListActivePostings(ctx)
	if err != nil {
		return nil, &engine.UpstreamError{Op: "posting store", Err: err}
	}

	minScore := opts.minScoreOr(DefaultJobMinScore)
	// Postings arrive in creation order; a stable sort keeps that order as
	// the tie-break, so repeated calls with identical inputs rank
	// identically.
	matches := make([]JobMatch, 0, len(postings))
	for _, p := range postings {
		if linked[p.ID] {
			continue
		}
		if !e.eligible(ctx, c, p) {
			continue
		}
		score := match.Score(c, p)
		if score < minScore {
			continue
		}
		matches = append(matches, JobMatch{Posting: p, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	return truncate(matches, opts.limitOr(DefaultJobLimit)), nil
}

// CandidatesFor returns seeking, active-account candidates ranked for a
// posting. Only the posting owner may list them: ranked profiles are not an
// open enumeration surface.
func (e *Engine) CandidatesFor(ctx context.Context, postingID, actorID string, opts Options) ([]CandidateMatch, error) {
	p, err := e.store.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, &engine.ForbiddenError{Role: lifecycle.RoleEmployer, Action: "list candidates for a posting it does not own"}
	}
	linked, err := e.store.LinkedCandidateIDs(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("candidatesFor linked pairs: %w", err)
	}
	candidates, err := e.store.ListSeekingCandidates(ctx)
	if err != nil {
		return nil, &engine.UpstreamError{Op: "profile store", Err: err}
	}

	minScore := opts.minScoreOr(DefaultCandidateMinScore)
	matches := make([]CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		if linked[c.ID] {
			continue
		}
		if !e.eligible(ctx, c, p) {
			continue
		}
		score := match.Score(c, p)
		if score < minScore {
			continue
		}
		matches = append(matches, CandidateMatch{Candidate: c, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	return truncate(matches, opts.limitOr(DefaultCandidateLimit)), nil
}

// ScoreBatch scores one candidate against up to MaxBatchIDs postings.
// A per-id failure degrades that entry to score 0 with an explicit marker
// rather than aborting the whole batch.
func (e *Engine) ScoreBatch(ctx context.Context, candidateID string, postingIDs []string) ([]BatchScore, error) {
	if len(postingIDs) == 0 {
		return nil, &engine.ValidationError{Msg: "postingIds must not be empty"}
	}
	if len(postingIDs) > MaxBatchIDs {
		return nil, &engine.ValidationError{Msg: fmt.Sprintf("at most %d posting ids per batch", MaxBatchIDs)}
	}

	c, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	out := make([]BatchScore, 0, len(postingIDs))
	for _, id := range postingIDs {
		p, err := e.store.GetPosting(ctx, id)
		if err != nil {
			slog.Warn("scoreBatch posting fetch failed", "postingId", id, "err", err)
			out = append(out, BatchScore{PostingID: id, Score: 0, Failed: true})
			continue
		}
		out = append(out, BatchScore{PostingID: id, Score: match.Score(c, p)})
	}
	return out, nil
}

// eligible consults the gate for one pair. A gate failure skips the pair —
// recommendations degrade rather than abort.
func (e *Engine) eligible(ctx context.Context, c model.CandidateProfile, p model.PostingSnapshot) bool {
	if e.gate == nil {
		return true
	}
	decision, err := e.gate.CanApply(ctx, c, p)
	if err != nil {
		slog.Warn("recommendation eligibility check failed", "candidateId", c.ID, "postingId", p.ID, "err", err)
		return false
	}
	return decision.OK
}

func (o Options) limitOr(def int) int {
	limit := o.Limit
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

func (o Options) minScoreOr(def int) int {
	if o.MinScore <= 0 {
		return def
	}
	return o.MinScore
}

func truncate[T any](in []T, limit int) []T {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}
