package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
	"medmatch/matching-service/internal/recommend"
	"medmatch/matching-service/internal/store"
)

type allowAllGate struct{}

func (allowAllGate) CanApply(context.Context, model.CandidateProfile, model.PostingSnapshot) (engine.Decision, error) {
	return engine.Decision{OK: true}, nil
}

type denyAllGate struct{}

func (denyAllGate) CanApply(context.Context, model.CandidateProfile, model.PostingSnapshot) (engine.Decision, error) {
	return engine.Decision{OK: false, Reasons: []string{"closed doors"}}, nil
}

type failingGate struct{}

func (failingGate) CanApply(context.Context, model.CandidateProfile, model.PostingSnapshot) (engine.Decision, error) {
	return engine.Decision{}, errors.New("gate unavailable")
}

var baseTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func seedCandidate(mem *store.Memory) model.CandidateProfile {
	c := model.CandidateProfile{
		ID:                   "cand-1",
		PrimarySpecialty:     "Cardiology",
		YearsExperience:      6,
		Skills:               []string{"Echocardiography"},
		RemotePreference:     model.Flexible,
		SeekingOpportunities: true,
		AccountActive:        true,
		CreatedAt:            baseTime,
	}
	mem.SeedCandidate(c)
	return c
}

func activePosting(id string, created time.Time) model.PostingSnapshot {
	return model.PostingSnapshot{
		ID:             id,
		OwnerID:        "emp-1",
		Specialty:      "Cardiology",
		RequiredSkills: []string{"Echocardiography"},
		MinYears:       3,
		RequiredLevel:  "mid-level",
		Location:       model.LocationRemote,
		Status:         lifecycle.PostingActive,
		CreatedAt:      created,
	}
}

// seedTieredPostings seeds three active postings scoring 100, 86 and 60
// against the fixture candidate.
func seedTieredPostings(mem *store.Memory) {
	exact := activePosting("p-exact", baseTime)
	mem.SeedPosting(exact)

	senior := activePosting("p-senior", baseTime.Add(time.Minute))
	senior.MinYears = 10
	senior.RequiredLevel = "senior"
	mem.SeedPosting(senior)

	offSpecialty := activePosting("p-derm", baseTime.Add(2*time.Minute))
	offSpecialty.Specialty = "Dermatology"
	mem.SeedPosting(offSpecialty)
}

// ── JobsFor ────────────────────────────────────────────────────────────────

func TestJobsFor_RanksByScoreDescending(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, allowAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "p-exact", matches[0].Posting.ID)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, "p-senior", matches[1].Posting.ID)
	assert.Equal(t, "p-derm", matches[2].Posting.ID)
	assert.True(t, matches[1].Score > matches[2].Score)
}

func TestJobsFor_MinScoreFilters(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, allowAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{MinScore: 70})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 70)
	}
}

func TestJobsFor_LimitTruncates(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, allowAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{Limit: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p-exact", matches[0].Posting.ID)
}

func TestJobsFor_TieBreakIsCreationOrder(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	mem.SeedPosting(activePosting("p-older", baseTime))
	mem.SeedPosting(activePosting("p-newer", baseTime.Add(time.Hour)))
	eng := recommend.New(mem, allowAllGate{})

	for i := 0; i < 5; i++ {
		matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, matches[0].Score, matches[1].Score)
		assert.Equal(t, "p-older", matches[0].Posting.ID)
		assert.Equal(t, "p-newer", matches[1].Posting.ID)
	}
}

func TestJobsFor_ExcludesLinkedPostings(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	require.NoError(t, mem.CreateApplication(context.Background(), model.Application{
		ID: "app-1", CandidateID: "cand-1", PostingID: "p-exact",
		Status: lifecycle.AppSubmitted, CreatedAt: baseTime,
	}))
	eng := recommend.New(mem, allowAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, "p-exact", m.Posting.ID)
	}
}

func TestJobsFor_WithdrawnLinkDoesNotExclude(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	require.NoError(t, mem.CreateApplication(context.Background(), model.Application{
		ID: "app-1", CandidateID: "cand-1", PostingID: "p-exact",
		Status: lifecycle.AppWithdrawn, CreatedAt: baseTime,
	}))
	eng := recommend.New(mem, allowAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "p-exact", matches[0].Posting.ID)
}

func TestJobsFor_IneligiblePairsSkipped(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, denyAllGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestJobsFor_GateFailureDegradesToSkip(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, failingGate{})

	matches, err := eng.JobsFor(context.Background(), "cand-1", recommend.Options{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestJobsFor_UnknownCandidate(t *testing.T) {
	mem := store.NewMemory()
	eng := recommend.New(mem, allowAllGate{})

	_, err := eng.JobsFor(context.Background(), "ghost", recommend.Options{})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

// ── CandidatesFor ──────────────────────────────────────────────────────────

func TestCandidatesFor_RanksSeekingCandidates(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPosting(activePosting("p-exact", baseTime))

	strong := seedCandidate(mem)

	weak := strong
	weak.ID = "cand-weak"
	weak.PrimarySpecialty = "Dermatology"
	weak.CreatedAt = baseTime.Add(time.Minute)
	mem.SeedCandidate(weak)

	notSeeking := strong
	notSeeking.ID = "cand-idle"
	notSeeking.SeekingOpportunities = false
	mem.SeedCandidate(notSeeking)

	eng := recommend.New(mem, allowAllGate{})
	matches, err := eng.CandidatesFor(context.Background(), "p-exact", "emp-1", recommend.Options{MinScore: 1})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "cand-1", matches[0].Candidate.ID)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, "cand-weak", matches[1].Candidate.ID)
}

func TestCandidatesFor_DefaultMinScoreIsStricter(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPosting(activePosting("p-exact", baseTime))

	strong := seedCandidate(mem)
	weak := strong
	weak.ID = "cand-weak"
	weak.PrimarySpecialty = "Dermatology"
	weak.Skills = nil // scores 40, below the default 60 cut

	mem.SeedCandidate(weak)

	eng := recommend.New(mem, allowAllGate{})
	matches, err := eng.CandidatesFor(context.Background(), "p-exact", "emp-1", recommend.Options{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "cand-1", matches[0].Candidate.ID)
}

func TestCandidatesFor_UnknownPosting(t *testing.T) {
	mem := store.NewMemory()
	eng := recommend.New(mem, allowAllGate{})

	_, err := eng.CandidatesFor(context.Background(), "ghost", "emp-1", recommend.Options{})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCandidatesFor_NonOwnerForbidden(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedPosting(activePosting("p-exact", baseTime))
	seedCandidate(mem)
	eng := recommend.New(mem, allowAllGate{})

	_, err := eng.CandidatesFor(context.Background(), "p-exact", "someone-else", recommend.Options{})
	var forbidden *engine.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

// ── ScoreBatch ─────────────────────────────────────────────────────────────

func TestScoreBatch_MixedResults(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	seedTieredPostings(mem)
	eng := recommend.New(mem, allowAllGate{})

	scores, err := eng.ScoreBatch(context.Background(), "cand-1",
		[]string{"p-exact", "ghost", "p-derm"})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, recommend.BatchScore{PostingID: "p-exact", Score: 100}, scores[0])
	assert.Equal(t, recommend.BatchScore{PostingID: "ghost", Score: 0, Failed: true}, scores[1])
	assert.Equal(t, "p-derm", scores[2].PostingID)
	assert.False(t, scores[2].Failed)
}

func TestScoreBatch_EmptyIDs(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	eng := recommend.New(mem, allowAllGate{})

	_, err := eng.ScoreBatch(context.Background(), "cand-1", nil)
	var validation *engine.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestScoreBatch_TooManyIDs(t *testing.T) {
	mem := store.NewMemory()
	seedCandidate(mem)
	eng := recommend.New(mem, allowAllGate{})

	ids := make([]string, recommend.MaxBatchIDs+1)
	for i := range ids {
		ids[i] = "p"
	}
	_, err := eng.ScoreBatch(context.Background(), "cand-1", ids)
	var validation *engine.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestScoreBatch_UnknownCandidate(t *testing.T) {
	mem := store.NewMemory()
	eng := recommend.New(mem, allowAllGate{})

	_, err := eng.ScoreBatch(context.Background(), "ghost", []string{"p-exact"})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
