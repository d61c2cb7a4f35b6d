// Package store provides the persistence implementations of engine.Store:
// a PostgreSQL store for production and an in-memory store for tests and
// local development.
package store

import (
	"context"
	"sort"
	"sync"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
)

// Memory is an in-process engine.Store. Per-posting serialization is a
// mutex per posting id; the engine validates before its first write inside
// a lock, so applying writes directly preserves the same observable
// behavior as a transaction.
type Memory struct {
	mu           sync.RWMutex
	candidates   map[string]model.CandidateProfile
	postings     map[string]model.PostingSnapshot
	applications map[string]model.Application

	lockMu       sync.Mutex
	postingLocks map[string]*sync.Mutex
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		candidates:   make(map[string]model.CandidateProfile),
		postings:     make(map[string]model.PostingSnapshot),
		applications: make(map[string]model.Application),
		postingLocks: make(map[string]*sync.Mutex),
	}
}

// SeedCandidate inserts or replaces a candidate snapshot.
func (m *Memory) SeedCandidate(c model.CandidateProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = c
}

// SeedPosting inserts or replaces a posting snapshot.
func (m *Memory) SeedPosting(p model.PostingSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings[p.ID] = p
}

// ── ProfileStore ──────────────────────────────────────────────────────────

func (m *Memory) GetCandidate(_ context.Context, id string) (model.CandidateProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return model.CandidateProfile{}, engine.ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListSeekingCandidates(_ context.Context) ([]model.CandidateProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.CandidateProfile
	for _, c := range m.candidates {
		if c.SeekingOpportunities && c.AccountActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ── PostingStore ──────────────────────────────────────────────────────────

func (m *Memory) GetPosting(_ context.Context, id string) (model.PostingSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.postings[id]
	if !ok {
		return model.PostingSnapshot{}, engine.ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListActivePostings(_ context.Context) ([]model.PostingSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PostingSnapshot
	for _, p := range m.postings {
		if p.Status == lifecycle.PostingActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) SetPostingStatus(_ context.Context, id string, status lifecycle.PostingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[id]
	if !ok {
		return engine.ErrNotFound
	}
	p.Status = status
	m.postings[id] = p
	return nil
}

// ── ApplicationStore ──────────────────────────────────────────────────────

func (m *Memory) GetApplication(_ context.Context, id string) (model.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.applications[id]
	if !ok {
		return model.Application{}, engine.ErrNotFound
	}
	return cloneApplication(app), nil
}

func (m *Memory) CreateApplication(_ context.Context, app model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.applications {
		if existing.CandidateID == app.CandidateID &&
			existing.PostingID == app.PostingID &&
			existing.Status != lifecycle.AppWithdrawn {
			return engine.ErrDuplicateApplication
		}
	}
	m.applications[app.ID] = cloneApplication(app)
	return nil
}

func (m *Memory) UpdateApplication(_ context.Context, app model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[app.ID]; !ok {
		return engine.ErrNotFound
	}
	m.applications[app.ID] = cloneApplication(app)
	return nil
}

func (m *Memory) ListByPosting(_ context.Context, postingID string) ([]model.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Application
	for _, app := range m.applications {
		if app.PostingID == postingID {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) HasOpenApplication(_ context.Context, candidateID, postingID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, app := range m.applications {
		if app.CandidateID == candidateID && app.PostingID == postingID &&
			app.Status != lifecycle.AppWithdrawn {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) LinkedPostingIDs(_ context.Context, candidateID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool)
	for _, app := range m.applications {
		if app.CandidateID == candidateID && app.Status != lifecycle.AppWithdrawn {
			out[app.PostingID] = true
		}
	}
	return out, nil
}

func (m *Memory) LinkedCandidateIDs(_ context.Context, postingID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool)
	for _, app := range m.applications {
		if app.PostingID == postingID && app.Status != lifecycle.AppWithdrawn {
			out[app.CandidateID] = true
		}
	}
	return out, nil
}

// ── Per-posting serialization ─────────────────────────────────────────────

// WithPostingLock serializes fn against every other locked section on the
// same posting id.
func (m *Memory) WithPostingLock(_ context.Context, postingID string, fn func(engine.Store) error) error {
	lock := m.postingLock(postingID)
	lock.Lock()
	defer lock.Unlock()
	return fn(m)
}

func (m *Memory) postingLock(postingID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.postingLocks[postingID]
	if !ok {
		lock = &sync.Mutex{}
		m.postingLocks[postingID] = lock
	}
	return lock
}

// cloneApplication copies the slices and pointers so callers never alias
// stored state.
func cloneApplication(app model.Application) model.Application {
	out := app
	out.CommunicationLog = append([]model.CommunicationEntry(nil), app.CommunicationLog...)
	if app.CandidateFeedback != nil {
		fb := *app.CandidateFeedback
		out.CandidateFeedback = &fb
	}
	if app.EmployerFeedback != nil {
		fb := *app.EmployerFeedback
		out.EmployerFeedback = &fb
	}
	if app.Interview != nil {
		iv := *app.Interview
		out.Interview = &iv
	}
	if app.Contract != nil {
		ct := *app.Contract
		out.Contract = &ct
	}
	return out
}
