package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
)

// pgUniqueViolation is the SQLSTATE raised by the partial unique index on
// (candidate_id, posting_id) WHERE status <> 'WITHDRAWN'.
const pgUniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query
// methods serve pooled and transactional access.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the production engine.Store backed by pgx.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
}

// NewPostgres returns a Postgres store over the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

// ── ProfileStore ──────────────────────────────────────────────────────────

const candidateColumns = `id, primary_specialty, subspecialties, years_experience, skills,
	verification, rating, review_count, preferred_categories,
	preferred_budget_min, preferred_budget_max, remote_preference,
	seeking_opportunities, account_active, created_at`

func (s *Postgres) GetCandidate(ctx context.Context, id string) (model.CandidateProfile, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CandidateProfile{}, engine.ErrNotFound
	}
	if err != nil {
		return model.CandidateProfile{}, fmt.Errorf("getCandidate: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListSeekingCandidates(ctx context.Context) ([]model.CandidateProfile, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE seeking_opportunities AND account_active
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listSeekingCandidates query: %w", err)
	}
	defer rows.Close()

	var out []model.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("listSeekingCandidates scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCandidate(row pgx.Row) (model.CandidateProfile, error) {
	var c model.CandidateProfile
	err := row.Scan(
		&c.ID, &c.PrimarySpecialty, &c.Subspecialties, &c.YearsExperience, &c.Skills,
		&c.Verification, &c.Rating, &c.ReviewCount, &c.PreferredCategories,
		&c.PreferredBudgetMin, &c.PreferredBudgetMax, &c.RemotePreference,
		&c.SeekingOpportunities, &c.AccountActive, &c.CreatedAt,
	)
	return c, err
}

// ── PostingStore ──────────────────────────────────────────────────────────

const postingColumns = `id, owner_id, specialty, subspecialties, required_skills,
	min_years, required_level, budget_amount, budget_type, location,
	category, visibility, status, deadline, created_at`

func (s *Postgres) GetPosting(ctx context.Context, id string) (model.PostingSnapshot, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PostingSnapshot{}, engine.ErrNotFound
	}
	if err != nil {
		return model.PostingSnapshot{}, fmt.Errorf("getPosting: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListActivePostings(ctx context.Context) ([]model.PostingSnapshot, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM postings
		 WHERE status = 'ACTIVE'
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listActivePostings query: %w", err)
	}
	defer rows.Close()

	var out []model.PostingSnapshot
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("listActivePostings scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosting(row pgx.Row) (model.PostingSnapshot, error) {
	var (
		p        model.PostingSnapshot
		deadline *time.Time
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Specialty, &p.Subspecialties, &p.RequiredSkills,
		&p.MinYears, &p.RequiredLevel, &p.BudgetAmount, &p.BudgetType, &p.Location,
		&p.Category, &p.Visibility, &p.Status, &deadline, &p.CreatedAt,
	)
	if deadline != nil {
		p.Deadline = *deadline
	}
	return p, err
}

func (s *Postgres) SetPostingStatus(ctx context.Context, id string, status lifecycle.PostingStatus) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE postings SET status = $2::posting_status, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("setPostingStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// ── ApplicationStore ──────────────────────────────────────────────────────

const applicationColumns = `id, candidate_id, posting_id, status, match_score,
	proposal, employer_notes, candidate_feedback, employer_feedback,
	communication_log, interview, contract, created_at, updated_at`

func (s *Postgres) GetApplication(ctx context.Context, id string) (model.Application, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Application{}, engine.ErrNotFound
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("getApplication: %w", err)
	}
	return app, nil
}

func (s *Postgres) CreateApplication(ctx context.Context, app model.Application) error {
	proposal, logJSON, fields, err := marshalApplication(app)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx,
		`INSERT INTO applications
		   (id, candidate_id, posting_id, status, match_score, proposal,
		    employer_notes, candidate_feedback, employer_feedback,
		    communication_log, interview, contract, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::application_status, $5, $6::jsonb,
		         $7, $8::jsonb, $9::jsonb, $10::jsonb, $11::jsonb, $12::jsonb, $13, $14)`,
		app.ID, app.CandidateID, app.PostingID, string(app.Status), app.MatchScore, proposal,
		app.EmployerNotes, fields.candidateFeedback, fields.employerFeedback,
		logJSON, fields.interview, fields.contract, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return engine.ErrDuplicateApplication
		}
		return fmt.Errorf("createApplication: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateApplication(ctx context.Context, app model.Application) error {
	proposal, logJSON, fields, err := marshalApplication(app)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx,
		`UPDATE applications
		 SET status = $2::application_status, match_score = $3, proposal = $4::jsonb,
		     employer_notes = $5, candidate_feedback = $6::jsonb,
		     employer_feedback = $7::jsonb, communication_log = $8::jsonb,
		     interview = $9::jsonb, contract = $10::jsonb, updated_at = $11
		 WHERE id = $1`,
		app.ID, string(app.Status), app.MatchScore, proposal,
		app.EmployerNotes, fields.candidateFeedback, fields.employerFeedback,
		logJSON, fields.interview, fields.contract, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updateApplication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByPosting(ctx context.Context, postingID string) ([]model.Application, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE posting_id = $1
		 ORDER BY created_at, id`, postingID)
	if err != nil {
		return nil, fmt.Errorf("listByPosting query: %w", err)
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("listByPosting scan: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Postgres) HasOpenApplication(ctx context.Context, candidateID, postingID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM applications
		   WHERE candidate_id = $1 AND posting_id = $2 AND status <> 'WITHDRAWN'
		 )`, candidateID, postingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("hasOpenApplication: %w", err)
	}
	return exists, nil
}

func (s *Postgres) LinkedPostingIDs(ctx context.Context, candidateID string) (map[string]bool, error) {
	rows, err := s.q.Query(ctx,
		`SELECT posting_id FROM applications
		 WHERE candidate_id = $1 AND status <> 'WITHDRAWN'`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("linkedPostingIDs query: %w", err)
	}
	defer rows.Close()
	return scanIDSet(rows)
}

func (s *Postgres) LinkedCandidateIDs(ctx context.Context, postingID string) (map[string]bool, error) {
	rows, err := s.q.Query(ctx,
		`SELECT candidate_id FROM applications
		 WHERE posting_id = $1 AND status <> 'WITHDRAWN'`, postingID)
	if err != nil {
		return nil, fmt.Errorf("linkedCandidateIDs query: %w", err)
	}
	defer rows.Close()
	return scanIDSet(rows)
}

func scanIDSet(rows pgx.Rows) (map[string]bool, error) {
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("id scan: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ── Per-posting serialization ─────────────────────────────────────────────

// WithPostingLock opens a transaction and takes a row-level exclusive lock
// on the posting, so two concurrent accept-cascades on the same posting
// serialize at the database. Writes inside fn commit only if fn returns nil.
func (s *Postgres) WithPostingLock(ctx context.Context, postingID string, fn func(engine.Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("withPostingLock: nested locking is not supported")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("withPostingLock begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM postings WHERE id = $1 FOR UPDATE`, postingID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("withPostingLock lock: %w", err)
	}

	if err := fn(&Postgres{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("withPostingLock commit: %w", err)
	}
	return nil
}

// ── JSON marshalling helpers ──────────────────────────────────────────────

type applicationJSONFields struct {
	candidateFeedback []byte
	employerFeedback  []byte
	interview         []byte
	contract          []byte
}

func marshalApplication(app model.Application) (proposal, logJSON []byte, fields applicationJSONFields, err error) {
	if proposal, err = json.Marshal(app.Proposal); err != nil {
		return nil, nil, fields, fmt.Errorf("marshal proposal: %w", err)
	}
	log := app.CommunicationLog
	if log == nil {
		log = []model.CommunicationEntry{}
	}
	if logJSON, err = json.Marshal(log); err != nil {
		return nil, nil, fields, fmt.Errorf("marshal communication log: %w", err)
	}
	if fields.candidateFeedback, err = marshalOptional(app.CandidateFeedback); err != nil {
		return nil, nil, fields, err
	}
	if fields.employerFeedback, err = marshalOptional(app.EmployerFeedback); err != nil {
		return nil, nil, fields, err
	}
	if fields.interview, err = marshalOptional(app.Interview); err != nil {
		return nil, nil, fields, err
	}
	if fields.contract, err = marshalOptional(app.Contract); err != nil {
		return nil, nil, fields, err
	}
	return proposal, logJSON, fields, nil
}

func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal optional field: %w", err)
	}
	return b, nil
}

func scanApplication(row pgx.Row) (model.Application, error) {
	var (
		app                        model.Application
		proposal, logJSON          []byte
		candFeedback, emplFeedback []byte
		interview, contract        []byte
	)
	err := row.Scan(
		&app.ID, &app.CandidateID, &app.PostingID, &app.Status, &app.MatchScore,
		&proposal, &app.EmployerNotes, &candFeedback, &emplFeedback,
		&logJSON, &interview, &contract, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return model.Application{}, err
	}
	if err := json.Unmarshal(proposal, &app.Proposal); err != nil {
		return model.Application{}, fmt.Errorf("unmarshal proposal: %w", err)
	}
	if err := json.Unmarshal(logJSON, &app.CommunicationLog); err != nil {
		return model.Application{}, fmt.Errorf("unmarshal communication log: %w", err)
	}
	if err := unmarshalOptional(candFeedback, &app.CandidateFeedback); err != nil {
		return model.Application{}, err
	}
	if err := unmarshalOptional(emplFeedback, &app.EmployerFeedback); err != nil {
		return model.Application{}, err
	}
	if err := unmarshalOptional(interview, &app.Interview); err != nil {
		return model.Application{}, err
	}
	if err := unmarshalOptional(contract, &app.Contract); err != nil {
		return model.Application{}, err
	}
	return app, nil
}

func unmarshalOptional[T any](raw []byte, dst **T) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal optional field: %w", err)
	}
	*dst = &v
	return nil
}
