package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// GradingCycleRepository handles grading cycle lookups.
type GradingCycleRepository struct {
	db *sqlx.DB
}

// NewGradingCycleRepository creates a new grading cycle repository.
func NewGradingCycleRepository(db *sqlx.DB) *GradingCycleRepository {
	return &GradingCycleRepository{db: db}
}

// FindByID returns one grading cycle. sql.ErrNoRows is returned unwrapped so
// callers can translate it to a not-found response.
func (r *GradingCycleRepository) FindByID(ctx context.Context, id string) (*models.GradingCycle, error) {
	const query = `SELECT id, policy_id, session, term, created_at, updated_at
        FROM grading_cycles WHERE id = $1`
	var cycle models.GradingCycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// FindPolicy returns the policy a cycle is bound to.
func (r *GradingCycleRepository) FindPolicy(ctx context.Context, policyID string) (*models.GradingPolicy, error) {
	const query = `SELECT id, name, pass_mark, max_score, created_at, updated_at
        FROM grading_policies WHERE id = $1`
	var policy models.GradingPolicy
	if err := r.db.GetContext(ctx, &policy, query, policyID); err != nil {
		return nil, fmt.Errorf("find grading policy: %w", err)
	}
	return &policy, nil
}
