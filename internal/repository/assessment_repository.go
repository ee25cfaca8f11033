package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// AssessmentRepository handles assessment definition lookups.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByIDs returns the definitions matching the provided ids. Callers detect
// unknown ids by comparing result length against the requested set.
func (r *AssessmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.AssessmentDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, policy_id, name, weight, max_score, created_at, updated_at
        FROM assessment_definitions WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var definitions []models.AssessmentDefinition
	if err := r.db.SelectContext(ctx, &definitions, query, args...); err != nil {
		return nil, fmt.Errorf("find assessment definitions: %w", err)
	}
	return definitions, nil
}

// ListByPolicy returns every definition belonging to a grading policy.
func (r *AssessmentRepository) ListByPolicy(ctx context.Context, policyID string) ([]models.AssessmentDefinition, error) {
	const query = `SELECT id, policy_id, name, weight, max_score, created_at, updated_at
        FROM assessment_definitions WHERE policy_id = $1 ORDER BY name`
	var definitions []models.AssessmentDefinition
	if err := r.db.SelectContext(ctx, &definitions, query, policyID); err != nil {
		return nil, fmt.Errorf("list assessment definitions: %w", err)
	}
	return definitions, nil
}
