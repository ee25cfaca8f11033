package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// ScoreRepository serves read-side component score queries. Writes happen
// through GradeUnitOfWork so they share the batch transaction.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// List returns component scores matching the filter with display fields,
// ordered by student then assessment.
func (r *ScoreRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.ComponentScore, error) {
	query := `SELECT cs.id, cs.student_id, cs.assessment_id, cs.subject_id, cs.class_id, cs.grading_cycle_id,
        cs.score, cs.created_at, cs.updated_at,
        st.full_name AS student_name, ad.name AS assessment_name, ad.max_score AS assessment_max_score
        FROM component_scores cs
        JOIN students st ON st.id = cs.student_id
        JOIN assessment_definitions ad ON ad.id = cs.assessment_id
        WHERE 1=1`
	var args []interface{}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND cs.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND cs.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.GradingCycleID != "" {
		query += fmt.Sprintf(" AND cs.grading_cycle_id = $%d", len(args)+1)
		args = append(args, filter.GradingCycleID)
	}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND cs.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	query += " ORDER BY st.full_name, ad.name"
	var scores []models.ComponentScore
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list component scores: %w", err)
	}
	return scores, nil
}
