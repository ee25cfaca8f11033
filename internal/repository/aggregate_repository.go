package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// AggregateRepository serves read-side aggregate queries and the
// non-transactional position writes issued by rank recomputation.
type AggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository creates a new aggregate repository.
func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// List returns aggregates matching the filter with display fields, ordered by
// total descending with student id as the deterministic tie-break.
func (r *AggregateRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Aggregate, error) {
	query := `SELECT a.id, a.student_id, a.subject_id, a.class_id, a.grading_cycle_id,
        a.total, a.grade, a.remark, a.position, a.assessment_ids, a.created_at, a.updated_at,
        st.full_name AS student_name, s.name AS subject_name, c.name AS class_name
        FROM aggregates a
        JOIN students st ON st.id = a.student_id
        LEFT JOIN subjects s ON s.id = a.subject_id
        LEFT JOIN classes c ON c.id = a.class_id
        WHERE 1=1`
	var args []interface{}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND a.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND a.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.GradingCycleID != "" {
		query += fmt.Sprintf(" AND a.grading_cycle_id = $%d", len(args)+1)
		args = append(args, filter.GradingCycleID)
	}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND a.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	query += " ORDER BY a.total DESC, a.student_id ASC"
	var aggregates []models.Aggregate
	if err := r.db.SelectContext(ctx, &aggregates, query, args...); err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	return aggregates, nil
}

// ListPeerGroup returns every aggregate sharing the peer group key, ordered
// for ranking: total descending, then student id ascending.
func (r *AggregateRepository) ListPeerGroup(ctx context.Context, key models.PeerGroupKey) ([]models.RankedAggregate, error) {
	const query = `SELECT id, student_id, total FROM aggregates
        WHERE subject_id = $1 AND class_id = $2 AND grading_cycle_id = $3
        ORDER BY total DESC, student_id ASC`
	var rows []models.RankedAggregate
	if err := r.db.SelectContext(ctx, &rows, query, key.SubjectID, key.ClassID, key.GradingCycleID); err != nil {
		return nil, fmt.Errorf("list peer group: %w", err)
	}
	return rows, nil
}

// UpdatePosition writes one recomputed position outside any transaction.
func (r *AggregateRepository) UpdatePosition(ctx context.Context, update models.PositionUpdate) error {
	const query = `UPDATE aggregates SET position = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, update.Position, time.Now().UTC(), update.AggregateID); err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	return nil
}
