package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/database"
)

// GradeTx exposes the writes available inside one batch transaction. All
// component score and aggregate mutations for a submission go through a single
// GradeTx so the batch commits or rolls back as a whole.
type GradeTx interface {
	// UpsertComponentScore inserts the score or overwrites it in place when
	// the (student, assessment, subject, class, cycle) row already exists.
	UpsertComponentScore(ctx context.Context, score *models.ComponentScore) error
	// SumComponentScores returns the full accumulated total for the key,
	// including rows written by earlier batches.
	SumComponentScores(ctx context.Context, key models.AggregateKey) (float64, error)
	// UpsertAggregate creates the aggregate or overwrites total, grade,
	// remark and the linked assessment set. Position is left untouched on
	// update; rank recomputation owns it.
	UpsertAggregate(ctx context.Context, aggregate *models.Aggregate) error
}

// GradeUnitOfWork opens batch transactions bounded by the configured timeout.
type GradeUnitOfWork struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewGradeUnitOfWork constructs the unit of work.
func NewGradeUnitOfWork(db *sqlx.DB, timeout time.Duration) *GradeUnitOfWork {
	return &GradeUnitOfWork{db: db, timeout: timeout}
}

// Within runs fn inside one transaction; any error rolls the whole batch back.
func (u *GradeUnitOfWork) Within(ctx context.Context, fn func(tx GradeTx) error) error {
	return database.WithinTx(ctx, u.db, u.timeout, func(tx *sqlx.Tx) error {
		return fn(&gradeTx{tx: tx})
	})
}

type gradeTx struct {
	tx *sqlx.Tx
}

func (g *gradeTx) UpsertComponentScore(ctx context.Context, score *models.ComponentScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO component_scores (id, student_id, assessment_id, subject_id, class_id, grading_cycle_id, score, created_at, updated_at)
        VALUES (:id, :student_id, :assessment_id, :subject_id, :class_id, :grading_cycle_id, :score, :created_at, :updated_at)
        ON CONFLICT (student_id, assessment_id, subject_id, class_id, grading_cycle_id)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := g.tx.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert component score: %w", err)
	}
	return nil
}

func (g *gradeTx) SumComponentScores(ctx context.Context, key models.AggregateKey) (float64, error) {
	const query = `SELECT COALESCE(SUM(score), 0) FROM component_scores
        WHERE student_id = $1 AND subject_id = $2 AND class_id = $3 AND grading_cycle_id = $4`
	var total float64
	if err := g.tx.GetContext(ctx, &total, query, key.StudentID, key.SubjectID, key.ClassID, key.GradingCycleID); err != nil {
		return 0, fmt.Errorf("sum component scores: %w", err)
	}
	return total, nil
}

func (g *gradeTx) UpsertAggregate(ctx context.Context, aggregate *models.Aggregate) error {
	if aggregate.ID == "" {
		aggregate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if aggregate.CreatedAt.IsZero() {
		aggregate.CreatedAt = now
	}
	aggregate.UpdatedAt = now
	const query = `INSERT INTO aggregates (id, student_id, subject_id, class_id, grading_cycle_id, total, grade, remark, position, assessment_ids, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :class_id, :grading_cycle_id, :total, :grade, :remark, :position, :assessment_ids, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, class_id, grading_cycle_id)
        DO UPDATE SET total = EXCLUDED.total, grade = EXCLUDED.grade, remark = EXCLUDED.remark,
            assessment_ids = EXCLUDED.assessment_ids, updated_at = EXCLUDED.updated_at`
	if _, err := g.tx.NamedExecContext(ctx, query, aggregate); err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}
