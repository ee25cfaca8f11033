package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
)

func newAggregateMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func aggregateColumns() []string {
	return []string{"id", "student_id", "subject_id", "class_id", "grading_cycle_id",
		"total", "grade", "remark", "position", "assessment_ids", "created_at", "updated_at",
		"student_name", "subject_name", "class_name"}
}

func TestAggregateRepositoryList(t *testing.T) {
	db, mock, cleanup := newAggregateMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	rows := sqlmock.NewRows(aggregateColumns()).
		AddRow("agg-1", "stu-1", "math", "jss1", "cycle-1", 75.0, "A", "Excellent", "1st",
			pq.StringArray{"mid", "exam"}, time.Now(), time.Now(), "Ada Obi", "Mathematics", "JSS 1").
		AddRow("agg-2", "stu-2", "math", "jss1", "cycle-1", 45.0, "D", "Pass", "2nd",
			pq.StringArray{"mid", "exam"}, time.Now(), time.Now(), "Bola Ade", "Mathematics", "JSS 1")
	mock.ExpectQuery(regexp.QuoteMeta("AND a.class_id = $1 AND a.subject_id = $2 AND a.grading_cycle_id = $3 ORDER BY a.total DESC, a.student_id ASC")).
		WithArgs("jss1", "math", "cycle-1").
		WillReturnRows(rows)

	aggregates, err := repo.List(context.Background(), models.GradeFilter{ClassID: "jss1", SubjectID: "math", GradingCycleID: "cycle-1"})
	require.NoError(t, err)
	require.Len(t, aggregates, 2)
	assert.Equal(t, "Ada Obi", aggregates[0].StudentName)
	assert.Equal(t, pq.StringArray{"mid", "exam"}, aggregates[0].AssessmentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateRepositoryListNoFilter(t *testing.T) {
	db, mock, cleanup := newAggregateMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY a.total DESC, a.student_id ASC")).
		WillReturnRows(sqlmock.NewRows(aggregateColumns()))

	aggregates, err := repo.List(context.Background(), models.GradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, aggregates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateRepositoryListPeerGroup(t *testing.T) {
	db, mock, cleanup := newAggregateMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "total"}).
		AddRow("agg-1", "stu-1", 90.0).
		AddRow("agg-2", "stu-2", 40.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, total FROM aggregates")).
		WithArgs("math", "jss1", "cycle-1").
		WillReturnRows(rows)

	ranked, err := repo.ListPeerGroup(context.Background(), models.PeerGroupKey{SubjectID: "math", ClassID: "jss1", GradingCycleID: "cycle-1"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 90.0, ranked[0].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateRepositoryUpdatePosition(t *testing.T) {
	db, mock, cleanup := newAggregateMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE aggregates SET position = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("3rd", sqlmock.AnyArg(), "agg-3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePosition(context.Background(), models.PositionUpdate{AggregateID: "agg-3", Position: "3rd"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
