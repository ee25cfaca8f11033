package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
)

func newScoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryList(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "assessment_id", "subject_id", "class_id", "grading_cycle_id",
		"score", "created_at", "updated_at", "student_name", "assessment_name", "assessment_max_score"}).
		AddRow("cs-1", "stu-1", "mid", "math", "jss1", "cycle-1", 35.0, time.Now(), time.Now(), "Ada Obi", "Midterm", 40.0)
	mock.ExpectQuery(regexp.QuoteMeta("AND cs.class_id = $1 AND cs.subject_id = $2 ORDER BY st.full_name, ad.name")).
		WithArgs("jss1", "math").
		WillReturnRows(rows)

	scores, err := repo.List(context.Background(), models.GradeFilter{ClassID: "jss1", SubjectID: "math"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "Midterm", scores[0].AssessmentName)
	assert.Equal(t, 40.0, scores[0].AssessmentMaxScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND cs.student_id = $1 ORDER BY st.full_name, ad.name")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "assessment_id", "subject_id", "class_id", "grading_cycle_id",
			"score", "created_at", "updated_at", "student_name", "assessment_name", "assessment_max_score"}))

	scores, err := repo.List(context.Background(), models.GradeFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}
