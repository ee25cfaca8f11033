package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type mockAssessments struct {
	defs map[string]models.AssessmentDefinition
}

func (m *mockAssessments) FindByIDs(ctx context.Context, ids []string) ([]models.AssessmentDefinition, error) {
	var result []models.AssessmentDefinition
	for _, id := range ids {
		if def, ok := m.defs[id]; ok {
			result = append(result, def)
		}
	}
	return result, nil
}

func (m *mockAssessments) ListByPolicy(ctx context.Context, policyID string) ([]models.AssessmentDefinition, error) {
	var result []models.AssessmentDefinition
	for _, def := range m.defs {
		if def.PolicyID == policyID {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type mockCycles struct {
	cycles map[string]*models.GradingCycle
}

func (m *mockCycles) FindByID(ctx context.Context, id string) (*models.GradingCycle, error) {
	if cycle, ok := m.cycles[id]; ok {
		return cycle, nil
	}
	return nil, sql.ErrNoRows
}

// memStore backs the unit of work, the read repositories and the rank phase
// with one in-memory table pair so tests observe the whole pipeline.
type memStore struct {
	mu         sync.Mutex
	scores     map[string]models.ComponentScore
	aggregates map[string]models.Aggregate

	txErr            error
	failOnAssessment string
	listAggErr       error
	listScoreErr     error
	peerErr          error
	posErr           error

	listAggCalls int
}

func newMemStore() *memStore {
	return &memStore{
		scores:     make(map[string]models.ComponentScore),
		aggregates: make(map[string]models.Aggregate),
	}
}

func scoreKey(s models.ComponentScore) string {
	return strings.Join([]string{s.StudentID, s.AssessmentID, s.SubjectID, s.ClassID, s.GradingCycleID}, "|")
}

func aggKey(studentID, subjectID, classID, cycleID string) string {
	return strings.Join([]string{studentID, subjectID, classID, cycleID}, "|")
}

func (m *memStore) Within(ctx context.Context, fn func(tx repository.GradeTx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	m.mu.Lock()
	scoreSnapshot := make(map[string]models.ComponentScore, len(m.scores))
	for k, v := range m.scores {
		scoreSnapshot[k] = v
	}
	aggSnapshot := make(map[string]models.Aggregate, len(m.aggregates))
	for k, v := range m.aggregates {
		aggSnapshot[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.scores = scoreSnapshot
		m.aggregates = aggSnapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) UpsertComponentScore(ctx context.Context, score *models.ComponentScore) error {
	if m.failOnAssessment != "" && score.AssessmentID == m.failOnAssessment {
		return errors.New("constraint violation")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scoreKey(*score)
	if existing, ok := m.scores[key]; ok {
		existing.Score = score.Score
		m.scores[key] = existing
		return nil
	}
	stored := *score
	stored.ID = fmt.Sprintf("cs-%d", len(m.scores)+1)
	m.scores[key] = stored
	return nil
}

func (m *memStore) SumComponentScores(ctx context.Context, key models.AggregateKey) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, score := range m.scores {
		if score.StudentID == key.StudentID && score.SubjectID == key.SubjectID &&
			score.ClassID == key.ClassID && score.GradingCycleID == key.GradingCycleID {
			total += score.Score
		}
	}
	return total, nil
}

func (m *memStore) UpsertAggregate(ctx context.Context, aggregate *models.Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aggKey(aggregate.StudentID, aggregate.SubjectID, aggregate.ClassID, aggregate.GradingCycleID)
	if existing, ok := m.aggregates[key]; ok {
		existing.Total = aggregate.Total
		existing.Grade = aggregate.Grade
		existing.Remark = aggregate.Remark
		existing.AssessmentIDs = aggregate.AssessmentIDs
		m.aggregates[key] = existing
		return nil
	}
	stored := *aggregate
	stored.ID = fmt.Sprintf("agg-%d", len(m.aggregates)+1)
	m.aggregates[key] = stored
	return nil
}

func (m *memStore) List(ctx context.Context, filter models.GradeFilter) ([]models.Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listAggCalls++
	if m.listAggErr != nil {
		return nil, m.listAggErr
	}
	var result []models.Aggregate
	for _, aggregate := range m.aggregates {
		if filter.ClassID != "" && aggregate.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && aggregate.SubjectID != filter.SubjectID {
			continue
		}
		if filter.GradingCycleID != "" && aggregate.GradingCycleID != filter.GradingCycleID {
			continue
		}
		if filter.StudentID != "" && aggregate.StudentID != filter.StudentID {
			continue
		}
		result = append(result, aggregate)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

func (m *memStore) scoreList(ctx context.Context, filter models.GradeFilter) ([]models.ComponentScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listScoreErr != nil {
		return nil, m.listScoreErr
	}
	var result []models.ComponentScore
	for _, score := range m.scores {
		if filter.ClassID != "" && score.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && score.SubjectID != filter.SubjectID {
			continue
		}
		if filter.GradingCycleID != "" && score.GradingCycleID != filter.GradingCycleID {
			continue
		}
		if filter.StudentID != "" && score.StudentID != filter.StudentID {
			continue
		}
		result = append(result, score)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StudentID != result[j].StudentID {
			return result[i].StudentID < result[j].StudentID
		}
		return result[i].AssessmentID < result[j].AssessmentID
	})
	return result, nil
}

// scoreReaderAdapter lets memStore satisfy scoreReader alongside
// aggregateReader without a method name clash.
type scoreReaderAdapter struct {
	store *memStore
}

func (a scoreReaderAdapter) List(ctx context.Context, filter models.GradeFilter) ([]models.ComponentScore, error) {
	return a.store.scoreList(ctx, filter)
}

func (m *memStore) ListPeerGroup(ctx context.Context, key models.PeerGroupKey) ([]models.RankedAggregate, error) {
	if m.peerErr != nil {
		return nil, m.peerErr
	}
	rows, err := m.List(ctx, models.GradeFilter{ClassID: key.ClassID, SubjectID: key.SubjectID, GradingCycleID: key.GradingCycleID})
	if err != nil {
		return nil, err
	}
	ranked := make([]models.RankedAggregate, len(rows))
	for i, row := range rows {
		ranked[i] = models.RankedAggregate{ID: row.ID, StudentID: row.StudentID, Total: row.Total}
	}
	return ranked, nil
}

func (m *memStore) UpdatePosition(ctx context.Context, update models.PositionUpdate) error {
	if m.posErr != nil {
		return m.posErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, aggregate := range m.aggregates {
		if aggregate.ID == update.AggregateID {
			aggregate.Position = update.Position
			m.aggregates[key] = aggregate
			return nil
		}
	}
	return errors.New("aggregate not found")
}

type fixture struct {
	service *GradeService
	store   *memStore
}

func newFixture(t *testing.T, store *memStore) *fixture {
	t.Helper()
	assessments := &mockAssessments{defs: map[string]models.AssessmentDefinition{
		"mid":  {ID: "mid", PolicyID: "policy-1", Name: "Midterm", Weight: 40, MaxScore: 40},
		"exam": {ID: "exam", PolicyID: "policy-1", Name: "Exam", Weight: 60, MaxScore: 100},
		"alt":  {ID: "alt", PolicyID: "policy-2", Name: "Alt", Weight: 100, MaxScore: 100},
	}}
	cycles := &mockCycles{cycles: map[string]*models.GradingCycle{
		"cycle-1": {ID: "cycle-1", PolicyID: "policy-1", Session: "2025/2026", Term: "1"},
	}}
	ranks := NewRankService(store, 50, nil)
	svc := NewGradeService(assessments, cycles, store, store, scoreReaderAdapter{store}, ranks, nil, nil, time.Minute, nil, nil)
	return &fixture{service: svc, store: store}
}

func validRequest() SubmitGradesRequest {
	return SubmitGradesRequest{
		SubjectID:      "math",
		ClassID:        "jss1",
		GradingCycleID: "cycle-1",
		Assessments:    []string{"mid", "exam"},
		Students: []StudentSubmission{
			{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 35}, {AssessmentID: "exam", Score: 40}}},
			{StudentID: "stu-2", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 20}, {AssessmentID: "exam", Score: 25}}},
		},
	}
}

func TestLetterGradeBoundaries(t *testing.T) {
	cases := []struct {
		total  float64
		grade  string
		remark string
	}{
		{70, "A", "Excellent"},
		{69, "B", "Very Good"},
		{60, "B", "Very Good"},
		{59, "C", "Good"},
		{50, "C", "Good"},
		{49, "D", "Pass"},
		{45, "D", "Pass"},
		{44, "E", "Fair"},
		{40, "E", "Fair"},
		{39, "F", "Fail"},
		{0, "F", "Fail"},
	}
	for _, tc := range cases {
		grade, remark := LetterGrade(tc.total)
		assert.Equal(t, tc.grade, grade, "total %v", tc.total)
		assert.Equal(t, tc.remark, remark, "total %v", tc.total)
	}
}

func TestSubmitBatchComputesAggregatesAndPositions(t *testing.T) {
	f := newFixture(t, newMemStore())

	result, err := f.service.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.PositionsRecomputed)
	assert.Empty(t, result.RecomputeError)

	require.Len(t, result.Aggregates, 2)
	assert.Equal(t, "stu-1", result.Aggregates[0].StudentID)
	assert.Equal(t, 75.0, result.Aggregates[0].Total)
	assert.Equal(t, "A", result.Aggregates[0].Grade)
	assert.Equal(t, "Excellent", result.Aggregates[0].Remark)
	assert.Equal(t, "1st", result.Aggregates[0].Position)

	assert.Equal(t, "stu-2", result.Aggregates[1].StudentID)
	assert.Equal(t, 45.0, result.Aggregates[1].Total)
	assert.Equal(t, "D", result.Aggregates[1].Grade)
	assert.Equal(t, "2nd", result.Aggregates[1].Position)

	assert.Len(t, result.ComponentScores, 4)

	// Aggregate.total must equal the sum of stored component scores.
	for _, aggregate := range result.Aggregates {
		sum, err := f.store.SumComponentScores(context.Background(), models.AggregateKey{
			StudentID:      aggregate.StudentID,
			SubjectID:      aggregate.SubjectID,
			ClassID:        aggregate.ClassID,
			GradingCycleID: aggregate.GradingCycleID,
		})
		require.NoError(t, err)
		assert.Equal(t, sum, aggregate.Total)
	}
}

func TestSubmitBatchResubmissionOverwritesInPlace(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.NoError(t, err)

	req.Students = []StudentSubmission{{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 10}}}}
	result, err := f.service.SubmitBatch(context.Background(), req)
	require.NoError(t, err)

	// Still exactly one row per (student, assessment) key.
	assert.Len(t, f.store.scores, 4)
	require.Len(t, result.Aggregates, 2)
	assert.Equal(t, 50.0, result.Aggregates[0].Total, "10 (resubmitted mid) + 40 (kept exam)")
	assert.Equal(t, "stu-1", result.Aggregates[0].StudentID)
}

func TestSubmitBatchPartialSubmissionsAccumulate(t *testing.T) {
	f := newFixture(t, newMemStore())

	first := validRequest()
	first.Assessments = []string{"mid"}
	first.Students = []StudentSubmission{{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 30}}}}
	_, err := f.service.SubmitBatch(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.Assessments = []string{"exam"}
	second.Students = []StudentSubmission{{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{{AssessmentID: "exam", Score: 40}}}}
	result, err := f.service.SubmitBatch(context.Background(), second)
	require.NoError(t, err)

	require.Len(t, result.Aggregates, 1)
	assert.Equal(t, 70.0, result.Aggregates[0].Total)
	assert.Equal(t, "A", result.Aggregates[0].Grade)
}

func TestSubmitBatchRejectsOutOfRangeScoreForWholeBatch(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	req.Students[1].ComponentScores[1].Score = 120

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// The valid student in the same batch must not have been written either.
	assert.Empty(t, f.store.scores)
	assert.Empty(t, f.store.aggregates)
}

func TestSubmitBatchRejectsUnknownAssessment(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	req.Assessments = append(req.Assessments, "ghost")

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "ghost")
	assert.Empty(t, f.store.scores)
}

func TestSubmitBatchUnknownCycleIsNotFound(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	req.GradingCycleID = "cycle-missing"

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSubmitBatchRejectsPolicyMismatch(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	// "alt" belongs to policy-2 while cycle-1 is bound to policy-1.
	req.Assessments = []string{"alt"}
	req.Students = []StudentSubmission{{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{{AssessmentID: "alt", Score: 50}}}}

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "policy")
}

func TestSubmitBatchRejectsProvidedEmptyComponentScores(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	req.Students = []StudentSubmission{{StudentID: "stu-1", ComponentScores: []ComponentScoreInput{}}}

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitBatchRejectsMissingScope(t *testing.T) {
	f := newFixture(t, newMemStore())
	req := validRequest()
	req.SubjectID = ""

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitBatchRollsBackWholeBatchOnWriteFailure(t *testing.T) {
	store := newMemStore()
	// stu-1's writes succeed before stu-2's exam write fails; the rollback
	// must discard both.
	store.failOnAssessment = "exam"
	f := newFixture(t, store)
	req := validRequest()
	req.Students[0].ComponentScores = []ComponentScoreInput{{AssessmentID: "mid", Score: 35}}

	_, err := f.service.SubmitBatch(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "grade submission failed", appErr.Message)
	assert.Empty(t, store.scores)
	assert.Empty(t, store.aggregates)
}

func TestSubmitBatchRankFailureDoesNotFailRequest(t *testing.T) {
	store := newMemStore()
	store.posErr = errors.New("deadline exceeded")
	f := newFixture(t, store)

	result, err := f.service.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, result.PositionsRecomputed)
	assert.NotEmpty(t, result.RecomputeError)

	// Aggregates committed regardless of the failed rank phase.
	assert.Len(t, store.aggregates, 2)
	require.Len(t, result.Aggregates, 2)
	assert.Equal(t, 75.0, result.Aggregates[0].Total)
}

func TestSubmitBatchReReadFailureDegradesToEmpty(t *testing.T) {
	store := newMemStore()
	f := newFixture(t, store)
	store.listAggErr = errors.New("connection reset")
	store.listScoreErr = errors.New("connection reset")

	result, err := f.service.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, result.Aggregates)
	assert.Empty(t, result.Aggregates)
	assert.NotNil(t, result.ComponentScores)
	assert.Empty(t, result.ComponentScores)
	assert.Len(t, store.aggregates, 2, "writes committed before the degraded re-read")
}

func TestSubmitBatchRefreshesAggregateWithoutNewScores(t *testing.T) {
	f := newFixture(t, newMemStore())

	first := validRequest()
	first.Students = first.Students[:1]
	_, err := f.service.SubmitBatch(context.Background(), first)
	require.NoError(t, err)

	// Same student again with no componentScores: existing rows feed the
	// refreshed aggregate.
	second := validRequest()
	second.Students = []StudentSubmission{{StudentID: "stu-1"}}
	result, err := f.service.SubmitBatch(context.Background(), second)
	require.NoError(t, err)
	require.Len(t, result.Aggregates, 1)
	assert.Equal(t, 75.0, result.Aggregates[0].Total)
}

func TestSequentialDisjointBatchesBothRanked(t *testing.T) {
	f := newFixture(t, newMemStore())

	first := validRequest()
	_, err := f.service.SubmitBatch(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.Students = []StudentSubmission{
		{StudentID: "stu-3", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 40}, {AssessmentID: "exam", Score: 50}}},
		{StudentID: "stu-4", ComponentScores: []ComponentScoreInput{{AssessmentID: "mid", Score: 5}}},
	}
	result, err := f.service.SubmitBatch(context.Background(), second)
	require.NoError(t, err)

	require.Len(t, result.Aggregates, 4)
	positions := make([]string, len(result.Aggregates))
	for i, aggregate := range result.Aggregates {
		positions[i] = aggregate.Position
	}
	assert.Equal(t, []string{"1st", "2nd", "3rd", "4th"}, positions)
	assert.Equal(t, "stu-3", result.Aggregates[0].StudentID, "highest total ranks first")
	assert.Equal(t, 90.0, result.Aggregates[0].Total)
}

func TestQueryReturnsGradeBookWithDefinitions(t *testing.T) {
	f := newFixture(t, newMemStore())
	_, err := f.service.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)

	book, err := f.service.Query(context.Background(), models.GradeFilter{
		ClassID:        "jss1",
		SubjectID:      "math",
		GradingCycleID: "cycle-1",
	})
	require.NoError(t, err)
	assert.Len(t, book.Aggregates, 2)
	assert.Len(t, book.ComponentScores, 4)
	require.Len(t, book.AssessmentDefinitions, 2, "cycle filter resolves the policy definitions")
	assert.True(t, book.Aggregates[0].Total >= book.Aggregates[1].Total)
}

func TestQueryWithoutCycleSkipsDefinitions(t *testing.T) {
	f := newFixture(t, newMemStore())
	_, err := f.service.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)

	book, err := f.service.Query(context.Background(), models.GradeFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, book.Aggregates, 1)
	assert.Empty(t, book.AssessmentDefinitions)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = raw
	return nil
}

func (c *mapCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	c.entries = make(map[string][]byte)
	return nil
}

func TestQueryUsesCacheAndSubmitInvalidates(t *testing.T) {
	store := newMemStore()
	assessments := &mockAssessments{defs: map[string]models.AssessmentDefinition{
		"mid":  {ID: "mid", PolicyID: "policy-1", Name: "Midterm", MaxScore: 40},
		"exam": {ID: "exam", PolicyID: "policy-1", Name: "Exam", MaxScore: 100},
	}}
	cycles := &mockCycles{cycles: map[string]*models.GradingCycle{
		"cycle-1": {ID: "cycle-1", PolicyID: "policy-1"},
	}}
	cache := &mapCache{}
	ranks := NewRankService(store, 50, nil)
	svc := NewGradeService(assessments, cycles, store, store, scoreReaderAdapter{store}, ranks, cache, nil, time.Minute, nil, nil)

	filter := models.GradeFilter{ClassID: "jss1", SubjectID: "math"}
	_, err := svc.Query(context.Background(), filter)
	require.NoError(t, err)
	first := store.listAggCalls

	_, err = svc.Query(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, first, store.listAggCalls, "second read served from cache")

	_, err = svc.SubmitBatch(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes, "submission invalidates the grade book cache")
}

func TestParseSubmitGradesRequestObjectShape(t *testing.T) {
	body := []byte(`{
        "subjectId": "math",
        "classId": "jss1",
        "gradingCycleId": "cycle-1",
        "assessments": ["mid", "exam"],
        "students": [{"studentId": "stu-1", "componentScores": [{"assessmentId": "mid", "score": 35}]}]
    }`)

	req, err := ParseSubmitGradesRequest(body, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "math", req.SubjectID)
	assert.Equal(t, []string{"mid", "exam"}, req.Assessments)
	require.Len(t, req.Students, 1)
	require.Len(t, req.Students[0].ComponentScores, 1)
	assert.Equal(t, 35.0, req.Students[0].ComponentScores[0].Score)
}

func TestParseSubmitGradesRequestLegacyArrayShape(t *testing.T) {
	body := []byte(`[{"studentId": "stu-1", "componentScores": [{"assessmentId": "mid", "score": 35}]}]`)
	query := url.Values{
		"subjectId":      {"math"},
		"classId":        {"jss1"},
		"gradingCycleId": {"cycle-1"},
		"assessments":    {"mid,exam", "quiz"},
	}

	req, err := ParseSubmitGradesRequest(body, query)
	require.NoError(t, err)
	assert.Equal(t, "math", req.SubjectID)
	assert.Equal(t, "jss1", req.ClassID)
	assert.Equal(t, "cycle-1", req.GradingCycleID)
	assert.Equal(t, []string{"mid", "exam", "quiz"}, req.Assessments)
	require.Len(t, req.Students, 1)
}

func TestParseSubmitGradesRequestMalformedBody(t *testing.T) {
	_, err := ParseSubmitGradesRequest([]byte(`{"subjectId":`), url.Values{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = ParseSubmitGradesRequest([]byte(`[{"studentId"`), url.Values{})
	require.Error(t, err)
}
