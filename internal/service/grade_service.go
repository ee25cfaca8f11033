package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type assessmentReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.AssessmentDefinition, error)
	ListByPolicy(ctx context.Context, policyID string) ([]models.AssessmentDefinition, error)
}

type gradingCycleReader interface {
	FindByID(ctx context.Context, id string) (*models.GradingCycle, error)
}

type gradeUnitOfWork interface {
	Within(ctx context.Context, fn func(tx repository.GradeTx) error) error
}

type aggregateReader interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Aggregate, error)
}

type scoreReader interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.ComponentScore, error)
}

type rankRecomputer interface {
	Recompute(ctx context.Context, key models.PeerGroupKey) error
}

type gradeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type gradeMetrics interface {
	ObserveGradeBatch(students int)
	ObserveRankRecomputeFailure()
	ObserveCacheLookup(hit bool)
}

// ComponentScoreInput is one raw score inside a submission.
type ComponentScoreInput struct {
	AssessmentID string  `json:"assessmentId" validate:"required"`
	Score        float64 `json:"score"`
}

// StudentSubmission carries the scores submitted for one student. A missing
// componentScores list means "no change this batch" for that student, not
// zero; the student's aggregate is still refreshed from stored rows.
type StudentSubmission struct {
	StudentID       string                `json:"studentId" validate:"required"`
	ComponentScores []ComponentScoreInput `json:"componentScores,omitempty" validate:"omitempty,dive"`
}

// SubmitGradesRequest is the single tagged request shape every accepted
// submission variant resolves into.
type SubmitGradesRequest struct {
	SubjectID      string              `json:"subjectId" validate:"required"`
	ClassID        string              `json:"classId" validate:"required"`
	GradingCycleID string              `json:"gradingCycleId" validate:"required"`
	Assessments    []string            `json:"assessments" validate:"required,min=1,dive,required"`
	Students       []StudentSubmission `json:"students" validate:"required,min=1,dive"`
}

// SubmitGradesResult carries the fresh post-commit rows plus rank metadata.
type SubmitGradesResult struct {
	Aggregates      []models.Aggregate      `json:"aggregates"`
	ComponentScores []models.ComponentScore `json:"componentScores"`

	PositionsRecomputed bool   `json:"-"`
	RecomputeError      string `json:"-"`
}

// ParseSubmitGradesRequest resolves the two accepted wire shapes into one
// request: either the full object body, or the legacy bare student array with
// subjectId/classId/gradingCycleId/assessments supplied as query parameters.
func ParseSubmitGradesRequest(body []byte, query url.Values) (SubmitGradesRequest, error) {
	var req SubmitGradesRequest
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var students []StudentSubmission
		if err := json.Unmarshal(trimmed, &students); err != nil {
			return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
		}
		req.Students = students
		req.SubjectID = query.Get("subjectId")
		req.ClassID = query.Get("classId")
		req.GradingCycleID = query.Get("gradingCycleId")
		for _, raw := range query["assessments"] {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					req.Assessments = append(req.Assessments, id)
				}
			}
		}
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return req, nil
}

// GradeService runs the grade submission pipeline and serves grade book reads.
type GradeService struct {
	assessments assessmentReader
	cycles      gradingCycleReader
	uow         gradeUnitOfWork
	aggregates  aggregateReader
	scores      scoreReader
	ranks       rankRecomputer
	cache       gradeCache
	metrics     gradeMetrics
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService. cache and metrics may be nil.
func NewGradeService(assessments assessmentReader, cycles gradingCycleReader, uow gradeUnitOfWork, aggregates aggregateReader, scores scoreReader, ranks rankRecomputer, cache gradeCache, metrics gradeMetrics, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		assessments: assessments,
		cycles:      cycles,
		uow:         uow,
		aggregates:  aggregates,
		scores:      scores,
		ranks:       ranks,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

// SubmitBatch validates a batch, applies it in one transaction, then runs the
// best-effort rank recomputation and assembles the response from fresh rows.
func (s *GradeService) SubmitBatch(ctx context.Context, req SubmitGradesRequest) (*SubmitGradesResult, error) {
	if err := s.validateBatch(ctx, req); err != nil {
		return nil, err
	}

	if err := s.uow.Within(ctx, func(tx repository.GradeTx) error {
		return s.applyBatch(ctx, tx, req)
	}); err != nil {
		s.logger.Error("grade batch failed",
			zap.String("subject_id", req.SubjectID),
			zap.String("class_id", req.ClassID),
			zap.String("grading_cycle_id", req.GradingCycleID),
			zap.Int("students", len(req.Students)),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "grade submission failed")
	}

	if s.metrics != nil {
		s.metrics.ObserveGradeBatch(len(req.Students))
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "grades:book:*"); err != nil {
			s.logger.Warn("grade cache invalidation failed", zap.Error(err))
		}
	}

	key := models.PeerGroupKey{SubjectID: req.SubjectID, ClassID: req.ClassID, GradingCycleID: req.GradingCycleID}
	result := &SubmitGradesResult{PositionsRecomputed: true}
	if err := s.ranks.Recompute(ctx, key); err != nil {
		// Grade writes are already committed; rank staleness is tolerated
		// and surfaced only through response metadata.
		result.PositionsRecomputed = false
		result.RecomputeError = err.Error()
		if s.metrics != nil {
			s.metrics.ObserveRankRecomputeFailure()
		}
		s.logger.Warn("rank recomputation failed",
			zap.String("subject_id", key.SubjectID),
			zap.String("class_id", key.ClassID),
			zap.String("grading_cycle_id", key.GradingCycleID),
			zap.Error(err))
	}

	s.assembleResult(ctx, req, result)
	return result, nil
}

// Query returns the grade book projection for the filter. A grading cycle
// filter additionally resolves the cycle policy's assessment definitions.
func (s *GradeService) Query(ctx context.Context, filter models.GradeFilter) (*models.GradeBook, error) {
	cacheKey := fmt.Sprintf("grades:book:%s:%s:%s:%s", filter.ClassID, filter.SubjectID, filter.GradingCycleID, filter.StudentID)
	if s.cache != nil {
		var cached models.GradeBook
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheLookup(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheLookup(false)
		}
	}

	book := &models.GradeBook{}
	var err error
	if book.Aggregates, err = s.aggregates.List(ctx, filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list aggregates")
	}
	if book.ComponentScores, err = s.scores.List(ctx, filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list component scores")
	}
	if filter.GradingCycleID != "" {
		cycle, err := s.cycles.FindByID(ctx, filter.GradingCycleID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "grading cycle not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading cycle")
		}
		if book.AssessmentDefinitions, err = s.assessments.ListByPolicy(ctx, cycle.PolicyID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment definitions")
		}
	}
	if book.Aggregates == nil {
		book.Aggregates = []models.Aggregate{}
	}
	if book.ComponentScores == nil {
		book.ComponentScores = []models.ComponentScore{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, book, s.cacheTTL); err != nil {
			s.logger.Warn("grade cache store failed", zap.Error(err))
		}
	}
	return book, nil
}

// validateBatch performs shape, referential integrity and bounds checks. It
// has no side effects; any violation rejects the entire batch before writes.
func (s *GradeService) validateBatch(ctx context.Context, req SubmitGradesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade submission")
	}

	found, err := s.assessments.FindByIDs(ctx, req.Assessments)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assessments")
	}
	definitions := make(map[string]models.AssessmentDefinition, len(found))
	for _, def := range found {
		definitions[def.ID] = def
	}
	for _, id := range req.Assessments {
		if _, ok := definitions[id]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment %s", id))
		}
	}

	cycle, err := s.cycles.FindByID(ctx, req.GradingCycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grading cycle not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading cycle")
	}
	for _, def := range found {
		if def.PolicyID != cycle.PolicyID {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assessment %s does not belong to the grading cycle policy", def.ID))
		}
	}

	for _, student := range req.Students {
		if student.ComponentScores != nil && len(student.ComponentScores) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("componentScores for student %s must not be empty", student.StudentID))
		}
		for _, entry := range student.ComponentScores {
			def, ok := definitions[entry.AssessmentID]
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assessment %s not part of this submission", entry.AssessmentID))
			}
			if entry.Score < 0 || entry.Score > def.MaxScore {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("score %.2f for student %s out of range 0..%.2f on assessment %s", entry.Score, student.StudentID, def.MaxScore, def.ID))
			}
		}
	}

	return nil
}

// applyBatch runs the upsert-and-aggregate engine for every student, in
// submission order, on the shared batch transaction.
func (s *GradeService) applyBatch(ctx context.Context, tx repository.GradeTx, req SubmitGradesRequest) error {
	for _, student := range req.Students {
		key := models.AggregateKey{
			StudentID:      student.StudentID,
			SubjectID:      req.SubjectID,
			ClassID:        req.ClassID,
			GradingCycleID: req.GradingCycleID,
		}
		for _, entry := range student.ComponentScores {
			score := models.ComponentScore{
				StudentID:      student.StudentID,
				AssessmentID:   entry.AssessmentID,
				SubjectID:      req.SubjectID,
				ClassID:        req.ClassID,
				GradingCycleID: req.GradingCycleID,
				Score:          entry.Score,
			}
			if err := tx.UpsertComponentScore(ctx, &score); err != nil {
				return err
			}
		}
		// The total always re-reads every stored row for the key, not just
		// this batch's writes, so partial submissions accumulate.
		total, err := tx.SumComponentScores(ctx, key)
		if err != nil {
			return err
		}
		grade, remark := LetterGrade(total)
		aggregate := models.Aggregate{
			StudentID:      key.StudentID,
			SubjectID:      key.SubjectID,
			ClassID:        key.ClassID,
			GradingCycleID: key.GradingCycleID,
			Total:          total,
			Grade:          grade,
			Remark:         remark,
			AssessmentIDs:  append([]string(nil), req.Assessments...),
		}
		if err := tx.UpsertAggregate(ctx, &aggregate); err != nil {
			return err
		}
	}
	return nil
}

// assembleResult re-reads fresh rows for the batch scope. The authoritative
// writes already committed, so a read failure degrades to empty data.
func (s *GradeService) assembleResult(ctx context.Context, req SubmitGradesRequest, result *SubmitGradesResult) {
	filter := models.GradeFilter{ClassID: req.ClassID, SubjectID: req.SubjectID, GradingCycleID: req.GradingCycleID}
	aggregates, err := s.aggregates.List(ctx, filter)
	if err != nil {
		s.logger.Warn("post-commit aggregate read failed", zap.Error(err))
		aggregates = nil
	}
	scores, err := s.scores.List(ctx, filter)
	if err != nil {
		s.logger.Warn("post-commit score read failed", zap.Error(err))
		scores = nil
	}
	if aggregates == nil {
		aggregates = []models.Aggregate{}
	}
	if scores == nil {
		scores = []models.ComponentScore{}
	}
	result.Aggregates = aggregates
	result.ComponentScores = scores
}

// LetterGrade maps a total score to the fixed letter grade and remark table.
func LetterGrade(total float64) (string, string) {
	switch {
	case total >= 70:
		return "A", "Excellent"
	case total >= 60:
		return "B", "Very Good"
	case total >= 50:
		return "C", "Good"
	case total >= 45:
		return "D", "Pass"
	case total >= 40:
		return "E", "Fair"
	default:
		return "F", "Fail"
	}
}
