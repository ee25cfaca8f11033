package models

import (
	"time"

	"github.com/lib/pq"
)

// ComponentScore is the persisted raw score for one assessment component.
// Unique per (student, assessment, subject, class, grading cycle); a
// resubmission overwrites the row in place.
type ComponentScore struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	AssessmentID   string    `db:"assessment_id" json:"assessment_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	GradingCycleID string    `db:"grading_cycle_id" json:"grading_cycle_id"`
	Score          float64   `db:"score" json:"score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// Display fields joined on reads.
	StudentName        string  `db:"student_name" json:"student_name,omitempty"`
	AssessmentName     string  `db:"assessment_name" json:"assessment_name,omitempty"`
	AssessmentMaxScore float64 `db:"assessment_max_score" json:"assessment_max_score,omitempty"`
}

// Aggregate is the derived per-student result for one subject/class/cycle:
// the sum of all component scores for that key, the letter grade and remark
// derived from it, and the class-relative position. Position is maintained by
// a separate best-effort phase and may lag behind total.
type Aggregate struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	ClassID        string         `db:"class_id" json:"class_id"`
	GradingCycleID string         `db:"grading_cycle_id" json:"grading_cycle_id"`
	Total          float64        `db:"total" json:"total"`
	Grade          string         `db:"grade" json:"grade"`
	Remark         string         `db:"remark" json:"remark"`
	Position       string         `db:"position" json:"position"`
	AssessmentIDs  pq.StringArray `db:"assessment_ids" json:"assessment_ids"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	// Display fields joined on reads.
	StudentName string `db:"student_name" json:"student_name,omitempty"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	ClassName   string `db:"class_name" json:"class_name,omitempty"`
}

// AggregateKey identifies a single aggregate row.
type AggregateKey struct {
	StudentID      string
	SubjectID      string
	ClassID        string
	GradingCycleID string
}

// PeerGroupKey identifies the set of aggregates ranked against each other.
type PeerGroupKey struct {
	SubjectID      string
	ClassID        string
	GradingCycleID string
}

// GradeFilter scopes grade book queries.
type GradeFilter struct {
	ClassID        string
	SubjectID      string
	GradingCycleID string
	StudentID      string
}

// RankedAggregate is the minimal projection used by rank recomputation.
type RankedAggregate struct {
	ID        string  `db:"id"`
	StudentID string  `db:"student_id"`
	Total     float64 `db:"total"`
}

// PositionUpdate carries one recomputed position write.
type PositionUpdate struct {
	AggregateID string
	Position    string
}

// GradeBook is the read-side projection returned by grade queries.
type GradeBook struct {
	Aggregates            []Aggregate            `json:"aggregates"`
	ComponentScores       []ComponentScore       `json:"componentScores"`
	AssessmentDefinitions []AssessmentDefinition `json:"assessmentDefinitions,omitempty"`
}
