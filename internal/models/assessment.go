package models

import "time"

// GradingPolicy defines the pass mark, overall maximum and the canonical set
// of assessment definitions usable under it.
type GradingPolicy struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	PassMark  float64   `db:"pass_mark" json:"pass_mark"`
	MaxScore  float64   `db:"max_score" json:"max_score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AssessmentDefinition describes one named scoring component under a policy.
// The weight is a percentage contribution kept for display only; aggregation
// sums raw scores. Definitions are immutable once scores reference them.
type AssessmentDefinition struct {
	ID        string    `db:"id" json:"id"`
	PolicyID  string    `db:"policy_id" json:"policy_id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	MaxScore  float64   `db:"max_score" json:"max_score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradingCycle is one concrete (session, term) evaluation period bound to a
// single grading policy at creation time.
type GradingCycle struct {
	ID        string    `db:"id" json:"id"`
	PolicyID  string    `db:"policy_id" json:"policy_id"`
	Session   string    `db:"session" json:"session"`
	Term      string    `db:"term" json:"term"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
