package models

import "time"

// Exercise is a programming exercise whose submissions are graded from CI
// build results against the configured test cases.
type Exercise struct {
	ID                        uint                         `gorm:"primaryKey" json:"id"`
	CourseID                  uint                         `gorm:"not null;index" json:"course_id"`
	Title                     string                       `gorm:"size:255;not null" json:"title"`
	ReleaseDate               *time.Time                   `json:"release_date"`
	DueDate                   *time.Time                   `json:"due_date"`
	AssessmentDueDate         *time.Time                   `json:"assessment_due_date"`
	TestsFrozen               bool                         `gorm:"not null;default:false" json:"tests_frozen"`
	StaticCodeAnalysisEnabled bool                         `gorm:"not null;default:false" json:"static_code_analysis_enabled"`
	Categories                []StaticCodeAnalysisCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"categories"`
	CreatedAt                 time.Time                    `json:"created_at"`
	UpdatedAt                 time.Time                    `json:"updated_at"`
}

const (
	// CategoryStateActive means issues of this category become feedback.
	CategoryStateActive = "active"
	// CategoryStateInactive means issues of this category are dropped before persisting.
	CategoryStateInactive = "inactive"
)

// StaticCodeAnalysisCategory configures how reported analysis issues of one
// category are treated during feedback normalization.
type StaticCodeAnalysisCategory struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ExerciseID uint    `gorm:"not null;uniqueIndex:idx_sca_category_name" json:"exercise_id"`
	Name       string  `gorm:"size:128;not null;uniqueIndex:idx_sca_category_name" json:"name"`
	State      string  `gorm:"size:16;not null;default:active" json:"state"`
	Penalty    float64 `gorm:"not null;default:0" json:"penalty"`
	MaxPenalty float64 `gorm:"not null;default:0" json:"max_penalty"`
}

// IsActive reports whether issues in this category should be kept.
func (c StaticCodeAnalysisCategory) IsActive() bool {
	return c.State == CategoryStateActive
}

// RatedAt reports whether a result completed at the given time counts as rated
// under the exercise due-date policy.
func (e Exercise) RatedAt(completionDate time.Time) bool {
	if e.DueDate == nil {
		return true
	}
	return !completionDate.After(*e.DueDate)
}
