package models

import "time"

const (
	// ResultStateScored is the terminal state of a successfully processed build result.
	ResultStateScored = "scored"
	// ResultStateSuperseded marks a result replaced by a complaint re-assessment.
	ResultStateSuperseded = "superseded"
)

// Result is the graded outcome of one submission attempt. The score is a
// deterministic function of the active test cases and their weights; once a
// completion date and assessor are set the result only changes by being
// superseded through an accepted complaint.
type Result struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ParticipationID uint       `gorm:"not null;index" json:"participation_id"`
	SubmissionID    uint       `gorm:"not null;index" json:"submission_id"`
	Score           float64    `gorm:"not null" json:"score"`
	Successful      bool       `gorm:"not null;default:false" json:"successful"`
	Rated           bool       `gorm:"not null;default:false" json:"rated"`
	State           string     `gorm:"size:16;not null;default:scored" json:"state"`
	CompletionDate  time.Time  `gorm:"not null" json:"completion_date"`
	AssessorID      *uint      `json:"assessor_id"`
	Feedbacks       []Feedback `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"feedbacks"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Submission      Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// IsAssessed reports whether a tutor has taken ownership of this result.
func (r Result) IsAssessed() bool {
	return r.AssessorID != nil
}
