package models

import "time"

// Participation links one student to one exercise and owns the submission
// attempts made for it.
type Participation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExerciseID    uint      `gorm:"not null;uniqueIndex:idx_participation_student" json:"exercise_id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_participation_student" json:"student_id"`
	RepositoryURL string    `gorm:"size:512" json:"repository_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Exercise      Exercise  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exercise"`
}

// Submission is one graded attempt, identified by the commit the CI system built.
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ParticipationID uint      `gorm:"not null;uniqueIndex:idx_submission_commit" json:"participation_id"`
	CommitHash      string    `gorm:"size:40;not null;uniqueIndex:idx_submission_commit" json:"commit_hash"`
	SubmittedAt     time.Time `gorm:"not null" json:"submitted_at"`
	CreatedAt       time.Time `json:"created_at"`
}
