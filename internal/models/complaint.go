package models

import "time"

const (
	// ComplaintTypeComplaint disputes the score of a result.
	ComplaintTypeComplaint = "COMPLAINT"
	// ComplaintTypeMoreFeedback asks for elaboration without a score change.
	ComplaintTypeMoreFeedback = "MORE_FEEDBACK"
)

// Complaint is a student-initiated dispute against a result. A result has at
// most one open complaint at a time; Accepted stays nil until a response is
// recorded.
type Complaint struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	ResultID        uint               `gorm:"not null;index" json:"result_id"`
	ParticipationID uint               `gorm:"not null;index" json:"participation_id"`
	StudentID       uint               `gorm:"not null" json:"student_id"`
	Type            string             `gorm:"size:32;not null" json:"type"`
	Text            string             `gorm:"type:text" json:"text"`
	Accepted        *bool              `json:"accepted"`
	SubmittedAt     time.Time          `gorm:"not null" json:"submitted_at"`
	Response        *ComplaintResponse `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"response"`
	Result          Result             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"result"`
}

// IsOpen reports whether the complaint still awaits a response.
func (c Complaint) IsOpen() bool {
	return c.Accepted == nil
}

// ComplaintResponse records a reviewer's decision on a complaint.
type ComplaintResponse struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;uniqueIndex" json:"complaint_id"`
	ReviewerID  uint      `gorm:"not null" json:"reviewer_id"`
	Text        string    `gorm:"type:text" json:"text"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}
