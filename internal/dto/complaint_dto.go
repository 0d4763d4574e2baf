package dto

import (
	"time"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ComplaintCreateRequest opens a complaint or a more-feedback request against a result.
type ComplaintCreateRequest struct {
	Type string `json:"type" validate:"required,oneof=COMPLAINT MORE_FEEDBACK"`
	Text string `json:"text" validate:"required,min=3,max=2000"`
}

// ComplaintResponseRequest records a reviewer decision. UpdatedScore only
// applies when an accepted COMPLAINT produces a superseding result.
type ComplaintResponseRequest struct {
	Accepted     bool     `json:"accepted"`
	Text         string   `json:"text" validate:"required,min=3,max=2000"`
	UpdatedScore *float64 `json:"updated_score" validate:"omitempty,gte=0,lte=100"`
}

// ComplaintResponseDetails serializes the response attached to a complaint.
type ComplaintResponseDetails struct {
	ReviewerID  uint      `json:"reviewer_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ComplaintDetails serializes a complaint with its optional response.
type ComplaintDetails struct {
	ID              uint                      `json:"id"`
	ResultID        uint                      `json:"result_id"`
	ParticipationID uint                      `json:"participation_id"`
	Type            string                    `json:"type"`
	Text            string                    `json:"text"`
	Accepted        *bool                     `json:"accepted"`
	SubmittedAt     time.Time                 `json:"submitted_at"`
	Response        *ComplaintResponseDetails `json:"response,omitempty"`
	NewResultID     *uint                     `json:"new_result_id,omitempty"`
}

// NewComplaintDetails maps a complaint model to its API shape.
func NewComplaintDetails(complaint models.Complaint) ComplaintDetails {
	details := ComplaintDetails{
		ID:              complaint.ID,
		ResultID:        complaint.ResultID,
		ParticipationID: complaint.ParticipationID,
		Type:            complaint.Type,
		Text:            complaint.Text,
		Accepted:        complaint.Accepted,
		SubmittedAt:     complaint.SubmittedAt,
	}
	if complaint.Response != nil {
		details.Response = &ComplaintResponseDetails{
			ReviewerID:  complaint.Response.ReviewerID,
			Text:        complaint.Response.Text,
			SubmittedAt: complaint.Response.SubmittedAt,
		}
	}
	return details
}
