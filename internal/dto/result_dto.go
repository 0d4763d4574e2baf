package dto

import (
	"time"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ResultResponse is returned after a build result has been processed.
type ResultResponse struct {
	ID              uint               `json:"id"`
	ParticipationID uint               `json:"participation_id"`
	ExerciseID      uint               `json:"exercise_id"`
	CommitHash      string             `json:"commit_hash"`
	Score           float64            `json:"score"`
	Successful      bool               `json:"successful"`
	Rated           bool               `json:"rated"`
	State           string             `json:"state"`
	CompletionDate  time.Time          `json:"completion_date"`
	AssessorID      *uint              `json:"assessor_id"`
	Feedbacks       []FeedbackResponse `json:"feedbacks"`
	Idempotent      bool               `json:"idempotent,omitempty"`
}

// FeedbackResponse serializes one feedback entry of a result.
type FeedbackResponse struct {
	Text       string                 `json:"text"`
	DetailText string                 `json:"detail_text,omitempty"`
	Credits    float64                `json:"credits"`
	Positive   bool                   `json:"positive"`
	Type       string                 `json:"type"`
	TestCaseID *uint                  `json:"test_case_id,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// NewResultResponse flattens a persisted result for API clients.
func NewResultResponse(result models.Result, exerciseID uint, commitHash string) ResultResponse {
	feedbacks := make([]FeedbackResponse, 0, len(result.Feedbacks))
	for _, feedback := range result.Feedbacks {
		feedbacks = append(feedbacks, FeedbackResponse{
			Text:       feedback.Text,
			DetailText: feedback.DetailText,
			Credits:    feedback.Credits,
			Positive:   feedback.Positive,
			Type:       feedback.Type,
			TestCaseID: feedback.TestCaseID,
			Detail:     feedback.Detail,
		})
	}

	return ResultResponse{
		ID:              result.ID,
		ParticipationID: result.ParticipationID,
		ExerciseID:      exerciseID,
		CommitHash:      commitHash,
		Score:           result.Score,
		Successful:      result.Successful,
		Rated:           result.Rated,
		State:           result.State,
		CompletionDate:  result.CompletionDate,
		AssessorID:      result.AssessorID,
		Feedbacks:       feedbacks,
	}
}
