package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
)

type fakeComplaintRepo struct {
	complaint    models.Complaint
	missing      bool
	hasOpen      bool
	created      *models.Complaint
	resolved     bool
	newResultSet bool
}

func (f *fakeComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	complaint.ID = 70
	f.created = complaint
	return nil
}

func (f *fakeComplaintRepo) GetByID(ctx context.Context, id uint) (models.Complaint, error) {
	if f.missing {
		return models.Complaint{}, gorm.ErrRecordNotFound
	}
	return f.complaint, nil
}

func (f *fakeComplaintRepo) HasOpenForResult(ctx context.Context, resultID uint) (bool, error) {
	return f.hasOpen, nil
}

func (f *fakeComplaintRepo) Resolve(ctx context.Context, complaint *models.Complaint, response *models.ComplaintResponse, supersededResult *models.Result, newResult *models.Result) error {
	f.resolved = true
	if newResult != nil {
		newResult.ID = 99
		f.newResultSet = true
		supersededResult.State = models.ResultStateSuperseded
	}
	return nil
}

func disputedResult() models.Result {
	assessor := uint(42)
	return models.Result{
		ID:              30,
		ParticipationID: 21,
		SubmissionID:    12,
		Score:           60,
		Rated:           true,
		State:           models.ResultStateScored,
		CompletionDate:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		AssessorID:      &assessor,
		Feedbacks: []models.Feedback{
			{ID: 1, ResultID: 30, Type: models.FeedbackTypeAutomatic, Text: "testAdd", Positive: true},
			{ID: 2, ResultID: 30, Type: models.FeedbackTypeManual, Text: "solid design", Credits: 2},
		},
	}
}

func TestComplaintServiceSubmit(t *testing.T) {
	complaints := &fakeComplaintRepo{}
	results := &fakeResultRepo{results: []models.Result{disputedResult()}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, results, validate, testLogger())

	details, err := svc.Submit(context.Background(), 30, 7, dto.ComplaintCreateRequest{
		Type: models.ComplaintTypeComplaint,
		Text: "<b>the solution</b> handles the edge case",
	})
	require.NoError(t, err)
	require.Equal(t, uint(70), details.ID)
	require.Equal(t, uint(30), details.ResultID)
	require.Nil(t, details.Accepted)
	require.Equal(t, "the solution handles the edge case", complaints.created.Text)
}

func TestComplaintServiceSubmitRejectsSecondOpenComplaint(t *testing.T) {
	complaints := &fakeComplaintRepo{hasOpen: true}
	results := &fakeResultRepo{results: []models.Result{disputedResult()}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, results, validate, testLogger())

	_, err := svc.Submit(context.Background(), 30, 7, dto.ComplaintCreateRequest{
		Type: models.ComplaintTypeComplaint,
		Text: "please check again",
	})
	require.ErrorIs(t, err, ErrOpenComplaintExists)
	require.Nil(t, complaints.created)
}

func TestComplaintServiceSubmitRejectsSupersededResult(t *testing.T) {
	result := disputedResult()
	result.State = models.ResultStateSuperseded
	results := &fakeResultRepo{results: []models.Result{result}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(&fakeComplaintRepo{}, results, validate, testLogger())

	_, err := svc.Submit(context.Background(), 30, 7, dto.ComplaintCreateRequest{
		Type: models.ComplaintTypeComplaint,
		Text: "please check again",
	})
	require.ErrorIs(t, err, ErrResultSuperseded)
}

func TestComplaintServiceRespondAcceptedSupersedes(t *testing.T) {
	complaints := &fakeComplaintRepo{complaint: models.Complaint{
		ID:              70,
		ResultID:        30,
		ParticipationID: 21,
		Type:            models.ComplaintTypeComplaint,
		Result:          disputedResult(),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, &fakeResultRepo{}, validate, testLogger())

	updatedScore := 85.0
	details, err := svc.Respond(context.Background(), 70, 51, dto.ComplaintResponseRequest{
		Accepted:     true,
		Text:         "recount confirms the missing points",
		UpdatedScore: &updatedScore,
	})
	require.NoError(t, err)
	require.True(t, complaints.resolved)
	require.True(t, complaints.newResultSet)
	require.NotNil(t, details.NewResultID)
	require.Equal(t, uint(99), *details.NewResultID)
	require.NotNil(t, details.Accepted)
	require.True(t, *details.Accepted)
	require.Equal(t, uint(51), details.Response.ReviewerID)
}

func TestComplaintServiceSupersedingResultPreservesFeedback(t *testing.T) {
	complaints := &fakeComplaintRepo{complaint: models.Complaint{
		ID:     70,
		Type:   models.ComplaintTypeComplaint,
		Result: disputedResult(),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, &fakeResultRepo{}, validate, testLogger()).(*complaintService)

	updatedScore := 100.0
	newResult := svc.supersedingResult(disputedResult(), 51, &updatedScore)

	require.Equal(t, uint(21), newResult.ParticipationID)
	require.Equal(t, uint(12), newResult.SubmissionID, "new result belongs to the same submission")
	require.Equal(t, 100.0, newResult.Score)
	require.True(t, newResult.Successful)
	require.Equal(t, uint(51), *newResult.AssessorID)
	require.Len(t, newResult.Feedbacks, 2)
	for _, feedback := range newResult.Feedbacks {
		require.Zero(t, feedback.ID)
		require.Zero(t, feedback.ResultID)
	}
}

func TestComplaintServiceRespondRejectsSelfReview(t *testing.T) {
	complaints := &fakeComplaintRepo{complaint: models.Complaint{
		ID:     70,
		Type:   models.ComplaintTypeComplaint,
		Result: disputedResult(),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, &fakeResultRepo{}, validate, testLogger())

	// Assessor 42 graded the result, so 42 may not answer the complaint.
	_, err := svc.Respond(context.Background(), 70, 42, dto.ComplaintResponseRequest{
		Accepted: true,
		Text:     "looks fine to me",
	})
	require.ErrorIs(t, err, ErrComplaintSelfReview)
	require.False(t, complaints.resolved)
}

func TestComplaintServiceRespondRejectsAnsweredComplaint(t *testing.T) {
	accepted := false
	complaints := &fakeComplaintRepo{complaint: models.Complaint{
		ID:       70,
		Type:     models.ComplaintTypeComplaint,
		Accepted: &accepted,
		Result:   disputedResult(),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, &fakeResultRepo{}, validate, testLogger())

	_, err := svc.Respond(context.Background(), 70, 51, dto.ComplaintResponseRequest{
		Accepted: true,
		Text:     "already done",
	})
	require.ErrorIs(t, err, ErrComplaintAlreadyAnswered)
}

func TestComplaintServiceMoreFeedbackNeverSupersedes(t *testing.T) {
	complaints := &fakeComplaintRepo{complaint: models.Complaint{
		ID:     70,
		Type:   models.ComplaintTypeMoreFeedback,
		Result: disputedResult(),
	}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewComplaintService(complaints, &fakeResultRepo{}, validate, testLogger())

	details, err := svc.Respond(context.Background(), 70, 51, dto.ComplaintResponseRequest{
		Accepted: true,
		Text:     "here is a detailed walkthrough of the rubric",
	})
	require.NoError(t, err)
	require.True(t, complaints.resolved)
	require.False(t, complaints.newResultSet)
	require.Nil(t, details.NewResultID)
}
