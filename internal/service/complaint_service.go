package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/repository"
)

// ErrResultNotFound indicates the disputed result was not located.
var ErrResultNotFound = errors.New("result not found")

// ErrComplaintNotFound indicates the complaint was not located.
var ErrComplaintNotFound = errors.New("complaint not found")

// ErrResultSuperseded indicates the result was already replaced and cannot be disputed.
var ErrResultSuperseded = errors.New("result has been superseded")

// ErrOpenComplaintExists indicates the result already has an unanswered complaint.
var ErrOpenComplaintExists = errors.New("result already has an open complaint")

// ErrComplaintAlreadyAnswered indicates the complaint was already resolved.
var ErrComplaintAlreadyAnswered = errors.New("complaint already answered")

// ErrComplaintSelfReview indicates a tutor tried to review a complaint about their own assessment.
var ErrComplaintSelfReview = errors.New("reviewer cannot respond to complaints about their own assessment")

// ComplaintService manages the complaint lifecycle: a student disputes a
// result, a reviewer answers, and an accepted complaint produces a new result
// superseding the old one for student-visible purposes.
type ComplaintService interface {
	Submit(ctx context.Context, resultID, studentID uint, payload dto.ComplaintCreateRequest) (dto.ComplaintDetails, error)
	Respond(ctx context.Context, complaintID, reviewerID uint, payload dto.ComplaintResponseRequest) (dto.ComplaintDetails, error)
}

type complaintService struct {
	complaints repository.ComplaintRepository
	results    repository.ResultRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewComplaintService constructs the complaint service.
func NewComplaintService(complaints repository.ComplaintRepository, results repository.ResultRepository, validate *validator.Validate, logger zerolog.Logger) ComplaintService {
	return &complaintService{
		complaints: complaints,
		results:    results,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "complaint_service").Logger(),
		now:        time.Now,
	}
}

func (s *complaintService) Submit(ctx context.Context, resultID, studentID uint, payload dto.ComplaintCreateRequest) (dto.ComplaintDetails, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ComplaintDetails{}, err
	}

	result, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ComplaintDetails{}, ErrResultNotFound
		}
		return dto.ComplaintDetails{}, err
	}

	if result.State == models.ResultStateSuperseded {
		return dto.ComplaintDetails{}, ErrResultSuperseded
	}

	open, err := s.complaints.HasOpenForResult(ctx, result.ID)
	if err != nil {
		return dto.ComplaintDetails{}, err
	}
	if open {
		return dto.ComplaintDetails{}, ErrOpenComplaintExists
	}

	complaint := models.Complaint{
		ResultID:        result.ID,
		ParticipationID: result.ParticipationID,
		StudentID:       studentID,
		Type:            payload.Type,
		Text:            strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		SubmittedAt:     s.now(),
	}

	if err := s.complaints.Create(ctx, &complaint); err != nil {
		return dto.ComplaintDetails{}, err
	}

	s.logger.Info().
		Uint("complaint_id", complaint.ID).
		Uint("result_id", result.ID).
		Str("type", complaint.Type).
		Msg("complaint submitted")

	return dto.NewComplaintDetails(complaint), nil
}

func (s *complaintService) Respond(ctx context.Context, complaintID, reviewerID uint, payload dto.ComplaintResponseRequest) (dto.ComplaintDetails, error) {
	tracer := otel.Tracer("github.com/praxis-lms/grading-api/internal/service/complaint")
	ctx, span := tracer.Start(ctx, "complaints.respond")
	span.SetAttributes(
		attribute.Int64("complaint.id", int64(complaintID)),
		attribute.Int64("complaint.reviewer_id", int64(reviewerID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ComplaintDetails{}, err
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "complaint_not_found")
			return dto.ComplaintDetails{}, ErrComplaintNotFound
		}
		return dto.ComplaintDetails{}, err
	}

	if !complaint.IsOpen() {
		return dto.ComplaintDetails{}, ErrComplaintAlreadyAnswered
	}

	result := complaint.Result
	if result.AssessorID != nil && *result.AssessorID == reviewerID {
		span.SetStatus(codes.Error, "self_review")
		return dto.ComplaintDetails{}, ErrComplaintSelfReview
	}

	accepted := payload.Accepted
	complaint.Accepted = &accepted

	response := models.ComplaintResponse{
		ComplaintID: complaint.ID,
		ReviewerID:  reviewerID,
		Text:        strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		SubmittedAt: s.now(),
	}

	var newResult *models.Result
	if accepted && complaint.Type == models.ComplaintTypeComplaint {
		newResult = s.supersedingResult(result, reviewerID, payload.UpdatedScore)
	}

	if err := s.complaints.Resolve(ctx, &complaint, &response, &result, newResult); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve_failed")
		return dto.ComplaintDetails{}, err
	}

	details := dto.NewComplaintDetails(complaint)
	details.Response = &dto.ComplaintResponseDetails{
		ReviewerID:  response.ReviewerID,
		Text:        response.Text,
		SubmittedAt: response.SubmittedAt,
	}
	if newResult != nil {
		id := newResult.ID
		details.NewResultID = &id
		span.SetAttributes(attribute.Int64("complaint.new_result_id", int64(id)))
	}

	s.logger.Info().
		Uint("complaint_id", complaint.ID).
		Bool("accepted", accepted).
		Msg("complaint answered")

	return details, nil
}

// supersedingResult clones the disputed result for the same submission,
// preserving every feedback entry, so manual assessment work survives the
// re-evaluation.
func (s *complaintService) supersedingResult(result models.Result, reviewerID uint, updatedScore *float64) *models.Result {
	score := result.Score
	if updatedScore != nil {
		score = *updatedScore
	}

	feedbacks := make([]models.Feedback, 0, len(result.Feedbacks))
	for _, feedback := range result.Feedbacks {
		feedback.ID = 0
		feedback.ResultID = 0
		feedbacks = append(feedbacks, feedback)
	}

	assessor := reviewerID
	return &models.Result{
		ParticipationID: result.ParticipationID,
		SubmissionID:    result.SubmissionID,
		Score:           score,
		Successful:      score >= 100,
		Rated:           result.Rated,
		State:           models.ResultStateScored,
		CompletionDate:  s.now(),
		AssessorID:      &assessor,
		Feedbacks:       feedbacks,
	}
}
