package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/repository"
)

type fakeParticipationRepo struct {
	participation models.Participation
	missing       bool
}

func (f *fakeParticipationRepo) GetByID(ctx context.Context, id uint) (models.Participation, error) {
	if f.missing {
		return models.Participation{}, gorm.ErrRecordNotFound
	}
	return f.participation, nil
}

type fakeIngestionRepo struct {
	failures  int
	calls     int
	lastSaved *repository.ProcessedResult
}

func (f *fakeIngestionRepo) SaveProcessedResult(ctx context.Context, processed *repository.ProcessedResult) (models.Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return models.Result{}, errors.New("deadlock detected")
	}
	f.lastSaved = processed
	result := processed.Result
	result.ID = 100
	result.SubmissionID = 200
	return result, nil
}

type recordingBroadcaster struct {
	exerciseIDs []uint
	results     []dto.ResultResponse
}

func (r *recordingBroadcaster) BroadcastResult(exerciseID uint, result dto.ResultResponse) {
	r.exerciseIDs = append(r.exerciseIDs, exerciseID)
	r.results = append(r.results, result)
}

func ingestionNotification() dto.BuildResultNotification {
	return dto.BuildResultNotification{
		ParticipationID: 21,
		CommitHash:      "a1b2c3d4e5f60718",
		BuildTimestamp:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		TestResults: []dto.TestResult{
			{Name: "testAdd", Passed: true},
			{Name: "testSub", Passed: false, Message: "boom"},
		},
	}
}

func ingestionParticipation() models.Participation {
	return models.Participation{
		ID:         21,
		ExerciseID: 3,
		StudentID:  7,
		Exercise:   models.Exercise{ID: 3, CourseID: 1, Title: "Sorting"},
	}
}

func newIngestionService(participations *fakeParticipationRepo, testCases *fakeTestCaseRepo, results *fakeResultRepo, ingestion *fakeIngestionRepo, feed ResultBroadcaster, retries int) ResultIngestionService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewResultIngestionService(
		participations,
		testCases,
		results,
		ingestion,
		NewFeedbackNormalizer(testLogger()),
		nil,
		feed,
		validate,
		retries,
		testLogger(),
	)
}

func TestResultIngestionProcessesNotification(t *testing.T) {
	participations := &fakeParticipationRepo{participation: ingestionParticipation()}
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: 1, ExerciseID: 3, Name: "testAdd", Weight: 1, BonusMultiplier: 1, Active: true},
		{ID: 2, ExerciseID: 3, Name: "testSub", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	ingestion := &fakeIngestionRepo{}
	feed := &recordingBroadcaster{}
	svc := newIngestionService(participations, testCases, &fakeResultRepo{}, ingestion, feed, 1)

	response, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.NoError(t, err)
	require.InDelta(t, 50.0, response.Score, 0.0001)
	require.False(t, response.Successful)
	require.True(t, response.Rated, "no due date means every result is rated")
	require.Equal(t, models.ResultStateScored, response.State)
	require.Equal(t, uint(3), response.ExerciseID)
	require.Len(t, response.Feedbacks, 2)
	require.False(t, response.Idempotent)

	require.NotNil(t, ingestion.lastSaved)
	require.Equal(t, "a1b2c3d4e5f60718", ingestion.lastSaved.CommitHash)
	require.Len(t, feed.results, 1)
	require.Equal(t, uint(3), feed.exerciseIDs[0])
}

func TestResultIngestionIdempotentForKnownCommit(t *testing.T) {
	participations := &fakeParticipationRepo{participation: ingestionParticipation()}
	existing := models.Result{ID: 55, ParticipationID: 21, Score: 50, State: models.ResultStateScored}
	results := &fakeResultRepo{byCommit: map[string]models.Result{"a1b2c3d4e5f60718": existing}}
	ingestion := &fakeIngestionRepo{}
	feed := &recordingBroadcaster{}
	svc := newIngestionService(participations, &fakeTestCaseRepo{}, results, ingestion, feed, 1)

	response, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.NoError(t, err)
	require.True(t, response.Idempotent)
	require.Equal(t, uint(55), response.ID)
	require.Zero(t, ingestion.calls, "duplicate must not write anything")
	require.Empty(t, feed.results, "duplicate must not rebroadcast")
}

func TestResultIngestionUnknownParticipation(t *testing.T) {
	svc := newIngestionService(&fakeParticipationRepo{missing: true}, &fakeTestCaseRepo{}, &fakeResultRepo{}, &fakeIngestionRepo{}, nil, 1)

	_, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.ErrorIs(t, err, ErrUnknownParticipation)
}

func TestResultIngestionRejectsInvalidNotification(t *testing.T) {
	svc := newIngestionService(&fakeParticipationRepo{participation: ingestionParticipation()}, &fakeTestCaseRepo{}, &fakeResultRepo{}, &fakeIngestionRepo{}, nil, 1)

	notification := ingestionNotification()
	notification.CommitHash = "xyz"

	_, err := svc.ProcessBuildResult(context.Background(), notification)
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestResultIngestionRetriesOnceThenSucceeds(t *testing.T) {
	participations := &fakeParticipationRepo{participation: ingestionParticipation()}
	ingestion := &fakeIngestionRepo{failures: 1}
	svc := newIngestionService(participations, &fakeTestCaseRepo{}, &fakeResultRepo{}, ingestion, nil, 1)

	response, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.NoError(t, err)
	require.Equal(t, 2, ingestion.calls)
	require.Equal(t, uint(100), response.ID)
}

func TestResultIngestionFailsAfterRetriesExhausted(t *testing.T) {
	participations := &fakeParticipationRepo{participation: ingestionParticipation()}
	ingestion := &fakeIngestionRepo{failures: 10}
	svc := newIngestionService(participations, &fakeTestCaseRepo{}, &fakeResultRepo{}, ingestion, nil, 1)

	_, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.ErrorIs(t, err, ErrIngestionFailed)
	require.Equal(t, 2, ingestion.calls)
}

func TestResultIngestionLateSubmissionUnrated(t *testing.T) {
	dueDate := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	participation := ingestionParticipation()
	participation.Exercise.DueDate = &dueDate
	participations := &fakeParticipationRepo{participation: participation}
	svc := newIngestionService(participations, &fakeTestCaseRepo{}, &fakeResultRepo{}, &fakeIngestionRepo{}, nil, 1)

	// The build timestamp is two hours past the due date.
	response, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.NoError(t, err)
	require.False(t, response.Rated)
}

func TestResultIngestionActivatesReportedTestCases(t *testing.T) {
	participations := &fakeParticipationRepo{participation: ingestionParticipation()}
	ingestion := &fakeIngestionRepo{}
	svc := newIngestionService(participations, &fakeTestCaseRepo{}, &fakeResultRepo{}, ingestion, nil, 1)

	response, err := svc.ProcessBuildResult(context.Background(), ingestionNotification())
	require.NoError(t, err)

	require.Len(t, ingestion.lastSaved.TestCaseChanges, 2)
	for _, testCase := range ingestion.lastSaved.TestCaseChanges {
		require.True(t, testCase.Active)
		require.Equal(t, uint(3), testCase.ExerciseID)
	}
	// One of the two reported tests passed; both are active with weight 1.
	require.InDelta(t, 50.0, response.Score, 0.0001)
}
