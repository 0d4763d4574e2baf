package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/repository"
)

// ErrExerciseNotFound indicates the exercise was not located.
var ErrExerciseNotFound = errors.New("exercise not found")

// ErrTestCaseNotFound indicates the test case was not located.
var ErrTestCaseNotFound = errors.New("test case not found")

// ReconcileTestCases applies the lazy registry rules to the stored test cases
// of an exercise: names reported for the first time are created active with
// default weight 1, stored cases missing from the report are deactivated (not
// deleted), and previously deactivated cases that reappear are reactivated.
// A frozen registry is returned unchanged.
//
// The second return value contains only the rows that need persisting.
func ReconcileTestCases(exerciseID uint, existing []models.TestCase, reported []string, frozen bool) ([]models.TestCase, []models.TestCase) {
	if frozen {
		return existing, nil
	}

	reportedSet := make(map[string]struct{}, len(reported))
	for _, name := range reported {
		reportedSet[name] = struct{}{}
	}

	registry := make([]models.TestCase, 0, len(existing)+len(reported))
	changed := make([]models.TestCase, 0)
	known := make(map[string]struct{}, len(existing))

	for _, testCase := range existing {
		known[testCase.Name] = struct{}{}
		_, nowReported := reportedSet[testCase.Name]
		if testCase.Active != nowReported {
			testCase.Active = nowReported
			changed = append(changed, testCase)
		}
		registry = append(registry, testCase)
	}

	for _, name := range reported {
		if _, ok := known[name]; ok {
			continue
		}
		testCase := models.TestCase{
			ExerciseID:      exerciseID,
			Name:            name,
			Weight:          1,
			BonusMultiplier: 1,
			Active:          true,
		}
		registry = append(registry, testCase)
		changed = append(changed, testCase)
	}

	return registry, changed
}

// TestCaseService exposes the registry to instructors: listing, grading
// configuration updates, freezing, and explicit rescoring.
type TestCaseService interface {
	List(ctx context.Context, exerciseID uint) ([]dto.TestCaseResponse, error)
	Update(ctx context.Context, exerciseID, testCaseID uint, payload dto.TestCaseUpdateRequest) (dto.TestCaseResponse, error)
	SetFrozen(ctx context.Context, exerciseID uint, frozen bool) error
	// TriggerRescore recomputes the score of the latest result of every
	// participation using the current weights and returns how many results changed.
	TriggerRescore(ctx context.Context, exerciseID uint) (int, error)
}

type testCaseService struct {
	testCases repository.TestCaseRepository
	exercises repository.ExerciseRepository
	results   repository.ResultRepository
	validator *validator.Validate
	locks     *keyedMutex
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTestCaseService constructs the test case service.
func NewTestCaseService(testCases repository.TestCaseRepository, exercises repository.ExerciseRepository, results repository.ResultRepository, validate *validator.Validate, logger zerolog.Logger) TestCaseService {
	return &testCaseService{
		testCases: testCases,
		exercises: exercises,
		results:   results,
		validator: validate,
		locks:     newKeyedMutex(),
		logger:    logger.With().Str("component", "test_case_service").Logger(),
		now:       time.Now,
	}
}

func (s *testCaseService) List(ctx context.Context, exerciseID uint) ([]dto.TestCaseResponse, error) {
	if _, err := s.exercises.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	testCases, err := s.testCases.ListByExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TestCaseResponse, 0, len(testCases))
	for _, testCase := range testCases {
		responses = append(responses, dto.NewTestCaseResponse(testCase))
	}
	return responses, nil
}

func (s *testCaseService) Update(ctx context.Context, exerciseID, testCaseID uint, payload dto.TestCaseUpdateRequest) (dto.TestCaseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestCaseResponse{}, err
	}

	testCase, err := s.testCases.GetByID(ctx, exerciseID, testCaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestCaseResponse{}, ErrTestCaseNotFound
		}
		return dto.TestCaseResponse{}, err
	}

	if payload.Weight != nil {
		testCase.Weight = *payload.Weight
	}
	if payload.BonusMultiplier != nil {
		testCase.BonusMultiplier = *payload.BonusMultiplier
	}
	if payload.BonusPoints != nil {
		testCase.BonusPoints = *payload.BonusPoints
	}

	if err := s.testCases.Update(ctx, &testCase); err != nil {
		return dto.TestCaseResponse{}, err
	}

	return dto.NewTestCaseResponse(testCase), nil
}

func (s *testCaseService) SetFrozen(ctx context.Context, exerciseID uint, frozen bool) error {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	exercise.TestsFrozen = frozen
	return s.exercises.Update(ctx, &exercise)
}

func (s *testCaseService) TriggerRescore(ctx context.Context, exerciseID uint) (int, error) {
	tracer := otel.Tracer("github.com/praxis-lms/grading-api/internal/service/test_case")
	ctx, span := tracer.Start(ctx, "testcases.rescore")
	span.SetAttributes(attribute.Int64("rescore.exercise_id", int64(exerciseID)))
	defer span.End()

	unlock := s.locks.Lock(exerciseLockKey(exerciseID))
	defer unlock()

	if _, err := s.exercises.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "exercise_not_found")
			return 0, ErrExerciseNotFound
		}
		return 0, err
	}

	testCases, err := s.testCases.ListByExercise(ctx, exerciseID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	nameByID := make(map[uint]string, len(testCases))
	knownNames := make(map[string]struct{}, len(testCases))
	for _, testCase := range testCases {
		nameByID[testCase.ID] = testCase.Name
		knownNames[testCase.Name] = struct{}{}
	}

	results, err := s.results.ListLatestByExercise(ctx, exerciseID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	updated := 0
	for i := range results {
		result := &results[i]
		passed := make(map[string]bool)
		for _, feedback := range result.Feedbacks {
			if feedback.Type != models.FeedbackTypeAutomatic || feedback.IsStaticAnalysis() {
				continue
			}
			if feedback.TestCaseID != nil {
				if name, ok := nameByID[*feedback.TestCaseID]; ok {
					passed[name] = feedback.Positive
				}
				continue
			}
			// Feedback written on the run that first activated a case carries
			// no id; match it by test name instead.
			if _, ok := knownNames[feedback.Text]; ok {
				passed[feedback.Text] = feedback.Positive
			}
		}

		score := CalculateScore(testCases, passed)
		if score == result.Score {
			continue
		}

		result.Score = score
		result.Successful = AllActivePassed(testCases, passed)
		if err := s.results.Update(ctx, result); err != nil {
			span.RecordError(err)
			return updated, err
		}
		updated++
	}

	span.SetAttributes(attribute.Int("rescore.updated", updated))
	s.logger.Info().Uint("exercise_id", exerciseID).Int("updated", updated).Msg("rescored latest results")
	return updated, nil
}
