package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/observability"
	"github.com/praxis-lms/grading-api/internal/repository"
	"github.com/praxis-lms/grading-api/pkg/events"
)

// ErrUnknownParticipation indicates the notification references a participation
// this system does not know; the CI connector should not redeliver it.
var ErrUnknownParticipation = errors.New("participation not found")

// ErrIngestionFailed indicates the atomic write failed even after retrying.
// The notification produced no partial result and may be redelivered.
var ErrIngestionFailed = errors.New("build result ingestion failed")

// ResultBroadcaster pushes processed results to live subscribers.
type ResultBroadcaster interface {
	BroadcastResult(exerciseID uint, result dto.ResultResponse)
}

// ResultIngestionService turns CI build-result notifications into persisted,
// scored results with their normalized feedback.
type ResultIngestionService interface {
	ProcessBuildResult(ctx context.Context, notification dto.BuildResultNotification) (dto.ResultResponse, error)
}

type resultIngestionService struct {
	participations repository.ParticipationRepository
	testCases      repository.TestCaseRepository
	results        repository.ResultRepository
	ingestion      repository.IngestionRepository
	normalizer     *FeedbackNormalizer
	publisher      *events.Publisher
	feed           ResultBroadcaster
	validator      *validator.Validate
	locks          *keyedMutex
	retries        int
	logger         zerolog.Logger
	now            func() time.Time
}

// NewResultIngestionService constructs the ingestion service. retries is the
// number of additional end-to-end attempts after a failed atomic write.
func NewResultIngestionService(
	participations repository.ParticipationRepository,
	testCases repository.TestCaseRepository,
	results repository.ResultRepository,
	ingestion repository.IngestionRepository,
	normalizer *FeedbackNormalizer,
	publisher *events.Publisher,
	feed ResultBroadcaster,
	validate *validator.Validate,
	retries int,
	logger zerolog.Logger,
) ResultIngestionService {
	if retries < 0 {
		retries = 1
	}

	return &resultIngestionService{
		participations: participations,
		testCases:      testCases,
		results:        results,
		ingestion:      ingestion,
		normalizer:     normalizer,
		publisher:      publisher,
		feed:           feed,
		validator:      validate,
		locks:          newKeyedMutex(),
		retries:        retries,
		logger:         logger.With().Str("component", "result_ingestion_service").Logger(),
		now:            time.Now,
	}
}

func (s *resultIngestionService) ProcessBuildResult(ctx context.Context, notification dto.BuildResultNotification) (dto.ResultResponse, error) {
	tracer := otel.Tracer("github.com/praxis-lms/grading-api/internal/service/result_ingestion")
	ctx, span := tracer.Start(ctx, "grading.process_build_result")
	span.SetAttributes(
		attribute.Int64("grading.participation_id", int64(notification.ParticipationID)),
		attribute.String("grading.commit_hash", notification.CommitHash),
	)
	defer span.End()

	start := s.now()

	if err := s.validator.Struct(notification); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		observability.BuildResults().WithLabelValues("rejected").Inc()
		return dto.ResultResponse{}, err
	}

	// Notifications for the same participation are strictly serialized so the
	// dedup check below cannot race a concurrent result creation.
	unlock := s.locks.Lock(participationLockKey(notification.ParticipationID))
	defer unlock()

	participation, err := s.participations.GetByID(ctx, notification.ParticipationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "unknown_participation")
			observability.BuildResults().WithLabelValues("rejected").Inc()
			return dto.ResultResponse{}, ErrUnknownParticipation
		}
		span.RecordError(err)
		return dto.ResultResponse{}, err
	}

	existing, err := s.results.FindByParticipationAndCommit(ctx, participation.ID, notification.CommitHash)
	if err == nil {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		observability.BuildResults().WithLabelValues("duplicate").Inc()
		response := dto.NewResultResponse(existing, participation.ExerciseID, notification.CommitHash)
		response.Idempotent = true
		return response, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.ResultResponse{}, err
	}

	var saved models.Result
	attempts := 1 + s.retries
	for attempt := 1; attempt <= attempts; attempt++ {
		saved, err = s.ingest(ctx, participation, notification)
		if err == nil {
			break
		}
		s.logger.Warn().Err(err).
			Uint("participation_id", participation.ID).
			Int("attempt", attempt).
			Msg("build result write failed")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion_failed")
		observability.BuildResults().WithLabelValues("failed").Inc()
		return dto.ResultResponse{}, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}

	observability.BuildResults().WithLabelValues("processed").Inc()
	observability.IngestLatency().Observe(s.now().Sub(start).Seconds())
	span.SetAttributes(
		attribute.Float64("grading.score", saved.Score),
		attribute.Bool("grading.rated", saved.Rated),
	)

	response := dto.NewResultResponse(saved, participation.ExerciseID, notification.CommitHash)

	if s.publisher != nil {
		s.publisher.ResultProcessed(events.ResultProcessedEvent{
			ResultID:        saved.ID,
			ParticipationID: participation.ID,
			ExerciseID:      participation.ExerciseID,
			CommitHash:      notification.CommitHash,
			Score:           saved.Score,
			Rated:           saved.Rated,
			ProcessedAt:     saved.CompletionDate,
		})
	}
	if s.feed != nil {
		s.feed.BroadcastResult(participation.ExerciseID, response)
	}

	return response, nil
}

// ingest performs one end-to-end processing attempt: registry reconcile, score
// calculation, feedback normalization, and the single atomic write.
func (s *resultIngestionService) ingest(ctx context.Context, participation models.Participation, notification dto.BuildResultNotification) (models.Result, error) {
	// The registry is shared by all participations of the exercise.
	unlock := s.locks.Lock(exerciseLockKey(participation.ExerciseID))
	defer unlock()

	exercise := participation.Exercise

	stored, err := s.testCases.ListByExercise(ctx, exercise.ID)
	if err != nil {
		return models.Result{}, err
	}

	reported := ReportedTestNames(notification.TestResults)
	registry, changed := ReconcileTestCases(exercise.ID, stored, reported, exercise.TestsFrozen)

	passed := PassedTestNames(notification.TestResults)
	score := CalculateScore(registry, passed)
	if score == 0 && len(notification.TestResults) > 0 && !hasActiveTestCase(registry) {
		s.logger.Warn().
			Uint("exercise_id", exercise.ID).
			Uint("participation_id", participation.ID).
			Msg("notification reported tests but exercise has no active test cases")
	}

	feedbacks := s.normalizer.Normalize(exercise, registry, notification)

	result := models.Result{
		ParticipationID: participation.ID,
		Score:           score,
		Successful:      AllActivePassed(registry, passed),
		Rated:           exercise.RatedAt(notification.BuildTimestamp),
		State:           models.ResultStateScored,
		CompletionDate:  notification.BuildTimestamp,
		Feedbacks:       feedbacks,
	}

	saved, err := s.ingestion.SaveProcessedResult(ctx, &repository.ProcessedResult{
		ParticipationID: participation.ID,
		CommitHash:      notification.CommitHash,
		SubmittedAt:     notification.BuildTimestamp,
		Result:          result,
		TestCaseChanges: changed,
	})
	if err != nil {
		return models.Result{}, err
	}

	return saved, nil
}

func hasActiveTestCase(testCases []models.TestCase) bool {
	for _, testCase := range testCases {
		if testCase.Active {
			return true
		}
	}
	return false
}
