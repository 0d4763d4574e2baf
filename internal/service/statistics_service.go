package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/repository"
)

const week = 7 * 24 * time.Hour

// StatisticsService computes derived course statistics: weekly active-student
// histograms and per-exercise grading progress. All figures are a single
// point-in-time snapshot; successive calls may differ while grading runs.
type StatisticsService interface {
	GetCourseStatistics(ctx context.Context, courseID uint) (dto.CourseStatisticsResponse, error)
}

type statisticsService struct {
	courses    repository.CourseRepository
	statistics repository.StatisticsRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(courses repository.CourseRepository, statistics repository.StatisticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatisticsService {
	return &statisticsService{
		courses:    courses,
		statistics: statistics,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "statistics_service").Logger(),
		now:        time.Now,
	}
}

func (s *statisticsService) GetCourseStatistics(ctx context.Context, courseID uint) (dto.CourseStatisticsResponse, error) {
	cacheKey := fmt.Sprintf("statistics:course:%d", courseID)
	tracer := otel.Tracer("github.com/praxis-lms/grading-api/internal/service/statistics")
	ctx, span := tracer.Start(ctx, "statistics.aggregate")
	span.SetAttributes(attribute.Int64("statistics.course_id", int64(courseID)))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.CourseStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("statistics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read statistics cache")
			span.RecordError(err)
		}
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "course_not_found")
			return dto.CourseStatisticsResponse{}, ErrCourseNotFound
		}
		return dto.CourseStatisticsResponse{}, err
	}

	activity, err := s.statistics.ListSubmissionActivity(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CourseStatisticsResponse{}, err
	}

	exercises, err := s.exerciseEntries(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CourseStatisticsResponse{}, err
	}

	now := s.now()
	response := dto.CourseStatisticsResponse{
		CourseID:       courseID,
		ActiveStudents: ActiveStudentBuckets(course.StartDate, course.EndDate, now, activity),
		Exercises:      exercises,
		GeneratedAt:    now,
	}

	span.SetAttributes(
		attribute.Int("statistics.bucket_count", len(response.ActiveStudents)),
		attribute.Int("statistics.exercise_count", len(response.Exercises)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store statistics cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *statisticsService) exerciseEntries(ctx context.Context, courseID uint) ([]dto.ExerciseStatisticsEntry, error) {
	exercises, err := s.statistics.ListCourseExercises(ctx, courseID)
	if err != nil {
		return nil, err
	}

	participations, err := s.statistics.CountParticipationsByExercise(ctx, courseID)
	if err != nil {
		return nil, err
	}
	submitted, err := s.statistics.CountSubmittedParticipationsByExercise(ctx, courseID)
	if err != nil {
		return nil, err
	}
	assessed, err := s.statistics.CountAssessedResultsByExercise(ctx, courseID)
	if err != nil {
		return nil, err
	}

	participationCounts := countsByExercise(participations)
	submittedCounts := countsByExercise(submitted)
	assessedCounts := countsByExercise(assessed)

	entries := make([]dto.ExerciseStatisticsEntry, 0, len(exercises))
	for _, exercise := range exercises {
		entry := dto.ExerciseStatisticsEntry{
			ExerciseID:                   exercise.ID,
			Title:                        exercise.Title,
			Participations:               participationCounts[exercise.ID],
			ParticipationsWithSubmission: submittedCounts[exercise.ID],
			AssessedResults:              assessedCounts[exercise.ID],
		}
		if entry.Participations > 0 {
			entry.ParticipationRate = 100 * float64(entry.ParticipationsWithSubmission) / float64(entry.Participations)
			entry.AssessmentCompletionRate = 100 * float64(entry.AssessedResults) / float64(entry.Participations)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func countsByExercise(rows []repository.ExerciseCountRow) map[uint]int64 {
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ExerciseID] = row.Count
	}
	return counts
}

// ActiveStudentBuckets counts distinct active students per 7-day bucket
// starting at the course start date. The series is truncated at the earlier of
// the course end date and the start of the current day, so submissions made
// today never count. A course that has not started yet yields a nil series.
func ActiveStudentBuckets(startDate time.Time, endDate *time.Time, now time.Time, rows []repository.SubmissionActivityRow) []int64 {
	upper := startOfDay(now)
	if endDate != nil && endDate.Before(upper) {
		upper = *endDate
	}

	if !startDate.Before(upper) {
		return nil
	}

	span := upper.Sub(startDate)
	buckets := int(span / week)
	if span%week > 0 {
		buckets++
	}

	students := make([]map[uint]struct{}, buckets)
	for _, row := range rows {
		if row.SubmittedAt.Before(startDate) || !row.SubmittedAt.Before(upper) {
			continue
		}
		index := int(row.SubmittedAt.Sub(startDate) / week)
		if index < 0 || index >= buckets {
			continue
		}
		if students[index] == nil {
			students[index] = make(map[uint]struct{})
		}
		students[index][row.StudentID] = struct{}{}
	}

	counts := make([]int64, buckets)
	for i, set := range students {
		counts[i] = int64(len(set))
	}
	return counts
}

func startOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
