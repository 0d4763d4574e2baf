package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/repository"
)

// ErrCourseNotFound indicates the course was not located.
var ErrCourseNotFound = errors.New("course not found")

// LeaderboardService computes per-tutor grading workload for a course.
type LeaderboardService interface {
	GetCourseLeaderboard(ctx context.Context, courseID uint) ([]dto.TutorLeaderboardEntry, error)
}

type leaderboardService struct {
	courses    repository.CourseRepository
	statistics repository.StatisticsRepository
	logger     zerolog.Logger
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(courses repository.CourseRepository, statistics repository.StatisticsRepository, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		courses:    courses,
		statistics: statistics,
		logger:     logger.With().Str("component", "leaderboard_service").Logger(),
	}
}

func (s *leaderboardService) GetCourseLeaderboard(ctx context.Context, courseID uint) ([]dto.TutorLeaderboardEntry, error) {
	tracer := otel.Tracer("github.com/praxis-lms/grading-api/internal/service/leaderboard")
	ctx, span := tracer.Start(ctx, "leaderboard.aggregate")
	span.SetAttributes(attribute.Int64("leaderboard.course_id", int64(courseID)))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "course_not_found")
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	assessments, err := s.statistics.ListAssessments(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	complaints, err := s.statistics.ListComplaints(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries := BuildLeaderboard(course.Staff, assessments, complaints)
	span.SetAttributes(attribute.Int("leaderboard.entries", len(entries)))
	return entries, nil
}

// BuildLeaderboard aggregates the flattened assessment and complaint rows into
// one entry per tutor. Course staff with zero activity still appear with
// all-zero counts; a reviewer never accrues response counts for complaints
// about their own assessments.
func BuildLeaderboard(staff []models.CourseStaff, assessments []repository.AssessmentRow, complaints []repository.ComplaintRow) []dto.TutorLeaderboardEntry {
	entries := make(map[uint]*dto.TutorLeaderboardEntry)
	entry := func(tutorID uint) *dto.TutorLeaderboardEntry {
		if existing, ok := entries[tutorID]; ok {
			return existing
		}
		created := &dto.TutorLeaderboardEntry{TutorID: tutorID}
		entries[tutorID] = created
		return created
	}

	for _, member := range staff {
		if member.Role != models.RoleTutor && member.Role != models.RoleInstructor {
			continue
		}
		entry(member.UserID).TutorName = member.Name
	}

	for _, row := range assessments {
		entry(row.AssessorID).Assessments++
	}

	for _, row := range complaints {
		switch row.Type {
		case models.ComplaintTypeComplaint:
			if row.AssessorID != nil {
				target := entry(*row.AssessorID)
				target.Complaints++
				if row.Accepted != nil && *row.Accepted {
					target.AcceptedComplaints++
				}
			}
			if row.ResponderID != nil && (row.AssessorID == nil || *row.ResponderID != *row.AssessorID) {
				entry(*row.ResponderID).ComplaintResponses++
			}
		case models.ComplaintTypeMoreFeedback:
			if row.AssessorID != nil {
				target := entry(*row.AssessorID)
				if row.ResponderID != nil {
					target.AnsweredMoreFeedbackRequests++
				} else {
					target.UnansweredMoreFeedbackRequests++
				}
			}
		}
	}

	result := make([]dto.TutorLeaderboardEntry, 0, len(entries))
	for _, value := range entries {
		result = append(result, *value)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TutorID < result[j].TutorID })
	return result
}
