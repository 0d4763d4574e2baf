package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// AssessmentRow is one assessed, non-superseded result in a course.
type AssessmentRow struct {
	ResultID   uint
	AssessorID uint
}

// ComplaintRow flattens a complaint with the assessor of the disputed result
// and the reviewer who answered it, if any.
type ComplaintRow struct {
	ComplaintID uint
	Type        string
	Accepted    *bool
	AssessorID  *uint
	ResponderID *uint
}

// SubmissionActivityRow is one submission event used for activity histograms.
type SubmissionActivityRow struct {
	StudentID   uint
	SubmittedAt time.Time
}

// ExerciseCountRow carries grouped counts for one exercise.
type ExerciseCountRow struct {
	ExerciseID uint
	Count      int64
}

// StatisticsRepository supplies flattened read snapshots for the aggregators.
// Each method is a single query so concurrent grading cannot interleave with
// a partially read snapshot.
type StatisticsRepository interface {
	ListCourseExercises(ctx context.Context, courseID uint) ([]models.Exercise, error)
	ListAssessments(ctx context.Context, courseID uint) ([]AssessmentRow, error)
	ListComplaints(ctx context.Context, courseID uint) ([]ComplaintRow, error)
	ListSubmissionActivity(ctx context.Context, courseID uint) ([]SubmissionActivityRow, error)
	CountParticipationsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error)
	CountSubmittedParticipationsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error)
	CountAssessedResultsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

// NewStatisticsRepository constructs the statistics repository.
func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) ListCourseExercises(ctx context.Context, courseID uint) ([]models.Exercise, error) {
	var exercises []models.Exercise
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id").
		Find(&exercises).Error
	return exercises, err
}

func (r *statisticsRepository) ListAssessments(ctx context.Context, courseID uint) ([]AssessmentRow, error) {
	var rows []AssessmentRow
	err := r.db.WithContext(ctx).
		Table("results").
		Select("results.id AS result_id, results.assessor_id AS assessor_id").
		Joins("JOIN participations ON participations.id = results.participation_id").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Where("exercises.course_id = ?", courseID).
		Where("results.assessor_id IS NOT NULL").
		Where("results.state <> ?", models.ResultStateSuperseded).
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) ListComplaints(ctx context.Context, courseID uint) ([]ComplaintRow, error) {
	var rows []ComplaintRow
	err := r.db.WithContext(ctx).
		Table("complaints").
		Select("complaints.id AS complaint_id, complaints.type AS type, complaints.accepted AS accepted, results.assessor_id AS assessor_id, complaint_responses.reviewer_id AS responder_id").
		Joins("JOIN results ON results.id = complaints.result_id").
		Joins("JOIN participations ON participations.id = complaints.participation_id").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Joins("LEFT JOIN complaint_responses ON complaint_responses.complaint_id = complaints.id").
		Where("exercises.course_id = ?", courseID).
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) ListSubmissionActivity(ctx context.Context, courseID uint) ([]SubmissionActivityRow, error) {
	var rows []SubmissionActivityRow
	err := r.db.WithContext(ctx).
		Table("submissions").
		Select("participations.student_id AS student_id, submissions.submitted_at AS submitted_at").
		Joins("JOIN participations ON participations.id = submissions.participation_id").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Where("exercises.course_id = ?", courseID).
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) CountParticipationsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error) {
	var rows []ExerciseCountRow
	err := r.db.WithContext(ctx).
		Table("participations").
		Select("participations.exercise_id AS exercise_id, COUNT(*) AS count").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Where("exercises.course_id = ?", courseID).
		Group("participations.exercise_id").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) CountSubmittedParticipationsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error) {
	var rows []ExerciseCountRow
	err := r.db.WithContext(ctx).
		Table("participations").
		Select("participations.exercise_id AS exercise_id, COUNT(DISTINCT participations.id) AS count").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Joins("JOIN submissions ON submissions.participation_id = participations.id").
		Where("exercises.course_id = ?", courseID).
		Group("participations.exercise_id").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) CountAssessedResultsByExercise(ctx context.Context, courseID uint) ([]ExerciseCountRow, error) {
	var rows []ExerciseCountRow
	err := r.db.WithContext(ctx).
		Table("results").
		Select("participations.exercise_id AS exercise_id, COUNT(*) AS count").
		Joins("JOIN participations ON participations.id = results.participation_id").
		Joins("JOIN exercises ON exercises.id = participations.exercise_id").
		Where("exercises.course_id = ?", courseID).
		Where("results.assessor_id IS NOT NULL").
		Where("results.state <> ?", models.ResultStateSuperseded).
		Group("participations.exercise_id").
		Scan(&rows).Error
	return rows, err
}
