package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ResultRepository reads and updates persisted results.
type ResultRepository interface {
	GetByID(ctx context.Context, id uint) (models.Result, error)
	// FindByParticipationAndCommit returns the non-superseded result for the
	// given dedup key, or gorm.ErrRecordNotFound.
	FindByParticipationAndCommit(ctx context.Context, participationID uint, commitHash string) (models.Result, error)
	// ListLatestByExercise returns, per participation of the exercise, the most
	// recently completed non-superseded result with its feedback.
	ListLatestByExercise(ctx context.Context, exerciseID uint) ([]models.Result, error)
	Update(ctx context.Context, result *models.Result) error
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository constructs the result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Preload("Feedbacks").
		Preload("Submission").
		First(&result, id).Error
	return result, err
}

func (r *resultRepository) FindByParticipationAndCommit(ctx context.Context, participationID uint, commitHash string) (models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = results.submission_id").
		Where("results.participation_id = ?", participationID).
		Where("submissions.commit_hash = ?", commitHash).
		Where("results.state <> ?", models.ResultStateSuperseded).
		Preload("Feedbacks").
		Preload("Submission").
		First(&result).Error
	return result, err
}

func (r *resultRepository) ListLatestByExercise(ctx context.Context, exerciseID uint) ([]models.Result, error) {
	var results []models.Result
	subQuery := r.db.
		Table("results").
		Select("MAX(results.id)").
		Joins("JOIN participations ON participations.id = results.participation_id").
		Where("participations.exercise_id = ?", exerciseID).
		Where("results.state <> ?", models.ResultStateSuperseded).
		Group("results.participation_id")

	err := r.db.WithContext(ctx).
		Where("results.id IN (?)", subQuery).
		Preload("Feedbacks").
		Preload("Submission").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) Update(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Save(result).Error
}
