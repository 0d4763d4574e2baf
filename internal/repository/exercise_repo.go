package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ExerciseRepository loads and updates exercises and their analysis categories.
type ExerciseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exercise, error)
	Update(ctx context.Context, exercise *models.Exercise) error
}

type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository constructs the exercise repository.
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

func (r *exerciseRepository) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	var exercise models.Exercise
	err := r.db.WithContext(ctx).
		Preload("Categories").
		First(&exercise, id).Error
	return exercise, err
}

func (r *exerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	return r.db.WithContext(ctx).Save(exercise).Error
}
