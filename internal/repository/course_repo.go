package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// CourseRepository loads courses and their staff membership.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Staff").
		First(&course, id).Error
	return course, err
}
