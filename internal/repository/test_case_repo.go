package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// TestCaseRepository manages the per-exercise test case registry.
type TestCaseRepository interface {
	ListByExercise(ctx context.Context, exerciseID uint) ([]models.TestCase, error)
	GetByID(ctx context.Context, exerciseID, id uint) (models.TestCase, error)
	Update(ctx context.Context, testCase *models.TestCase) error
}

type testCaseRepository struct {
	db *gorm.DB
}

// NewTestCaseRepository constructs the test case repository.
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

func (r *testCaseRepository) ListByExercise(ctx context.Context, exerciseID uint) ([]models.TestCase, error) {
	var testCases []models.TestCase
	err := r.db.WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		Order("name").
		Find(&testCases).Error
	return testCases, err
}

func (r *testCaseRepository) GetByID(ctx context.Context, exerciseID, id uint) (models.TestCase, error) {
	var testCase models.TestCase
	err := r.db.WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		First(&testCase, id).Error
	return testCase, err
}

func (r *testCaseRepository) Update(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Save(testCase).Error
}
