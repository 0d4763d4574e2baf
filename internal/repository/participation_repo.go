package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ParticipationRepository resolves participations referenced by CI notifications.
type ParticipationRepository interface {
	GetByID(ctx context.Context, id uint) (models.Participation, error)
}

type participationRepository struct {
	db *gorm.DB
}

// NewParticipationRepository constructs the participation repository.
func NewParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

func (r *participationRepository) GetByID(ctx context.Context, id uint) (models.Participation, error) {
	var participation models.Participation
	err := r.db.WithContext(ctx).
		Preload("Exercise").
		Preload("Exercise.Categories").
		First(&participation, id).Error
	return participation, err
}
