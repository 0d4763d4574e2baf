package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ProcessedResult is the complete outcome of one build-result notification.
// Everything in it is written in a single transaction: a scored result must
// never be visible without its feedback or the matching registry update.
type ProcessedResult struct {
	ParticipationID uint
	CommitHash      string
	SubmittedAt     time.Time
	Result          models.Result
	TestCaseChanges []models.TestCase
}

// IngestionRepository owns the atomic write at the end of result processing.
type IngestionRepository interface {
	SaveProcessedResult(ctx context.Context, processed *ProcessedResult) (models.Result, error)
}

type ingestionRepository struct {
	db *gorm.DB
}

// NewIngestionRepository constructs the ingestion repository.
func NewIngestionRepository(db *gorm.DB) IngestionRepository {
	return &ingestionRepository{db: db}
}

func (r *ingestionRepository) SaveProcessedResult(ctx context.Context, processed *ProcessedResult) (models.Result, error) {
	result := processed.Result

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range processed.TestCaseChanges {
			if err := tx.Save(&processed.TestCaseChanges[i]).Error; err != nil {
				return err
			}
		}

		var submission models.Submission
		err := tx.Where("participation_id = ? AND commit_hash = ?", processed.ParticipationID, processed.CommitHash).
			First(&submission).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			submission = models.Submission{
				ParticipationID: processed.ParticipationID,
				CommitHash:      processed.CommitHash,
				SubmittedAt:     processed.SubmittedAt,
			}
			if err := tx.Create(&submission).Error; err != nil {
				return err
			}
		}

		result.SubmissionID = submission.ID
		if err := tx.Create(&result).Error; err != nil {
			return err
		}

		result.Submission = submission
		return nil
	})
	if err != nil {
		return models.Result{}, err
	}

	return result, nil
}
