package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/models"
)

// ComplaintRepository manages complaints and their resolutions.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id uint) (models.Complaint, error)
	HasOpenForResult(ctx context.Context, resultID uint) (bool, error)
	// Resolve writes the response, the acceptance decision, and (for accepted
	// complaints) the superseding result atomically. newResult may be nil.
	Resolve(ctx context.Context, complaint *models.Complaint, response *models.ComplaintResponse, supersededResult *models.Result, newResult *models.Result) error
}

type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository constructs the complaint repository.
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *complaintRepository) GetByID(ctx context.Context, id uint) (models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Response").
		Preload("Result").
		Preload("Result.Feedbacks").
		Preload("Result.Submission").
		First(&complaint, id).Error
	return complaint, err
}

func (r *complaintRepository) HasOpenForResult(ctx context.Context, resultID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("result_id = ?", resultID).
		Where("accepted IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *complaintRepository) Resolve(ctx context.Context, complaint *models.Complaint, response *models.ComplaintResponse, supersededResult *models.Result, newResult *models.Result) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Complaint{}).
			Where("id = ?", complaint.ID).
			Update("accepted", complaint.Accepted).Error; err != nil {
			return err
		}

		if newResult != nil {
			if err := tx.Create(newResult).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Result{}).
				Where("id = ?", supersededResult.ID).
				Update("state", models.ResultStateSuperseded).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
