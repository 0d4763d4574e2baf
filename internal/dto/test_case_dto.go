package dto

import "github.com/praxis-lms/grading-api/internal/models"

// TestCaseResponse serializes one configured test case.
type TestCaseResponse struct {
	ID              uint    `json:"id"`
	ExerciseID      uint    `json:"exercise_id"`
	Name            string  `json:"name"`
	Weight          float64 `json:"weight"`
	BonusMultiplier float64 `json:"bonus_multiplier"`
	BonusPoints     float64 `json:"bonus_points"`
	Active          bool    `json:"active"`
}

// TestCaseUpdateRequest adjusts the grading configuration of one test case.
type TestCaseUpdateRequest struct {
	Weight          *float64 `json:"weight" validate:"omitempty,gte=0"`
	BonusMultiplier *float64 `json:"bonus_multiplier" validate:"omitempty,gte=0"`
	BonusPoints     *float64 `json:"bonus_points" validate:"omitempty,gte=0"`
}

// FreezeRequest toggles the exercise's test-case freeze, e.g. after the due date.
type FreezeRequest struct {
	Frozen bool `json:"frozen"`
}

// NewTestCaseResponse maps a test case model to its API shape.
func NewTestCaseResponse(testCase models.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:              testCase.ID,
		ExerciseID:      testCase.ExerciseID,
		Name:            testCase.Name,
		Weight:          testCase.Weight,
		BonusMultiplier: testCase.BonusMultiplier,
		BonusPoints:     testCase.BonusPoints,
		Active:          testCase.Active,
	}
}
