package models

import "time"

// TestCase is one named automated check of an exercise's test suite.
// Test cases are activated lazily the first time CI reports their name and
// deactivated (never deleted) when a later build no longer reports them.
type TestCase struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ExerciseID      uint      `gorm:"not null;uniqueIndex:idx_test_case_name" json:"exercise_id"`
	Name            string    `gorm:"size:255;not null;uniqueIndex:idx_test_case_name" json:"name"`
	Weight          float64   `gorm:"not null;default:1" json:"weight"`
	BonusMultiplier float64   `gorm:"not null;default:1" json:"bonus_multiplier"`
	BonusPoints     float64   `gorm:"not null;default:0" json:"bonus_points"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WeightedScore returns the test case's contribution to the score denominator.
func (t TestCase) WeightedScore() float64 {
	return t.Weight * t.BonusMultiplier
}
