package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
)

func TestCalculateScoreWeightedAverage(t *testing.T) {
	testCases := []models.TestCase{
		{Name: "test1", Weight: 1, BonusMultiplier: 1, Active: true},
		{Name: "test2", Weight: 1, BonusMultiplier: 1, Active: true},
		{Name: "test3", Weight: 1, BonusMultiplier: 1, Active: true},
	}
	passed := map[string]bool{"test1": true, "test2": true, "test3": false}

	score := CalculateScore(testCases, passed)
	require.InDelta(t, 100.0*2/3, score, 0.0001)
}

func TestCalculateScoreDeactivationChangesDenominator(t *testing.T) {
	stored := []models.TestCase{
		{ID: 1, ExerciseID: 7, Name: "test1", Weight: 1, BonusMultiplier: 1, Active: true},
		{ID: 2, ExerciseID: 7, Name: "test2", Weight: 1, BonusMultiplier: 1, Active: true},
		{ID: 3, ExerciseID: 7, Name: "test3", Weight: 1, BonusMultiplier: 1, Active: true},
	}

	first := map[string]bool{"test1": true, "test2": true, "test3": false}
	require.InDelta(t, 100.0*2/3, CalculateScore(stored, first), 0.0001)

	// The suite no longer contains test3, so the registry deactivates it and
	// the same two passing tests are now worth full marks.
	registry, changed := ReconcileTestCases(7, stored, []string{"test1", "test2"}, false)
	require.Len(t, changed, 1)
	require.Equal(t, "test3", changed[0].Name)
	require.False(t, changed[0].Active)

	second := map[string]bool{"test1": true, "test2": true}
	require.InDelta(t, 100.0, CalculateScore(registry, second), 0.0001)
	require.True(t, AllActivePassed(registry, second))
}

func TestCalculateScoreNoActiveCases(t *testing.T) {
	testCases := []models.TestCase{
		{Name: "test1", Weight: 1, BonusMultiplier: 1, Active: false},
	}
	require.Zero(t, CalculateScore(testCases, map[string]bool{"test1": true}))
	require.Zero(t, CalculateScore(nil, map[string]bool{}))
	require.False(t, AllActivePassed(testCases, map[string]bool{"test1": true}))
}

func TestCalculateScoreZeroWeightConfiguration(t *testing.T) {
	testCases := []models.TestCase{
		{Name: "test1", Weight: 0, BonusMultiplier: 1, Active: true},
		{Name: "test2", Weight: 0, BonusMultiplier: 1, Active: true},
	}
	require.Zero(t, CalculateScore(testCases, map[string]bool{"test1": true, "test2": true}))
}

func TestCalculateScoreBonusClampsAtHundred(t *testing.T) {
	testCases := []models.TestCase{
		{Name: "test1", Weight: 1, BonusMultiplier: 1, BonusPoints: 5, Active: true},
		{Name: "test2", Weight: 1, BonusMultiplier: 1, Active: true},
	}
	passed := map[string]bool{"test1": true, "test2": true}
	require.Equal(t, 100.0, CalculateScore(testCases, passed))
}

func TestCalculateScoreBonusMultiplier(t *testing.T) {
	testCases := []models.TestCase{
		{Name: "test1", Weight: 2, BonusMultiplier: 2, Active: true},
		{Name: "test2", Weight: 1, BonusMultiplier: 1, Active: true},
	}
	passed := map[string]bool{"test1": true}

	// achievable 5, achieved 4
	require.InDelta(t, 80.0, CalculateScore(testCases, passed), 0.0001)
}

func TestPassedTestNamesLastWriteWins(t *testing.T) {
	results := []dto.TestResult{
		{Name: "flaky", Passed: false},
		{Name: "stable", Passed: true},
		{Name: "flaky", Passed: true},
	}

	passed := PassedTestNames(results)
	require.True(t, passed["flaky"])
	require.True(t, passed["stable"])

	names := ReportedTestNames(results)
	require.Equal(t, []string{"flaky", "stable"}, names)
}
