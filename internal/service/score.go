package service

import (
	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
)

// CalculateScore computes the weighted score over the active test cases:
//
//	100 * (sum of weight*multiplier for passed + sum of bonus points for passed)
//	    / (sum of weight*multiplier for all active)
//
// clamped to [0,100]. An exercise with no active test cases (or an all-zero
// weight configuration) scores 0 rather than dividing by zero.
func CalculateScore(testCases []models.TestCase, passed map[string]bool) float64 {
	var achievable, achieved float64
	for _, testCase := range testCases {
		if !testCase.Active {
			continue
		}
		achievable += testCase.WeightedScore()
		if passed[testCase.Name] {
			achieved += testCase.WeightedScore() + testCase.BonusPoints
		}
	}

	if achievable <= 0 {
		return 0
	}

	score := 100 * achieved / achievable
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// PassedTestNames collapses the reported test results into a pass/fail map.
// Duplicate names in one notification resolve last-write-wins.
func PassedTestNames(results []dto.TestResult) map[string]bool {
	passed := make(map[string]bool, len(results))
	for _, result := range results {
		passed[result.Name] = result.Passed
	}
	return passed
}

// ReportedTestNames returns the deduplicated set of test names in reporting order.
func ReportedTestNames(results []dto.TestResult) []string {
	seen := make(map[string]struct{}, len(results))
	names := make([]string, 0, len(results))
	for _, result := range results {
		if _, ok := seen[result.Name]; ok {
			continue
		}
		seen[result.Name] = struct{}{}
		names = append(names, result.Name)
	}
	return names
}

// AllActivePassed reports whether every active test case passed. It is false
// when the exercise has no active test cases at all.
func AllActivePassed(testCases []models.TestCase, passed map[string]bool) bool {
	active := 0
	for _, testCase := range testCases {
		if !testCase.Active {
			continue
		}
		active++
		if !passed[testCase.Name] {
			return false
		}
	}
	return active > 0
}
