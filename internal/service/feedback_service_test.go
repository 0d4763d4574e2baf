package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
)

func TestFeedbackNormalizerTestResults(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	testCases := []models.TestCase{
		{ID: 1, Name: "testAdd", Weight: 2, BonusMultiplier: 1, Active: true},
		{ID: 2, Name: "testSub", Weight: 1, BonusMultiplier: 1, Active: true},
	}
	notification := dto.BuildResultNotification{
		BuildTimestamp: time.Now(),
		TestResults: []dto.TestResult{
			{Name: "testAdd", Passed: true},
			{Name: "testSub", Passed: false, Message: "expected 1, got 2"},
		},
	}

	feedbacks := normalizer.Normalize(models.Exercise{}, testCases, notification)
	require.Len(t, feedbacks, 2)

	require.Equal(t, "testAdd", feedbacks[0].Text)
	require.True(t, feedbacks[0].Positive)
	require.Equal(t, 2.0, feedbacks[0].Credits)
	require.Equal(t, uint(1), *feedbacks[0].TestCaseID)

	require.False(t, feedbacks[1].Positive)
	require.Equal(t, "expected 1, got 2", feedbacks[1].DetailText)
	require.Zero(t, feedbacks[1].Credits)
}

func TestFeedbackNormalizerFreshCasesStayUnreferenced(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	testCases := []models.TestCase{
		{ID: 0, Name: "testNew", Weight: 1, BonusMultiplier: 1, Active: true},
	}
	notification := dto.BuildResultNotification{
		TestResults: []dto.TestResult{{Name: "testNew", Passed: true}},
	}

	feedbacks := normalizer.Normalize(models.Exercise{}, testCases, notification)
	require.Len(t, feedbacks, 1)
	require.Nil(t, feedbacks[0].TestCaseID)
	require.Equal(t, 1.0, feedbacks[0].Credits)
}

func TestFeedbackNormalizerDeduplicatesAnalysisIssues(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	exercise := models.Exercise{
		StaticCodeAnalysisEnabled: true,
		Categories: []models.StaticCodeAnalysisCategory{
			{Name: "style", State: models.CategoryStateActive, Penalty: 2},
		},
	}
	issue := dto.StaticAnalysisIssue{
		Tool:      "spotbugs",
		Rule:      "URF_UNREAD_FIELD",
		FilePath:  "src/Main.java",
		StartLine: 10,
		EndLine:   10,
		Message:   "unread field",
		Category:  "style",
	}
	notification := dto.BuildResultNotification{
		StaticAnalysisIssues: []dto.StaticAnalysisIssue{issue, issue},
	}

	feedbacks := normalizer.Normalize(exercise, nil, notification)
	require.Len(t, feedbacks, 1)
	require.True(t, feedbacks[0].IsStaticAnalysis())
	require.Equal(t, -2.0, feedbacks[0].Credits)
	require.Equal(t, "spotbugs", feedbacks[0].Detail["tool"])
}

func TestFeedbackNormalizerSkipsInactiveCategories(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	exercise := models.Exercise{
		StaticCodeAnalysisEnabled: true,
		Categories: []models.StaticCodeAnalysisCategory{
			{Name: "style", State: models.CategoryStateInactive, Penalty: 2},
		},
	}
	notification := dto.BuildResultNotification{
		StaticAnalysisIssues: []dto.StaticAnalysisIssue{{
			Tool:     "checkstyle",
			Rule:     "LineLength",
			FilePath: "src/Main.java",
			Category: "style",
		}},
	}

	feedbacks := normalizer.Normalize(exercise, nil, notification)
	require.Empty(t, feedbacks)
}

func TestFeedbackNormalizerSkipsMalformedIssues(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	exercise := models.Exercise{StaticCodeAnalysisEnabled: true}
	notification := dto.BuildResultNotification{
		StaticAnalysisIssues: []dto.StaticAnalysisIssue{
			{Tool: "", Rule: "r", FilePath: "f"},
			{Tool: "t", Rule: "r", FilePath: "f", StartLine: 9, EndLine: 3},
			{Tool: "pmd", Rule: "UnusedImports", FilePath: "src/Main.java", StartLine: 1, EndLine: 1},
		},
	}

	feedbacks := normalizer.Normalize(exercise, nil, notification)
	require.Len(t, feedbacks, 1)
	require.Equal(t, "pmd", feedbacks[0].Detail["tool"])
}

func TestFeedbackNormalizerAnalysisDisabled(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	notification := dto.BuildResultNotification{
		StaticAnalysisIssues: []dto.StaticAnalysisIssue{{
			Tool: "pmd", Rule: "UnusedImports", FilePath: "src/Main.java",
		}},
	}

	feedbacks := normalizer.Normalize(models.Exercise{StaticCodeAnalysisEnabled: false}, nil, notification)
	require.Empty(t, feedbacks)
}

func TestFeedbackNormalizerSanitizesIssueMessages(t *testing.T) {
	normalizer := NewFeedbackNormalizer(testLogger())
	exercise := models.Exercise{StaticCodeAnalysisEnabled: true}
	notification := dto.BuildResultNotification{
		StaticAnalysisIssues: []dto.StaticAnalysisIssue{{
			Tool:     "pmd",
			Rule:     "UnusedImports",
			FilePath: "src/Main.java",
			Message:  "<script>alert('x')</script>remove the import",
		}},
	}

	feedbacks := normalizer.Normalize(exercise, nil, notification)
	require.Len(t, feedbacks, 1)
	require.Equal(t, "remove the import", feedbacks[0].DetailText)
	require.NotContains(t, feedbacks[0].DetailText, "<script>")
}
