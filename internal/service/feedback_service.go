package service

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/observability"
)

// FeedbackNormalizer merges the feedback sources of a fresh result into one
// set: automatic pass/fail entries per test case and static analysis findings.
// Manual feedback only ever moves between results when a complaint is
// accepted; the complaint service clones it onto the superseding result.
type FeedbackNormalizer struct {
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFeedbackNormalizer constructs a feedback normalizer.
func NewFeedbackNormalizer(logger zerolog.Logger) *FeedbackNormalizer {
	return &FeedbackNormalizer{
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "feedback_normalizer").Logger(),
	}
}

// Normalize builds the feedback set for a new result. A malformed analysis
// issue is skipped and logged; it never aborts the remaining feedback.
func (n *FeedbackNormalizer) Normalize(exercise models.Exercise, testCases []models.TestCase, notification dto.BuildResultNotification) []models.Feedback {
	feedbacks := n.testFeedback(testCases, notification.TestResults)

	if exercise.StaticCodeAnalysisEnabled {
		feedbacks = append(feedbacks, n.analysisFeedback(exercise, notification.StaticAnalysisIssues)...)
	}

	return feedbacks
}

func (n *FeedbackNormalizer) testFeedback(testCases []models.TestCase, results []dto.TestResult) []models.Feedback {
	caseByName := make(map[string]models.TestCase, len(testCases))
	for _, testCase := range testCases {
		caseByName[testCase.Name] = testCase
	}

	// Duplicate names resolve last-write-wins before feedback is created.
	latest := make(map[string]dto.TestResult, len(results))
	order := make([]string, 0, len(results))
	for _, result := range results {
		if _, ok := latest[result.Name]; !ok {
			order = append(order, result.Name)
		}
		latest[result.Name] = result
	}

	feedbacks := make([]models.Feedback, 0, len(order))
	for _, name := range order {
		result := latest[name]
		feedback := models.Feedback{
			Text:     result.Name,
			Positive: result.Passed,
			Type:     models.FeedbackTypeAutomatic,
		}
		if !result.Passed {
			feedback.DetailText = result.Message
		}
		if testCase, ok := caseByName[result.Name]; ok {
			// Freshly activated cases have no id yet; their feedback stays
			// unreferenced until the next run.
			if testCase.ID != 0 {
				id := testCase.ID
				feedback.TestCaseID = &id
			}
			if result.Passed {
				feedback.Credits = testCase.WeightedScore() + testCase.BonusPoints
			}
		}
		feedbacks = append(feedbacks, feedback)
	}
	return feedbacks
}

func (n *FeedbackNormalizer) analysisFeedback(exercise models.Exercise, issues []dto.StaticAnalysisIssue) []models.Feedback {
	categoryByName := make(map[string]models.StaticCodeAnalysisCategory, len(exercise.Categories))
	for _, category := range exercise.Categories {
		categoryByName[category.Name] = category
	}

	seen := make(map[string]struct{}, len(issues))
	feedbacks := make([]models.Feedback, 0, len(issues))

	for _, issue := range issues {
		if err := validateIssue(issue); err != nil {
			observability.DroppedFeedback().Inc()
			n.logger.Warn().Err(err).
				Str("tool", issue.Tool).
				Str("file_path", issue.FilePath).
				Msg("skipping malformed static analysis issue")
			continue
		}

		// Value identity: repeated CI runs must not duplicate the same finding.
		identity := fmt.Sprintf("%s|%s|%s|%d|%d", issue.Tool, issue.Rule, issue.FilePath, issue.StartLine, issue.EndLine)
		if _, ok := seen[identity]; ok {
			continue
		}
		seen[identity] = struct{}{}

		credits := 0.0
		if category, ok := categoryByName[issue.Category]; ok {
			if !category.IsActive() {
				continue
			}
			credits = -category.Penalty
		}

		label := issue.Category
		if label == "" {
			label = issue.Tool
		}

		feedbacks = append(feedbacks, models.Feedback{
			Text:       models.StaticAnalysisFeedbackIdentifier + label,
			DetailText: strings.TrimSpace(n.sanitizer.Sanitize(issue.Message)),
			Credits:    credits,
			Positive:   false,
			Type:       models.FeedbackTypeAutomatic,
			Detail: datatypes.JSONMap{
				"tool":       issue.Tool,
				"rule":       issue.Rule,
				"file_path":  issue.FilePath,
				"start_line": issue.StartLine,
				"end_line":   issue.EndLine,
				"category":   issue.Category,
			},
		})
	}

	return feedbacks
}

func validateIssue(issue dto.StaticAnalysisIssue) error {
	if strings.TrimSpace(issue.Tool) == "" {
		return fmt.Errorf("issue has no tool")
	}
	if strings.TrimSpace(issue.Rule) == "" {
		return fmt.Errorf("issue has no rule")
	}
	if strings.TrimSpace(issue.FilePath) == "" {
		return fmt.Errorf("issue has no file path")
	}
	if issue.StartLine < 0 || issue.EndLine < 0 {
		return fmt.Errorf("issue has negative line numbers")
	}
	if issue.EndLine != 0 && issue.EndLine < issue.StartLine {
		return fmt.Errorf("issue line range is inverted")
	}
	return nil
}
