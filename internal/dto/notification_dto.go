package dto

import "time"

// BuildResultNotification is the payload the CI connector posts after a build
// finished. The raw body is additionally checked against a JSON schema before
// it is bound into this struct.
type BuildResultNotification struct {
	ParticipationID      uint                  `json:"participation_id" validate:"required,gt=0"`
	CommitHash           string                `json:"commit_hash" validate:"required,min=7,max=40,hexadecimal"`
	BuildTimestamp       time.Time             `json:"build_timestamp" validate:"required"`
	TestResults          []TestResult          `json:"test_results" validate:"dive"`
	StaticAnalysisIssues []StaticAnalysisIssue `json:"static_analysis_issues" validate:"omitempty,dive"`
	BuildLogs            []BuildLogEntry       `json:"build_logs"`
}

// TestResult is the outcome of one named test in the CI build.
type TestResult struct {
	Name    string `json:"name" validate:"required,max=255"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// StaticAnalysisIssue is one finding reported by a static analysis tool.
type StaticAnalysisIssue struct {
	Tool      string `json:"tool" validate:"required,max=64"`
	Rule      string `json:"rule" validate:"required,max=128"`
	FilePath  string `json:"file_path" validate:"required,max=512"`
	StartLine int    `json:"start_line" validate:"gte=0"`
	EndLine   int    `json:"end_line" validate:"gte=0"`
	Message   string `json:"message"`
	Category  string `json:"category" validate:"max=128"`
}

// BuildLogEntry is one line of CI build output with its timestamp.
type BuildLogEntry struct {
	Time time.Time `json:"time"`
	Log  string    `json:"log"`
}
