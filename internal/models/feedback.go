package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// FeedbackTypeAutomatic marks feedback generated from test or analysis results.
	FeedbackTypeAutomatic = "AUTOMATIC"
	// FeedbackTypeManual marks feedback a tutor attached to a specific location.
	FeedbackTypeManual = "MANUAL"
	// FeedbackTypeManualUnreferenced marks free-standing tutor feedback.
	FeedbackTypeManualUnreferenced = "MANUAL_UNREFERENCED"
)

// StaticAnalysisFeedbackIdentifier prefixes the text of every feedback entry
// produced from a static code analysis issue.
const StaticAnalysisFeedbackIdentifier = "sca:"

// Feedback is one line item of grading detail attached to a result.
// Static analysis entries are always AUTOMATIC, carry the identifier prefix in
// their text, and store the structured issue payload in Detail.
type Feedback struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ResultID   uint              `gorm:"not null;index" json:"result_id"`
	Text       string            `gorm:"size:512" json:"text"`
	DetailText string            `gorm:"type:text" json:"detail_text"`
	Credits    float64           `gorm:"not null;default:0" json:"credits"`
	Positive   bool              `gorm:"not null;default:false" json:"positive"`
	Type       string            `gorm:"size:32;not null" json:"type"`
	TestCaseID *uint             `json:"test_case_id"`
	Detail     datatypes.JSONMap `json:"detail"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IsStaticAnalysis reports whether this entry was produced from an analysis issue.
func (f Feedback) IsStaticAnalysis() bool {
	return f.Type == FeedbackTypeAutomatic && len(f.Text) >= len(StaticAnalysisFeedbackIdentifier) &&
		f.Text[:len(StaticAnalysisFeedbackIdentifier)] == StaticAnalysisFeedbackIdentifier
}

// IsManual reports whether a tutor authored this entry.
func (f Feedback) IsManual() bool {
	return f.Type == FeedbackTypeManual || f.Type == FeedbackTypeManualUnreferenced
}
