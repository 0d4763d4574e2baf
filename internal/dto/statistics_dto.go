package dto

import "time"

// TutorLeaderboardEntry aggregates one tutor's grading workload in a course.
// Entries carry no intrinsic order; callers sort as needed.
type TutorLeaderboardEntry struct {
	TutorID                        uint   `json:"tutor_id"`
	TutorName                      string `json:"tutor_name"`
	Assessments                    int64  `json:"assessments"`
	Complaints                     int64  `json:"complaints"`
	AcceptedComplaints             int64  `json:"accepted_complaints"`
	ComplaintResponses             int64  `json:"complaint_responses"`
	AnsweredMoreFeedbackRequests   int64  `json:"answered_more_feedback_requests"`
	UnansweredMoreFeedbackRequests int64  `json:"unanswered_more_feedback_requests"`
}

// ExerciseStatisticsEntry summarizes grading progress for one exercise.
type ExerciseStatisticsEntry struct {
	ExerciseID                   uint    `json:"exercise_id"`
	Title                        string  `json:"title"`
	Participations               int64   `json:"participations"`
	ParticipationsWithSubmission int64   `json:"participations_with_submission"`
	AssessedResults              int64   `json:"assessed_results"`
	ParticipationRate            float64 `json:"participation_rate"`
	AssessmentCompletionRate     float64 `json:"assessment_completion_rate"`
}

// CourseStatisticsResponse bundles the derived course statistics. All figures
// are a point-in-time snapshot and may differ between calls while grading is
// in progress.
type CourseStatisticsResponse struct {
	CourseID       uint                      `json:"course_id"`
	ActiveStudents []int64                   `json:"active_students"`
	Exercises      []ExerciseStatisticsEntry `json:"exercises"`
	GeneratedAt    time.Time                 `json:"generated_at"`
	CacheHit       bool                      `json:"cache_hit,omitempty"`
}
