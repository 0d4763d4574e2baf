package models

import "time"

// Course groups exercises and staff for one teaching period.
type Course struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Title     string        `gorm:"size:255;not null" json:"title"`
	Slug      string        `gorm:"size:128;uniqueIndex" json:"slug"`
	StartDate time.Time     `gorm:"not null" json:"start_date"`
	EndDate   *time.Time    `json:"end_date"`
	Staff     []CourseStaff `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"staff"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

const (
	// RoleTutor marks a course member who assesses student work.
	RoleTutor = "tutor"
	// RoleInstructor marks a course member with full grading privileges.
	RoleInstructor = "instructor"
)

// CourseStaff links a user to a course with a grading role.
// Tutors and instructors appear on the leaderboard even with zero activity.
type CourseStaff struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CourseID uint   `gorm:"not null;uniqueIndex:idx_course_staff_member" json:"course_id"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_course_staff_member" json:"user_id"`
	Name     string `gorm:"size:255" json:"name"`
	Role     string `gorm:"size:32;not null" json:"role"`
}

// HasEnded reports whether the course end date has passed relative to now.
func (c Course) HasEnded(now time.Time) bool {
	return c.EndDate != nil && c.EndDate.Before(now)
}
