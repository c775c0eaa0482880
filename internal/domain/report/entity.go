package report

import (
	"time"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

// Eligibility status labels.
const (
	StatusValid     = "valid"
	StatusExhausted = "exhausted"
	StatusExpired   = "expired"
)

// NoPlan is shown for students without an active subscription.
const NoPlan = "None"

// DashboardStats is computed fresh on every request.
type DashboardStats struct {
	MealsServedToday    int               `json:"mealsServedToday"`
	EligibleStudents    int               `json:"eligibleStudents"`
	ActiveSubscriptions int               `json:"activeSubscriptions"`
	RecentLogs          []*activity.Entry `json:"recentLogs"`
}

// EligibilityRow is one student's line in the daily report.
type EligibilityRow struct {
	StudentID      string     `json:"studentId"`
	Name           string     `json:"name"`
	Grade          string     `json:"grade"`
	Class          string     `json:"class"`
	PlanType       string     `json:"planType"`
	MealsRemaining int        `json:"mealsRemaining"`
	Status         string     `json:"status"`
	UsedToday      bool       `json:"usedToday"`
	UsedAt         *time.Time `json:"usedAt,omitempty"`
}

// EligibilityRecord is the joined storage row behind an EligibilityRow.
type EligibilityRecord struct {
	StudentID      string     `db:"student_id"`
	FirstName      string     `db:"first_name"`
	LastName       string     `db:"last_name"`
	Grade          string     `db:"grade"`
	Class          string     `db:"class"`
	IsActive       bool       `db:"is_active"`
	MealsRemaining int        `db:"meals_remaining"`
	PlanType       string     `db:"plan_type"`
	TicketStatus   *string    `db:"ticket_status"`
	UsedAt         *time.Time `db:"used_at"`
}

// Snapshot records that a day's eligibility list was published.
type Snapshot struct {
	ID          int        `db:"id" json:"id"`
	Date        clock.Date `db:"date" json:"date"`
	Status      string     `db:"status" json:"status"`
	GeneratedBy *string    `db:"generated_by" json:"generatedBy"`
	ArchiveURL  *string    `db:"archive_url" json:"archiveUrl"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// SnapshotRequest for POST /eligibility-reports
type SnapshotRequest struct {
	Date string `json:"date" validate:"required,ymd"`
}
