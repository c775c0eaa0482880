package ticket

import (
	"time"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

// Status represents ticket status
type Status string

const (
	StatusValid   Status = "valid"
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
	StatusVoid    Status = "void"
)

// SessionLunch is the only meal session served.
const SessionLunch = "lunch"

// Ticket is a single-use meal token for one student on one day.
type Ticket struct {
	ID           int        `db:"id" json:"id"`
	TicketID     string     `db:"ticket_id" json:"ticketId"`
	StudentID    int        `db:"student_id" json:"studentId"`
	Date         clock.Date `db:"date" json:"date"`
	Session      string     `db:"session" json:"session"`
	SecurityHash string     `db:"security_hash" json:"securityHash"`
	Status       Status     `db:"status" json:"status"`
	GeneratedAt  time.Time  `db:"generated_at" json:"generatedAt"`
	UsedAt       *time.Time `db:"used_at" json:"usedAt"`
}

// Draft is a ticket about to be issued.
type Draft struct {
	TicketID     string
	StudentID    int
	Date         clock.Date
	SecurityHash string
}

// Redeemed is the student row as left by a successful redeem.
type Redeemed struct {
	StudentID      int     `db:"student_id"`
	FirstName      string  `db:"first_name"`
	LastName       string  `db:"last_name"`
	Class          string  `db:"class"`
	MealsRemaining int     `db:"meals_remaining"`
	PhotoURL       *string `db:"photo_url"`
}

// ScanRequest is one scanner submission.
type ScanRequest struct {
	TicketID string
	Offline  bool
	ActorID  string
}

// ScannedStudent is what the scanner shows after a valid scan.
type ScannedStudent struct {
	Name           string  `json:"name"`
	Class          string  `json:"class"`
	MealsRemaining int     `json:"mealsRemaining"`
	PhotoURL       *string `json:"photoUrl,omitempty"`
}

// ScanResult is returned for every scan, valid or not.
type ScanResult struct {
	Valid   bool            `json:"valid"`
	Message string          `json:"message"`
	Student *ScannedStudent `json:"student,omitempty"`
}

// OverrideRequest serves a meal without a ticket.
type OverrideRequest struct {
	StudentID int
	Reason    string
	ActorID   string
}
