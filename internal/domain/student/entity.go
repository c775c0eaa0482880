package student

import (
	"strings"
	"time"
)

// Student is a roster entry. MealsRemaining is the spendable meal balance
// and may go negative when service is granted on credit.
type Student struct {
	ID             int       `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"studentId"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	Grade          string    `db:"grade" json:"grade"`
	Class          string    `db:"class" json:"class"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	MealsRemaining int       `db:"meals_remaining" json:"mealsRemaining"`
	ParentEmail    *string   `db:"parent_email" json:"parentEmail"`
	PhotoURL       *string   `db:"photo_url" json:"photoUrl"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName returns "First Last".
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Eligible reports whether a ticket may be issued today.
func (s *Student) Eligible() bool {
	return s.IsActive && s.MealsRemaining > 0
}

// Draft is everything needed to insert a student.
type Draft struct {
	StudentID      string
	FirstName      string
	LastName       string
	Grade          string
	Class          string
	IsActive       bool
	MealsRemaining int
	ParentEmail    *string
}

// Patch holds optional field updates. Nil fields are left unchanged.
type Patch struct {
	StudentID      *string
	FirstName      *string
	LastName       *string
	Grade          *string
	Class          *string
	IsActive       *bool
	MealsRemaining *int
	ParentEmail    *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.StudentID == nil && p.FirstName == nil && p.LastName == nil &&
		p.Grade == nil && p.Class == nil && p.IsActive == nil &&
		p.MealsRemaining == nil && p.ParentEmail == nil
}
