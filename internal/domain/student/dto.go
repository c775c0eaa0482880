package student

import "strings"

// CreateRequest for POST /students
type CreateRequest struct {
	StudentID      string  `json:"studentId" validate:"notblank,max=64"`
	FirstName      string  `json:"firstName" validate:"notblank,max=100"`
	LastName       string  `json:"lastName" validate:"notblank,max=100"`
	Grade          string  `json:"grade" validate:"notblank,max=20"`
	Class          string  `json:"class" validate:"notblank,max=20"`
	IsActive       *bool   `json:"isActive"`
	MealsRemaining *int    `json:"mealsRemaining"`
	ParentEmail    *string `json:"parentEmail" validate:"omitempty,email"`
}

// Draft converts the request, applying column defaults.
func (r *CreateRequest) Draft() Draft {
	d := Draft{
		StudentID: strings.TrimSpace(r.StudentID),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Grade:     strings.TrimSpace(r.Grade),
		Class:     strings.TrimSpace(r.Class),
		IsActive:  true,
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	if r.MealsRemaining != nil {
		d.MealsRemaining = *r.MealsRemaining
	}
	if r.ParentEmail != nil && *r.ParentEmail != "" {
		d.ParentEmail = r.ParentEmail
	}
	return d
}

// UpdateRequest for PUT /students/{id}. Absent fields are unchanged.
type UpdateRequest struct {
	StudentID      *string `json:"studentId" validate:"omitempty,notblank,max=64"`
	FirstName      *string `json:"firstName" validate:"omitempty,notblank,max=100"`
	LastName       *string `json:"lastName" validate:"omitempty,notblank,max=100"`
	Grade          *string `json:"grade" validate:"omitempty,notblank,max=20"`
	Class          *string `json:"class" validate:"omitempty,notblank,max=20"`
	IsActive       *bool   `json:"isActive"`
	MealsRemaining *int    `json:"mealsRemaining"`
	ParentEmail    *string `json:"parentEmail" validate:"omitempty,email_or_empty"`
}

func (r *UpdateRequest) Patch() Patch {
	return Patch{
		StudentID:      r.StudentID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Grade:          r.Grade,
		Class:          r.Class,
		IsActive:       r.IsActive,
		MealsRemaining: r.MealsRemaining,
		ParentEmail:    r.ParentEmail,
	}
}
