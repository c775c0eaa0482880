package mealcredit

import "errors"

var (
	ErrMissingFields   = errors.New("studentId and planType are required")
	ErrCreationFailed  = errors.New("student could not be provisioned")
	ErrStudentNotFound = errors.New("student not found")
)
