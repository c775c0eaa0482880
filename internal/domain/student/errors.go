package student

import "errors"

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrDuplicateStudentID = errors.New("student id already exists")
	ErrNothingToUpdate    = errors.New("no fields to update")
	ErrPhotoUnavailable   = errors.New("photo storage not configured")
)
