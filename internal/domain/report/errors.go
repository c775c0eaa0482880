package report

import "errors"

var (
	ErrSnapshotExists = errors.New("report already exists for this date")
	ErrUnknownFormat  = errors.New("unknown export format")
)
