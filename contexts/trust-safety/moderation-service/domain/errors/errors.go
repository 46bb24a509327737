package errors

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid moderation request")
	ErrReportNotFound   = errors.New("report not found")
	ErrTemplateNotFound = errors.New("resolution template not found")
)
