package errors

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid batch operation argument")
	ErrInvalidTransition  = errors.New("operation state does not permit this control action")
	ErrOperationNotFound  = errors.New("operation not found")
	ErrDuplicateOperation = errors.New("operation already archived")
	ErrUnknownActionKind  = errors.New("unknown batch action kind")

	ErrDependencyUnavailable = errors.New("required dependency is not configured")
)
