package leave

import "fmt"

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternal        = "INTERNAL"
)

func NewNotFoundError(msg string) error {
	return &DomainError{Code: ErrCodeNotFound, Message: msg}
}

func NewInvalidArgumentError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidArgument, Message: msg}
}

func NewConflictError(msg string) error {
	return &DomainError{Code: ErrCodeConflict, Message: msg}
}

func NewInternalError(msg string) error {
	return &DomainError{Code: ErrCodeInternal, Message: msg}
}
