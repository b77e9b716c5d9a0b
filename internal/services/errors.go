package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateEmail   = errors.New("duplicate email")
	ErrCSVFormat        = errors.New("invalid upload file")
)

// domainError carries a caller-facing message while still matching its
// sentinel under errors.Is.
type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func notFound(id int64) error {
	return &domainError{kind: ErrEmployeeNotFound, msg: fmt.Sprintf("Employee not found with ID: %d", id)}
}

func duplicateEmail(email string) error {
	return &domainError{kind: ErrDuplicateEmail, msg: fmt.Sprintf("Employee with email %s already exists", email)}
}

func badUpload(cause error) error {
	return &domainError{kind: ErrCSVFormat, msg: cause.Error()}
}
