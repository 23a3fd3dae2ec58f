package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates no valid principal on the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the principal lacks a permission, role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrNoAccess indicates the principal holds no recognized role for a listing.
	ErrNoAccess = errors.New("no access")
	// ErrValidation indicates a request violates a precondition.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
)
