package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserInactive      = errors.New("user is not active")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Catalog errors
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrBookInactive     = errors.New("book is not active")
	ErrCategoryNotFound = errors.New("category not found")
)

// Circulation errors
var (
	ErrNoCopiesAvailable  = errors.New("no copies available")
	ErrDuplicateActiveLoan = errors.New("user already has an active loan for this book")
	ErrLoanNotFound       = errors.New("loan record not found")
	ErrAlreadyReturned    = errors.New("loan already returned")
	ErrRenewLimitExceeded = errors.New("renewal limit exceeded")
	ErrRenewalBlocked     = errors.New("renewal blocked for overdue loan")

	// ErrInvariantViolation means a copy counter would go negative.
	// It indicates a bug in caller sequencing, not a user error.
	ErrInvariantViolation = errors.New("inventory invariant violation")
)
