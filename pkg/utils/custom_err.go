package utils

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidPage         = errors.New("invalid page parameter")
	ErrInvalidPageSize     = errors.New("invalid page size parameter")
	ErrDatabaseError       = errors.New("database error")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrDocumentTooLarge    = errors.New("document too large")
	ErrToolNotFound        = errors.New("tool not found")

	// Upstream API failures. Wrapped by services.APIError.
	ErrUpstreamNotFound     = errors.New("upstream: not found")
	ErrUpstreamRateLimited  = errors.New("upstream: rate limited")
	ErrUpstreamUnauthorized = errors.New("upstream: unauthorized")
	ErrUpstreamBadRequest   = errors.New("upstream: bad request")
	ErrUpstream             = errors.New("upstream: unavailable")
)
