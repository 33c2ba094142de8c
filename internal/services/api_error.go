package services

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"tabi/pkg/utils"
)

// APIError is a failed call to an external API. The upstream message is kept
// verbatim so agents and clients see what the provider said.
type APIError struct {
	Service  string
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Service, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s %s (%d): %s", e.Service, e.Endpoint, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return utils.ErrUpstreamNotFound
	case e.Status == http.StatusTooManyRequests:
		return utils.ErrUpstreamRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return utils.ErrUpstreamUnauthorized
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return utils.ErrUpstreamBadRequest
	}
	return utils.ErrUpstream
}

func notFound(service, endpoint, msg string) error {
	return &APIError{Service: service, Endpoint: endpoint, Status: http.StatusNotFound, Message: msg}
}

// fromGoogleAPI converts errors returned by generated google.golang.org/api clients.
func fromGoogleAPI(service, endpoint string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = http.StatusText(gErr.Code)
		}
		return &APIError{Service: service, Endpoint: endpoint, Status: gErr.Code, Message: msg}
	}
	return &APIError{Service: service, Endpoint: endpoint, Message: err.Error()}
}
