package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusOK, data, message)
}

// RespondAccepted is used for work that continues in the background.
func RespondAccepted(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusAccepted, data, message)
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

func respond(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidPage):
		RespondError(c, http.StatusBadRequest, "Page must be greater than 0")
	case errors.Is(err, ErrInvalidPageSize):
		RespondError(c, http.StatusBadRequest, "Page size must be between 1 and 100")
	case errors.Is(err, ErrAccountNotFound):
		RespondError(c, http.StatusNotFound, "User not found.")
	case errors.Is(err, ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, ErrEmailAlreadyExists):
		RespondError(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, ErrUsernameTaken):
		RespondError(c, http.StatusConflict, "Username already taken")
	case errors.Is(err, ErrPlanNotFound):
		RespondError(c, http.StatusNotFound, "Plan not found")
	case errors.Is(err, ErrDocumentNotFound):
		RespondError(c, http.StatusNotFound, "Document not found")
	case errors.Is(err, ErrUnsupportedDocument):
		RespondError(c, http.StatusUnsupportedMediaType, "Only PDF and plain text documents are supported")
	case errors.Is(err, ErrDocumentTooLarge):
		RespondError(c, http.StatusRequestEntityTooLarge, "Document is too large")
	case errors.Is(err, ErrToolNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUpstreamNotFound), errors.Is(err, ErrUpstreamBadRequest):
		RespondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUpstreamRateLimited):
		RespondError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrUpstreamUnauthorized):
		log.Error().Err(err).Str("trace_id", c.GetString("trace_id")).Msg("upstream error")
		RespondError(c, http.StatusBadGateway, "Upstream service unavailable")
	case errors.Is(err, ErrDatabaseError):
		log.Error().Err(err).Str("trace_id", c.GetString("trace_id")).Msg("database error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Error().Err(err).Str("trace_id", c.GetString("trace_id")).Msg("unhandled service error")
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
