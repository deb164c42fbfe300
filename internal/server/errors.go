package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/devjibs/cvagent/internal/blob"
	"github.com/devjibs/cvagent/internal/pipeline"
	"github.com/devjibs/cvagent/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		notFound   *session.NotFoundError
		noBlob     *blob.NotFoundError
		infra      *pipeline.InfrastructureError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &noBlob):
		return http.StatusNotFound
	case errors.As(err, &infra):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
