package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/calpoly-csai/nimbus-transformer/internal/db"
	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/schemas"
	"github.com/calpoly-csai/nimbus-transformer/internal/search"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreDisabled is returned by endpoints that need the database when none is configured.
var ErrStoreDisabled = errors.New("answer storage is not configured")

// upstreamMessage replaces the detail of search engine and page failures.
const upstreamMessage = "upstream search unavailable"

// isUpstream reports whether err came from the search engine or a fetched page.
func isUpstream(err error) bool {
	var searchErr *search.Error
	var linkErr *search.LinkExtractionError
	var fetchErr *fetch.Error
	return errors.As(err, &searchErr) || errors.As(err, &linkErr) || errors.As(err, &fetchErr)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var schemaErr *schemas.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrAnswerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreDisabled):
		return http.StatusServiceUnavailable
	case isUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
