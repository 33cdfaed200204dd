package handler

import (
	"errors"
	"net/http"

	"netcanvas/internal/codec"
	"netcanvas/internal/domain"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch {
	case errors.Is(err, domain.ErrUnknownNode),
		errors.Is(err, domain.ErrUnknownEdge),
		errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidHandle),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrUnknownConnectionType),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrMalformedDocument):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrSyncFailure):
		return http.StatusBadGateway

	case errors.Is(err, domain.ErrStorageIO):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
