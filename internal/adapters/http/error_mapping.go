package httpadapter

import (
	"net/http"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

// errorBody is the uniform error envelope. Message carries a stable machine
// code, not prose; clients key localized copy off it.
type errorBody struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION__NOT_FOUND"
	case domain.IsKind(err, domain.ErrPageNotFound):
		return http.StatusNotFound, "PAGE__NOT_FOUND"
	case domain.IsKind(err, domain.ErrRegionNotFound):
		return http.StatusNotFound, "REGION__NOT_FOUND"
	case domain.IsKind(err, domain.ErrUnprocessableImage):
		return http.StatusUnprocessableEntity, "PROCESS__UNABLE_TO_PROCESS_IMAGE"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "TEMPORARY_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, message := mapError(err)
	writeJSON(w, status, errorBody{ErrorCode: status, Message: message})
}
