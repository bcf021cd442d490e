package httpx

import (
	"net/http"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// RespondError maps domain errors onto the envelope and an HTTP status.
func RespondError(w http.ResponseWriter, err error) {
	code := shared.CodeOf(err)
	switch code {
	case shared.CodeNotFound:
		Fail(w, http.StatusNotFound, code, err.Error())
	case shared.CodeInvalidTransition:
		Fail(w, http.StatusConflict, code, err.Error())
	case shared.CodeUnauthorized:
		Fail(w, http.StatusForbidden, code, err.Error())
	case shared.CodeValidationFailed:
		Fail(w, http.StatusUnprocessableEntity, code, err.Error())
	case shared.CodeAllocationExhausted:
		Fail(w, http.StatusServiceUnavailable, code, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, shared.CodeInternal, "internal error")
	}
}
