// Package respond renders JSON responses and the shared error body.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hongminglow/expense-api/internal/apperr"
)

// ErrorBody is written for every failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// JSON writes payload as the response body.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("respond: encode payload failed")
	}
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err onto its status and message. Errors that are not *apperr.Error
// render as 500. debug adds the error chain as "stack".
func Error(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		zerolog.Ctx(r.Context()).Error().Err(appErr.Err).Msg("internal error")
	}

	body := ErrorBody{Success: false, Message: appErr.Message}
	if debug {
		body.Stack = appErr.Error()
	}
	JSON(w, r, appErr.Status, body)
}
