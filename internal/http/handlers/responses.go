package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/http/respond"
)

const maxBodyBytes = 1 << 20

// apiFunc is a handler that reports failures instead of writing them.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// handle renders any error returned by fn through respond.Error.
func handle(debug bool, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			respond.Error(w, r, err, debug)
		}
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidInput("invalid JSON payload")
	}
	return nil
}
