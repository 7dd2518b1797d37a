package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/expense-api/internal/apperr"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.InvalidInput("bad"), http.StatusBadRequest, "bad"},
		{apperr.Unauthenticated("who"), http.StatusUnauthorized, "who"},
		{apperr.Forbidden("no"), http.StatusForbidden, "no"},
		{apperr.NotFound("gone"), http.StatusNotFound, "gone"},
		{apperr.Internal(errors.New("db down")), http.StatusInternalServerError, apperr.InternalMessage},
		{errors.New("raw failure"), http.StatusInternalServerError, apperr.InternalMessage},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, false)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorDebugIncludesChain(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperr.Internal(errors.New("db down")), true)

	body := decodeError(t, rec)
	assert.Equal(t, apperr.InternalMessage, body["message"])
	assert.Contains(t, body["stack"], "db down")
}

func TestJSONAndNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
