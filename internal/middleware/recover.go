package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/http/respond"
)

// Recover converts a panic in next into a 500 response. With debug set the
// goroutine stack is returned in the body.
func Recover(debugMode bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := apperr.Internal(fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
			respond.Error(w, r, err, debugMode)
		}()
		next.ServeHTTP(w, r)
	})
}
