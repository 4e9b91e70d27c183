package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// LogAndStatus logs err on the request's logger and ends the response with code and an
// empty body. Errors caused by the client going away are not logged.
func LogAndStatus(w http.ResponseWriter, r *http.Request, err error, msg string, code int) {
	if shouldLog(err) {
		zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", code).Msg(msg)
	}
	w.WriteHeader(code)
}

func shouldLog(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
