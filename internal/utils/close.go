package utils

import (
	"io"

	"github.com/rs/zerolog"
)

// Close closes c and hands a failure to each of errorHandlers.
func Close(c io.Closer, errorHandlers ...func(error)) {
	if err := c.Close(); err != nil {
		for _, f := range errorHandlers {
			f(err)
		}
	}
}

// LogClose closes c and logs a failure at debug level.
func LogClose(logger *zerolog.Logger, c io.Closer, msg string) {
	Close(c, func(err error) {
		logger.Debug().Err(err).Msg(msg)
	})
}
