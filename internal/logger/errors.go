package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when Log.AppName is missing from the config.
	ErrAppNameIsEmpty = errors.New("log config requires a non-empty AppName")

	// ErrServiceNameIsEmpty is returned when Log.ServiceName is missing from the config.
	ErrServiceNameIsEmpty = errors.New("log config requires a non-empty ServiceName")
)

// ErrorHandler reports log events zerolog itself could not write. Init installs
// it as the global zerolog error handler so dropped events surface on stderr.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "shelfwise: dropped log event: %v\n", err)
}
