package bridge

import (
	"io"
	"log"
	"os"

	"github.com/google/uuid"
)

// logger is the package-level diagnostic logger, off by default: a single
// *log.Logger toggled by the caller rather than a structured logging
// framework, since this package has no request-scoped context to carry
// fields on.
var logger = log.New(io.Discard, "tacobridge: ", log.LstdFlags)

// SetupLogging directs diagnostic output (chosen format, plan sizes, and
// which zip2folder path is taken) to stderr, each line prefixed
// "tacobridge: " and stamped with the date and time.
func SetupLogging() {
	logger.SetOutput(os.Stderr)
}

// DisableLogging silences diagnostic output. This is the default.
func DisableLogging() {
	logger.SetOutput(io.Discard)
}

// newOperationID tags one Export/Zip2Folder/Folder2Zip call across its
// plan/execute/finalize log lines, the same correlation-id pattern an HTTP
// logging middleware stamps onto each request.
func newOperationID() string {
	return uuid.New().String()
}
