package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with the stack trace. Call
// it in a defer; the panic is not re-raised. Used by background jobs so one
// failing run cannot take the process down.
func RecoverPanic(logger *Logger, job string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("job", job).
			Error("panic recovered")
	}
}
