package middleware

import (
	"log/slog"
	"net/http"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes mws into one Middleware. The first one is outermost:
// Chain(a, b)(h) serves as a(b(h)). Nil entries are skipped.
func Chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				next = mws[i](next)
			}
		}
		return next
	}
}

// Standard is the stack every request passes through. Recovery wraps the
// rest so a panic anywhere still gets a response; Logger sits inside Auth
// so access lines carry the caller's user ID.
func Standard(logger *slog.Logger, validator tokenValidator) Middleware {
	return Chain(
		Recovery(logger),
		RequestID(),
		Auth(validator),
		Logger(logger),
	)
}
