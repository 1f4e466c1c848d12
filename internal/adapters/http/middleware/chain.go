package middleware

import "net/http"

// Middleware is the shape every entry in the request pipeline has.
type Middleware = func(http.Handler) http.Handler

// Chain folds a list of middleware into one. Entries apply outermost first,
// so Chain(a, b, c) wraps a handler as a(b(c(handler))): a sees the request
// first and the response last.
func Chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := next
		for i := len(mws) - 1; i >= 0; i-- {
			wrapped = mws[i](wrapped)
		}
		return wrapped
	}
}
