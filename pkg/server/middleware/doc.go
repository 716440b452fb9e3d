// Package middleware provides the HTTP middleware chain of the callisto
// server: request IDs, access logging and panic recovery.
//
// Recovery should be outermost so that panics in the other middleware are
// caught:
//
//	var h http.Handler = mux
//	h = middleware.Logging(logger)(h)
//	h = middleware.RequestID(h)
//	h = middleware.Recovery(logger)(h)
package middleware
