// Package router is a thin layer over http.ServeMux that adds per-route
// and per-group middleware chains.
package router

import (
	"net/http"
	"slices"
)

// Router wraps http.ServeMux with middleware chaining
type Router struct {
	mux   *http.ServeMux
	chain []Middleware
}

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// New creates a new Router with optional global middleware
func New(middleware ...Middleware) *Router {
	return &Router{
		mux:   http.NewServeMux(),
		chain: middleware,
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Get registers a GET route. ServeMux also routes HEAD to it.
func (r *Router) Get(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodGet, pattern, handler, middleware...)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodPost, pattern, handler, middleware...)
}

// Handle registers a route with explicit method. An empty method matches
// any method.
func (r *Router) Handle(method, pattern string, handler http.Handler, middleware ...Middleware) {
	if method != "" {
		pattern = method + " " + pattern
	}
	r.mux.Handle(pattern, r.wrap(handler, middleware))
}

// NotFound installs the handler for requests no other pattern matches.
func (r *Router) NotFound(handler http.HandlerFunc) {
	r.mux.Handle("/", r.wrap(handler, nil))
}

// wrap applies the group chain, then route middleware, outermost first.
func (r *Router) wrap(handler http.Handler, middleware []Middleware) http.Handler {
	combined := append(slices.Clone(r.chain), middleware...)

	result := handler
	for i := len(combined) - 1; i >= 0; i-- {
		result = combined[i](result)
	}
	return result
}

// Group creates a sub-router sharing the mux with additional middleware
func (r *Router) Group(middleware ...Middleware) *Router {
	return &Router{
		mux:   r.mux,
		chain: append(slices.Clone(r.chain), middleware...),
	}
}
