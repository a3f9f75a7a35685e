package stools

import (
	"net/http"
)

// AdaptHandler chains middlewares around a handler. The first
// middleware listed becomes the outermost wrapper.
func AdaptHandler(h http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
