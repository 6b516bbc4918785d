package http

import (
	"fmt"
	"net/http"
)

// routeNotFound answers requests that match no route with a plain-text
// "Cannot <METHOD> <path>" body, so unknown paths look like every other
// error the gateway returns.
func routeNotFound(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusMethodNotAllowed, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}
