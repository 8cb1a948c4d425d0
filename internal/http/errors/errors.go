// Package errors holds the JSON error helpers shared by the API handlers.
// Server-side detail goes to the log with the request ID; clients only see
// the status and a short message.
package errors

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func logf(r *http.Request, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if id := middleware.GetReqID(r.Context()); id != "" {
		log.Printf("[%s] RequestID=%s: %s", level, id, msg)
	} else {
		log.Printf("[%s] %s", level, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// InternalError logs err and answers with a generic body so internal detail
// never reaches the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logf(r, "ERROR", "%s: %v", message, err)
	writeJSON(w, http.StatusInternalServerError, "internal server error")
}

func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	logf(r, "WARN", "bad request: %v", err)
	writeJSON(w, http.StatusBadRequest, clientMessage)
}

func NotFoundError(w http.ResponseWriter, r *http.Request, clientMessage string) {
	writeJSON(w, http.StatusNotFound, clientMessage)
}

// LogError records a request-scoped error that did not change the response.
func LogError(r *http.Request, message string, err error) {
	logf(r, "ERROR", "%s: %v", message, err)
}
