package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UserIDHeader carries the authenticated user id set by the identity gateway
const UserIDHeader = "X-User-ID"

// maxJSONBody caps settings and key documents
const maxJSONBody = 1 << 20

// RequireMethod writes a JSON 405 and returns false when r does not use method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	WriteError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
	return false
}

// WriteJSON writes data as JSON with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes {"status":"success","message":...}
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes {"status":"error","error":...}
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// DecodeJSON decodes a size-limited JSON body into dst, rejecting unknown fields.
// On failure it writes a 400 (413 for oversized bodies) and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		WriteError(w, http.StatusBadRequest, "Request body is empty")
	default:
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return false
}

// UserID returns the caller's user id from the gateway header. Browsers cannot
// set headers on WebSocket upgrades, so the "user" query parameter is accepted too.
func UserID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

// RequireUserID writes 401 and returns false when the request has no user id
func RequireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := UserID(r)
	if id == "" {
		WriteError(w, http.StatusUnauthorized, "Missing "+UserIDHeader+" header")
		return "", false
	}
	return id, true
}
