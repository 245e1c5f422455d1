// Package shared holds the response envelope helpers every handler uses, so
// the wire shape of errors is defined exactly once.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "ballotgate/pkg/domain-errors"
)

// ErrorResponse is the error envelope: a stable machine code plus a
// human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a domain error onto the HTTP envelope. Errors that carry no
// domain code surface as a generic 500 so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr dErrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = dErrors.New(dErrors.CodeInternal, "internal server error")
	}
	WriteJSON(w, dErrors.ToHTTPStatus(domainErr.Code), ErrorResponse{
		Error:   string(domainErr.Code),
		Message: domainErr.Message,
	})
}
