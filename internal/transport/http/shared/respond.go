package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "taskhub/pkg/domain-errors"
)

// ErrorBody is the JSON error envelope every handler returns.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error into the JSON envelope. Errors
// without a domain code map to a plain 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorBody{Error: string(code)}
	var domErr *dErrors.Error
	if errors.As(err, &domErr) {
		body.Message = domErr.Message
		body.Fields = domErr.FieldErrors
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
