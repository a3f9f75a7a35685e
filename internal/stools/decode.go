package stools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20 // 1MB

// MaxBytesError signals a request body over the size limit.
type MaxBytesError struct {
	Message string
}

func (e *MaxBytesError) Error() string {
	return e.Message
}

// MalformedJSONError signals a body that is not a single well-formed
// JSON object matching the destination shape.
type MalformedJSONError struct {
	Message string
}

func (e *MalformedJSONError) Error() string {
	return e.Message
}

// DecodeJSONBody decodes a JSON request body into dst. Unknown fields,
// trailing data, and oversized bodies are all rejected with typed
// errors suitable for a 400 response.
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return &MalformedJSONError{Message: "Content-Type header is not application/json"}
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains malformed JSON (at position %d)", syntaxError.Offset),
			}
		case errors.Is(err, io.ErrUnexpectedEOF):
			return &MalformedJSONError{Message: "Request body contains malformed JSON"}
		case errors.As(err, &unmarshalTypeError):
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset),
			}
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains unknown field %s", fieldName),
			}
		case errors.Is(err, io.EOF):
			return &MalformedJSONError{Message: "Request body must not be empty"}
		case err.Error() == "http: request body too large":
			return &MaxBytesError{Message: "Request body must not be larger than 1MB"}
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return fmt.Errorf("error decoding JSON: %w", err)
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &MalformedJSONError{Message: "Request body must only contain a single JSON object"}
	}
	return nil
}
