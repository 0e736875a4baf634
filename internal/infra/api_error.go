package infra

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError means the backend could not be reached at all.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the backend, or a 2xx answer whose body
// reports failure.
type APIError struct {
	Endpoint string
	Status   int
	Body     []byte

	fields map[string]json.RawMessage
	parsed bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend returned status %d", e.Endpoint, e.Status)
}

func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *APIError) NotFound() bool     { return e.Status == http.StatusNotFound }
func (e *APIError) ServerSide() bool   { return e.Status >= 500 }

// Field returns the raw JSON value under key when the body is a JSON object.
func (e *APIError) Field(key string) (json.RawMessage, bool) {
	if !e.parsed {
		e.parsed = true
		_ = json.Unmarshal(e.Body, &e.fields)
	}
	raw, ok := e.fields[key]
	return raw, ok
}

// Text returns a readable string for key: the value itself when it is a
// string, or the first element when it is a list of strings.
func (e *APIError) Text(key string) (string, bool) {
	raw, ok := e.Field(key)
	if !ok {
		return "", false
	}
	return firstText(raw)
}

// UserMessage walks keys in order and returns the first readable value, or
// fallback when none is present.
func (e *APIError) UserMessage(fallback string, keys ...string) string {
	for _, key := range keys {
		if msg, ok := e.Text(key); ok {
			return msg
		}
	}
	return fallback
}

func firstText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return firstText(list[0])
	}
	return "", false
}

// FirstObjectText reads raw as an object of field errors and returns the
// readable value of the first field, in the order the backend sent them.
// Later fields are not consulted.
func FirstObjectText(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return "", false
	}
	if !dec.More() {
		return "", false
	}
	if _, err := dec.Token(); err != nil {
		return "", false
	}
	var first json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return "", false
	}
	return firstText(first)
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
