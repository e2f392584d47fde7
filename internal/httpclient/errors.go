// ABOUTME: Backend rejection errors for non-2xx responses
// ABOUTME: Carries status code and the server's error message for callers to interpret

package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 4 << 10

// StatusError is returned by DoJSON for non-2xx responses
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	se := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	if resp.Request != nil {
		se.Method = resp.Request.Method
		se.Path = resp.Request.URL.Path
	}
	se.Message = errorMessage(body)
	return se
}

// errorMessage pulls a message out of the common error body shapes:
// {"error": "..."}, {"detail": "..."}, {"message": "..."}.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
