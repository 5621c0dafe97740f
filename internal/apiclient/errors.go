package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrUnauthorized matches any *APIError with status 401.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// ErrNotFound matches any *APIError with status 404.
var ErrNotFound = errors.New("apiclient: not found")

// APIError is a non-2xx reply from the remote API. Message is the text the
// API returned, suitable for showing to the user as-is.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// UserMessage returns the text to show for err: the API's own message when
// there is one, else err.Error(), else fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// newAPIError extracts a message from a {"message": ...} body, a JSON
// string body or plain text, in that order.
func newAPIError(op string, status int, body []byte) *APIError {
	msg := ""
	trimmed := strings.TrimSpace(string(body))
	if gjson.Valid(trimmed) {
		v := gjson.Parse(trimmed)
		switch {
		case v.Type == gjson.String:
			msg = v.Str
		case v.IsObject():
			for _, k := range []string{"message", "Message", "title", "error"} {
				if m := v.Get(k); m.Type == gjson.String && m.Str != "" {
					msg = m.Str
					break
				}
			}
			if msg == "" {
				msg = trimmed
			}
		default:
			msg = trimmed
		}
	} else {
		msg = trimmed
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Op: op, Status: status, Message: msg}
}
