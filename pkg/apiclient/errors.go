package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ResponseError is a non-2xx answer from the API.
type ResponseError struct {
	Method     string
	Route      string
	StatusCode int
	Message    string
	Code       string
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Route, e.StatusCode, e.Message)
}

// PublicMessage is the server's message without the request details.
func (e *ResponseError) PublicMessage() string {
	return e.Message
}

func newResponseError(method string, p Path, resp *http.Response) *ResponseError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	body := strings.TrimSpace(string(raw))

	respErr := &ResponseError{
		Method:     method,
		Route:      p.Template(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}

	var envelope types.APIResponse
	if body != "" && json.Unmarshal(raw, &envelope) == nil && strings.TrimSpace(envelope.Message) != "" {
		respErr.Message = strings.TrimSpace(envelope.Message)
		respErr.Code = envelope.Code
	} else if body != "" && !strings.HasPrefix(body, "{") {
		respErr.Message = body
	} else {
		respErr.Message = http.StatusText(resp.StatusCode)
	}
	return respErr
}

// responseCode prefers the envelope's code when the server's taxonomy
// agrees with the status it sent; otherwise the status decides.
func responseCode(e *ResponseError) pkgerrors.Code {
	if code, ok := pkgerrors.ParseCode(e.Code); ok && pkgerrors.MetadataFor(code).HTTPStatus == e.StatusCode && e.StatusCode < 500 {
		return code
	}
	return pkgerrors.CodeForStatus(e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// response error.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// IsStatus reports whether err is a response error with one of the statuses.
func IsStatus(err error, statuses ...int) bool {
	code := StatusCode(err)
	if code == 0 {
		return false
	}
	for _, status := range statuses {
		if status == code {
			return true
		}
	}
	return false
}
