package sdk

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/localgraph/internal/utils"
)

// ErrStreamConsumed is yielded when a RunStream is iterated a second time.
var ErrStreamConsumed = errors.New("run stream already consumed")

// RunError is a failure the server reported inside a stream, after the run
// had started.
type RunError struct {
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *RunError) Error() string {
	if e.Name == "" {
		return "run failed: " + e.Message
	}
	return fmt.Sprintf("run failed: %s: %s", e.Name, e.Message)
}

// HTTPError is a request the server rejected before any run started.
type HTTPError struct {
	StatusCode int
	// Detail is the server's explanation, when the body carried one.
	Detail string
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, utils.TruncateString(e.Body, utils.DefaultMaxStringLength))
}

// wrapHTTPError converts transport-level status errors into *HTTPError and
// passes every other error through.
func wrapHTTPError(err error) error {
	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	out := &HTTPError{StatusCode: httpErr.StatusCode, Body: httpErr.Body}
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(httpErr.Body), &body) == nil {
		out.Detail = body.Detail
		if out.Detail == "" {
			out.Detail = body.Message
		}
	}
	return out
}

func decodeRunError(data string) *RunError {
	runErr := &RunError{}
	if err := json.Unmarshal([]byte(data), runErr); err != nil || (runErr.Name == "" && runErr.Message == "") {
		return &RunError{Message: data}
	}
	return runErr
}
