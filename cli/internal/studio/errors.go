// ABOUTME: User-facing error types returned by studio operations
// ABOUTME: Separates not-ready, validation and backend rejection outcomes

package studio

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
	"github.com/caffeinepub/crocheting-app/internal/validate"
)

// ErrNotReady means there is no identity or its connection is still being set up.
var ErrNotReady = errors.New("not signed in or still connecting")

// ValidationError is a precondition failure detected before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// BackendError is a mutation the backend rejected or could not complete.
// Error returns a message fit for display; Err keeps the cause.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("could not %s: %s", e.Op, userMessage(e.Err))
}

func (e *BackendError) Unwrap() error { return e.Err }

// UploadError is a submission blocked because some staged images did not
// upload. Unwrap returns the pipeline's *upload.SubmitError.
type UploadError struct {
	Err *upload.SubmitError
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("could not upload %s: %s", strings.Join(e.Err.Failed, ", "), userMessage(e.Err.Err))
}

func (e *UploadError) Unwrap() error { return e.Err }

func uploadFailure(err error) error {
	var se *upload.SubmitError
	if errors.As(err, &se) {
		return &UploadError{Err: se}
	}
	return err
}

func userMessage(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "the studio is unreachable, try again"
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return "your session has expired, log in again"
	case http.StatusForbidden:
		return "you are not allowed to do that"
	case http.StatusNotFound:
		return "it no longer exists"
	case http.StatusConflict:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "it already exists"
	}
	if apiErr.StatusCode >= 500 || apiErr.Message == "" {
		return "the studio is unavailable, try again"
	}
	return apiErr.Message
}

func invalid(err error) error {
	var errs validate.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		return &ValidationError{Field: errs[0].Field, Message: errs[0].Message}
	}
	return err
}
