package ingest

import (
	"errors"
	"fmt"
	"net"
)

// ErrIngestFatal marks failures of programming invariants (for example a
// bulk submit reporting failed items). They abort the operation that
// triggered them and are reported on the consumer's error channel, but they
// are still caught at the per-event boundary so the drain loop survives.
var ErrIngestFatal = errors.New("ingest fatal error")

// BackendError is a non-2xx response from the search backend
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend response: status code %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether the error is a momentary backend condition
// (connection failure, overload, server-side error) as opposed to a
// permanent one (bad request, mapping conflict). The drain loop drops the
// triggering document either way; the classification only drives logging
// and the caller's decision to retry startup operations.
func IsTransient(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.StatusCode == 429 || backendErr.StatusCode >= 500
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
