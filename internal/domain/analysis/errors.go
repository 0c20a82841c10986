package analysis

import (
	"errors"
	"fmt"
)

// ErrNoData indicates aggregation found zero usable matrices.
var ErrNoData = errors.New("no usable analysis data")

// ErrColumnMismatch indicates results disagree on the criteria count.
var ErrColumnMismatch = errors.New("criteria count mismatch between results")

// TransportError wraps a failed backend call. StatusCode is zero when the
// request never got an HTTP response.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
