// Package inference wraps access to the external generative text
// service. The service is modeled as a single fallible operation:
// prompt in, text out. Callers own sequencing, parsing and caching.
package inference

import (
	"context"
	"fmt"
)

// Client is the gateway to the generative model. Implementations must
// be safe for concurrent use; each call is independent.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Error is returned for any transport- or model-side failure. Subtypes
// (rate limit, timeout, server error) are not distinguished; the
// wrapped error carries the detail.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("inference %s failed", e.Op)
	}
	return fmt.Sprintf("inference %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
