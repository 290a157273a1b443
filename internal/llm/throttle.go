package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled wraps a Completer with a shared request rate limit
type Throttled struct {
	next    Completer
	limiter *rate.Limiter
}

// Throttle limits c to rps requests per second. A non-positive rps disables the limit.
func Throttle(c Completer, rps float64) Completer {
	if rps <= 0 {
		return c
	}
	return &Throttled{
		next:    c,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the wrapped provider name.
func (t *Throttled) Name() string {
	return t.next.Name()
}

// Complete waits for a token then forwards the request.
func (t *Throttled) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return t.next.Complete(ctx, req)
}
