package env

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Condition is a readiness probe evaluated after the environment comes up.
// It returns nil once the condition holds.
type Condition func(ctx context.Context) error

// httpClient is a test seam for endpoint checks.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// CheckEndpoints returns a Condition that verifies each endpoint answers an
// HTTP request with a non-5xx status.
func CheckEndpoints(endpoints ...string) Condition {
	return func(ctx context.Context) error {
		for _, endpoint := range endpoints {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return fmt.Errorf("build request for %s: %w", endpoint, err)
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("endpoint %s not reachable: %w", endpoint, err)
			}
			resp.Body.Close()
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("endpoint %s returned status %d", endpoint, resp.StatusCode)
			}
		}
		return nil
	}
}

// Wait polls cond with exponential backoff until it holds, the timeout
// elapses, or the context is canceled.
func Wait(ctx context.Context, cond Condition, timeout time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = timeout

	operation := func() error {
		return cond(ctx)
	}
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("condition not met within %s: %w", timeout, err)
	}
	return nil
}
