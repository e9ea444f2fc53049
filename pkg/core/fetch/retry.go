package fetch

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/priceintel/pricingintel/internal/errs"
)

const maxAttempts = 4

// doWithRetry executes req, retrying transient failures (network errors,
// 5xx, 429) with exponential backoff and jitter, up to maxAttempts total
// attempts. A 4xx other than 429 is treated as a SourcePermanentError and
// returned immediately without retrying.
func doWithRetry(ctx context.Context, client *http.Client, source string, newReq func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = &errs.SourceTransientError{Source: source, Err: err}
			if !sleepBackoff(ctx, nil, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = &errs.SourceTransientError{Source: source, Err: errStatusf(resp.StatusCode)}
			if attempt == maxAttempts-1 {
				return nil, lastErr
			}
			if !sleepBackoff(ctx, resp, attempt) {
				return nil, ctx.Err()
			}
		default:
			resp.Body.Close()
			return nil, &errs.SourcePermanentError{Source: source, Err: errStatusf(resp.StatusCode)}
		}
	}
	return nil, lastErr
}

func errStatusf(code int) error {
	return &httpStatusError{code: code}
}

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.code)
}

// sleepBackoff waits for the retry delay (Retry-After header if present,
// else exponential backoff 1s, 2s, 4s, ... plus up to 20% jitter) or returns
// false if ctx is cancelled first.
func sleepBackoff(ctx context.Context, resp *http.Response, attempt int) bool {
	wait := backoffDelay(resp, attempt)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func backoffDelay(resp *http.Response, attempt int) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	base := time.Duration(1<<uint(attempt)) * time.Second
	jitter := time.Duration(rand.Int63n(int64(base) / 5 + 1))
	return base + jitter
}
