package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryProvider retries transient failures with exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p with the retry policy in cfg.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		resp     *Response
		lastErr  error
		attempts = map[ErrorKind]int{}
	)
	op := func() error {
		var err error
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		kind, ok := KindOf(err)
		if !ok || !retryable(kind, attempts[kind]) {
			return backoff.Permanent(err)
		}
		attempts[kind]++
		return err
	}

	if err := backoff.Retry(op, r.policy(ctx, &lastErr)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

// retryable decides from the error kind and how often that kind has
// already been retried. Errors outside the taxonomy, including context
// cancellation, are never retried.
func retryable(kind ErrorKind, retried int) bool {
	switch kind {
	case KindUnavailable, KindRateLimited:
		return true
	case KindInvalid:
		return retried == 0
	default:
		return false
	}
}

func (r *RetryProvider) policy(ctx context.Context, lastErr *error) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.config.InitialWait
	exp.MaxInterval = r.config.MaxWait
	exp.Multiplier = r.config.Multiplier
	exp.RandomizationFactor = 0.2
	exp.MaxElapsedTime = 0

	retries := max(r.config.MaxAttempts-1, 0)
	var b backoff.BackOff = &retryAfter{BackOff: exp, lastErr: lastErr}
	b = backoff.WithMaxRetries(b, uint64(retries))
	return backoff.WithContext(b, ctx)
}

// retryAfter waits as long as a rate-limit response asked, when it said.
type retryAfter struct {
	backoff.BackOff
	lastErr *error
}

func (b *retryAfter) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	var e *Error
	if next != backoff.Stop && errors.As(*b.lastErr, &e) && e.Kind == KindRateLimited && e.RetryAfter > 0 {
		return e.RetryAfter
	}
	return next
}
