package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies a failed Generate call for the retry policy and the
// request log.
type ErrorKind int

const (
	// KindUnavailable covers network failures and 5xx responses.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429; RetryAfter carries the server hint.
	KindRateLimited
	// KindRejected is a 4xx other than 429: bad key, unknown model, bad
	// request. Retrying cannot help.
	KindRejected
	// KindInvalid means the content did not match the request schema.
	KindInvalid
	// KindTruncated means the response hit MaxTokens.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "rejected"
	case KindInvalid:
		return "invalid response"
	case KindTruncated:
		return "truncated"
	default:
		return "unavailable"
	}
}

// Error is the single error type providers return.
type Error struct {
	Kind       ErrorKind
	RetryAfter time.Duration
	// Content is the raw model output for KindInvalid and KindTruncated.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "llm: " + e.Kind.String()
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, or false when err is not an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// fromStatus maps a provider HTTP status to an *Error. header may be nil.
func fromStatus(status int, header http.Header, err error) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, RetryAfter: retryAfterHeader(header), Err: err}
	case status >= 400 && status < 500:
		return &Error{Kind: KindRejected, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Err: err}
	}
}

func responseHeader(r *http.Response) http.Header {
	if r == nil {
		return nil
	}
	return r.Header
}

// retryAfterHeader reads a Retry-After value in seconds.
func retryAfterHeader(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
