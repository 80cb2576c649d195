package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"impulsetracker/internal/reqlog"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("timeout")
	ErrProxy       = errors.New("proxy connection failed")
	ErrRequest     = errors.New("request failed")
	ErrMalformed   = errors.New("malformed response")
	ErrNoPrice     = errors.New("no price in response")
)

// StatusError is a non-success HTTP status other than 403 and 429.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// classify maps a transport error to a request-log kind and a wrapped
// sentinel error.
func classify(err error) (string, error) {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return reqlog.KindTimeout, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "proxyconnect" || strings.HasPrefix(opErr.Op, "socks")) {
		return reqlog.KindProxyError, fmt.Errorf("%w: %w", ErrProxy, err)
	}

	return reqlog.KindError, fmt.Errorf("%w: %w", ErrRequest, err)
}
