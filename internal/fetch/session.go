package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"impulsetracker/internal/proxy"

	xproxy "golang.org/x/net/proxy"
)

// Session is the network context of one fetch cycle: a bound on in-flight
// requests shared by every call in the cycle, plus one http.Client per
// route (direct or a given proxy) so connections are reused within it.
// Close it when the cycle is done.
type Session struct {
	sem     chan struct{}
	timeout time.Duration

	mu         sync.Mutex
	clients    map[proxy.Entry]*http.Client
	transports []*http.Transport
}

// NewSession creates a session allowing at most maxConns simultaneous
// requests, each limited to timeout (connect through body read).
func NewSession(maxConns int, timeout time.Duration) *Session {
	if maxConns <= 0 {
		maxConns = 10
	}
	return &Session{
		sem:     make(chan struct{}, maxConns),
		timeout: timeout,
		clients: make(map[proxy.Entry]*http.Client),
	}
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.sem
}

// client returns the http.Client routing through e ("" = direct).
func (s *Session) client(e proxy.Entry) (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[e]; ok {
		return c, nil
	}

	tr, err := newTransport(e, cap(s.sem))
	if err != nil {
		return nil, err
	}
	c := &http.Client{Transport: tr, Timeout: s.timeout}
	s.clients[e] = c
	s.transports = append(s.transports, tr)
	return c, nil
}

// Close drops idle connections of every client created by the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.transports {
		tr.CloseIdleConnections()
	}
}

func newTransport(e proxy.Entry, maxConns int) (*http.Transport, error) {
	tr := &http.Transport{
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxConns,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if e == "" {
		return tr, nil
	}

	u, err := e.URL()
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		tr.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks dialer: %w", err)
		}
		if cd, ok := dialer.(xproxy.ContextDialer); ok {
			tr.DialContext = cd.DialContext
		} else {
			tr.Dial = dialer.Dial
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return tr, nil
}
