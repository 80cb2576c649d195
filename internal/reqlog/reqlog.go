package reqlog

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Error kinds reported instead of an HTTP status when no response arrived.
const (
	KindTimeout    = "TIMEOUT"
	KindProxyError = "PROXY_ERROR"
	KindError      = "ERROR"
)

// Entry describes one outbound call.
type Entry struct {
	Method  string
	URL     string
	Proxy   string // already masked
	Status  int    // 0 when Kind is set
	Kind    string
	Elapsed time.Duration
	Err     error
}

// Outcome is the status column: the HTTP status code or the error kind.
func (e Entry) Outcome() string {
	if e.Kind != "" {
		return e.Kind
	}
	return strconv.Itoa(e.Status)
}

// Success reports whether the call counts as successful: a response with a
// status below 400.
func (e Entry) Success() bool {
	return e.Kind == "" && e.Status > 0 && e.Status < 400
}

type Summary struct {
	Success int
	Failure int
	Total   int
	Rate    float64 // percent, 0 when Total is 0
}

// Logger records every outbound call and keeps success/failure counters.
// Nothing it holds feeds back into decisions.
type Logger struct {
	mu      sync.Mutex
	success int
	failure int
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Log(e Entry) {
	if e.Method == "" {
		e.Method = "GET"
	}

	l.mu.Lock()
	if e.Success() {
		l.success++
	} else {
		l.failure++
	}
	l.mu.Unlock()

	fields := []zap.Field{
		zap.String("method", e.Method),
		zap.String("url", shortenURL(e.URL, 60)),
		zap.String("proxy", e.Proxy),
		zap.String("status", e.Outcome()),
		zap.Duration("elapsed", e.Elapsed),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	if e.Success() {
		l.logger.Debug("request", fields...)
	} else {
		l.logger.Info("request failed", fields...)
	}
}

func (l *Logger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{Success: l.success, Failure: l.failure, Total: l.success + l.failure}
	if s.Total > 0 {
		s.Rate = float64(s.Success) / float64(s.Total) * 100
	}
	return s
}

func (l *Logger) LogSummary() {
	s := l.Summary()
	l.logger.Info("request stats",
		zap.Int("success", s.Success),
		zap.Int("failure", s.Failure),
		zap.Int("total", s.Total),
		zap.String("success_rate", strconv.FormatFloat(s.Rate, 'f', 1, 64)+"%"),
	)
}

// shortenURL keeps scheme, host and the last path segment of long URLs.
func shortenURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	parts := strings.Split(u, "/")
	if len(parts) > 4 {
		return parts[0] + "//" + parts[2] + "/.../" + parts[len(parts)-1]
	}
	return u[:max-3] + "..."
}
