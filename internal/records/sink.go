package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives records. Implementations must be safe for concurrent use.
type Sink interface {
	WriteImpulse(ctx context.Context, r Impulse) error
	WriteCheck(ctx context.Context, r Check) error
}

// JSONLWriter appends one JSON object per line to the record files in dir.
type JSONLWriter struct {
	dir string
	mu  sync.Mutex
}

func NewJSONLWriter(dir string) (*JSONLWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating records dir: %w", err)
	}
	return &JSONLWriter{dir: dir}, nil
}

func (w *JSONLWriter) Dir() string { return w.dir }

func (w *JSONLWriter) WriteImpulse(_ context.Context, r Impulse) error {
	return w.append(ImpulsesFile, r)
}

func (w *JSONLWriter) WriteCheck(_ context.Context, r Check) error {
	return w.append(ComparisonFile, r)
}

func (w *JSONLWriter) append(name string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", name, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// Clear removes the record files in dir. Missing files are not an error.
func Clear(dir string) error {
	var errs []error
	for _, name := range []string{ImpulsesFile, ComparisonFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Multi writes every record to all sinks, returning the joined errors.
type Multi []Sink

func (m Multi) WriteImpulse(ctx context.Context, r Impulse) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteImpulse(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) WriteCheck(ctx context.Context, r Check) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteCheck(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
