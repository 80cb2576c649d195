package records

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ReadImpulses loads impulses.jsonl from dir. A missing file yields no
// records. Lines that do not decode are counted in skipped.
func ReadImpulses(dir string) (out []Impulse, skipped int, err error) {
	err = readLines(filepath.Join(dir, ImpulsesFile), func(b []byte) {
		var r Impulse
		if json.Unmarshal(b, &r) != nil {
			skipped++
			return
		}
		out = append(out, r)
	})
	return out, skipped, err
}

// ReadChecks loads cex_comparison.jsonl from dir.
func ReadChecks(dir string) (out []Check, skipped int, err error) {
	err = readLines(filepath.Join(dir, ComparisonFile), func(b []byte) {
		var r Check
		if json.Unmarshal(b, &r) != nil {
			skipped++
			return
		}
		out = append(out, r)
	})
	return out, skipped, err
}

func readLines(path string, fn func([]byte)) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		fn(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
