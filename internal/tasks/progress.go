package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// ProgressSource stages a candidate's content and reports progress while doing so.
//
// Implementations call report with non-decreasing percentages and finish with exactly 100 on success.
type ProgressSource interface {
	Run(ctx context.Context, path string, size int64, report func(percent int)) ([]byte, error)
}

// StagedProgress reads the file in chunks and reports the fraction read.
type StagedProgress struct {
	ChunkSize int // bytes per read; 0 splits the file into ten chunks
}

// Run implements [ProgressSource].
func (s StagedProgress) Run(ctx context.Context, path string, size int64, report func(int)) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunk := int64(s.ChunkSize)
	if chunk <= 0 {
		chunk = max(size/10, 1)
	}

	content := make([]byte, 0, size)
	buf := make([]byte, chunk)
	last := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := f.Read(buf)
		content = append(content, buf[:n]...)

		if size > 0 {
			// 100 is reserved for completion
			if pct := min(int(int64(len(content))*100/size), 99); pct > last {
				last = pct
				report(pct)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	report(100)
	return content, nil
}

// SimulatedProgress advances by Step every Interval regardless of I/O, then reads the file.
type SimulatedProgress struct {
	Step     int
	Interval time.Duration
}

// Run implements [ProgressSource].
func (s SimulatedProgress) Run(ctx context.Context, path string, _ int64, report func(int)) ([]byte, error) {
	step := s.Step
	if step <= 0 {
		step = 10
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for pct := 0; pct < 100; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			pct = min(pct+step, 100)
			if pct < 100 {
				report(pct)
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	report(100)
	return content, nil
}

// NewProgressSource returns the source named by kind ("staged" or "simulated").
func NewProgressSource(kind string, step int, interval time.Duration) ProgressSource {
	if kind == "simulated" {
		return SimulatedProgress{Step: step, Interval: interval}
	}
	return StagedProgress{}
}
