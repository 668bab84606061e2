// Package csvsource fetches daily sensor CSV files from a local directory or
// an HTTP file server, with an optional in-memory LRU cache in front.
package csvsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
)

// Dir reads day files from a directory on disk.
type Dir struct {
	root    string
	metrics *observability.Metrics
}

// NewDir creates a Source rooted at dir.
func NewDir(dir string, metrics *observability.Metrics) *Dir {
	return &Dir{root: dir, metrics: metrics}
}

// Fetch reads {root}/{FileID}.
func (d *Dir) Fetch(ctx context.Context, day domain.DayDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	data, err := os.ReadFile(filepath.Join(d.root, filepath.Base(day.FileID)))
	d.metrics.SourceFetchDuration.WithLabelValues("dir").Observe(time.Since(start).Seconds())
	if err != nil {
		d.metrics.SourceFetches.WithLabelValues("dir", "error").Inc()
		return "", fmt.Errorf("read %s: %w", day.FileID, err)
	}
	d.metrics.SourceFetches.WithLabelValues("dir", "success").Inc()
	return string(data), nil
}
