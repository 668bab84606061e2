package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
)

// maxFileBytes bounds a single day file download.
const maxFileBytes = 64 << 20

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// errRetryable marks failures worth another attempt: transport errors and 5xx responses.
var errRetryable = errors.New("retryable")

// Client fetches day files from {baseURL}/{FileID} over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an HTTP day file client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		metrics: metrics,
		logger:  logger.With("component", "csv_http_source"),
	}
}

// Fetch downloads one day file.
func (c *Client) Fetch(ctx context.Context, day domain.DayDescriptor) (string, error) {
	u := c.baseURL + "/" + url.PathEscape(day.FileID)

	start := time.Now()
	body, err := c.fetchWithRetry(ctx, u)
	c.metrics.SourceFetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("http", "error").Inc()
		c.logger.Warn("day file fetch failed", "file", day.FileID, "error", err)
		return "", err
	}
	c.metrics.SourceFetches.WithLabelValues("http", "success").Inc()
	return body, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, fullURL string) (string, error) {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		body, err := c.doRequest(ctx, fullURL)
		if err == nil || !errors.Is(err, errRetryable) || attempt == maxAttempts {
			return body, err
		}
		c.logger.Debug("retrying day file fetch", "url", fullURL, "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return "", ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("fetch %s: %w", fullURL, ctx.Err())
		}
		return "", fmt.Errorf("fetch %s: %w: %w", fullURL, errRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("fetch %s: status %d: %s", fullURL, resp.StatusCode, body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return "", fmt.Errorf("%w: %w", errRetryable, err)
		}
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fullURL, err)
	}
	return string(data), nil
}
