// Package health polls the upstream broker API and reports its reachability.
// Failures never propagate: a broken upstream degrades the reported status
// instead of erroring the journal itself.
package health

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

type Status string

const (
	StatusOnline   Status = "online"
	StatusDegraded Status = "degraded"
	StatusOffline  Status = "offline"
	StatusUnknown  Status = "unknown"
)

type Config struct {
	UpstreamStatusURL string        `envconfig:"UPSTREAM_STATUS_URL" default:""`
	PollInterval      time.Duration `envconfig:"HEALTH_POLL_INTERVAL" default:"60s"`
	RequestTimeout    time.Duration `envconfig:"HEALTH_REQUEST_TIMEOUT" default:"10s"`
	RetryCount        int           `envconfig:"HEALTH_RETRY_COUNT" default:"2"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Checker polls one upstream status URL and caches the latest verdict.
type Checker struct {
	http *resty.Client
	url  string

	mu        sync.RWMutex
	status    Status
	checkedAt time.Time
}

func NewChecker(config Config) *Checker {
	retryCount := config.RetryCount
	if retryCount < 0 {
		retryCount = defaultRetryAttempts - 1
	}

	httpClient := resty.New().
		SetTimeout(config.RequestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Checker{
		http:   httpClient,
		url:    strings.TrimSpace(config.UpstreamStatusURL),
		status: StatusUnknown,
	}
}

// isRetryableResp retries network failures and server-side errors, but never
// authentication failures: a 401/403 will not heal on its own.
func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	code := r.StatusCode()
	if code == 401 || code == 403 {
		return false
	}

	return code >= 500 || code == 429
}

// Run polls until the context is cancelled.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	if c.url == "" {
		logger.Info("[health] No upstream status URL configured, poller disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckNow(ctx)
		}
	}
}

// CheckNow performs one probe and updates the cached status.
func (c *Checker) CheckNow(ctx context.Context) Status {
	status := c.probe(ctx)

	c.mu.Lock()
	c.status = status
	c.checkedAt = time.Now()
	c.mu.Unlock()

	return status
}

// Status returns the latest cached verdict and when it was taken.
func (c *Checker) Status() (Status, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.checkedAt
}

func (c *Checker) probe(ctx context.Context) Status {
	if c.url == "" {
		return StatusUnknown
	}

	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		// Network errors and timeouts degrade to offline without throwing.
		logger.WithError(err).Warn("[health] Upstream unreachable")
		return StatusOffline
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return StatusOnline
	case code == 401 || code == 403:
		logger.WithField("status_code", code).Warn("[health] Upstream rejected credentials")
		return StatusDegraded
	default:
		logger.WithField("status_code", code).Warn("[health] Upstream returned error status")
		return StatusDegraded
	}
}
