// Package atx is a small Selenium-style client for the atx-agent HTTP and
// JSON-RPC surface running on an Android device.
package atx

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultFindTimeout  = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// sharedClient is used by every Driver. Drivers differ only by base URL, so
// one transport serves all devices concurrently.
var sharedClient = &http.Client{
	Timeout: 60 * time.Second,
}

// Driver talks to a single agent. It holds no server-side session.
type Driver struct {
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	httpClient   *http.Client
	requestID    atomic.Int64
}

// NewDriver creates a driver for an agent reachable at baseURL. timeout bounds
// the retrying lookups of FindElement.
func NewDriver(baseURL string, timeout time.Duration) *Driver {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultFindTimeout
	}

	return &Driver{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		timeout:      timeout,
		pollInterval: DefaultPollInterval,
		httpClient:   sharedClient,
	}
}

// NewLocalDriver creates a driver for an agent forwarded to 127.0.0.1:port.
func NewLocalDriver(port int, timeout time.Duration) *Driver {
	return NewDriver(fmt.Sprintf("http://127.0.0.1:%d", port), timeout)
}

func (d *Driver) BaseURL() string {
	return d.baseURL
}

func (d *Driver) Timeout() time.Duration {
	return d.timeout
}

// SetPollInterval changes the pause between FindElement retries.
func (d *Driver) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		d.pollInterval = interval
	}
}
