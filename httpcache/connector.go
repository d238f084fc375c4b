package httpcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hupe1980/omnifs"
	"github.com/hupe1980/omnifs/resource"
)

// EnvBearerTokenPath selects the bearer token file when no path is given
// programmatically.
const EnvBearerTokenPath = "OMNIFS_HTTP_BEARER_TOKEN_PATH"

// tokenRefreshInterval is how stale a cached token may get before the file
// is re-read.
const tokenRefreshInterval = time.Second

// Connector issues PUT/GET requests against a base URL suffixed by an entry
// key and translates the outcome into success, absence or failure.
//
// Network errors and unexpected statuses are logged as warnings and
// reported as failure, never returned as errors.
type Connector struct {
	baseURL   string
	tokenPath string

	// token holds the last read value and its refresh time. Racing
	// refreshes may both re-read the file; last store wins, which is the
	// intended eventual consistency within about a second.
	token atomic.Pointer[bearerToken]

	pool   *ConnectionPool
	ctrl   *resource.Controller
	logger *omnifs.Logger
}

type bearerToken struct {
	value   string
	updated time.Time
}

// NewConnector creates a Connector for the base URL, normalized to a
// trailing slash. If a bearer token path is configured (option or
// environment), the token is read immediately so a missing file fails fast.
func NewConnector(rawurl string, opts ...ConnectorOption) (*Connector, error) {
	if rawurl == "" {
		return nil, fmt.Errorf("httpcache: empty url")
	}
	c := &Connector{
		baseURL: rawurl,
		pool:    SharedPool(),
		logger:  omnifs.NewLogger(nil),
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	for _, fn := range opts {
		fn(c)
	}

	if c.tokenPath == "" {
		c.tokenPath = os.Getenv(EnvBearerTokenPath)
	}
	if c.tokenPath != "" {
		if _, err := c.readToken(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Put stores data under key. True only on status 201.
func (c *Connector) Put(ctx context.Context, key string, data []byte) bool {
	if err := c.acquire(ctx, len(data)); err != nil {
		c.logger.WarnContext(ctx, "put", "key", key, "error", err)
		return false
	}
	defer c.ctrl.ReleaseRequest()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+key, data)
	if err != nil {
		c.logger.WarnContext(ctx, "put", "key", key, "error", err)
		return false
	}
	c.applyAuth(ctx, req)

	res, err := c.pool.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "put", "key", key, "error", err)
		return false
	}
	defer drain(res.Body)

	if res.StatusCode != http.StatusCreated {
		c.logger.WarnContext(ctx, "put: unexpected status code", "key", key, "status", res.StatusCode)
		return false
	}
	return true
}

// Get retrieves the value under key. ok is false on a 404 miss and on any
// failure; a miss and a failure are indistinguishable by design.
func (c *Connector) Get(ctx context.Context, key string) ([]byte, bool) {
	if err := c.acquire(ctx, 0); err != nil {
		c.logger.WarnContext(ctx, "get", "key", key, "error", err)
		return nil, false
	}
	defer c.ctrl.ReleaseRequest()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+key, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "get", "key", key, "error", err)
		return nil, false
	}
	c.applyAuth(ctx, req)

	res, err := c.pool.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "get", "key", key, "error", err)
		return nil, false
	}
	defer drain(res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		var body io.Reader = res.Body
		if c.ctrl != nil {
			body = resource.NewRateLimitedReader(ctx, body, c.ctrl)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			c.logger.WarnContext(ctx, "get", "key", key, "error", err)
			return nil, false
		}
		return data, true
	case http.StatusNotFound:
		return nil, false
	default:
		c.logger.WarnContext(ctx, "get: unexpected status code", "key", key, "status", res.StatusCode)
		return nil, false
	}
}

func (c *Connector) acquire(ctx context.Context, payload int) error {
	if err := c.ctrl.AcquireRequest(ctx); err != nil {
		return err
	}
	if err := c.ctrl.AcquireIO(ctx, payload); err != nil {
		c.ctrl.ReleaseRequest()
		return err
	}
	return nil
}

func (c *Connector) applyAuth(ctx context.Context, req *retryablehttp.Request) {
	if c.tokenPath == "" {
		return
	}
	tok := c.token.Load()
	if tok == nil || time.Since(tok.updated) > tokenRefreshInterval {
		fresh, err := c.readToken()
		if err != nil {
			c.logger.WarnContext(ctx, "bearer token refresh failed", "path", c.tokenPath, "error", err)
		} else {
			tok = fresh
		}
	}
	if tok != nil {
		req.Header.Set("Authorization", "Bearer "+tok.value)
	}
}

func (c *Connector) readToken() (*bearerToken, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return nil, err
	}
	tok := &bearerToken{value: string(data), updated: time.Now()}
	c.token.Store(tok)
	return tok, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithTokenPath sets the bearer token file path, overriding the
// environment.
func WithTokenPath(path string) ConnectorOption {
	return func(c *Connector) {
		c.tokenPath = path
	}
}

// WithPool sets the connection pool. Defaults to the process-wide
// SharedPool.
func WithPool(pool *ConnectionPool) ConnectorOption {
	return func(c *Connector) {
		if pool != nil {
			c.pool = pool
		}
	}
}

// WithController bounds request concurrency and payload throughput. A nil
// controller enforces nothing.
func WithController(ctrl *resource.Controller) ConnectorOption {
	return func(c *Connector) {
		c.ctrl = ctrl
	}
}

// WithConnectorLogger configures structured logging. Pass nil to disable.
func WithConnectorLogger(logger *omnifs.Logger) ConnectorOption {
	return func(c *Connector) {
		if logger == nil {
			logger = omnifs.NoopLogger()
		}
		c.logger = logger
	}
}
