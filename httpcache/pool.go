package httpcache

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Defaults for the shared pool: allow a retry and keep requests short, the
// cache favors availability over waiting.
const (
	DefaultRetries = 1
	DefaultTimeout = 3 * time.Second
)

// ConnectionPool is a process-wide pooled HTTP client with retry and timeout
// configuration.
//
// The underlying client is built lazily and only ever used by the process
// that built it: every request compares the stored process identifier with
// the current one and rebuilds the client after a fork instead of reusing
// the parent's connections. The rebuild is guarded by a mutex; the
// observable behavior is one rebuild per fork, then reuse.
type ConnectionPool struct {
	retries int
	timeout time.Duration

	mu     sync.Mutex
	client *retryablehttp.Client
	pid    int
}

// NewConnectionPool creates a pool with the given retry count and
// per-request timeout. The client is not built until the first request.
func NewConnectionPool(retries int, timeout time.Duration) *ConnectionPool {
	return &ConnectionPool{
		retries: retries,
		timeout: timeout,
	}
}

// Do issues the request through the pooled client, (re)building it first if
// it does not exist yet or was built by another process.
func (p *ConnectionPool) Do(req *retryablehttp.Request) (*http.Response, error) {
	return p.ensure().Do(req)
}

func (p *ConnectionPool) ensure() *retryablehttp.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.pid != os.Getpid() {
		client := retryablehttp.NewClient()
		client.RetryMax = p.retries
		client.HTTPClient.Timeout = p.timeout
		client.Logger = nil
		p.client = client
		p.pid = os.Getpid()
	}
	return p.client
}

var (
	sharedPoolOnce sync.Once
	sharedPool     *ConnectionPool
)

// SharedPool returns the process-wide pool used by connectors constructed
// without an explicit one. A single pool per process keeps connection reuse
// across all caches in the process.
func SharedPool() *ConnectionPool {
	sharedPoolOnce.Do(func() {
		sharedPool = NewConnectionPool(DefaultRetries, DefaultTimeout)
	})
	return sharedPool
}
