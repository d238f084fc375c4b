package httpcache

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/omnifs"
	"github.com/hupe1980/omnifs/codec"
)

// HTTPCache is a fixed-capacity cache of byte values keyed by integer index,
// backed by a remote HTTP endpoint.
type HTTPCache struct {
	length    int
	connector *Connector
	codec     codec.Codec
}

// New creates a cache of the given capacity against the base URL. length
// must be positive; indices outside [0, length) are rejected without a
// network request.
func New(length int, rawurl string, opts ...Option) (*HTTPCache, error) {
	if length <= 0 {
		return nil, fmt.Errorf("httpcache: length must be positive, got %d", length)
	}

	o := options{codec: codec.Default}
	for _, fn := range opts {
		fn(&o)
	}

	connector, err := NewConnector(rawurl, o.connectorOpts...)
	if err != nil {
		return nil, err
	}

	return &HTTPCache{
		length:    length,
		connector: connector,
		codec:     o.codec,
	}, nil
}

// Len returns the cache capacity.
func (c *HTTPCache) Len() int {
	return c.length
}

// MultiprocessSafe reports that the cache may be shared across processes.
// The connection pool re-establishes itself per process after a fork.
func (c *HTTPCache) MultiprocessSafe() bool { return true }

// MultithreadSafe reports that the cache may be shared across goroutines.
func (c *HTTPCache) MultithreadSafe() bool { return true }

// Put stores raw bytes at index i. It reports whether the server accepted
// the entry; transport failures show up as false, not as an error. The only
// error is an out-of-range index.
func (c *HTTPCache) Put(ctx context.Context, i int, data []byte) (bool, error) {
	if err := c.checkIndex(i); err != nil {
		return false, err
	}
	return c.connector.Put(ctx, strconv.Itoa(i), data), nil
}

// Get retrieves the raw bytes at index i. ok is false when the entry is
// absent or the request failed. The only error is an out-of-range index.
func (c *HTTPCache) Get(ctx context.Context, i int) ([]byte, bool, error) {
	if err := c.checkIndex(i); err != nil {
		return nil, false, err
	}
	data, ok := c.connector.Get(ctx, strconv.Itoa(i))
	return data, ok, nil
}

// PutValue encodes v with the configured codec and stores it at index i.
func (c *HTTPCache) PutValue(ctx context.Context, i int, v any) (bool, error) {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return false, err
	}
	return c.Put(ctx, i, data)
}

// GetValue retrieves the entry at index i and decodes it into v. A decode
// failure is returned as an error; a stored entry that cannot be decoded is
// never silently treated as a miss.
func (c *HTTPCache) GetValue(ctx context.Context, i int, v any) (bool, error) {
	data, ok, err := c.Get(ctx, i)
	if err != nil || !ok {
		return false, err
	}
	if err := c.codec.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// MPut stores a batch of entries concurrently. indices and values must have
// equal length. The returned slice reports per-entry acceptance in input
// order; the only errors are length mismatch and out-of-range indices,
// which are checked up front before any request is issued.
func (c *HTTPCache) MPut(ctx context.Context, indices []int, values [][]byte) ([]bool, error) {
	if len(indices) != len(values) {
		return nil, fmt.Errorf("httpcache: mput: %d indices for %d values", len(indices), len(values))
	}
	for _, i := range indices {
		if err := c.checkIndex(i); err != nil {
			return nil, err
		}
	}

	ok := make([]bool, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	for n, i := range indices {
		g.Go(func() error {
			ok[n] = c.connector.Put(gctx, strconv.Itoa(i), values[n])
			return nil
		})
	}
	_ = g.Wait()

	return ok, nil
}

// MGet retrieves a batch of entries concurrently. Results come back in
// input order; absent entries have ok false and a nil value.
func (c *HTTPCache) MGet(ctx context.Context, indices []int) ([][]byte, []bool, error) {
	for _, i := range indices {
		if err := c.checkIndex(i); err != nil {
			return nil, nil, err
		}
	}

	values := make([][]byte, len(indices))
	ok := make([]bool, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	for n, i := range indices {
		g.Go(func() error {
			values[n], ok[n] = c.connector.Get(gctx, strconv.Itoa(i))
			return nil
		})
	}
	_ = g.Wait()

	return values, ok, nil
}

func (c *HTTPCache) checkIndex(i int) error {
	if i < 0 || i >= c.length {
		return &omnifs.OutOfRangeError{Index: i, Length: c.length}
	}
	return nil
}

type options struct {
	codec         codec.Codec
	connectorOpts []ConnectorOption
}

// Option configures an HTTPCache.
type Option func(*options)

// WithCodec sets the codec used by PutValue and GetValue. Defaults to gob.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithConnectorOptions forwards options to the underlying Connector.
func WithConnectorOptions(opts ...ConnectorOption) Option {
	return func(o *options) {
		o.connectorOpts = append(o.connectorOpts, opts...)
	}
}
