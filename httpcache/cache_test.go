package httpcache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/omnifs"
	"github.com/hupe1980/omnifs/codec"
)

// cacheServer is a map-backed remote implementing the PUT 201 / GET 200/404
// contract.
type cacheServer struct {
	mu       sync.Mutex
	entries  map[string][]byte
	requests atomic.Int64
	lastAuth atomic.Pointer[string]
}

func newCacheServer() *cacheServer {
	return &cacheServer{entries: make(map[string][]byte)}
}

func (s *cacheServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		auth := r.Header.Get("Authorization")
		s.lastAuth.Store(&auth)

		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			s.mu.Lock()
			s.entries[key] = body
			s.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			s.mu.Lock()
			body, ok := s.entries[key]
			s.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestCache(t *testing.T, length int, opts ...Option) (*HTTPCache, *cacheServer) {
	t.Helper()
	t.Setenv(EnvBearerTokenPath, "")
	srv := newCacheServer()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	cache, err := New(length, ts.URL, opts...)
	require.NoError(t, err)
	return cache, srv
}

func TestHTTPCache_New(t *testing.T) {
	t.Run("RejectsNonPositiveLength", func(t *testing.T) {
		for _, length := range []int{0, -1} {
			_, err := New(length, "http://localhost/cache")
			assert.Error(t, err)
		}
	})

	t.Run("Properties", func(t *testing.T) {
		cache, _ := newTestCache(t, 10)
		assert.Equal(t, 10, cache.Len())
		assert.True(t, cache.MultiprocessSafe())
		assert.True(t, cache.MultithreadSafe())
	})
}

func TestHTTPCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, 100)

	ok, err := cache.Put(ctx, 7, []byte("payload"))
	require.NoError(t, err)
	assert.True(t, ok)

	data, ok, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", string(data))

	t.Run("MissIsNotAnError", func(t *testing.T) {
		data, ok, err := cache.Get(ctx, 8)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, data)
	})

	t.Run("Overwrite", func(t *testing.T) {
		ok, err := cache.Put(ctx, 7, []byte("updated"))
		require.NoError(t, err)
		assert.True(t, ok)

		data, ok, err := cache.Get(ctx, 7)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "updated", string(data))
	})
}

func TestHTTPCache_OutOfRange(t *testing.T) {
	ctx := context.Background()
	cache, srv := newTestCache(t, 5)

	for _, i := range []int{-1, 5, 100} {
		_, err := cache.Put(ctx, i, []byte("x"))
		var oerr *omnifs.OutOfRangeError
		require.ErrorAs(t, err, &oerr, i)
		assert.Equal(t, i, oerr.Index)
		assert.Equal(t, 5, oerr.Length)

		_, _, err = cache.Get(ctx, i)
		assert.ErrorAs(t, err, &oerr, i)
	}

	// Range checks never reach the network.
	assert.Equal(t, int64(0), srv.requests.Load())
}

func TestHTTPCache_Values(t *testing.T) {
	ctx := context.Background()

	type sample struct {
		Name  string
		Score float64
	}

	t.Run("GobRoundTrip", func(t *testing.T) {
		cache, _ := newTestCache(t, 10)

		in := sample{Name: "a", Score: 0.5}
		ok, err := cache.PutValue(ctx, 1, in)
		require.NoError(t, err)
		require.True(t, ok)

		var out sample
		ok, err = cache.GetValue(ctx, 1, &out)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, in, out)
	})

	t.Run("JSONCodec", func(t *testing.T) {
		cache, srv := newTestCache(t, 10, WithCodec(codec.JSON{}))

		ok, err := cache.PutValue(ctx, 2, sample{Name: "b", Score: 1})
		require.NoError(t, err)
		require.True(t, ok)

		srv.mu.Lock()
		raw := string(srv.entries["2"])
		srv.mu.Unlock()
		assert.JSONEq(t, `{"Name":"b","Score":1}`, raw)
	})

	t.Run("DecodeFailureIsAnError", func(t *testing.T) {
		cache, _ := newTestCache(t, 10, WithCodec(codec.JSON{}))

		ok, err := cache.Put(ctx, 3, []byte("not json"))
		require.NoError(t, err)
		require.True(t, ok)

		var out sample
		_, err = cache.GetValue(ctx, 3, &out)
		assert.Error(t, err)
	})

	t.Run("AbsentValue", func(t *testing.T) {
		cache, _ := newTestCache(t, 10)

		var out sample
		ok, err := cache.GetValue(ctx, 4, &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHTTPCache_Batch(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, 100)

	indices := []int{1, 2, 3}
	values := [][]byte{[]byte("one"), []byte("two"), []byte("three")}

	ok, err := cache.MPut(ctx, indices, values)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, ok)

	got, hit, err := cache.MGet(ctx, []int{1, 3, 50})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, hit)
	assert.Equal(t, "one", string(got[0]))
	assert.Equal(t, "three", string(got[1]))
	assert.Nil(t, got[2])

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := cache.MPut(ctx, []int{1, 2}, [][]byte{[]byte("x")})
		assert.Error(t, err)
	})

	t.Run("OutOfRangeFailsWhole", func(t *testing.T) {
		_, err := cache.MPut(ctx, []int{1, 200}, [][]byte{[]byte("a"), []byte("b")})

		var oerr *omnifs.OutOfRangeError
		assert.ErrorAs(t, err, &oerr)
	})
}

func TestConnector_BearerToken(t *testing.T) {
	ctx := context.Background()
	srv := newCacheServer()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("secret-1"), 0o600))

	conn, err := NewConnector(ts.URL, WithTokenPath(tokenPath))
	require.NoError(t, err)

	require.True(t, conn.Put(ctx, "0", []byte("v")))
	require.NotNil(t, srv.lastAuth.Load())
	assert.Equal(t, "Bearer secret-1", *srv.lastAuth.Load())

	t.Run("RefreshAfterInterval", func(t *testing.T) {
		require.NoError(t, os.WriteFile(tokenPath, []byte("secret-2"), 0o600))

		// Inside the refresh window the cached token is reused.
		_, _ = conn.Get(ctx, "0")
		assert.Equal(t, "Bearer secret-1", *srv.lastAuth.Load())

		// Age the snapshot past the window instead of sleeping.
		old := conn.token.Load()
		conn.token.Store(&bearerToken{value: old.value, updated: time.Now().Add(-2 * time.Second)})

		_, _ = conn.Get(ctx, "0")
		assert.Equal(t, "Bearer secret-2", *srv.lastAuth.Load())
	})

	t.Run("MissingFileFailsConstruction", func(t *testing.T) {
		_, err := NewConnector(ts.URL, WithTokenPath(filepath.Join(t.TempDir(), "absent")))
		assert.Error(t, err)
	})
}

func TestConnector_NoToken(t *testing.T) {
	ctx := context.Background()
	t.Setenv(EnvBearerTokenPath, "")
	srv := newCacheServer()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	conn, err := NewConnector(ts.URL)
	require.NoError(t, err)

	require.True(t, conn.Put(ctx, "k", []byte("v")))
	assert.Equal(t, "", *srv.lastAuth.Load())
}

func TestConnector_UnexpectedStatus(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(ts.Close)

	t.Setenv(EnvBearerTokenPath, "")
	conn, err := NewConnector(ts.URL)
	require.NoError(t, err)

	assert.False(t, conn.Put(ctx, "k", []byte("v")))

	_, ok := conn.Get(ctx, "k")
	assert.False(t, ok)
}

func TestConnectionPool_RebuildAfterFork(t *testing.T) {
	pool := NewConnectionPool(DefaultRetries, DefaultTimeout)

	first := pool.ensure()
	assert.Same(t, first, pool.ensure())

	// Simulate a fork by faking the stored owner process.
	pool.mu.Lock()
	pool.pid = os.Getpid() + 1
	pool.mu.Unlock()

	second := pool.ensure()
	assert.NotSame(t, first, second)
	assert.Same(t, second, pool.ensure())
}

func TestSharedPool(t *testing.T) {
	assert.Same(t, SharedPool(), SharedPool())
}
