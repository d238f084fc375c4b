package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 wraps an inner codec and compresses its output with an lz4 frame.
//
// Useful when cache entries are large and the wire to the cache server is
// the bottleneck. Both sides of a shared cache URL must agree on the same
// inner codec.
type LZ4 struct {
	Inner Codec
}

// NewLZ4 returns an LZ4 codec wrapping inner. A nil inner uses Default.
func NewLZ4(inner Codec) LZ4 {
	if inner == nil {
		inner = Default
	}
	return LZ4{Inner: inner}
}

// Marshal encodes the value with the inner codec and compresses the result.
func (c LZ4) Marshal(v any) ([]byte, error) {
	raw, err := c.inner().Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decompresses the data and decodes it with the inner codec.
func (c LZ4) Unmarshal(data []byte, v any) error {
	zr := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	return c.inner().Unmarshal(raw, v)
}

// Name returns the codec name including the inner codec, e.g. "lz4+gob".
func (c LZ4) Name() string {
	return fmt.Sprintf("lz4+%s", c.inner().Name())
}

func (c LZ4) inner() Codec {
	if c.Inner == nil {
		return Default
	}
	return c.Inner
}
