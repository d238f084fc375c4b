// Package codec centralizes value encoding for the cache layer.
//
// The HTTP cache treats values as opaque bytes; when automatic encoding is
// enabled, the configured Codec turns arbitrary values into bytes on put and
// back on get. Cache entries written with one codec cannot be decoded by
// another, so the codec choice is a compatibility boundary between writers
// and readers sharing a cache URL.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "gob":
		return Gob{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when automatic encoding is requested without an
// explicit choice. Gob is self-describing and handles arbitrary Go values.
var Default Codec = Gob{}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
