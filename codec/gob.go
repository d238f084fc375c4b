package codec

import (
	"bytes"
	"encoding/gob"
)

// Gob is a codec backed by encoding/gob.
//
// Gob streams are self-describing and round-trip arbitrary Go values,
// including types JSON flattens (e.g. int vs float distinctions). Entries
// are only readable by Go programs.
type Gob struct{}

// Marshal encodes the value as a gob stream.
func (Gob) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the gob data into v.
func (Gob) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Name returns the unique name of the codec ("gob").
func (Gob) Name() string { return "gob" }
