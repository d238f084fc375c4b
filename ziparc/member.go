package ziparc

import (
	"bytes"
	"io"
)

// memberFile is an archive member decompressed into memory. bytes.Reader
// supplies ReadAt and Seek, which compressed streams cannot.
type memberFile struct {
	*bytes.Reader
}

func newMemberFile(data []byte) *memberFile {
	return &memberFile{Reader: bytes.NewReader(data)}
}

func (f *memberFile) Close() error { return nil }

var _ io.ReaderAt = (*memberFile)(nil)
