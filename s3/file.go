package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// s3File is a read handle over a single object. ReadAt issues ranged
// requests; sequential Read tracks an offset on top of ReadAt.
type s3File struct {
	ctx  context.Context
	cl   objectClient
	key  string
	size int64
	pos  int64
}

func (f *s3File) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *s3File) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= f.size {
		return 0, io.EOF
	}
	if err := f.ctx.Err(); err != nil {
		return 0, err
	}

	end := off + int64(len(p)) - 1
	if end >= f.size {
		end = f.size - 1
	}

	body, err := f.cl.get(f.ctx, f.key, off, end-off+1)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		if off+int64(n) == f.size {
			return n, nil
		}
		return n, io.EOF
	}

	expected := end - off + 1
	if int64(n) == expected && int64(n) < int64(len(p)) {
		return n, io.EOF
	}

	return n, err
}

func (f *s3File) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.size + offset
	default:
		return 0, fmt.Errorf("s3: invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("s3: negative seek position %d", abs)
	}
	f.pos = abs
	return abs, nil
}

func (f *s3File) Close() error {
	return nil
}

// s3Writer streams writes into an upload that is finalized on Close.
type s3Writer struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func newS3Writer(ctx context.Context, cl objectClient, key string) *s3Writer {
	pr, pw := io.Pipe()
	w := &s3Writer{
		pw:   pw,
		done: make(chan error, 1),
	}

	// The upload runs in the background and consumes the pipe until the
	// writer is closed.
	go func() {
		err := cl.put(ctx, key, pr, -1)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
