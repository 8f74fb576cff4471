package bodycache

import (
	"bytes"
	"io"
	"sync/atomic"
)

// Buffer is an owned in-memory copy of a request body.
type Buffer struct {
	data      []byte
	released  atomic.Bool
	onRelease func(size int)
}

// NewBuffer wraps data. onRelease, when not nil, is called once by the
// first Release.
func NewBuffer(data []byte, onRelease func(size int)) *Buffer {
	return &Buffer{data: data, onRelease: onRelease}
}

// Bytes returns the buffered body, or nil once the buffer is released.
// Callers must not modify the returned slice.
func (b *Buffer) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.data
}

// Len returns the size of the buffered body.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Release frees the buffer. It reports whether this call released it;
// releasing an already released buffer is a no-op.
func (b *Buffer) Release() bool {
	if !b.released.CompareAndSwap(false, true) {
		return false
	}
	if b.onRelease != nil {
		b.onRelease(len(b.data))
	}
	return true
}

// Released reports whether the buffer has been released.
func (b *Buffer) Released() bool {
	return b.released.Load()
}

// replayBody reads a buffer and releases it when closed, so whoever
// consumes the decorated request owns the buffer.
type replayBody struct {
	*bytes.Reader
	buf *Buffer
}

func newReplayBody(buf *Buffer) *replayBody {
	return &replayBody{Reader: bytes.NewReader(buf.data), buf: buf}
}

// Close releases the underlying buffer.
func (r *replayBody) Close() error {
	r.buf.Release()
	return nil
}

// getBody returns replay readers for redirects and retries. They share
// the bytes but not ownership.
func (b *Buffer) getBody() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
