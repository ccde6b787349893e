// Package mmap provides memory-mapped, read-only access to chunk stream files.
package mmap

import (
	"bytes"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
)

// Reader reads a memory-mapped file sequentially. It implements io.Reader,
// io.ReaderAt, io.Seeker and io.Closer. Slices returned by Bytes are only
// valid until Close.
type Reader struct {
	file *os.File
	data []byte
	rd   *bytes.Reader

	mu     sync.Mutex
	closed bool
}

// Open maps filename into memory. An empty file yields a reader at EOF.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open file").
			WithDetail("path", filename)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to stat file").
			WithDetail("path", filename)
	}

	size := stat.Size()
	if size == 0 {
		file.Close()
		return &Reader{rd: bytes.NewReader(nil)}, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, errors.Newf(errors.ErrorTypeBounds, "file of %d bytes cannot be mapped", size).
			WithDetail("path", filename)
	}

	data, err := mmap(file, int(size))
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to mmap file").
			WithDetail("path", filename)
	}

	if err := adviseSequential(data); err != nil {
		logger.Debug("madvise failed", zap.String("path", filename), zap.Error(err))
	}

	return &Reader{file: file, data: data, rd: bytes.NewReader(data)}, nil
}

// Read reads from the current offset.
func (r *Reader) Read(p []byte) (int, error) { return r.rd.Read(p) }

// ReadAt reads at an absolute offset.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) { return r.rd.ReadAt(p, off) }

// Seek moves the offset of Read.
func (r *Reader) Seek(offset int64, whence int) (int64, error) { return r.rd.Seek(offset, whence) }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return r.rd.Len() }

// Size returns the mapped length.
func (r *Reader) Size() int64 { return int64(len(r.data)) }

// Bytes returns the whole mapping without copying.
func (r *Reader) Bytes() []byte { return r.data }

// Close unmaps the file and closes it. Closing twice is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = munmap(r.data)
		r.data = nil
	}
	r.rd = bytes.NewReader(nil)
	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to unmap file")
	}
	return nil
}

var _ io.ReadSeekCloser = (*Reader)(nil)
var _ io.ReaderAt = (*Reader)(nil)
