// Package json writes the JSON reports of colframe with goccy/go-json.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/pool"
)

// Format selects how a stream of documents is laid out.
type Format string

const (
	// Array writes an indented JSON array.
	Array Format = "json"
	// Lines writes one compact document per line.
	Lines Format = "jsonl"
)

// ParseFormat returns the format named by s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case Array, Lines:
		return Format(s), nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown output format %q", s).
			WithDetail("supported", []string{string(Array), string(Lines)})
	}
}

var bufferPool = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

func getBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal encodes v without escaping HTML.
func Marshal(v interface{}) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode appends a newline
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// MarshalIndent is gojson.MarshalIndent.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal is gojson.Unmarshal.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// StreamWriter writes a sequence of documents in one Format. Each Encode
// writes its document to the underlying writer immediately.
type StreamWriter struct {
	w      io.Writer
	format Format
	count  int
	closed bool
}

// NewStreamWriter creates a writer of documents to w.
func NewStreamWriter(w io.Writer, format Format) *StreamWriter {
	return &StreamWriter{w: w, format: format}
}

// Encode writes one document.
func (s *StreamWriter) Encode(v interface{}) error {
	if s.closed {
		return errors.New(errors.ErrorTypeState, "stream writer is closed")
	}

	buf := getBuffer()
	defer putBuffer(buf)

	switch s.format {
	case Lines:
		data, err := Marshal(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode document")
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		data, err := gojson.MarshalIndent(v, "  ", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode document")
		}
		if s.count == 0 {
			buf.WriteString("[\n  ")
		} else {
			buf.WriteString(",\n  ")
		}
		buf.Write(data)
	}

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write document")
	}
	s.count++
	return nil
}

// Count returns the number of documents written.
func (s *StreamWriter) Count() int { return s.count }

// Close terminates the stream. An empty Array stream is written as [].
func (s *StreamWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.format == Lines {
		return nil
	}

	tail := "\n]\n"
	if s.count == 0 {
		tail = "[]\n"
	}
	if _, err := io.WriteString(s.w, tail); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write document")
	}
	return nil
}
