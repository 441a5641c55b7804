package core

// streaming.go turns a picked file into import text.
//
// Files arrive from spreadsheets and editors with every kind of encoding
// artefact. Readers are chained so the whole file is never copied twice:
//
//   - a counting reader enforces the size cap
//   - BOM detection (x/text) strips UTF-8 BOMs and decodes UTF-16 exports
//   - StreamingUTF8Sanitizer replaces invalid UTF-8 sequences with '?'

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxImportBytes is the default size cap for an import file (5MB).
const DefaultMaxImportBytes int64 = 5 * 1024 * 1024

// ReadImportText reads an import file into a string, decoding BOM-marked
// UTF-16 and stripping UTF-8 BOMs. Files over maxBytes fail with
// ErrFileTooLarge; maxBytes <= 0 uses DefaultMaxImportBytes.
func ReadImportText(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImportBytes
	}

	counter := NewCountingReader(io.LimitReader(r, maxBytes+1), maxBytes)
	decoded := transform.NewReader(counter, unicode.BOMOverride(transform.Nop))
	sanitized := NewStreamingUTF8Sanitizer(decoded)

	data, err := io.ReadAll(sanitized)
	if err != nil {
		return "", fmt.Errorf("read import: %w", err)
	}
	if counter.BytesRead > maxBytes {
		return "", NewValidationError(ErrFileTooLarge, "file too large: exceeds %d bytes", maxBytes)
	}

	return string(data), nil
}

// StreamingUTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes
// with '?' on the fly. Multi-byte sequences split across reads are carried
// over to the next call.
type StreamingUTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewStreamingUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewStreamingUTF8Sanitizer(r io.Reader) *StreamingUTF8Sanitizer {
	return &StreamingUTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *StreamingUTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless atEOF, an incomplete trailing sequence is held back in pending.
func (s *StreamingUTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks bytes read, for size caps and progress.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	pct := int(r.BytesRead * 100 / r.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
