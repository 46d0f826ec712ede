package serialize

import "bytes"

// countingReader wraps a byte slice and reports how many bytes are still
// unread, so DecodeExact can detect trailing bytes after a fixed-size
// structure: any leftover byte is a protocol violation.
type countingReader struct {
	buf *bytes.Reader
}

func newCountingReader(b []byte) *countingReader {
	return &countingReader{buf: bytes.NewReader(b)}
}

func (c *countingReader) Read(p []byte) (int, error) {
	return c.buf.Read(p)
}

func (c *countingReader) remaining() int {
	return c.buf.Len()
}
