package core

// streaming.go prepares byte streams for line-by-line import.
//
// Readers are wrapped in this order:
//  1. CountingReader tracks raw bytes read for logging
//  2. The declared character encoding is decoded to UTF-8 (golang.org/x/text)
//  3. A UTF-8 BOM is skipped (common in files saved by Windows programs)
//  4. Lines are split on "\r\n", "\n" or a lone "\r"
//
// Invalid UTF-8 left after decoding is replaced line by line.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefaultMaxLineLength is the longest line accepted when an Importer does
// not set MaxLineLength.
const DefaultMaxLineLength = 1 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader io.Reader
	n      int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (r *CountingReader) BytesRead() int64 { return r.n }

// decodeInput converts r from enc to UTF-8. A nil enc means the input is
// already UTF-8.
func decodeInput(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// skipBOM consumes a leading UTF-8 byte order mark, if present.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// ScanLines is a bufio.SplitFunc that ends lines at "\r\n", "\n" or a lone
// "\r". Unlike bufio.ScanLines, a final line terminator does not produce an
// extra empty line, and "\r" alone is a terminator.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r': it may be the first half of "\r\n"
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func newLineScanner(r io.Reader, maxLineLength int) *bufio.Scanner {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLineLength)), maxLineLength)
	sc.Split(ScanLines)
	return sc
}

// sanitizeLine replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeLine(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

// SplitLines splits text into lines with the same rules as ScanLines.
func SplitLines(text string) []string {
	var lines []string
	data := []byte(text)
	for len(data) > 0 {
		advance, token, _ := ScanLines(data, true)
		lines = append(lines, string(token))
		data = data[advance:]
	}
	return lines
}
