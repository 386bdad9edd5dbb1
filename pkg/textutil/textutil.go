// Package textutil holds byte-level helpers for source files: binary
// detection, BOM stripping, line counting and line extraction.
package textutil

import (
	"bytes"
	"strings"
)

// BinarySniffLength is the number of leading bytes scanned for a null
// byte, the heuristic Git and most editors use.
const BinarySniffLength = 8000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsBinary reports whether data holds a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// StripBOM drops a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// CountLines returns the number of lines in data. A last line without a
// trailing newline counts; empty data has no lines.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// Line returns the 1-based line n of src without its line terminator, or
// "" when src has fewer lines.
func Line(src string, n int) string {
	if n < 1 {
		return ""
	}

	for range n - 1 {
		i := strings.IndexByte(src, '\n')
		if i < 0 {
			return ""
		}

		src = src[i+1:]
	}

	if i := strings.IndexByte(src, '\n'); i >= 0 {
		src = src[:i]
	}

	return strings.TrimSuffix(src, "\r")
}
