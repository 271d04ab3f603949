package indexer

import (
	"io"
	"os"
	"unicode/utf8"
)

// binarySniffSize is how much of a file IsBinaryFile inspects.
const binarySniffSize = 1024

// IsBinaryFile reports whether a file looks binary: its first 1024 bytes hold
// a NUL byte or are not valid UTF-8.
func IsBinaryFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buf := make([]byte, binarySniffSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}

	return isBinaryContent(buf[:n], n == binarySniffSize), nil
}

// isBinaryContent classifies a sniffed prefix. When truncated is set, a
// multi-byte sequence cut at the end of the buffer is not held against it.
func isBinaryContent(buf []byte, truncated bool) bool {
	for _, b := range buf {
		if b == 0 {
			return true
		}
	}
	if truncated {
		buf = trimPartialRune(buf)
	}
	return !utf8.Valid(buf)
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of buf.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(buf); i++ {
		start := len(buf) - i
		if !utf8.RuneStart(buf[start]) {
			continue
		}
		if !utf8.FullRune(buf[start:]) {
			return buf[:start]
		}
		return buf
	}
	return buf
}
