package mcapsource

import (
	"errors"
	"io"
)

// errLimitExceeded is returned by limitedReader once more than limit bytes
// have been read, signaling the caller to reject the stream as too large.
var errLimitExceeded = errors.New("mcapsource: stream exceeds the in-memory size limit")

// limitedReader wraps r, failing once more than limit bytes have passed
// through it. Unlike io.LimitReader, which silently truncates at the limit,
// this is used to detect and reject oversized streams outright.
type limitedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.read > l.limit {
		return 0, errLimitExceeded
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return n, errLimitExceeded
	}
	return n, err
}
