// Package rcache combines range algebra, a virtual LRU buffer, and an
// HTTP range reader into a random-access, bounded-memory file abstraction
// with a single active upstream connection, prefetch, and reconnect
// tolerance. It is the "cached filelike" of the specification.
package rcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/httpreader"
	"github.com/wkalt/streamcap/rangeset"
	"github.com/wkalt/streamcap/vbuffer"
)

// blockSize is the fixed block size used once the cache can't hold the
// whole file in a single block.
const blockSize = 100 * 1024 * 1024 // 100 MiB

// prefetchThreshold bounds how far the active connection may drift from a
// newly queued request before we decide it's cheaper to open a fresh one.
const prefetchThreshold = 5 * 1024 * 1024 // 5 MiB

// reconnectWindow is how close together two stream errors must land, absent
// a keep-reconnecting callback, before the cache gives up and fails every
// pending request.
const reconnectWindow = 100 * time.Millisecond

// Fetcher is the upstream this cache reads through — satisfied by
// *httpreader.Reader, or a fake in tests.
type Fetcher interface {
	Open(ctx context.Context) (httpreader.Info, error)
	Fetch(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// Info is the result of Open: the resource's size and an opaque identifier
// for change detection.
type Info = httpreader.Info

// KeepReconnectingFunc is invoked with true on the first transport error and
// false when data next arrives, letting the caller surface a "reconnecting"
// indicator instead of failing fast.
type KeepReconnectingFunc func(reconnecting bool)

// Option configures a CachedFile at construction.
type Option func(*config)

type config struct {
	keepReconnecting KeepReconnectingFunc
}

// WithKeepReconnecting installs a callback invoked on connection loss/
// recovery. When set, transport errors retry indefinitely instead of
// becoming fatal after two in quick succession.
func WithKeepReconnecting(f KeepReconnectingFunc) Option {
	return func(c *config) { c.keepReconnecting = f }
}

type request struct {
	rng  rangeset.Range
	done chan error
}

// fetch tracks one in-flight upstream connection.
type fetch struct {
	generation int64
	target     rangeset.Range
	cursor     int64 // next byte offset to write, advances as chunks arrive
	cancel     context.CancelFunc
}

// CachedFile is a random-access view over a remote resource, backed by a
// bounded in-memory cache and a single exclusive upstream connection.
type CachedFile struct {
	reader    Fetcher
	cacheSize int64
	cfg       config

	mtx            sync.Mutex
	buf            *vbuffer.Buffer
	fileSize       int64
	queue          []*request
	active         *fetch
	nextGen        int64
	lastResolved   *int64
	lastErrAt      time.Time
	closed         bool
	closeErr       error
}

// New constructs a CachedFile. Call Open before any Read.
func New(reader Fetcher, cacheSizeBytes int64, opts ...Option) *CachedFile {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CachedFile{reader: reader, cacheSize: cacheSizeBytes, cfg: cfg}
}

// Open fetches the resource's size and allocates the virtual buffer.
func (c *CachedFile) Open(ctx context.Context) (Info, error) {
	info, err := c.reader.Open(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open upstream: %w", err)
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.fileSize = info.Size

	var bufOpts []vbuffer.Option
	if c.cacheSize >= info.Size {
		bufOpts = append(bufOpts, vbuffer.WithBlockSize(max(info.Size, 1)))
	} else {
		numBlocks := (c.cacheSize+blockSize-1)/blockSize + 2
		bufOpts = append(bufOpts, vbuffer.WithBlockSize(blockSize), vbuffer.WithNumBlocks(numBlocks))
	}
	c.buf = vbuffer.New(info.Size, bufOpts...)
	return info, nil
}

// Read returns the byte range [offset, offset+length). It blocks until the
// range is resident, driving the connection scheduler as needed.
func (c *CachedFile) Read(ctx context.Context, offset, length int64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if length > c.cacheSize {
		return nil, streamcap.ErrRequestExceedsCache
	}
	if offset+length > c.fileSize {
		return nil, streamcap.ErrRangeExceedsFile
	}

	c.mtx.Lock()
	if c.closed {
		err := c.closeErr
		c.mtx.Unlock()
		return nil, err
	}
	req := &request{rng: rangeset.Range{Start: offset, End: offset + length}, done: make(chan error, 1)}
	c.queue = append(c.queue, req)
	c.schedule(ctx)
	c.mtx.Unlock()

	select {
	case err := <-req.done:
		if err != nil {
			return nil, err
		}
		c.mtx.Lock()
		data, sliceErr := c.buf.Slice(offset, offset+length)
		c.mtx.Unlock()
		if sliceErr != nil {
			return nil, fmt.Errorf("resolved request not actually resident: %w", sliceErr)
		}
		return data, nil
	case <-ctx.Done():
		c.mtx.Lock()
		c.removeFromQueue(req)
		c.mtx.Unlock()
		return nil, ctx.Err()
	}
}

func (c *CachedFile) removeFromQueue(req *request) {
	for i, r := range c.queue {
		if r == req {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// schedule resolves cache hits and decides whether to open a new upstream
// connection. Must be called with c.mtx held. It is rerun after every queue
// change and every chunk arrival, per the specification.
func (c *CachedFile) schedule(ctx context.Context) {
	c.resolveHits()

	oldest := c.oldestPending()
	switch {
	case oldest != nil:
		c.scheduleForPending(ctx, *oldest)
	case c.active == nil:
		c.scheduleReadAhead(ctx)
	}
}

func (c *CachedFile) resolveHits() {
	remaining := c.queue[:0]
	for _, req := range c.queue {
		if c.buf.HasData(req.rng.Start, req.rng.End) {
			end := req.rng.End
			c.lastResolved = &end
			req.done <- nil
			continue
		}
		remaining = append(remaining, req)
	}
	c.queue = remaining
}

func (c *CachedFile) oldestPending() *rangeset.Range {
	if len(c.queue) == 0 {
		return nil
	}
	r := c.queue[0].rng
	return &r
}

func (c *CachedFile) scheduleForPending(ctx context.Context, r rangeset.Range) {
	downloaded := c.buf.RangesWithData()
	missing := rangeset.Missing(r, downloaded)
	if len(missing) == 0 {
		// resolveHits should already have removed this request; nothing to do.
		return
	}
	first := missing[0]

	needsNewConn := c.active == nil ||
		!rangeset.Overlaps(rangeset.Range{Start: c.active.cursor, End: c.active.target.End}, first) ||
		c.active.cursor+prefetchThreshold < first.Start
	if !needsNewConn {
		return
	}

	var target rangeset.Range
	switch {
	case c.cacheSize >= c.fileSize:
		target = rangeset.Range{Start: first.Start, End: c.fileSize}
	case missing[len(missing)-1].End == r.End:
		target = rangeset.Range{Start: first.Start, End: min(r.Start+c.cacheSize, c.fileSize)}
	default:
		target = first
	}
	c.openConnection(ctx, target)
}

func (c *CachedFile) scheduleReadAhead(ctx context.Context) {
	var target rangeset.Range
	switch {
	case c.cacheSize >= c.fileSize:
		start := int64(0)
		if c.lastResolved != nil {
			start = *c.lastResolved
		}
		target = rangeset.Range{Start: start, End: c.fileSize}
		if rangeset.IsCovered(target, c.buf.RangesWithData()) {
			target = rangeset.Range{Start: 0, End: c.fileSize}
		}
	case c.lastResolved != nil:
		start := *c.lastResolved
		target = rangeset.Range{Start: start, End: min(start+c.cacheSize, c.fileSize)}
	default:
		return
	}
	if target.Len() <= 0 {
		return
	}
	c.openConnection(ctx, target)
}

func (c *CachedFile) openConnection(ctx context.Context, target rangeset.Range) {
	if c.active != nil {
		c.active.cancel()
		c.active = nil
	}
	downloaded := c.buf.RangesWithData()
	missing := rangeset.Missing(target, downloaded)
	if len(missing) == 0 {
		return
	}
	start := missing[0].Start

	fetchCtx, cancel := context.WithCancel(ctx)
	c.nextGen++
	gen := c.nextGen
	f := &fetch{generation: gen, target: target, cursor: start, cancel: cancel}
	c.active = f

	stream, err := c.reader.Fetch(fetchCtx, start, target.End-start)
	if err != nil {
		go c.reportError(gen, err)
		return
	}
	go c.pump(fetchCtx, gen, stream)
}

// pump copies chunks from stream into the buffer until the target range is
// covered or an error occurs. It runs on its own goroutine, re-entering the
// scheduler (under the mutex) on every chunk and at EOF/error.
func (c *CachedFile) pump(ctx context.Context, gen int64, stream io.ReadCloser) {
	buf := make([]byte, 256*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			c.mtx.Lock()
			if c.active == nil || c.active.generation != gen {
				// superseded; ignore this chunk per the identity check.
				c.mtx.Unlock()
				stream.Close() //nolint:errcheck
				return
			}
			if writeErr := c.buf.CopyFrom(buf[:n], c.active.cursor); writeErr != nil {
				c.mtx.Unlock()
				stream.Close() //nolint:errcheck
				c.reportError(gen, writeErr)
				return
			}
			c.active.cursor += int64(n)
			if c.cfg.keepReconnecting != nil {
				c.cfg.keepReconnecting(false)
			}
			done := c.active.cursor >= c.active.target.End
			if done {
				c.active = nil
			}
			c.schedule(ctx)
			c.mtx.Unlock()
			if done {
				stream.Close() //nolint:errcheck
				return
			}
		}
		if err != nil {
			stream.Close() //nolint:errcheck
			if errors.Is(err, io.EOF) {
				c.mtx.Lock()
				if c.active != nil && c.active.generation == gen {
					c.active = nil
					c.schedule(ctx)
				}
				c.mtx.Unlock()
				return
			}
			c.reportError(gen, err)
			return
		}
	}
}

func (c *CachedFile) reportError(gen int64, err error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.active == nil || c.active.generation != gen {
		return // superseded stream; ignore per identity check.
	}
	c.active = nil

	if c.cfg.keepReconnecting != nil {
		c.cfg.keepReconnecting(true)
		c.schedule(context.Background())
		return
	}

	now := time.Now()
	fatal := !c.lastErrAt.IsZero() && now.Sub(c.lastErrAt) < reconnectWindow
	c.lastErrAt = now
	if fatal {
		c.closed = true
		c.closeErr = err
		for _, req := range c.queue {
			req.done <- err
		}
		c.queue = nil
		return
	}
	c.schedule(context.Background())
}
