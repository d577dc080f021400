// Package worker implements the worker-isolation boundary: a Source runs
// on a single goroutine, and every call crosses to it as a closure over a
// command channel, so the Source's internal state is never touched from
// more than one goroutine at a time. This is the idiomatic Go rendering
// of the spec's browser-worker boundary, grounded on the teacher's
// single-goroutine-owns-resource discipline (wal) and its errgroup-backed
// coordinated shutdown (treemgr.go's loadIterators).
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/cursor"
)

// Source is the method set a Host hosts and proxies calls to. mcapsource's
// Facade and bagsource's Source both satisfy it structurally, with no
// import of this package required on their side.
type Source interface {
	Initialize(ctx context.Context) (streamcap.Initialization, error)
	MessageIterator(ctx context.Context, args streamcap.IteratorArgs) (streamcap.Iterator, error)
	Backfill(ctx context.Context, args streamcap.BackfillArgs) ([]streamcap.MessageEvent, error)
	GetMessageCursor(ctx context.Context, args streamcap.IteratorArgs) (*cursor.Cursor, error)
	Terminate(ctx context.Context) error
}

// Host owns a Source on a dedicated goroutine. Callers use it exactly like
// a Source; every method blocks until the hosting goroutine has run the
// call (or the caller's ctx is done first).
type Host struct {
	src    Source
	cmds   chan func()
	g      *errgroup.Group
	cancel context.CancelFunc
}

// NewHost starts the hosting goroutine and returns immediately. src is not
// touched until the first call proxied through the returned Host.
func NewHost(src Source) *Host {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	h := &Host{src: src, cmds: make(chan func()), g: g, cancel: cancel}
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-h.cmds:
				cmd()
			}
		}
	})
	return h
}

// submit hands fn to the hosting goroutine, failing fast if ctx is done
// before the hosting goroutine picks it up.
func (h *Host) submit(ctx context.Context, fn func()) error {
	select {
	case h.cmds <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) Initialize(ctx context.Context) (streamcap.Initialization, error) {
	var init streamcap.Initialization
	var err error
	done := make(chan struct{})
	if submitErr := h.submit(ctx, func() {
		init, err = h.src.Initialize(ctx)
		close(done)
	}); submitErr != nil {
		return streamcap.Initialization{}, submitErr
	}
	select {
	case <-done:
		return init, err
	case <-ctx.Done():
		return streamcap.Initialization{}, ctx.Err()
	}
}

func (h *Host) MessageIterator(ctx context.Context, args streamcap.IteratorArgs) (streamcap.Iterator, error) {
	var it streamcap.Iterator
	var err error
	done := make(chan struct{})
	if submitErr := h.submit(ctx, func() {
		it, err = h.src.MessageIterator(ctx, args)
		close(done)
	}); submitErr != nil {
		return nil, submitErr
	}
	select {
	case <-done:
		return it, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Host) Backfill(ctx context.Context, args streamcap.BackfillArgs) ([]streamcap.MessageEvent, error) {
	var events []streamcap.MessageEvent
	var err error
	done := make(chan struct{})
	if submitErr := h.submit(ctx, func() {
		events, err = h.src.Backfill(ctx, args)
		close(done)
	}); submitErr != nil {
		return nil, submitErr
	}
	select {
	case <-done:
		return events, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Host) GetMessageCursor(ctx context.Context, args streamcap.IteratorArgs) (*cursor.Cursor, error) {
	var c *cursor.Cursor
	var err error
	done := make(chan struct{})
	if submitErr := h.submit(ctx, func() {
		c, err = h.src.GetMessageCursor(ctx, args)
		close(done)
	}); submitErr != nil {
		return nil, submitErr
	}
	select {
	case <-done:
		return c, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Terminate proxies Terminate to the hosted Source, then tears down the
// hosting goroutine. It always tears the goroutine down, even if the
// in-flight Terminate call itself times out.
func (h *Host) Terminate(ctx context.Context) error {
	var err error
	done := make(chan struct{})
	submitErr := h.submit(ctx, func() {
		err = h.src.Terminate(ctx)
		close(done)
	})
	if submitErr != nil {
		h.cancel()
		_ = h.g.Wait()
		return submitErr
	}
	select {
	case <-done:
	case <-ctx.Done():
		h.cancel()
		_ = h.g.Wait()
		return ctx.Err()
	}
	h.cancel()
	if waitErr := h.g.Wait(); waitErr != nil {
		return waitErr
	}
	return err
}
