// Package cursor wraps a streamcap.Iterator with the consumption patterns a
// playback frontend needs: single-item pulls, duration-batched pulls, and
// read-until-a-timestamp pulls with a one-item stash so a terminating item
// is never dropped between calls.
package cursor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wkalt/streamcap"
)

// Cursor is a stateful pull interface over a streamcap.Iterator.
type Cursor struct {
	it    streamcap.Iterator
	stash *streamcap.IteratorResult
	done  bool
	ended bool
}

// New wraps it in a Cursor.
func New(it streamcap.Iterator) *Cursor {
	return &Cursor{it: it}
}

// Next pulls one item, or io.EOF once the underlying iterator is exhausted.
// A cancelled context returns ctx.Err() rather than blocking.
func (c *Cursor) Next(ctx context.Context) (streamcap.IteratorResult, error) {
	if c.ended {
		return streamcap.IteratorResult{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return streamcap.IteratorResult{}, ctx.Err()
	default:
	}
	if c.stash != nil {
		item := *c.stash
		c.stash = nil
		return item, nil
	}
	if c.done {
		return streamcap.IteratorResult{}, io.EOF
	}
	item, err := c.it.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.done = true
		}
		return streamcap.IteratorResult{}, err
	}
	return item, nil
}

// NextBatch pulls the first item, then keeps appending items whose time
// does not strictly exceed the first item's time plus window, stopping
// early if a Problem is encountered (included) or the iterator ends.
func (c *Cursor) NextBatch(ctx context.Context, window time.Duration) ([]streamcap.IteratorResult, error) {
	first, err := c.Next(ctx)
	if err != nil {
		return nil, err
	}
	batch := []streamcap.IteratorResult{first}
	if first.Kind == streamcap.ResultProblem {
		return batch, nil
	}
	cutoff := first.Time().Add(int64(window))
	for {
		select {
		case <-ctx.Done():
			return batch, nil
		default:
		}
		item, err := c.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return batch, nil
			}
			return batch, err
		}
		if item.Kind == streamcap.ResultProblem {
			batch = append(batch, item)
			return batch, nil
		}
		if item.Time().After(cutoff) {
			c.stash = &item
			return batch, nil
		}
		batch = append(batch, item)
	}
}

// ReadUntil returns items whose timestamp is <= end for messages, or < end
// for stamps (a stamp exactly at end terminates the read without being
// included). An item beyond the bound is stashed for the next call, since
// the underlying iterator is single-pass and that item must not be lost.
func (c *Cursor) ReadUntil(ctx context.Context, end streamcap.Time) ([]streamcap.IteratorResult, error) {
	var out []streamcap.IteratorResult
	for {
		select {
		case <-ctx.Done():
			return out, nil
		default:
		}
		item, err := c.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("read until: %w", err)
		}
		switch item.Kind {
		case streamcap.ResultProblem:
			out = append(out, item)
		case streamcap.ResultStamp:
			if !item.Stamp.Before(end) {
				c.stash = &item
				return out, nil
			}
			out = append(out, item)
		default:
			if item.Time().After(end) {
				c.stash = &item
				return out, nil
			}
			out = append(out, item)
		}
	}
}

// End releases the underlying iterator, if it supports it, on a best-effort
// basis, and marks the cursor ended: every subsequent Next or NextBatch call
// returns io.EOF, and every subsequent ReadUntil call returns no items and a
// nil error, regardless of what the underlying iterator still has buffered.
func (c *Cursor) End() {
	c.ended = true
	c.stash = nil
	if closer, ok := c.it.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
