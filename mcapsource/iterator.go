package mcapsource

import (
	"context"
	"io"

	"github.com/wkalt/streamcap"
)

// sliceIterator yields a precomputed, already-ordered slice of message
// events as streamcap.IteratorResults.
type sliceIterator struct {
	events []streamcap.MessageEvent
	pos    int
}

func (it *sliceIterator) Next(ctx context.Context) (streamcap.IteratorResult, error) {
	if err := ctx.Err(); err != nil {
		return streamcap.IteratorResult{}, err
	}
	if it.pos >= len(it.events) {
		return streamcap.IteratorResult{}, io.EOF
	}
	event := it.events[it.pos]
	it.pos++
	return streamcap.IteratorResult{Kind: streamcap.ResultMessage, Event: event}, nil
}
