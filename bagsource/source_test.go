package bagsource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/bagsource"
)

func TestRejectsStreamDescriptor(t *testing.T) {
	src := bagsource.New(streamcap.Descriptor{Kind: streamcap.DescriptorStream})
	_, err := src.Initialize(context.Background())
	require.ErrorIs(t, err, streamcap.ErrUnsupportedInput)
}

func TestOperationsFailBeforeInitialize(t *testing.T) {
	src := bagsource.New(streamcap.Descriptor{Kind: streamcap.DescriptorStream})
	_, err := src.MessageIterator(context.Background(), streamcap.IteratorArgs{})
	require.ErrorIs(t, err, streamcap.ErrNotInitialized)

	_, err = src.Backfill(context.Background(), streamcap.BackfillArgs{})
	require.ErrorIs(t, err, streamcap.ErrNotInitialized)

	_, err = src.GetMessageCursor(context.Background(), streamcap.IteratorArgs{})
	require.ErrorIs(t, err, streamcap.ErrNotInitialized)
}
