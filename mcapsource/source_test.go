package mcapsource_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/stretchr/testify/require"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/mcap"
	"github.com/wkalt/streamcap/mcapsource"
)

func cdrInt32(v int32) []byte {
	data := []byte{0x00, 0x01, 0x00, 0x00} // little-endian CDR header
	u := uint32(v)                         //nolint:gosec
	return append(data, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

func buildMCAP(t *testing.T, messages []fmcap.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := mcap.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&fmcap.Header{Profile: "ros2"}))
	require.NoError(t, w.WriteSchema(&fmcap.Schema{
		ID: 1, Name: "test/Test", Encoding: "ros2msg", Data: []byte("int32 x\n"),
	}))
	require.NoError(t, w.WriteChannel(&fmcap.Channel{
		ID: 0, SchemaID: 1, Topic: "/foo", MessageEncoding: "cdr",
		Metadata: map[string]string{"callerid": "node1"},
	}))
	for _, m := range messages {
		msg := m
		require.NoError(t, w.WriteMessage(&msg))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestInitializeCapturesTopicsAndBounds(t *testing.T) {
	data := buildMCAP(t, []fmcap.Message{
		{ChannelID: 0, LogTime: 1_000_000_000, PublishTime: 1_000_000_000, Data: cdrInt32(1)},
		{ChannelID: 0, LogTime: 3_000_000_000, PublishTime: 3_000_000_000, Data: cdrInt32(3)},
		{ChannelID: 0, LogTime: 2_000_000_000, PublishTime: 2_000_000_000, Data: cdrInt32(2)},
	})
	src := mcapsource.NewUnindexedSource(bytes.NewReader(data))
	init, err := src.Initialize(context.Background())
	require.NoError(t, err)

	require.Equal(t, "ros2", init.Profile)
	require.Equal(t, streamcap.Time{Sec: 1}, init.Start)
	require.Equal(t, streamcap.Time{Sec: 3}, init.End)
	require.Len(t, init.Topics, 1)
	require.Equal(t, "/foo", init.Topics[0].Name)
	require.Equal(t, "test/Test", init.Topics[0].SchemaName)
	require.Contains(t, init.Datatypes, "test/Test")
	require.Equal(t, map[string]struct{}{"node1": {}}, init.PublishersByTopic["/foo"])
	require.Equal(t, uint64(3), init.TopicStats["/foo"].NumMessages)
}

func TestMessageIteratorYieldsInReceiveTimeOrder(t *testing.T) {
	data := buildMCAP(t, []fmcap.Message{
		{ChannelID: 0, LogTime: 2_000_000_000, Data: cdrInt32(2)},
		{ChannelID: 0, LogTime: 1_000_000_000, Data: cdrInt32(1)},
	})
	src := mcapsource.NewUnindexedSource(bytes.NewReader(data))
	_, err := src.Initialize(context.Background())
	require.NoError(t, err)

	it, err := src.MessageIterator(context.Background(), streamcap.IteratorArgs{Topics: []string{"/foo"}})
	require.NoError(t, err)

	first, err := it.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, streamcap.Time{Sec: 1}, first.Event.ReceiveTime)
	require.Equal(t, map[string]any{"x": int32(1)}, first.Event.Message)

	second, err := it.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, streamcap.Time{Sec: 2}, second.Event.ReceiveTime)
}

func TestMessageIteratorEmptyTopicsYieldsNothing(t *testing.T) {
	data := buildMCAP(t, []fmcap.Message{{ChannelID: 0, LogTime: 1, Data: cdrInt32(1)}})
	src := mcapsource.NewUnindexedSource(bytes.NewReader(data))
	_, err := src.Initialize(context.Background())
	require.NoError(t, err)

	it, err := src.MessageIterator(context.Background(), streamcap.IteratorArgs{})
	require.NoError(t, err)
	_, err = it.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestBackfillReturnsLastEventAtOrBeforeTime(t *testing.T) {
	data := buildMCAP(t, []fmcap.Message{
		{ChannelID: 0, LogTime: 1_000_000_000, Data: cdrInt32(1)},
		{ChannelID: 0, LogTime: 2_000_000_000, Data: cdrInt32(2)},
		{ChannelID: 0, LogTime: 4_000_000_000, Data: cdrInt32(4)},
	})
	src := mcapsource.NewUnindexedSource(bytes.NewReader(data))
	_, err := src.Initialize(context.Background())
	require.NoError(t, err)

	events, err := src.Backfill(context.Background(), streamcap.BackfillArgs{
		Topics: []string{"/foo"}, Time: streamcap.Time{Sec: 3},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, streamcap.Time{Sec: 2}, events[0].ReceiveTime)
}

func TestFaultyChannelSkipsMessagesWithoutFailingInitialize(t *testing.T) {
	var buf bytes.Buffer
	w, err := mcap.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&fmcap.Header{}))
	require.NoError(t, w.WriteSchema(&fmcap.Schema{
		ID: 1, Name: "test/Test", Encoding: "unknownidl", Data: []byte("garbage"),
	}))
	require.NoError(t, w.WriteChannel(&fmcap.Channel{ID: 0, SchemaID: 1, Topic: "/bad", MessageEncoding: "cdr"}))
	require.NoError(t, w.WriteMessage(&fmcap.Message{ChannelID: 0, LogTime: 1, Data: []byte("x")}))
	require.NoError(t, w.Close())

	src := mcapsource.NewUnindexedSource(bytes.NewReader(buf.Bytes()))
	init, err := src.Initialize(context.Background())
	require.NoError(t, err)
	require.Equal(t, streamcap.Time{}, init.Start)
	require.Equal(t, streamcap.Time{}, init.End)
}

func TestDuplicateSchemaMismatchFailsInitialize(t *testing.T) {
	var buf bytes.Buffer
	w, err := mcap.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&fmcap.Header{}))
	require.NoError(t, w.WriteSchema(&fmcap.Schema{ID: 1, Name: "a", Encoding: "ros2msg", Data: []byte("int32 x")}))
	require.NoError(t, w.WriteSchema(&fmcap.Schema{ID: 1, Name: "a", Encoding: "ros2msg", Data: []byte("int32 y")}))
	require.NoError(t, w.Close())

	src := mcapsource.NewUnindexedSource(bytes.NewReader(buf.Bytes()))
	_, err = src.Initialize(context.Background())
	require.ErrorIs(t, err, streamcap.DuplicateSchemaMismatchError{})
}

func TestFileTooLargeRejected(t *testing.T) {
	data := buildMCAP(t, []fmcap.Message{{ChannelID: 0, LogTime: 1, Data: cdrInt32(1)}})
	src := mcapsource.NewUnindexedSource(bytes.NewReader(data), mcapsource.WithMaxBytes(4))
	_, err := src.Initialize(context.Background())
	require.ErrorIs(t, err, streamcap.ErrFileTooLarge)
}
