// Package bagsource implements the ROS1 bag container source: a
// sequential, size-capped reader over github.com/foxglove/go-rosbag's
// low-level record stream, serving the same streamcap.Source contract as
// mcapsource.
package bagsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/foxglove/go-rosbag"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/cursor"
	"github.com/wkalt/streamcap/httpreader"
	"github.com/wkalt/streamcap/memsize"
	"github.com/wkalt/streamcap/util/log"
)

// chunkSpan is one chunk's observed [start, end] receive-time range, used
// only for the advisory overlap warning computed at Initialize.
type chunkSpan struct {
	start streamcap.Time
	end   streamcap.Time
}

// Source reads an entire ROS1 bag sequentially, keeping decoded messages
// in memory for the source's lifetime. It dispatches its own Descriptor,
// the way mcapsource.Facade dispatches for MCAP, since a bag has no
// separate indexed/unindexed distinction to stub.
type Source struct {
	desc streamcap.Descriptor
	cfg  config
	memo *memsize.PerTopicCache

	initialized bool

	connections map[uint32]*resolvedConnection
	eventsByTopic     map[string][]streamcap.MessageEvent
	start             streamcap.Time
	end               streamcap.Time
	sawMessage        bool
	datatypes         map[string]streamcap.DatatypeFields
	publishersByTopic map[string]map[string]struct{}
	topicStats        map[string]streamcap.TopicStats

	decompressedBytes int64
	chunkSpans        []chunkSpan
	activeChunk        *chunkSpan
}

// New wraps desc, an as-yet-unopened bag input. No I/O happens until
// Initialize.
func New(desc streamcap.Descriptor, opts ...Option) *Source {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Source{desc: desc, cfg: cfg, memo: memsize.NewPerTopicCache()}
}

// Initialize dispatches desc by kind, same as mcapsource.Facade, then
// reads the whole bag once, indexing connections and messages in memory.
// Stream input is explicitly unsupported.
func (s *Source) Initialize(ctx context.Context) (streamcap.Initialization, error) {
	if s.initialized {
		return streamcap.Initialization{}, streamcap.ErrAlreadyInitialized
	}

	var r io.Reader
	switch s.desc.Kind {
	case streamcap.DescriptorFile:
		probe := make([]byte, 1)
		if _, err := s.desc.File.ReadAt(probe, 0); err != nil {
			return streamcap.Initialization{}, fmt.Errorf("probing file readability: %w", err)
		}
		r = io.NewSectionReader(s.desc.File, 0, s.desc.Size)
	case streamcap.DescriptorURL:
		hr := httpreader.New(s.desc.URL)
		info, err := hr.Open(ctx)
		if err != nil {
			return streamcap.Initialization{}, fmt.Errorf("opening %s: %w", s.desc.URL, err)
		}
		body, err := hr.Fetch(ctx, 0, info.Size)
		if err != nil {
			return streamcap.Initialization{}, fmt.Errorf("fetching %s: %w", s.desc.URL, err)
		}
		defer body.Close()
		r = body
	default:
		return streamcap.Initialization{}, streamcap.ErrUnsupportedInput
	}

	s.connections = make(map[uint32]*resolvedConnection)
	s.eventsByTopic = make(map[string][]streamcap.MessageEvent)
	s.datatypes = make(map[string]streamcap.DatatypeFields)
	s.publishersByTopic = make(map[string]map[string]struct{})
	s.topicStats = make(map[string]streamcap.TopicStats)

	lexer, err := rosbag.NewLexer(&limitedReader{r: r, limit: s.cfg.maxBytes})
	if err != nil {
		return streamcap.Initialization{}, fmt.Errorf("failed to construct bag lexer: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return streamcap.Initialization{}, err
		}
		tokenType, data, err := lexer.Next(nil)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, errLimitExceeded) {
				return streamcap.Initialization{}, streamcap.ErrFileTooLarge
			}
			return streamcap.Initialization{}, fmt.Errorf("failed to read bag record: %w", err)
		}
		if err := s.handleToken(tokenType, data); err != nil {
			return streamcap.Initialization{}, err
		}
	}

	s.initialized = true
	if !s.sawMessage {
		s.start = streamcap.Time{}
		s.end = streamcap.Time{}
	}
	s.warnOnChunkOverlap()

	return streamcap.Initialization{
		Start:             s.start,
		End:               s.end,
		Topics:            s.topics(),
		Datatypes:         s.datatypes,
		PublishersByTopic: s.publishersByTopic,
		TopicStats:        s.topicStats,
	}, nil
}

func (s *Source) handleToken(tokenType rosbag.TokenType, data []byte) error {
	switch tokenType {
	case rosbag.TokenConnection:
		conn, err := rosbag.ParseConnection(data)
		if err != nil {
			return fmt.Errorf("failed to parse connection: %w", err)
		}
		s.insertConnection(*conn)
	case rosbag.TokenMessageData:
		msg, err := rosbag.ParseMessageData(data)
		if err != nil {
			return fmt.Errorf("failed to parse message data: %w", err)
		}
		s.recordMessage(*msg)
	case rosbag.TokenChunk:
		return s.handleChunk(data)
	}
	return nil
}

// handleChunk decompresses a chunk and walks its contained Connection and
// MessageData records through the same dispatch used at the top level,
// tracking the chunk's own [start, end] span for the overlap warning.
func (s *Source) handleChunk(data []byte) error {
	chunk, err := rosbag.ParseChunk(data)
	if err != nil {
		return fmt.Errorf("failed to parse chunk: %w", err)
	}
	decompressed, err := decompressChunk(chunk.Compression, chunk.Data)
	if err != nil {
		log.Warnf(context.Background(), "chunk with compression %q failed to decompress, skipping: %v",
			chunk.Compression, err)
		return nil
	}
	s.decompressedBytes += int64(len(decompressed))
	if s.decompressedBytes > s.cfg.maxBytes {
		return streamcap.ErrFileTooLarge
	}

	inner, err := rosbag.NewLexer(bytes.NewReader(decompressed))
	if err != nil {
		return fmt.Errorf("failed to construct lexer over decompressed chunk: %w", err)
	}
	span := &chunkSpan{}
	s.activeChunk = span
	defer func() { s.activeChunk = nil }()
	sawAny := false
	for {
		tokenType, tdata, err := inner.Next(nil)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read record from decompressed chunk: %w", err)
		}
		if tokenType == rosbag.TokenMessageData {
			sawAny = true
		}
		if err := s.handleToken(tokenType, tdata); err != nil {
			return err
		}
	}
	if sawAny {
		s.chunkSpans = append(s.chunkSpans, *span)
	}
	return nil
}

func (s *Source) insertConnection(conn rosbag.Connection) {
	if existing, ok := s.connections[conn.Conn]; ok {
		if connectionMismatch(existing.conn, conn) {
			log.Warnf(context.Background(), "connection %d redefined with different content, keeping the first", conn.Conn)
		}
		return
	}
	rc := parseConnection(conn)
	if rc.faulty {
		log.Warnf(context.Background(), "connection %d (%s) failed to parse its message definition, skipping its messages",
			conn.Conn, conn.Data.Topic)
	} else {
		for name, fields := range rc.parsed.Datatypes {
			s.datatypes[name] = fields
		}
	}
	s.connections[conn.Conn] = rc

	publishers, ok := s.publishersByTopic[conn.Data.Topic]
	if !ok {
		publishers = make(map[string]struct{})
		s.publishersByTopic[conn.Data.Topic] = publishers
	}
	if conn.Data.CallerID != "" {
		publishers[conn.Data.CallerID] = struct{}{}
	}
}

// recordMessage clones msg.Data before deserializing it: the lexer may
// reuse its read buffer across calls, so the bytes backing msg.Data are
// only guaranteed valid until the next Next call.
func (s *Source) recordMessage(msg rosbag.MessageData) {
	rc, ok := s.connections[msg.Conn]
	if !ok {
		log.Warnf(context.Background(), "message references undefined connection %d, skipping", msg.Conn)
		return
	}
	if rc.faulty {
		return
	}

	cloned := make([]byte, len(msg.Data))
	copy(cloned, msg.Data)

	receiveTime := streamcap.FromNanos(msg.Time)

	var decoded any
	if rc.parsed != nil {
		v, err := rc.parsed.Deserialize(cloned)
		if err != nil {
			log.Warnf(context.Background(), "failed to deserialize message on topic %q: %v", rc.topic, err)
			return
		}
		decoded = v
	}

	estimate, err := s.memo.Estimate(rc.topic, decoded)
	if err != nil {
		estimate = 0
	}
	size := uint32(len(cloned)) //nolint:gosec
	if estimate > size {
		size = estimate
	}

	event := streamcap.MessageEvent{
		Topic:       rc.topic,
		SchemaName:  rc.schemaName,
		ReceiveTime: receiveTime,
		Message:     decoded,
		SizeInBytes: size,
	}
	s.eventsByTopic[rc.topic] = append(s.eventsByTopic[rc.topic], event)

	if !s.sawMessage || receiveTime.Before(s.start) {
		s.start = receiveTime
	}
	if !s.sawMessage || receiveTime.After(s.end) {
		s.end = receiveTime
	}
	s.sawMessage = true

	if s.activeChunk != nil {
		if s.activeChunk.start == (streamcap.Time{}) || receiveTime.Before(s.activeChunk.start) {
			s.activeChunk.start = receiveTime
		}
		if receiveTime.After(s.activeChunk.end) {
			s.activeChunk.end = receiveTime
		}
	}

	stats := s.topicStats[rc.topic]
	stats.NumMessages++
	if stats.First == nil || receiveTime.Before(*stats.First) {
		t := receiveTime
		stats.First = &t
	}
	if stats.Last == nil || receiveTime.After(*stats.Last) {
		t := receiveTime
		stats.Last = &t
	}
	s.topicStats[rc.topic] = stats
}

// warnOnChunkOverlap implements spec's advisory check: sort chunks by
// start time, count how many start before the running maximum end seen so
// far, and warn if that count exceeds a quarter of the chunk count. It is
// purely informational; Initialize never fails because of it.
func (s *Source) warnOnChunkOverlap() {
	n := len(s.chunkSpans)
	if n == 0 {
		return
	}
	overlaps := countOverlaps(s.chunkSpans)
	if float64(overlaps) > 0.25*float64(n) {
		log.Warnf(context.Background(), "bag has %d overlapping chunks out of %d total, timeline may not be strictly ordered",
			overlaps, n)
	}
}

// countOverlaps sorts spans by start time and counts how many start before
// the running maximum end seen so far.
func countOverlaps(spans []chunkSpan) int {
	sorted := make([]chunkSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	var maxEnd streamcap.Time
	overlaps := 0
	for i, sp := range sorted {
		if i > 0 && sp.start.Before(maxEnd) {
			overlaps++
		}
		if sp.end.After(maxEnd) {
			maxEnd = sp.end
		}
	}
	return overlaps
}

func (s *Source) topics() []streamcap.Topic {
	seen := make(map[string]bool)
	var out []streamcap.Topic
	for _, rc := range s.connections {
		if seen[rc.topic] {
			continue
		}
		seen[rc.topic] = true
		out = append(out, streamcap.Topic{Name: rc.topic, SchemaName: rc.schemaName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MessageIterator returns an in-memory iterator over stored events matching
// args.Topics and the inclusive [args.Start, args.End] range. An empty
// Topics list yields nothing.
func (s *Source) MessageIterator(_ context.Context, args streamcap.IteratorArgs) (streamcap.Iterator, error) {
	if !s.initialized {
		return nil, streamcap.ErrNotInitialized
	}
	if len(args.Topics) == 0 {
		return &sliceIterator{}, nil
	}
	events := s.selectEvents(args.Topics, args.Start, args.End)
	sort.SliceStable(events, func(i, j int) bool {
		if args.Reverse {
			return events[i].ReceiveTime.After(events[j].ReceiveTime)
		}
		return events[i].ReceiveTime.Before(events[j].ReceiveTime)
	})
	return &sliceIterator{events: events}, nil
}

// GetMessageCursor is MessageIterator wrapped in a cursor.Cursor.
func (s *Source) GetMessageCursor(ctx context.Context, args streamcap.IteratorArgs) (*cursor.Cursor, error) {
	it, err := s.MessageIterator(ctx, args)
	if err != nil {
		return nil, err
	}
	return cursor.New(it), nil
}

// Backfill returns, per requested topic independently, the last event at
// or before args.Time, collected and sorted by receive time. Per-topic
// isolation avoids scanning unrelated traffic.
func (s *Source) Backfill(_ context.Context, args streamcap.BackfillArgs) ([]streamcap.MessageEvent, error) {
	if !s.initialized {
		return nil, streamcap.ErrNotInitialized
	}
	var out []streamcap.MessageEvent
	for _, topic := range args.Topics {
		events := s.eventsByTopic[topic]
		for i := len(events) - 1; i >= 0; i-- {
			if !events[i].ReceiveTime.After(args.Time) {
				out = append(out, events[i])
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiveTime.Before(out[j].ReceiveTime) })
	return out, nil
}

// Terminate releases the source. Source holds no external resources
// beyond what Initialize already closed, so this is a no-op beyond
// satisfying the Source contract.
func (s *Source) Terminate(context.Context) error {
	return nil
}

func (s *Source) selectEvents(topics []string, start, end *streamcap.Time) []streamcap.MessageEvent {
	var out []streamcap.MessageEvent
	for _, topic := range topics {
		for _, event := range s.eventsByTopic[topic] {
			if start != nil && event.ReceiveTime.Before(*start) {
				continue
			}
			if end != nil && event.ReceiveTime.After(*end) {
				continue
			}
			out = append(out, event)
		}
	}
	return out
}
