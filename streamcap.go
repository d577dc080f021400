// Package streamcap implements a streaming ingestion engine for robotics log
// files (ROS1 bag and MCAP containers). It exposes a uniform, time-ordered,
// topic-filtered view of message events regardless of the underlying
// container format or transport.
package streamcap

import (
	"cmp"
	"context"
	"fmt"
	"io"
)

// Time is a wall-clock or log timestamp with nanosecond resolution.
type Time struct {
	Sec  int64
	Nsec uint32
}

// FromNanos builds a Time from a nanosecond count since the epoch.
func FromNanos(nanos uint64) Time {
	return Time{Sec: int64(nanos / 1e9), Nsec: uint32(nanos % 1e9)} //nolint:gosec
}

// Nanos returns t expressed as nanoseconds since the epoch.
func (t Time) Nanos() uint64 {
	return uint64(t.Sec)*1e9 + uint64(t.Nsec) //nolint:gosec
}

// Compare orders two Times. It panics if either has an out-of-range Nsec,
// since that would indicate a construction bug upstream.
func (t Time) Compare(o Time) int {
	if t.Nsec >= 1e9 || o.Nsec >= 1e9 {
		panic("streamcap: Time.Nsec out of range [0, 1e9)")
	}
	if c := cmp.Compare(t.Sec, o.Sec); c != 0 {
		return c
	}
	return cmp.Compare(t.Nsec, o.Nsec)
}

// Before reports whether t is strictly before o.
func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }

// After reports whether t is strictly after o.
func (t Time) After(o Time) bool { return t.Compare(o) > 0 }

// InRange reports whether t lies in the inclusive range [start, end].
func (t Time) InRange(start, end Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Add returns t+d where d is a duration in nanoseconds.
func (t Time) Add(d int64) Time {
	total := int64(t.Nanos()) + d //nolint:gosec
	if total < 0 {
		total = 0
	}
	return FromNanos(uint64(total)) //nolint:gosec
}

func (t Time) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// Topic names a stream of messages within a source.
type Topic struct {
	Name       string
	SchemaName string
}

// Schema describes a structured message type, byte-encoded in one of the
// supported schema encodings (ros2msg, ros2idl, omgidl).
type Schema struct {
	ID       uint16
	Name     string
	Encoding string
	Data     []byte
}

// Equal reports whether two schemas carry byte-identical definitions. Per the
// data model invariant, two schemas sharing an ID within one source must be
// equal.
func (s Schema) Equal(o Schema) bool {
	return s.Name == o.Name && s.Encoding == o.Encoding && string(s.Data) == string(o.Data)
}

// Channel binds a topic to a schema and message encoding within a source.
type Channel struct {
	ID              uint16
	Topic           string
	MessageEncoding string
	SchemaID        uint16
	Metadata        map[string]string
}

// Equal reports whether two channels are byte-for-byte identical, per the
// same-id invariant in the data model.
func (c Channel) Equal(o Channel) bool {
	if c.Topic != o.Topic || c.MessageEncoding != o.MessageEncoding || c.SchemaID != o.SchemaID {
		return false
	}
	if len(c.Metadata) != len(o.Metadata) {
		return false
	}
	for k, v := range c.Metadata {
		if o.Metadata[k] != v {
			return false
		}
	}
	return true
}

// Deserializer converts raw message bytes into a decoded value. It must be
// idempotent and must not retain a reference to its input.
type Deserializer func(data []byte) (any, error)

// ParsedChannel is the product of parsing a channel's schema: a deserializer
// plus the datatypes it references, keyed by schema name.
type ParsedChannel struct {
	Deserialize Deserializer
	Datatypes   map[string]DatatypeFields
}

// DatatypeFields describes one named type's fields, used to render the
// datatypes map in Initialization.
type DatatypeFields struct {
	Fields []FieldInfo
}

// FieldInfo names one field of a datatype and the type it holds.
type FieldInfo struct {
	Name string
	Type string
}

// Severity classifies a Problem's importance.
type Severity int

const (
	// SeverityInfo is an informational problem, safe to ignore.
	SeverityInfo Severity = iota
	// SeverityWarn is a problem that degrades fidelity but not correctness.
	SeverityWarn
	// SeverityError is a problem serious enough that data was dropped.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

// Problem is a non-fatal issue surfaced in-stream rather than terminating the
// iterator, tagged with the connection (channel) it originated from.
type Problem struct {
	ConnectionID uint16
	Severity     Severity
	Message      string
	Err          error
	Tip          string
}

func (p Problem) String() string {
	if p.Err != nil {
		return fmt.Sprintf("[%s] connection %d: %s: %v", p.Severity, p.ConnectionID, p.Message, p.Err)
	}
	return fmt.Sprintf("[%s] connection %d: %s", p.Severity, p.ConnectionID, p.Message)
}

// MessageEvent is one decoded message, timestamped at receipt.
type MessageEvent struct {
	Topic       string
	SchemaName  string
	ReceiveTime Time
	PublishTime *Time
	Message     any
	SizeInBytes uint32
}

// ResultKind discriminates the variants of IteratorResult.
type ResultKind int

const (
	// ResultMessage carries a decoded MessageEvent.
	ResultMessage ResultKind = iota
	// ResultProblem carries a non-fatal Problem.
	ResultProblem
	// ResultStamp carries only a Time, advancing playback without a payload.
	ResultStamp
)

// IteratorResult is the tagged union yielded by a message iterator: exactly
// one of Event, Problem, or Stamp is meaningful, selected by Kind.
type IteratorResult struct {
	Kind    ResultKind
	Event   MessageEvent
	Problem Problem
	Stamp   Time
}

// Time returns the timestamp relevant to batching/read-until semantics: the
// message's receive time, or the stamp's time. It panics on a Problem
// result, which carries no timestamp.
func (r IteratorResult) Time() Time {
	switch r.Kind {
	case ResultMessage:
		return r.Event.ReceiveTime
	case ResultStamp:
		return r.Stamp
	default:
		panic("streamcap: IteratorResult.Time called on a Problem result")
	}
}

// TopicStats summarizes one topic's traffic within a source.
type TopicStats struct {
	NumMessages uint64
	First       *Time
	Last        *Time
}

// Initialization is the metadata produced once by Source.Initialize.
type Initialization struct {
	Start             Time
	End               Time
	Topics            []Topic
	Datatypes         map[string]DatatypeFields
	Profile           string
	PublishersByTopic map[string]map[string]struct{}
	TopicStats        map[string]TopicStats
}

// TopicSelection describes which topics a consumer wants and how eagerly to
// preload them. PreloadPartial sources may defer populating a topic's
// backlog until it is actually requested.
type Preload int

const (
	PreloadFull Preload = iota
	PreloadPartial
)

type TopicSelection map[string]struct {
	Topic   string
	Preload Preload
}

// IteratorArgs selects the topics and time bound for a message iterator or
// cursor.
type IteratorArgs struct {
	Topics  []string
	Start   *Time
	End     *Time
	Reverse bool
}

// BackfillArgs selects the topics and reference time for a Backfill call.
type BackfillArgs struct {
	Topics []string
	Time   Time
}

// DescriptorKind discriminates the shape of a source's input.
type DescriptorKind int

const (
	// DescriptorFile names a local, already-open, seekable blob.
	DescriptorFile DescriptorKind = iota
	// DescriptorURL names a remote resource fetched over HTTP.
	DescriptorURL
	// DescriptorStream names a one-shot, non-seekable stream — reserved
	// and always rejected with ErrUnsupportedInput at Initialize.
	DescriptorStream
)

// Descriptor identifies the input a source is constructed over.
type Descriptor struct {
	Kind DescriptorKind

	// File and Size are set when Kind == DescriptorFile.
	File ReaderAtCloser
	Size int64

	// URL is set when Kind == DescriptorURL.
	URL string
}

// ReaderAtCloser is the blob handle a file Descriptor carries — satisfied
// by *os.File.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// Iterator is a pull-based cursor over IteratorResults. Next returns io.EOF
// once the underlying source is exhausted. Implementations must be safe to
// call from a single goroutine only; callers needing concurrent access
// should share a cursor.Cursor instead.
type Iterator interface {
	Next(ctx context.Context) (IteratorResult, error)
}
