// Package channel dispatches a channel's (message encoding, schema
// encoding) pair to the right schema parser and decoder, producing a
// streamcap.ParsedChannel ready to deserialize message bytes.
package channel

import (
	"fmt"
	"strings"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/cdr"
	"github.com/wkalt/streamcap/omgidl"
	"github.com/wkalt/streamcap/ros2idl"
	"github.com/wkalt/streamcap/ros2msg"
	"github.com/wkalt/streamcap/schema"
)

// wellKnownEmptySchemas are schema names permitted to carry an empty
// definition body — message types with no fields.
var wellKnownEmptySchemas = map[string]bool{ // nolint:gochecknoglobals
	"std_msgs/Empty":     true,
	"std_msgs/msg/Empty": true,
}

// Option configures ParseChannel.
type Option func(*config)

type config struct {
	allowEmptySchema bool
}

// WithAllowEmptySchema opts in to accepting an empty schema body even when
// its name isn't one of the well-known empty types.
func WithAllowEmptySchema() Option {
	return func(c *config) { c.allowEmptySchema = true }
}

// ParseChannel builds a ParsedChannel for messageEncoding/s, per the
// dispatch table: "cdr" message encoding selects among omgidl, ros2idl,
// and ros2msg schema encodings; anything else fails.
func ParseChannel(messageEncoding string, s *streamcap.Schema, opts ...Option) (*streamcap.ParsedChannel, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if messageEncoding != "cdr" {
		return nil, streamcap.UnsupportedEncodingError{MessageEncoding: messageEncoding}
	}
	if s == nil {
		return nil, streamcap.UnsupportedEncodingError{MessageEncoding: messageEncoding}
	}
	if len(s.Data) == 0 && !cfg.allowEmptySchema && !wellKnownEmptySchemas[s.Name] {
		return nil, streamcap.ErrEmptySchema
	}

	var parsed *schema.Schema
	var err error
	switch s.Encoding {
	case "omgidl":
		parsed, err = omgidl.Parse(s.Name, s.Data)
	case "ros2idl":
		parsed, err = ros2idl.Parse(s.Name, s.Data)
	case "ros2msg":
		pkg, name := splitSchemaName(s.Name)
		parsed, err = ros2msg.ParseROS2MessageDefinition(pkg, name, s.Data)
	default:
		return nil, streamcap.UnsupportedEncodingError{MessageEncoding: messageEncoding, SchemaEncoding: s.Encoding}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %q: %w", s.Name, err)
	}

	deserialize := func(data []byte) (any, error) {
		d, err := cdr.NewDecoder(data)
		if err != nil {
			return nil, fmt.Errorf("failed to construct cdr decoder: %w", err)
		}
		return schema.Decode(parsed, d)
	}
	return &streamcap.ParsedChannel{
		Deserialize: deserialize,
		Datatypes:   Datatypes(parsed),
	}, nil
}

func splitSchemaName(name string) (pkg, typeName string) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// Datatypes flattens a parsed schema and every record type nested within
// it into the datatypes map Initialization reports. Exported so other
// sources (e.g. bagsource, whose schemas arrive via ros1msg rather than
// this package's dispatch table) can render the same shape.
func Datatypes(s *schema.Schema) map[string]streamcap.DatatypeFields {
	out := make(map[string]streamcap.DatatypeFields)
	collectDatatypes(s.Name, s.Fields, out)
	return out
}

func collectDatatypes(name string, fields []schema.Field, out map[string]streamcap.DatatypeFields) {
	if _, ok := out[name]; ok {
		return
	}
	info := streamcap.DatatypeFields{}
	for _, f := range fields {
		info.Fields = append(info.Fields, streamcap.FieldInfo{Name: f.Name, Type: typeName(f.Type)})
		if f.Type.Record {
			collectDatatypes(name+"."+f.Name, f.Type.Fields, out)
		}
		if f.Type.Array && f.Type.Items != nil && f.Type.Items.Record {
			collectDatatypes(name+"."+f.Name, f.Type.Items.Fields, out)
		}
	}
	out[name] = info
}

func typeName(t schema.Type) string {
	switch {
	case t.Array:
		return "array"
	case t.Record:
		return "record"
	default:
		return primitiveName(t.Primitive)
	}
}

func primitiveName(p schema.PrimitiveType) string {
	names := map[schema.PrimitiveType]string{
		schema.INT8: "int8", schema.INT16: "int16", schema.INT32: "int32", schema.INT64: "int64",
		schema.UINT8: "uint8", schema.UINT16: "uint16", schema.UINT32: "uint32", schema.UINT64: "uint64",
		schema.FLOAT32: "float32", schema.FLOAT64: "float64", schema.STRING: "string", schema.BOOL: "bool",
		schema.TIME: "time", schema.DURATION: "duration", schema.CHAR: "char", schema.BYTE: "byte",
	}
	if n, ok := names[p]; ok {
		return n
	}
	return "unknown"
}
