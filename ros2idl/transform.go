package ros2idl

import (
	"fmt"
	"strings"

	"github.com/wkalt/streamcap/schema"
)

var primitiveTypes = map[string]schema.PrimitiveType{ // nolint:gochecknoglobals
	"boolean": schema.BOOL,
	"octet":   schema.BYTE,
	"byte":    schema.BYTE,
	"char":    schema.CHAR,
	"int8":    schema.INT8,
	"uint8":   schema.UINT8,
	"int16":   schema.INT16,
	"uint16":  schema.UINT16,
	"int32":   schema.INT32,
	"uint32":  schema.UINT32,
	"int64":   schema.INT64,
	"uint64":  schema.UINT64,
	"float":   schema.FLOAT32,
	"double":  schema.FLOAT64,
	"string":  schema.STRING,
}

// Parse parses an IDL document and returns a schema.Schema for its root
// struct. rootHint, typically the channel schema's name, selects among
// multiple structs by matching its final "::"-or-"/"-separated segment
// against a struct name; when no struct matches, the first struct
// encountered in document order is used.
func Parse(rootHint string, data []byte) (*schema.Schema, error) {
	file, err := FileParser.ParseBytes("", data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ros2idl document: %w", err)
	}
	structs := collectStructs(file.Modules)
	if len(structs) == 0 {
		return nil, fmt.Errorf("ros2idl document defines no structs")
	}
	root := selectRoot(rootHint, structs)
	byName := make(map[string]*Struct, len(structs))
	for _, s := range structs {
		byName[s.Name] = s
	}
	return transformStruct(root, byName)
}

func collectStructs(modules []*Module) []*Struct {
	var out []*Struct
	for _, m := range modules {
		out = append(out, m.Structs...)
		out = append(out, collectStructs(m.Modules)...)
	}
	return out
}

func selectRoot(hint string, structs []*Struct) *Struct {
	segment := hint
	if i := strings.LastIndexAny(hint, "/:"); i >= 0 {
		segment = hint[i+1:]
	}
	for _, s := range structs {
		if s.Name == segment {
			return s
		}
	}
	return structs[0]
}

func transformStruct(s *Struct, byName map[string]*Struct) (*schema.Schema, error) {
	out := schema.Schema{Name: s.Name}
	for _, f := range s.Fields {
		t, err := resolveFieldType(f.Type, byName)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if f.FixedSize > 0 {
			t = &schema.Type{Array: true, FixedSize: f.FixedSize, Items: t}
		}
		out.Fields = append(out.Fields, schema.Field{Name: f.Name, Type: *t})
	}
	return &out, nil
}

func resolveFieldType(ft *FieldType, byName map[string]*Struct) (*schema.Type, error) {
	if ft.SequenceOf != nil {
		items, err := resolveFieldType(ft.SequenceOf, byName)
		if err != nil {
			return nil, err
		}
		return &schema.Type{Array: true, Items: items}, nil
	}
	if primitive, ok := primitiveTypes[ft.Name]; ok {
		return &schema.Type{Primitive: primitive}, nil
	}
	sub, ok := byName[ft.Name]
	if !ok {
		return nil, fmt.Errorf("unresolved type %q", ft.Name)
	}
	inner, err := transformStruct(sub, byName)
	if err != nil {
		return nil, err
	}
	return &schema.Type{Record: true, Fields: inner.Fields}, nil
}
