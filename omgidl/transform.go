package omgidl

import (
	"fmt"
	"strings"

	"github.com/wkalt/streamcap/schema"
)

var primitiveTypes = map[string]schema.PrimitiveType{ // nolint:gochecknoglobals
	"boolean":            schema.BOOL,
	"octet":              schema.BYTE,
	"char":               schema.CHAR,
	"short":              schema.INT16,
	"unsigned short":     schema.UINT16,
	"long":               schema.INT32,
	"unsigned long":      schema.UINT32,
	"long long":          schema.INT64,
	"unsigned long long": schema.UINT64,
	"float":              schema.FLOAT32,
	"double":             schema.FLOAT64,
	"string":             schema.STRING,
}

// Parse parses an IDL document and returns a schema.Schema for its root
// struct, resolved the same way as ros2idl.Parse: rootHint's final
// path segment selects the matching struct, falling back to the first
// struct in document order.
func Parse(rootHint string, data []byte) (*schema.Schema, error) {
	file, err := FileParser.ParseBytes("", data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse omgidl document: %w", err)
	}
	structs, typedefs := collect(file.Modules)
	if len(structs) == 0 {
		return nil, fmt.Errorf("omgidl document defines no structs")
	}
	byName := make(map[string]*Struct, len(structs))
	for _, s := range structs {
		byName[s.Name] = s
	}
	root := selectRoot(rootHint, structs)
	return transformStruct(root, byName, typedefs)
}

func collect(modules []*Module) ([]*Struct, map[string]*TypeDef) {
	var structs []*Struct
	typedefs := make(map[string]*TypeDef)
	for _, m := range modules {
		for _, decl := range m.Declarations {
			switch d := decl.(type) {
			case Struct:
				structs = append(structs, &d)
			case TypeDef:
				typedefs[d.Name] = &d
			}
		}
		subStructs, subTypedefs := collect(m.Modules)
		structs = append(structs, subStructs...)
		for name, td := range subTypedefs {
			typedefs[name] = td
		}
	}
	return structs, typedefs
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

func transformStruct(s *Struct, byName map[string]*Struct, typedefs map[string]*TypeDef) (*schema.Schema, error) {
	out := schema.Schema{Name: s.Name}
	for _, f := range s.Fields {
		t, err := resolveFieldType(f.Type, byName, typedefs)
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

func resolveFieldType(ft *FieldType, byName map[string]*Struct, typedefs map[string]*TypeDef) (*schema.Type, error) {
	if ft.SequenceOf != nil {
		items, err := resolveFieldType(ft.SequenceOf, byName, typedefs)
		if err != nil {
			return nil, err
		}
		return &schema.Type{Array: true, Items: items}, nil
	}
	if primitive, ok := primitiveTypes[ft.Name]; ok {
		return &schema.Type{Primitive: primitive}, nil
	}
	if td, ok := typedefs[ft.Name]; ok {
		t, err := resolveFieldType(td.Type, byName, typedefs)
		if err != nil {
			return nil, fmt.Errorf("typedef %q: %w", ft.Name, err)
		}
		if td.FixedSize > 0 {
			t = &schema.Type{Array: true, FixedSize: td.FixedSize, Items: t}
		}
		return t, nil
	}
	sub, ok := byName[ft.Name]
	if !ok {
		return nil, fmt.Errorf("unresolved type %q", ft.Name)
	}
	inner, err := transformStruct(sub, byName, typedefs)
	if err != nil {
		return nil, err
	}
	return &schema.Type{Record: true, Fields: inner.Fields}, nil
}
