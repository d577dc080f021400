package ros2msg

import (
	"fmt"

	"github.com/wkalt/streamcap/schema"
)

/*
This file mirrors ros1msg's transform.go: it turns the participle AST
produced by MessageDefinitionParser into a schema.Schema, resolving nested
message types against the concatenated sub-definitions that follow a ROS2
message's "===\nMSG: pkg/Type" separators.

ROS2 msg fields can additionally be bounded (string<=32, int32[<=10]); we
parse that bound but don't enforce it here — CDR decoding always reads the
length prefix a sender actually wrote.
*/

var primitiveTypes = map[string]schema.PrimitiveType{ // nolint:gochecknoglobals
	"int8":     schema.INT8,
	"int16":    schema.INT16,
	"int32":    schema.INT32,
	"int64":    schema.INT64,
	"uint8":    schema.UINT8,
	"uint16":   schema.UINT16,
	"uint32":   schema.UINT32,
	"uint64":   schema.UINT64,
	"float32":  schema.FLOAT32,
	"float64":  schema.FLOAT64,
	"string":   schema.STRING,
	"bool":     schema.BOOL,
	"time":     schema.TIME,
	"duration": schema.DURATION,
	"char":     schema.CHAR,
	"byte":     schema.BYTE,
	"octet":    schema.BYTE,
}

// ParseROS2MessageDefinition parses a ROS2 message definition and returns
// a schema.Schema representation of it.
func ParseROS2MessageDefinition(pkg, name string, msgdef []byte) (*schema.Schema, error) {
	ast, err := MessageDefinitionParser.ParseBytes("", msgdef)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ros2 message definition: %w", err)
	}
	return transformAST(pkg, name, *ast)
}

func resolveType(pkg string, subdeps map[string]Definition, t *ROSType) (*schema.Type, error) {
	primitive, isPrimitive := primitiveTypes[t.Name]
	isArray := t.Array
	fixedSize := t.FixedSize
	if t.Bounded {
		fixedSize = 0
	}

	if isPrimitive && !isArray {
		return &schema.Type{Primitive: primitive}, nil
	}
	if isPrimitive && isArray {
		return &schema.Type{
			Array:     true,
			FixedSize: fixedSize,
			Items:     &schema.Type{Primitive: primitive},
		}, nil
	}
	if isArray {
		subdep, ok := subdeps[pkg+"/"+t.Name]
		if !ok {
			return nil, fmt.Errorf("failed to resolve type %s", t.Name)
		}
		items, err := resolveSubdef(pkg, subdeps, subdep)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve type %s: %w", t.Name, err)
		}
		return &schema.Type{Array: true, FixedSize: fixedSize, Items: items}, nil
	}
	subdep, ok := subdeps[t.Name]
	if !ok {
		return nil, fmt.Errorf("failed to resolve type %s", t.Name)
	}
	return resolveSubdef(pkg, subdeps, subdep)
}

func resolveSubdef(pkg string, subdeps map[string]Definition, def Definition) (*schema.Type, error) {
	t := &schema.Type{Record: true}
	for _, element := range def.Elements {
		if field, ok := element.(ROSField); ok {
			resolvedType, err := resolveType(pkg, subdeps, field.Type)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve type: %w", err)
			}
			t.Fields = append(t.Fields, schema.Field{Name: field.Name, Type: *resolvedType})
		}
	}
	return t, nil
}

func transformAST(pkg, name string, ast MessageDefinition) (*schema.Schema, error) {
	subdefinitions := make(map[string]Definition)
	for _, definition := range ast.Definitions {
		if definition.Header.Type == "std_msgs/Header" {
			subdefinitions["Header"] = definition
			continue
		}
		subdefinitions[definition.Header.Type] = definition
	}
	s := schema.Schema{Name: pkg + "/" + name}
	for _, element := range ast.Elements {
		if field, ok := element.(ROSField); ok {
			resolvedType, err := resolveType(pkg, subdefinitions, field.Type)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, schema.Field{Name: field.Name, Type: *resolvedType})
		}
	}
	return &s, nil
}
