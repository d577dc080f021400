package schema

import "fmt"

// Decode reads one complete value of schema s from d and returns it as a
// Go-native value: a map keyed by field name for the schema's top-level
// record. Decode is the shared entry point every encoding's Decoder plugs
// into — the encoding owns byte-level reads, this owns the schema walk.
func Decode(s *Schema, d Decoder) (map[string]any, error) {
	return decodeFields(s.Fields, d)
}

func decodeFields(fields []Field, d Decoder) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := decodeType(f.Type, d)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

func decodeType(t Type, d Decoder) (any, error) {
	switch {
	case t.Array:
		return decodeArray(t, d)
	case t.Record:
		return decodeFields(t.Fields, d)
	default:
		return decodePrimitive(t.Primitive, d)
	}
}

func decodeArray(t Type, d Decoder) ([]any, error) {
	length := int64(t.FixedSize)
	if length == 0 {
		n, err := d.ArrayLength()
		if err != nil {
			return nil, fmt.Errorf("array length: %w", err)
		}
		length = n
	}
	out := make([]any, 0, length)
	for i := int64(0); i < length; i++ {
		v, err := decodeType(*t.Items, d)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodePrimitive(p PrimitiveType, d Decoder) (any, error) {
	switch p {
	case INT8:
		return d.Int8()
	case INT16:
		return d.Int16()
	case INT32:
		return d.Int32()
	case INT64:
		return d.Int64()
	case UINT8:
		return d.Uint8()
	case UINT16:
		return d.Uint16()
	case UINT32:
		return d.Uint32()
	case UINT64:
		return d.Uint64()
	case FLOAT32:
		return d.Float32()
	case FLOAT64:
		return d.Float64()
	case STRING:
		return d.String()
	case BOOL:
		return d.Bool()
	case TIME:
		return d.Time()
	case DURATION:
		return d.Duration()
	case CHAR:
		return d.Char()
	case BYTE:
		return d.Byte()
	default:
		return nil, fmt.Errorf("unknown primitive type %d", p)
	}
}
