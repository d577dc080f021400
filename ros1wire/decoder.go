// Package ros1wire implements a schema.Decoder over ROS1's binary message
// wire format: fixed-width little-endian primitives with no alignment
// padding, and uint32 length prefixes for strings and variable-length
// arrays.
package ros1wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wkalt/streamcap/schema"
)

// Decoder reads primitive values off a ROS1-encoded byte buffer in
// declaration order. It implements schema.Decoder.
type Decoder struct {
	buf    []byte
	offset int
}

var _ schema.Decoder = (*Decoder)(nil)

// NewDecoder constructs a Decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Set installs a new buffer to decode, rewinding to its start. Implements
// schema.Decoder.
func (d *Decoder) Set(b []byte) {
	d.buf = b
	d.offset = 0
}

// Reset rewinds to the start of the current buffer. Implements
// schema.Decoder.
func (d *Decoder) Reset() {
	d.offset = 0
}

func (d *Decoder) need(n int) error {
	if d.offset+n > len(d.buf) {
		return fmt.Errorf("ros1wire: short read: need %d bytes at offset %d, have %d", n, d.offset, len(d.buf))
	}
	return nil
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.Uint8()
	return b != 0, err
}

func (d *Decoder) Int8() (int8, error) {
	b, err := d.Uint8()
	return int8(b), err
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) Int16() (int16, error) {
	u, err := d.Uint16()
	return int16(u), err
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	u, err := d.Uint32()
	return int32(u), err
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) Int64() (int64, error) {
	u, err := d.Uint64()
	return int64(u), err
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) Float32() (float32, error) {
	u, err := d.Uint32()
	return math.Float32frombits(u), err
}

func (d *Decoder) Float64() (float64, error) {
	u, err := d.Uint64()
	return math.Float64frombits(u), err
}

// Time and Duration are each two uint32 fields (sec, nsec) per the ROS1
// wire format, folded to nanoseconds to match the rest of the engine.
func (d *Decoder) Time() (uint64, error) {
	secs, err := d.Uint32()
	if err != nil {
		return 0, fmt.Errorf("time sec: %w", err)
	}
	nanos, err := d.Uint32()
	if err != nil {
		return 0, fmt.Errorf("time nsec: %w", err)
	}
	return uint64(secs)*1e9 + uint64(nanos), nil
}

func (d *Decoder) Duration() (uint64, error) {
	return d.Time()
}

func (d *Decoder) String() (string, error) {
	length, err := d.Uint32()
	if err != nil {
		return "", fmt.Errorf("string length: %w", err)
	}
	if length == 0 {
		return "", nil
	}
	b, err := d.readN(int(length))
	if err != nil {
		return "", fmt.Errorf("string body: %w", err)
	}
	return string(b), nil
}

func (d *Decoder) Char() (byte, error) {
	return d.Uint8()
}

func (d *Decoder) Byte() (byte, error) {
	return d.Uint8()
}

func (d *Decoder) Bytes(n int) ([]byte, error) {
	b, err := d.readN(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (d *Decoder) SkipBytes(n int) error {
	_, err := d.readN(n)
	return err
}

func (d *Decoder) SkipBool() error  { _, err := d.Bool(); return err }
func (d *Decoder) SkipInt8() error  { _, err := d.Int8(); return err }
func (d *Decoder) SkipInt16() error { _, err := d.Int16(); return err }
func (d *Decoder) SkipInt32() error { _, err := d.Int32(); return err }
func (d *Decoder) SkipInt64() error { _, err := d.Int64(); return err }

func (d *Decoder) SkipUint8() error  { _, err := d.Uint8(); return err }
func (d *Decoder) SkipUint16() error { _, err := d.Uint16(); return err }
func (d *Decoder) SkipUint32() error { _, err := d.Uint32(); return err }
func (d *Decoder) SkipUint64() error { _, err := d.Uint64(); return err }

func (d *Decoder) SkipFloat32() error { _, err := d.Float32(); return err }
func (d *Decoder) SkipFloat64() error { _, err := d.Float64(); return err }

func (d *Decoder) SkipTime() error     { _, err := d.Time(); return err }
func (d *Decoder) SkipDuration() error { _, err := d.Duration(); return err }
func (d *Decoder) SkipString() error   { _, err := d.String(); return err }
func (d *Decoder) SkipChar() error     { _, err := d.Char(); return err }
func (d *Decoder) SkipByte() error     { _, err := d.Byte(); return err }

// ArrayLength reads a ROS1 variable-length array's uint32 count prefix.
func (d *Decoder) ArrayLength() (int64, error) {
	n, err := d.Uint32()
	return int64(n), err
}
