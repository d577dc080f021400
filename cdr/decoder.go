// Package cdr implements a schema.Decoder over the OMG Common Data
// Representation wire format used by ROS2/DDS messages: fixed-width
// primitives aligned to their own size, a 4-byte encapsulation header
// selecting byte order, and length-prefixed strings and sequences.
package cdr

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wkalt/streamcap/schema"
)

// encapsulation kinds, per the CDR header's second byte.
const (
	kindCDRBigEndian      = 0
	kindCDRLittleEndian   = 1
	kindPLCDRBigEndian    = 2
	kindPLCDRLittleEndian = 3
)

// headerSize is the 4-byte encapsulation header every CDR payload begins
// with: a reserved byte, the encapsulation kind, and two option bytes.
const headerSize = 4

// Decoder reads primitive values off a CDR-encoded byte buffer in
// declaration order, aligning each read to the primitive's natural size
// per the CDR alignment rule. It implements schema.Decoder.
type Decoder struct {
	buf    []byte
	offset int
	little bool
}

var _ schema.Decoder = (*Decoder)(nil)

// NewDecoder constructs a Decoder over data, which must begin with a
// 4-byte CDR encapsulation header.
func NewDecoder(data []byte) (*Decoder, error) {
	d := &Decoder{}
	if err := d.setAndParseHeader(data); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) setAndParseHeader(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("cdr: payload of %d bytes too short for encapsulation header", len(data))
	}
	switch kind := data[1]; kind {
	case kindCDRBigEndian, kindPLCDRBigEndian:
		d.little = false
	case kindCDRLittleEndian, kindPLCDRLittleEndian:
		d.little = true
	default:
		return fmt.Errorf("cdr: unsupported encapsulation kind %d", kind)
	}
	d.buf = data
	d.offset = headerSize
	return nil
}

// Set installs a new buffer to decode, reparsing its encapsulation header.
// Implements schema.Decoder.
func (d *Decoder) Set(b []byte) {
	if err := d.setAndParseHeader(b); err != nil {
		// schema.Decoder.Set has no error return; an invalid header
		// surfaces as a bounds failure on the first read instead.
		d.buf = nil
		d.offset = 0
	}
}

// Reset rewinds to just past the encapsulation header, so the same buffer
// can be decoded again. Implements schema.Decoder.
func (d *Decoder) Reset() {
	d.offset = headerSize
}

func (d *Decoder) order() binary.ByteOrder {
	if d.little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// align advances offset to the next multiple of n, per CDR's rule that a
// primitive of size n is aligned to an n-byte boundary relative to the
// start of the encapsulated payload.
func (d *Decoder) align(n int) {
	rem := (d.offset - headerSize) % n
	if rem != 0 {
		d.offset += n - rem
	}
}

func (d *Decoder) need(n int) error {
	if d.offset+n > len(d.buf) {
		return fmt.Errorf("cdr: short read: need %d bytes at offset %d, have %d", n, d.offset, len(d.buf))
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
	d.align(2)
	b, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return d.order().Uint16(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	u, err := d.Uint32()
	return int32(u), err
}

func (d *Decoder) Uint32() (uint32, error) {
	d.align(4)
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return d.order().Uint32(b), nil
}

func (d *Decoder) Int64() (int64, error) {
	u, err := d.Uint64()
	return int64(u), err
}

func (d *Decoder) Uint64() (uint64, error) {
	d.align(8)
	b, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return d.order().Uint64(b), nil
}

func (d *Decoder) Float32() (float32, error) {
	u, err := d.Uint32()
	return math.Float32frombits(u), err
}

func (d *Decoder) Float64() (float64, error) {
	u, err := d.Uint64()
	return math.Float64frombits(u), err
}

// Time and Duration have no native CDR primitive; ROS2 represents both as
// a two-field struct of {int32 sec; uint32 nanosec}. We decode that shape
// here and fold it to nanoseconds, matching the Go-native uint64/int64
// representation the rest of the engine uses.
func (d *Decoder) Time() (uint64, error) {
	secs, err := d.Int32()
	if err != nil {
		return 0, fmt.Errorf("time sec: %w", err)
	}
	nanos, err := d.Uint32()
	if err != nil {
		return 0, fmt.Errorf("time nanosec: %w", err)
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
	// CDR strings are null-terminated; the length includes the terminator.
	if b[len(b)-1] == 0 {
		return string(b[:len(b)-1]), nil
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

// ArrayLength reads a CDR sequence length prefix.
func (d *Decoder) ArrayLength() (int64, error) {
	n, err := d.Uint32()
	return int64(n), err
}
