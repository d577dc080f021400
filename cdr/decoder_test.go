package cdr_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/streamcap/cdr"
)

func littleEndianHeader() []byte {
	return []byte{0x00, 0x01, 0x00, 0x00}
}

func TestDecodePrimitivesLittleEndian(t *testing.T) {
	buf := littleEndianHeader()
	buf = append(buf, 0x2a)          // int8 = 42
	buf = append(buf, 0, 0, 0)       // padding to 4-byte align int32
	buf = binary.LittleEndian.AppendUint32(buf, 100)

	d, err := cdr.NewDecoder(buf)
	require.NoError(t, err)

	i8, err := d.Int8()
	require.NoError(t, err)
	require.Equal(t, int8(42), i8)

	i32, err := d.Int32()
	require.NoError(t, err)
	require.Equal(t, int32(100), i32)
}

func TestDecodeStringRoundTrip(t *testing.T) {
	buf := littleEndianHeader()
	body := append([]byte("hello"), 0) // null-terminated
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)

	d, err := cdr.NewDecoder(buf)
	require.NoError(t, err)
	s, err := d.String()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

func TestAlignmentBeforeUint64(t *testing.T) {
	buf := littleEndianHeader()
	buf = append(buf, 0x01) // one byte, throws off 8-byte alignment
	buf = append(buf, make([]byte, 7)...)
	buf = binary.LittleEndian.AppendUint64(buf, 123456789)

	d, err := cdr.NewDecoder(buf)
	require.NoError(t, err)
	_, err = d.Uint8()
	require.NoError(t, err)
	v, err := d.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(123456789), v)
}

func TestBigEndianHeader(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	buf = binary.BigEndian.AppendUint32(buf, 0xdeadbeef)

	d, err := cdr.NewDecoder(buf)
	require.NoError(t, err)
	v, err := d.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)
}

func TestUnsupportedEncapsulationKindFails(t *testing.T) {
	buf := []byte{0x00, 0x09, 0x00, 0x00}
	_, err := cdr.NewDecoder(buf)
	require.Error(t, err)
}

func TestShortBufferFails(t *testing.T) {
	_, err := cdr.NewDecoder([]byte{0x00, 0x01})
	require.Error(t, err)
}

func TestResetAllowsRedecode(t *testing.T) {
	buf := littleEndianHeader()
	buf = binary.LittleEndian.AppendUint32(buf, 7)

	d, err := cdr.NewDecoder(buf)
	require.NoError(t, err)
	v1, err := d.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(7), v1)

	d.Reset()
	v2, err := d.Uint32()
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}
