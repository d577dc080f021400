package mcapsource

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// decompressChunk expands a chunk's Records payload per its declared
// compression. "" and "none" pass through unchanged. Any other value is
// reported to the caller as unsupported, mirroring the faulty-channel
// quarantine policy: the chunk's messages are dropped, not the whole
// stream.
func decompressChunk(compression string, data []byte) ([]byte, error) {
	switch compression {
	case "", "none":
		return data, nil
	case "lz4":
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	case "zstd":
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer dec.Close()
		out, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported chunk compression %q", compression)
	}
}
