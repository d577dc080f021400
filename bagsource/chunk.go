package bagsource

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// decompressChunk expands a bag chunk's payload per its declared
// compression. Unlike MCAP, go-rosbag's low-level records hand back the
// chunk bytes as written, so lz4 (the one compression this engine commits
// to supporting, per spec) is decompressed here rather than by the
// library. Any other compression, "bz2" included, returns an error; the
// caller logs a warning and skips that chunk.
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
	default:
		return nil, fmt.Errorf("unsupported chunk compression %q", compression)
	}
}
