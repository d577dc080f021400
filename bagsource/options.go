package bagsource

// maxInMemoryBytes bounds a Source's total materialized message payload,
// mirroring mcapsource's in-memory size cap.
const maxInMemoryBytes = 1 << 30 // 1 GiB

// Option configures a Source at construction.
type Option func(*config)

type config struct {
	maxBytes int64
}

func defaultConfig() config {
	return config{maxBytes: maxInMemoryBytes}
}

// WithMaxBytes overrides the in-memory size cap, mainly for tests.
func WithMaxBytes(n int64) Option {
	return func(c *config) { c.maxBytes = n }
}
