package memsize

import "sync"

// PerTopicCache estimates a message's size once per topic and reuses that
// number for every later message on the same topic. This is deliberately
// approximate — a later message of a different size on the same topic
// still reports the first one's cost — since the cache exists to bound
// playback memory, not to track exact sizes.
type PerTopicCache struct {
	mtx   sync.Mutex
	sizes map[string]uint32
}

// NewPerTopicCache constructs an empty cache.
func NewPerTopicCache() *PerTopicCache {
	return &PerTopicCache{sizes: make(map[string]uint32)}
}

// Estimate returns the cached size for topic if one exists, otherwise
// estimates v, caches the result under topic, and returns it.
func (c *PerTopicCache) Estimate(topic string, v any) (uint32, error) {
	c.mtx.Lock()
	if size, ok := c.sizes[topic]; ok {
		c.mtx.Unlock()
		return size, nil
	}
	c.mtx.Unlock()

	size, err := Estimate(v)
	if err != nil {
		return 0, err
	}

	c.mtx.Lock()
	if existing, ok := c.sizes[topic]; ok {
		c.mtx.Unlock()
		return existing, nil
	}
	c.sizes[topic] = size
	c.mtx.Unlock()
	return size, nil
}
