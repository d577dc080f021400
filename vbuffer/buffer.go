// Package vbuffer implements a block-partitioned byte buffer of fixed
// virtual size with LRU eviction of blocks. It tracks which byte ranges are
// resident so that random-access readers can test for cache hits without
// scanning the whole buffer.
package vbuffer

import (
	"fmt"
	"sync"

	"github.com/wkalt/streamcap/rangeset"
	"github.com/wkalt/streamcap/util"
)

// DefaultBlockSize is a 100 MiB block size. New does not apply it: when the
// caller gives no block size, New makes the whole buffer a single block.
const DefaultBlockSize = 100 * 1024 * 1024 // 100 MiB

// block is one resident slab, along with a record of which of its own byte
// offsets have actually been written.
type block struct {
	data     []byte
	resident []rangeset.Range // offsets relative to the block, not the file
}

func newBlock(size int64) *block {
	return &block{data: make([]byte, size)}
}

func (b *block) write(offset int64, src []byte) {
	copy(b.data[offset:], src)
	b.resident = rangeset.Union(b.resident, []rangeset.Range{{Start: offset, End: offset + int64(len(src))}})
}

func (b *block) hasData(start, end int64) bool {
	return rangeset.IsCovered(rangeset.Range{Start: start, End: end}, b.resident)
}

// Buffer is a virtual address space of TotalSize bytes, realized as
// fixed-size blocks that are allocated (and evicted) lazily.
type Buffer struct {
	totalSize int64
	blockSize int64
	numBlocks int64

	mtx    sync.Mutex
	blocks *util.LRU[int64, *block]
}

// Option configures a Buffer at construction time.
type Option func(*config)

type config struct {
	blockSize int64
	numBlocks int64
}

// WithBlockSize sets the size of each block. Defaults to the whole buffer
// (one block) when unset.
func WithBlockSize(n int64) Option {
	return func(c *config) { c.blockSize = n }
}

// WithNumBlocks bounds how many blocks may be resident at once. Defaults to
// enough blocks to cover the whole buffer (no eviction) when unset.
func WithNumBlocks(n int64) Option {
	return func(c *config) { c.numBlocks = n }
}

// New constructs a Buffer spanning totalSize bytes.
func New(totalSize int64, opts ...Option) *Buffer {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	blockSize := cfg.blockSize
	if blockSize <= 0 {
		blockSize = totalSize
		if blockSize <= 0 {
			blockSize = 1
		}
	}
	numBlocksInFile := (totalSize + blockSize - 1) / blockSize
	numBlocks := cfg.numBlocks
	if numBlocks <= 0 {
		numBlocks = max(numBlocksInFile, 1)
	}
	return &Buffer{
		totalSize: totalSize,
		blockSize: blockSize,
		numBlocks: numBlocks,
		blocks:    util.NewLRU[int64, *block](numBlocks),
	}
}

func (b *Buffer) blockIndex(offset int64) int64 { return offset / b.blockSize }

func (b *Buffer) blockBounds(idx int64) (start, end int64) {
	start = idx * b.blockSize
	end = min(start+b.blockSize, b.totalSize)
	return start, end
}

func (b *Buffer) getOrCreate(idx int64) *block {
	if blk, ok := b.blocks.Get(idx); ok {
		return blk
	}
	start, end := b.blockBounds(idx)
	blk := newBlock(end - start)
	b.blocks.Put(idx, blk)
	return blk
}

// CopyFrom writes src into the buffer starting at dstOffset. It may span
// multiple blocks; every touched block becomes most-recently-used, and
// writing a previously-absent block may evict the least-recently-used
// resident block.
func (b *Buffer) CopyFrom(src []byte, dstOffset int64) error {
	if dstOffset < 0 || dstOffset+int64(len(src)) > b.totalSize {
		return fmt.Errorf("write [%d, %d) out of bounds for buffer of size %d",
			dstOffset, dstOffset+int64(len(src)), b.totalSize)
	}
	b.mtx.Lock()
	defer b.mtx.Unlock()

	remaining := src
	offset := dstOffset
	for len(remaining) > 0 {
		idx := b.blockIndex(offset)
		blockStart, blockEnd := b.blockBounds(idx)
		blk := b.getOrCreate(idx)

		n := min(int64(len(remaining)), blockEnd-offset)
		blk.write(offset-blockStart, remaining[:n])

		remaining = remaining[n:]
		offset += n
	}
	return nil
}

// HasData reports whether every byte in [start, end) is resident.
func (b *Buffer) HasData(start, end int64) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.hasDataLocked(start, end)
}

func (b *Buffer) hasDataLocked(start, end int64) bool {
	if start >= end {
		return true
	}
	offset := start
	for offset < end {
		idx := b.blockIndex(offset)
		blockStart, blockEnd := b.blockBounds(idx)
		blk, ok := b.blocks.Get(idx)
		if !ok {
			return false
		}
		segEnd := min(end, blockEnd)
		if !blk.hasData(offset-blockStart, segEnd-blockStart) {
			return false
		}
		offset = segEnd
	}
	return true
}

// Slice returns a copy of the bytes in [start, end). It fails if HasData is
// false for the same range.
func (b *Buffer) Slice(start, end int64) ([]byte, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if !b.hasDataLocked(start, end) {
		return nil, fmt.Errorf("range [%d, %d) is not fully resident", start, end)
	}
	out := make([]byte, 0, end-start)
	offset := start
	for offset < end {
		idx := b.blockIndex(offset)
		blockStart, blockEnd := b.blockBounds(idx)
		blk, _ := b.blocks.Get(idx)
		segEnd := min(end, blockEnd)
		out = append(out, blk.data[offset-blockStart:segEnd-blockStart]...)
		offset = segEnd
	}
	return out, nil
}

// RangesWithData returns the disjoint, canonical set of byte ranges
// currently resident in the buffer.
func (b *Buffer) RangesWithData() []rangeset.Range {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	var all []rangeset.Range
	for idx := int64(0); idx*b.blockSize < b.totalSize; idx++ {
		blk, ok := b.blocks.Get(idx)
		if !ok {
			continue
		}
		blockStart, _ := b.blockBounds(idx)
		for _, r := range blk.resident {
			all = append(all, rangeset.Range{Start: blockStart + r.Start, End: blockStart + r.End})
		}
	}
	return rangeset.Normalize(all)
}

// TotalSize returns the buffer's virtual size.
func (b *Buffer) TotalSize() int64 { return b.totalSize }
