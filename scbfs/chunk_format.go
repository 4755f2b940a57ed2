package scbfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Chunked file layout:
//
//	┌─────────────────────────────────────┐
//	│ Main Header                         │ <- FileHeader (magic, version, params, salt)
//	├─────────────────────────────────────┤
//	│ Chunk Index Header                  │ <- ChunkIndexHeader
//	│ - Chunk size (uint32)               │
//	│ - Chunk count (uint32)              │
//	│ - Index offset table ([]uint64)     │
//	├─────────────────────────────────────┤
//	│ Chunk 0 ciphertext (== plaintext size, SCB adds no overhead) │
//	├─────────────────────────────────────┤
//	│ Chunk 1 ciphertext                  │
//	│ └─ ...                              │
//	└─────────────────────────────────────┘
//
// Each chunk is encrypted as one independent SCB message with its own
// occurrence table; this bounds how far any single fingerprint's
// repetition counter can travel on a large file.

const (
	// DefaultChunkSize is the default chunk size (64 KB).
	DefaultChunkSize = 64 * 1024

	// MinChunkSize is the minimum allowed chunk size. A file's final chunk
	// can still be shorter than scb.ValidateLength accepts; such a chunk is
	// zero-padded by padForEncryption before it is encrypted.
	MinChunkSize = 64

	// MaxChunkSize is the maximum allowed chunk size (16 MB).
	MaxChunkSize = 16 * 1024 * 1024

	// ChunkIndexReservedSize is the reserved space for the chunk index.
	// Size calculation: 8 (header) + 1700 * 12 (offset + size per chunk).
	ChunkIndexReservedSize = 20 * 1024 // 20 KB
)

// ChunkIndexHeader contains metadata about all chunks in the file.
type ChunkIndexHeader struct {
	ChunkSize      uint32   // size of each plaintext chunk (constant for the file)
	ChunkCount     uint32   // total number of chunks
	ChunkOffsets   []uint64 // byte offset of each chunk from start of file
	PlaintextSizes []uint32 // plaintext size of each chunk (may be < ChunkSize for the last chunk)
}

// NewChunkIndexHeader creates a new chunk index header.
func NewChunkIndexHeader(chunkSize uint32) *ChunkIndexHeader {
	return &ChunkIndexHeader{
		ChunkSize:      chunkSize,
		ChunkCount:     0,
		ChunkOffsets:   make([]uint64, 0),
		PlaintextSizes: make([]uint32, 0),
	}
}

// Size returns the total size of the chunk index header in bytes,
// including reserved padding.
func (h *ChunkIndexHeader) Size() int64 {
	return ChunkIndexReservedSize
}

// ActualSize returns the actual size of the data, without padding.
func (h *ChunkIndexHeader) ActualSize() int64 {
	return int64(8 + len(h.ChunkOffsets)*8 + len(h.PlaintextSizes)*4)
}

// WriteTo writes the chunk index header to a writer.
func (h *ChunkIndexHeader) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, h.ChunkSize); err != nil {
		return 0, fmt.Errorf("failed to write chunk size: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.ChunkCount); err != nil {
		return 0, fmt.Errorf("failed to write chunk count: %w", err)
	}
	for _, offset := range h.ChunkOffsets {
		if err := binary.Write(buf, binary.LittleEndian, offset); err != nil {
			return 0, fmt.Errorf("failed to write chunk offset: %w", err)
		}
	}
	for _, size := range h.PlaintextSizes {
		if err := binary.Write(buf, binary.LittleEndian, size); err != nil {
			return 0, fmt.Errorf("failed to write plaintext size: %w", err)
		}
	}

	actualSize := buf.Len()
	if padding := int(ChunkIndexReservedSize) - actualSize; padding > 0 {
		buf.Write(make([]byte, padding))
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads the chunk index header from a reader.
func (h *ChunkIndexHeader) ReadFrom(r io.Reader) (int64, error) {
	var totalRead int64

	if err := binary.Read(r, binary.LittleEndian, &h.ChunkSize); err != nil {
		return totalRead, fmt.Errorf("failed to read chunk size: %w", err)
	}
	totalRead += 4

	if err := binary.Read(r, binary.LittleEndian, &h.ChunkCount); err != nil {
		return totalRead, fmt.Errorf("failed to read chunk count: %w", err)
	}
	totalRead += 4

	h.ChunkOffsets = make([]uint64, h.ChunkCount)
	for i := uint32(0); i < h.ChunkCount; i++ {
		if err := binary.Read(r, binary.LittleEndian, &h.ChunkOffsets[i]); err != nil {
			return totalRead, fmt.Errorf("failed to read chunk offset %d: %w", i, err)
		}
		totalRead += 8
	}

	h.PlaintextSizes = make([]uint32, h.ChunkCount)
	for i := uint32(0); i < h.ChunkCount; i++ {
		if err := binary.Read(r, binary.LittleEndian, &h.PlaintextSizes[i]); err != nil {
			return totalRead, fmt.Errorf("failed to read plaintext size %d: %w", i, err)
		}
		totalRead += 4
	}

	if padding := ChunkIndexReservedSize - totalRead; padding > 0 {
		n, err := io.ReadFull(r, make([]byte, padding))
		totalRead += int64(n)
		if err != nil {
			return totalRead, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	return totalRead, nil
}

// AddChunk adds a new chunk to the index.
func (h *ChunkIndexHeader) AddChunk(offset uint64, plaintextSize uint32) {
	h.ChunkOffsets = append(h.ChunkOffsets, offset)
	h.PlaintextSizes = append(h.PlaintextSizes, plaintextSize)
	h.ChunkCount++
}

// GetChunkInfo returns the offset and plaintext size for a given chunk index.
func (h *ChunkIndexHeader) GetChunkInfo(chunkIdx uint32) (offset uint64, plaintextSize uint32, err error) {
	if chunkIdx >= h.ChunkCount {
		return 0, 0, fmt.Errorf("chunk index %d out of range (count: %d)", chunkIdx, h.ChunkCount)
	}
	return h.ChunkOffsets[chunkIdx], h.PlaintextSizes[chunkIdx], nil
}

// TotalPlaintextSize returns the total size of all plaintext data.
func (h *ChunkIndexHeader) TotalPlaintextSize() int64 {
	var total int64
	for _, size := range h.PlaintextSizes {
		total += int64(size)
	}
	return total
}

// FindChunkForOffset finds which chunk contains the given plaintext offset.
// Returns the chunk index and the offset within that chunk.
func (h *ChunkIndexHeader) FindChunkForOffset(offset int64) (uint32, int64, error) {
	if offset < 0 {
		return 0, 0, fmt.Errorf("negative offset: %d", offset)
	}

	var currentOffset int64
	for i := uint32(0); i < h.ChunkCount; i++ {
		chunkSize := int64(h.PlaintextSizes[i])
		if offset < currentOffset+chunkSize {
			return i, offset - currentOffset, nil
		}
		currentOffset += chunkSize
	}

	if offset == currentOffset {
		return h.ChunkCount, 0, nil
	}

	return 0, 0, fmt.Errorf("offset %d beyond file size %d", offset, currentOffset)
}

// ValidateChunkSize validates that a chunk size is within acceptable bounds.
func ValidateChunkSize(size uint32) error {
	if size < MinChunkSize {
		return fmt.Errorf("chunk size %d below minimum %d", size, MinChunkSize)
	}
	if size > MaxChunkSize {
		return fmt.Errorf("chunk size %d above maximum %d", size, MaxChunkSize)
	}
	return nil
}

// CalculateChunkCount calculates how many chunks are needed for a given
// data size.
func CalculateChunkCount(dataSize int64, chunkSize uint32) uint32 {
	if dataSize == 0 {
		return 0
	}
	chunks := (dataSize + int64(chunkSize) - 1) / int64(chunkSize)
	return uint32(chunks)
}

// CalculateCiphertextSize returns the ciphertext size for a plaintext
// chunk. SCB adds no header or authentication overhead per chunk, so the
// ciphertext is as long as the plaintext, except for a chunk shorter than
// minMessageLen and not block-aligned, which padForEncryption zero-pads to
// minMessageLen before encryption.
func CalculateCiphertextSize(plaintextSize uint32) int {
	if plaintextSize > 0 && int(plaintextSize) < minMessageLen && plaintextSize%16 != 0 {
		return minMessageLen
	}
	return int(plaintextSize)
}
