package scbfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/blockweave/scb"
)

const (
	// MagicBytes identifies SCB-encrypted files (ASCII: "SCB1").
	MagicBytes = uint32(0x53434231)

	// CurrentVersion is the current file format version.
	CurrentVersion = uint8(1)

	// MinHeaderSize is the fixed size of the file header, excluding the
	// variable-length salt: magic(4) + version(1) + max_count(1) +
	// max_hash(1) + hash profile(1) + salt size(2) + plaintext length(8).
	MinHeaderSize = 18
)

// FileHeader represents the header of an SCB-encrypted file.
type FileHeader struct {
	Magic         uint32
	Version       uint8
	MaxCount      uint8
	MaxHash       uint8
	Hash          scb.HashProfile
	SaltSize      uint16
	Salt          []byte
	PlaintextSize uint64
}

// NewFileHeader creates a new file header for the given parameters.
func NewFileHeader(params scb.Params, salt []byte, plaintextSize uint64) *FileHeader {
	return &FileHeader{
		Magic:         MagicBytes,
		Version:       CurrentVersion,
		MaxCount:      uint8(params.MaxCount),
		MaxHash:       uint8(params.MaxHash),
		Hash:          params.Hash,
		SaltSize:      uint16(len(salt)),
		Salt:          salt,
		PlaintextSize: plaintextSize,
	}
}

// Params reconstructs the scb.Params this header was written with.
func (h *FileHeader) Params() scb.Params {
	return scb.Params{
		MaxCount: int(h.MaxCount),
		MaxHash:  int(h.MaxHash),
		Hash:     h.Hash,
	}
}

// Size returns the total size of the header in bytes.
func (h *FileHeader) Size() int {
	return MinHeaderSize + len(h.Salt)
}

// WriteTo writes the header to the given writer.
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, h.Magic); err != nil {
		return 0, fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Version); err != nil {
		return 0, fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.MaxCount); err != nil {
		return 0, fmt.Errorf("failed to write max_count: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.MaxHash); err != nil {
		return 0, fmt.Errorf("failed to write max_hash: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint8(h.Hash)); err != nil {
		return 0, fmt.Errorf("failed to write hash profile: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.SaltSize); err != nil {
		return 0, fmt.Errorf("failed to write salt size: %w", err)
	}
	if _, err := buf.Write(h.Salt); err != nil {
		return 0, fmt.Errorf("failed to write salt: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, h.PlaintextSize); err != nil {
		return 0, fmt.Errorf("failed to write plaintext size: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads the header from the given reader.
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	var totalRead int64

	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return totalRead, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	totalRead += 4

	if h.Magic != MagicBytes {
		return totalRead, ErrInvalidHeader
	}

	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return totalRead, fmt.Errorf("failed to read version: %w", err)
	}
	totalRead++

	if h.Version > CurrentVersion {
		return totalRead, ErrUnsupportedVersion
	}

	if err := binary.Read(r, binary.LittleEndian, &h.MaxCount); err != nil {
		return totalRead, fmt.Errorf("failed to read max_count: %w", err)
	}
	totalRead++

	if err := binary.Read(r, binary.LittleEndian, &h.MaxHash); err != nil {
		return totalRead, fmt.Errorf("failed to read max_hash: %w", err)
	}
	totalRead++

	var hashByte uint8
	if err := binary.Read(r, binary.LittleEndian, &hashByte); err != nil {
		return totalRead, fmt.Errorf("failed to read hash profile: %w", err)
	}
	h.Hash = scb.HashProfile(hashByte)
	totalRead++

	if err := binary.Read(r, binary.LittleEndian, &h.SaltSize); err != nil {
		return totalRead, fmt.Errorf("failed to read salt size: %w", err)
	}
	totalRead += 2

	h.Salt = make([]byte, h.SaltSize)
	n, err := io.ReadFull(r, h.Salt)
	totalRead += int64(n)
	if err != nil {
		return totalRead, fmt.Errorf("failed to read salt: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.PlaintextSize); err != nil {
		return totalRead, fmt.Errorf("failed to read plaintext size: %w", err)
	}
	totalRead += 8

	return totalRead, nil
}

// Validate checks whether the header is well-formed.
func (h *FileHeader) Validate() error {
	if h.Magic != MagicBytes {
		return ErrInvalidHeader
	}
	if h.Version > CurrentVersion {
		return ErrUnsupportedVersion
	}
	if err := h.Params().Validate(); err != nil {
		return err
	}
	if len(h.Salt) == 0 {
		return fmt.Errorf("salt cannot be empty")
	}
	return nil
}
