package scbfs

import (
	"errors"

	"github.com/blockweave/scb"
)

// FilenameEncryption represents the filename encryption mode.
type FilenameEncryption uint8

const (
	// FilenameEncryptionNone does not encrypt filenames.
	FilenameEncryptionNone FilenameEncryption = iota
	// FilenameEncryptionDeterministic uses SIV mode for deterministic encryption.
	FilenameEncryptionDeterministic
	// FilenameEncryptionRandom uses random encryption with a metadata database.
	FilenameEncryptionRandom
)

// HashFunc represents a hash function used for PBKDF2 key derivation.
type HashFunc uint8

const (
	// SHA256 hash function.
	SHA256 HashFunc = iota
	// SHA512 hash function.
	SHA512
)

// PBKDF2Params contains parameters for PBKDF2 key derivation.
type PBKDF2Params struct {
	Iterations int      // Number of iterations (minimum 100,000 recommended).
	HashFunc   HashFunc // Hash function to use.
	SaltSize   int      // Salt size in bytes (default 16).
}

// Validate checks the PBKDF2 parameters against conservative bounds.
func (p *PBKDF2Params) Validate() error {
	if p.Iterations < 100000 {
		return errors.New("pbkdf2 iterations must be at least 100,000")
	}
	if p.Iterations > 10000000 {
		return errors.New("pbkdf2 iterations must not exceed 10,000,000")
	}
	switch p.HashFunc {
	case SHA256, SHA512:
	default:
		return errors.New("pbkdf2 hash function must be SHA256 or SHA512")
	}
	if p.SaltSize != 0 && p.SaltSize < 16 {
		return errors.New("pbkdf2 salt size must be at least 16 bytes")
	}
	return nil
}

// Argon2idParams contains parameters for Argon2id key derivation.
type Argon2idParams struct {
	Memory      uint32 // Memory in KiB (e.g., 64*1024 for 64MB).
	Iterations  uint32 // Number of iterations (time parameter).
	Parallelism uint8  // Degree of parallelism.
	SaltSize    int    // Salt size in bytes (default 16).
}

// Validate checks the Argon2id parameters against conservative bounds.
func (a *Argon2idParams) Validate() error {
	if a.Memory < 8*1024 {
		return errors.New("argon2id memory must be at least 8 MiB")
	}
	if a.Memory > 4*1024*1024 {
		return errors.New("argon2id memory must not exceed 4 GiB")
	}
	if a.Iterations < 1 {
		return errors.New("argon2id iterations must be at least 1")
	}
	if a.Iterations > 100 {
		return errors.New("argon2id iterations must not exceed 100")
	}
	if a.Parallelism < 1 {
		return errors.New("argon2id parallelism must be at least 1")
	}
	if a.SaltSize != 0 && a.SaltSize < 16 {
		return errors.New("argon2id salt size must be at least 16 bytes")
	}
	return nil
}

// Config contains configuration for the encrypted filesystem.
type Config struct {
	// Params controls the SCB mode's security/correctness trade-off
	// applied to every message (file or chunk) this filesystem writes.
	Params scb.Params

	// KeyProvider supplies the 16-byte SCB key.
	KeyProvider KeyProvider

	// FilenameEncryption mode.
	FilenameEncryption FilenameEncryption

	// PreserveExtensions keeps file extensions visible when using filename
	// encryption.
	PreserveExtensions bool

	// MetadataPath is the path to store metadata for random filename
	// encryption.
	MetadataPath string

	// ChunkSize is the maximum number of plaintext bytes encrypted as a
	// single SCB message. Files larger than ChunkSize are split into
	// independent chunks, each with its own occurrence table, bounding how
	// far any one fingerprint's counter can travel. Zero means unchunked:
	// the whole file is one message.
	ChunkSize int

	// EnableSeek allows seeking within encrypted files.
	EnableSeek bool

	// Parallel controls concurrent processing of a chunked file's
	// independent chunks. Its zero value disables parallelism.
	Parallel ParallelConfig
}

// Validate checks whether the configuration is usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.KeyProvider == nil {
		return errors.New("key provider cannot be nil")
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.ChunkSize < 0 {
		return errors.New("chunk size cannot be negative")
	}
	if c.ChunkSize > 0 {
		if err := ValidateChunkSize(uint32(c.ChunkSize)); err != nil {
			return err
		}
	}
	switch c.FilenameEncryption {
	case FilenameEncryptionNone, FilenameEncryptionDeterministic, FilenameEncryptionRandom:
	default:
		return errors.New("unsupported filename encryption mode")
	}
	if c.FilenameEncryption == FilenameEncryptionRandom && c.MetadataPath == "" {
		return errors.New("metadata path must be set for random filename encryption")
	}
	if err := c.Parallel.Validate(); err != nil {
		return err
	}
	if c.Parallel.Enabled && c.ChunkSize == 0 {
		return errors.New("parallel processing requires chunked mode")
	}
	return nil
}

// KeyProvider is an interface for providing the SCB key.
type KeyProvider interface {
	// DeriveKey derives a 16-byte SCB key from the given salt.
	DeriveKey(salt []byte) ([]byte, error)

	// GenerateSalt generates a new random salt.
	GenerateSalt() ([]byte, error)
}

// Common errors.
var (
	ErrInvalidKey         = errors.New("invalid encryption key")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
	ErrAuthFailed         = errors.New("filename authentication failed - name may be corrupted or tampered")
	ErrInvalidHeader      = errors.New("invalid file header")
	ErrUnsupportedVersion = errors.New("unsupported file format version")
)
