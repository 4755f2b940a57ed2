package scb

import (
	"crypto/sha256"

	"golang.org/x/crypto/md4"
)

// HashProfile selects the block-hash primitive used to derive fingerprints
// (spec.md §4.1). The zero value is HashSHA256. Mixing profiles between the
// encryption and decryption of a given message is a caller error the core
// cannot detect — it will simply fail to find fingerprints it should.
type HashProfile uint8

const (
	// HashSHA256 truncates SHA-256 to its first 16 bytes. This is the
	// default profile.
	HashSHA256 HashProfile = iota

	// HashMD4 uses MD4, which produces a 16-byte digest natively. Faster
	// and considerably weaker than HashSHA256.
	HashMD4
)

// String returns a human-readable name for the profile.
func (p HashProfile) String() string {
	switch p {
	case HashSHA256:
		return "sha256"
	case HashMD4:
		return "md4"
	default:
		return "unknown"
	}
}

// blockHash computes the 16-byte digest of a single block under the given
// profile.
func blockHash(profile HashProfile, in Block) Block {
	var out Block
	switch profile {
	case HashMD4:
		h := md4.New()
		h.Write(in[:])
		copy(out[:], h.Sum(nil))
	default:
		sum := sha256.Sum256(in[:])
		copy(out[:], sum[:BlockSize])
	}
	return out
}

// fingerprint is the key type for both occurrence tables: the last maxHash
// bytes of a block's digest, zero-extended on the left to a fixed-size,
// comparable array so it can be used directly as a map key (spec.md §4.2:
// "hashing of keys is an implementation detail; correctness does not
// depend on the hash function used internally, only on key equality").
type fingerprint [BlockSize]byte

// fingerprintOf extracts the fingerprint from a digest per spec.md §4.1's
// big-endian rule: fp = sum(digest[15-i] * 256^i, i in 0..maxHash).
// Equivalently, the last maxHash bytes of digest, taken verbatim.
func fingerprintOf(digest Block, maxHash int) fingerprint {
	var fp fingerprint
	copy(fp[BlockSize-maxHash:], digest[BlockSize-maxHash:])
	return fp
}
