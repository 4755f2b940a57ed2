package scb

// KeySize is the fixed size, in bytes, of an SCB key and of a block.
const (
	KeySize   = 16
	BlockSize = 16
)

// Params bundles the two knobs that control SCB's security/correctness
// trade-off (spec.md §3).
//
//   - MaxHash is the number of low-order bytes of a block's hash used as its
//     fingerprint. Larger values reduce the chance that two distinct
//     plaintext blocks are mistaken for repeats of each other.
//   - MaxCount is the number of bytes reserved, inside the redirection
//     payload, for the per-fingerprint repetition counter. Larger values
//     allow more repeats of the same block before the counter wraps.
//
// Both must be in [1, 16] and MaxCount+MaxHash must not exceed 16.
type Params struct {
	MaxCount int
	MaxHash  int

	// Hash selects the block-hash profile. The zero value is HashSHA256.
	Hash HashProfile
}

// Validate checks the range and sum constraints from spec.md §3. It does
// not inspect message length; callers processing a whole message should
// also call ValidateLength.
func (p Params) Validate() error {
	if p.MaxCount < 1 || p.MaxCount > 16 {
		return &ParamsError{Field: "max_count", Value: p.MaxCount, Message: "must be in [1, 16]"}
	}
	if p.MaxHash < 1 || p.MaxHash > 16 {
		return &ParamsError{Field: "max_hash", Value: p.MaxHash, Message: "must be in [1, 16]"}
	}
	if p.MaxCount+p.MaxHash > 16 {
		return &ParamsError{
			Field:   "max_count+max_hash",
			Value:   p.MaxCount + p.MaxHash,
			Message: "must not exceed 16",
		}
	}
	return nil
}

// ValidateLength checks that a message of length l can be processed: it
// must hold at least two blocks so the tail-stealing rule (spec.md §4.5,
// §9) has a penultimate block to splice against whenever l is not a
// multiple of BlockSize. A length that is an exact multiple of BlockSize
// needs no tail splice and has no lower bound beyond being non-negative and
// non-zero.
func ValidateLength(l int) error {
	if l <= 0 {
		return &ParamsError{Field: "length", Value: l, Message: "must be positive"}
	}
	if l%BlockSize != 0 && l < BlockSize+1 {
		return &ParamsError{
			Field:   "length",
			Value:   l,
			Message: "unaligned messages need at least 17 bytes for ciphertext stealing",
		}
	}
	return nil
}

// Secure reports whether a message of the given length (in bytes) stays
// within SCB's secure regime for p: no fingerprint's repetition counter can
// wrap within a message this short. See the package doc's Security note.
func (p Params) Secure(length int) bool {
	blocks := (length + BlockSize - 1) / BlockSize
	if p.MaxCount >= 8 {
		// 2^(8*MaxCount) exceeds any representable block count.
		return true
	}
	bound := 1 << uint(8*p.MaxCount)
	return blocks <= bound
}
