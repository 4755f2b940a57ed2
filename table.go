package scb

// EncryptTable is the per-message occurrence table used while encrypting:
// fingerprint -> number of prior occurrences of a block with that
// fingerprint, excluding the first. It starts empty and is never reused
// across messages or shared with a DecryptTable (spec.md §3, §9 "Dual-shape
// table").
type EncryptTable struct {
	counts map[fingerprint]int
}

// NewEncryptTable returns an empty encryption occurrence table.
func NewEncryptTable() *EncryptTable {
	return &EncryptTable{counts: make(map[fingerprint]int)}
}

// lookup returns the stored count for fp and whether it was present.
func (t *EncryptTable) lookup(fp fingerprint) (int, bool) {
	c, ok := t.counts[fp]
	return c, ok
}

// insert records count c for fp, replacing any prior entry.
func (t *EncryptTable) insert(fp fingerprint, c int) {
	t.counts[fp] = c
}

// DecryptTable is the per-message occurrence table used while decrypting:
// fingerprint -> the plaintext block first recovered at that fingerprint.
// The stored block is an owned copy, not a pointer into the caller's
// buffer (spec.md §9 "Back-references into buffers").
type DecryptTable struct {
	blocks map[fingerprint]Block
}

// NewDecryptTable returns an empty decryption occurrence table.
func NewDecryptTable() *DecryptTable {
	return &DecryptTable{blocks: make(map[fingerprint]Block)}
}

// lookup returns the stored block for fp and whether it was present.
func (t *DecryptTable) lookup(fp fingerprint) (Block, bool) {
	b, ok := t.blocks[fp]
	return b, ok
}

// insert records block b for fp, replacing any prior entry.
func (t *DecryptTable) insert(fp fingerprint, b Block) {
	t.blocks[fp] = b
}
