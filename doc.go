// Package scb implements SCB ("Subtly Confidential Blocks"), a deterministic
// block-cipher mode built on top of AES-128.
//
// # Overview
//
// SCB encrypts a byte stream block-by-block under a 128-bit key. Within a
// single message it tracks which 16-byte plaintext blocks have already been
// seen: the first occurrence of a block is encrypted with a plain AES-128
// call, while every later occurrence of the same block is encrypted into a
// "redirection" ciphertext that, once decrypted and compared against the
// key, tells the decryptor to look the plaintext up from the first
// occurrence instead of trusting the raw AES output. This makes repeated
// plaintext blocks produce distinct ciphertext blocks, unlike plain ECB.
//
// Two parameters, MaxCount and MaxHash, trade off correctness against
// security: MaxHash bytes of a block's hash form a "fingerprint" used to
// detect repeats (larger MaxHash: fewer accidental collisions between
// distinct blocks), and MaxCount bytes encode a per-fingerprint repetition
// counter inside the redirection ciphertext (larger MaxCount: more repeats
// of the same block can be encoded before the counter wraps).
//
// # Non-goals
//
// SCB is not an authenticated encryption mode: it produces no tag and
// detects no tampering. It is not an online streaming mode: Encrypt and
// Decrypt require the full message length up front, because the final
// partial block (if any) is handled via ciphertext stealing against the
// penultimate block. It keeps no state across calls: every Encrypt or
// Decrypt call starts from an empty occurrence table. It performs no
// padding: ciphertext length always equals plaintext length.
//
// # Security note
//
// A message is in the "secure regime" for a given MaxCount when its length
// in blocks does not exceed 2^(8*MaxCount); beyond that, a fingerprint's
// repetition counter can wrap within the message and decryption of the
// affected blocks is no longer guaranteed to round-trip. Encrypt and Decrypt
// do not refuse to run outside the secure regime — see Params.Secure.
package scb
