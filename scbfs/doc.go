// Package scbfs provides a transparent encryption layer for the AbsFs
// filesystem abstraction, wrapping any absfs.FileSystem with SCB
// (Subtly Confidential Blocks) at-rest encryption.
//
// # Overview
//
// scbfs implements the absfs.FileSystem interface. File contents are
// encrypted with the scb package's deterministic block-cipher mode;
// filenames may optionally be encrypted too, either deterministically
// (AES-SIV) or with random names backed by a metadata store.
//
// # Basic Usage
//
//	base, _ := memfs.NewFS()
//
//	config := &scbfs.Config{
//	    Params: scb.Params{MaxCount: 4, MaxHash: 4},
//	    KeyProvider: scbfs.NewPasswordKeyProvider(
//	        []byte("my-secure-password"),
//	        scbfs.Argon2idParams{
//	            Memory:      64 * 1024, // 64 MB
//	            Iterations:  3,
//	            Parallelism: 4,
//	        },
//	    ),
//	}
//
//	fs, err := scbfs.New(base, config)
//	if err != nil {
//	    panic(err)
//	}
//
//	file, _ := fs.Create("/secret.txt")
//	file.WriteString("This will be encrypted on disk")
//	file.Close()
//
// # Security considerations
//
// SCB is a deterministic, unauthenticated block-cipher mode (see the scb
// package doc). It protects file contents at rest against a reader of the
// raw bytes, but:
//
//   - it is not AEAD: a corrupted or truncated ciphertext may decrypt to
//     garbage instead of failing loudly. Filename encryption still uses
//     AES-SIV, which is authenticated, because a forged filename is a far
//     more actionable attack than a forged file body.
//   - determinism means repeated plaintext blocks are visible as repeated
//     fingerprints in the occurrence table once MaxCount's regime is
//     exceeded (scb.Params.Secure documents the bound). Chunking bounds
//     this by giving each chunk its own table.
//   - it offers no protection against memory dumps of decrypted content,
//     side-channel attacks, or a compromised host.
//
// # Key derivation
//
// PasswordKeyProvider supports Argon2id (recommended, memory-hard) and
// PBKDF2 (CPU-hard only, kept for FIPS-constrained environments). Both
// always derive scb.KeySize (16) bytes.
//
// # File format
//
// Single-message (unchunked) files:
//   - Magic (4 bytes): the uint32 0x53434231 ("SCB1" read big-endian),
//     written little-endian like every other header field
//   - Version (1 byte)
//   - MaxCount, MaxHash (1 byte each): the scb.Params this file was
//     written with
//   - Hash profile (1 byte)
//   - Salt size (2 bytes) and salt (variable): key derivation input
//   - Plaintext size (8 bytes): exact length, recovered after decrypt
//     (SCB never pads, but scbfs zero-pads files shorter than its
//     minimum message length before encrypting and trims on the way out)
//   - Ciphertext (variable, plaintext-sized apart from the padding above:
//     SCB adds no per-message overhead)
//
// Chunked files additionally carry a ChunkIndexHeader between the main
// header and the ciphertext, recording each chunk's offset and plaintext
// size; each chunk is its own independent SCB message.
package scbfs
