package scb

// Encrypt runs the SCB message driver (spec.md §4.5) over plaintext and
// returns a ciphertext of the same length. params is validated before any
// block is processed; on a validation failure no output is produced.
//
// len(plaintext) must be at least 17, since the tail-stealing rule needs a
// penultimate block to splice against whenever the length is not a
// multiple of 16. A length that is an exact multiple of 16 has no such
// lower bound beyond being positive, but shorter unaligned messages are
// rejected (spec.md §9, "Open questions").
func Encrypt(key Key, params Params, plaintext []byte) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	L := len(plaintext)
	if err := ValidateLength(L); err != nil {
		return nil, err
	}

	m := L % BlockSize
	l := (L + BlockSize - 1) / BlockSize

	ciphertext := make([]byte, L)
	table := NewEncryptTable()

	full := l
	if m != 0 {
		full = l - 1
	}
	for i := 0; i < full; i++ {
		var p Block
		copy(p[:], plaintext[i*BlockSize:(i+1)*BlockSize])
		c := encryptBlock(key, params, p, table)
		copy(ciphertext[i*BlockSize:(i+1)*BlockSize], c[:])
	}

	if m != 0 {
		pen := (l - 2) * BlockSize
		tail := (l - 1) * BlockSize

		// Steal the penultimate ciphertext's prefix to fill out the tail.
		copy(ciphertext[tail:tail+m], ciphertext[pen:pen+m])

		var b Block
		copy(b[:m], plaintext[tail:tail+m])
		copy(b[m:], ciphertext[pen+m:pen+BlockSize])

		c := encryptBlock(key, params, b, table)
		copy(ciphertext[pen:pen+BlockSize], c[:])
	}

	return ciphertext, nil
}

// Decrypt runs the SCB message driver in reverse, the mirror of Encrypt.
func Decrypt(key Key, params Params, ciphertext []byte) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	L := len(ciphertext)
	if err := ValidateLength(L); err != nil {
		return nil, err
	}

	m := L % BlockSize
	l := (L + BlockSize - 1) / BlockSize

	plaintext := make([]byte, L)
	table := NewDecryptTable()

	full := l
	if m != 0 {
		full = l - 1
	}
	for i := 0; i < full; i++ {
		var c Block
		copy(c[:], ciphertext[i*BlockSize:(i+1)*BlockSize])
		p := decryptBlock(key, params, c, table)
		copy(plaintext[i*BlockSize:(i+1)*BlockSize], p[:])
	}

	if m != 0 {
		pen := (l - 2) * BlockSize
		tail := (l - 1) * BlockSize

		copy(plaintext[tail:tail+m], plaintext[pen:pen+m])

		var b Block
		copy(b[:m], ciphertext[tail:tail+m])
		copy(b[m:], plaintext[pen+m:pen+BlockSize])

		p := decryptBlock(key, params, b, table)
		copy(plaintext[pen:pen+BlockSize], p[:])
	}

	return plaintext, nil
}
