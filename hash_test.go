package scb

import "testing"

func TestFingerprintOf(t *testing.T) {
	var digest Block
	for i := range digest {
		digest[i] = byte(i + 1)
	}

	tests := []struct {
		maxHash int
		want    Block
	}{
		{1, Block{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 16}},
		{2, Block{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 15, 16}},
		{16, digest},
	}
	for _, tt := range tests {
		got := fingerprintOf(digest, tt.maxHash)
		if Block(got) != tt.want {
			t.Errorf("fingerprintOf(maxHash=%d) = % x, want % x", tt.maxHash, got, tt.want)
		}
	}
}

func TestFingerprintOfEquality(t *testing.T) {
	var a, b Block
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i)
	}
	b[0] = 0xFF // differs outside the fingerprint window

	if fingerprintOf(a, 4) != fingerprintOf(b, 4) {
		t.Error("fingerprints covering only the low 4 bytes should be equal when those bytes match")
	}
	if fingerprintOf(a, 16) == fingerprintOf(b, 16) {
		t.Error("full-width fingerprints should differ when any byte differs")
	}
}

func TestBlockHashDeterministic(t *testing.T) {
	var in Block
	copy(in[:], []byte("0123456789abcdef"))

	for _, profile := range []HashProfile{HashSHA256, HashMD4} {
		a := blockHash(profile, in)
		b := blockHash(profile, in)
		if a != b {
			t.Errorf("%v: blockHash not deterministic", profile)
		}
	}

	if blockHash(HashSHA256, in) == blockHash(HashMD4, in) {
		t.Error("HashSHA256 and HashMD4 produced the same digest for a non-trivial input")
	}
}

func TestHashProfileString(t *testing.T) {
	if HashSHA256.String() != "sha256" {
		t.Errorf("HashSHA256.String() = %q", HashSHA256.String())
	}
	if HashMD4.String() != "md4" {
		t.Errorf("HashMD4.String() = %q", HashMD4.String())
	}
}
