package scbfs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// FilenameEncryptor handles encryption and decryption of filenames.
type FilenameEncryptor interface {
	EncryptFilename(plaintext string) (string, error)
	DecryptFilename(ciphertext string) (string, error)
	EncryptPath(plaintext string) (string, error)
	DecryptPath(ciphertext string) (string, error)
}

// noOpFilenameEncryptor passes through filenames without encryption.
type noOpFilenameEncryptor struct{}

func (n *noOpFilenameEncryptor) EncryptFilename(plaintext string) (string, error) {
	return plaintext, nil
}

func (n *noOpFilenameEncryptor) DecryptFilename(ciphertext string) (string, error) {
	return ciphertext, nil
}

func (n *noOpFilenameEncryptor) EncryptPath(plaintext string) (string, error) {
	return plaintext, nil
}

func (n *noOpFilenameEncryptor) DecryptPath(ciphertext string) (string, error) {
	return ciphertext, nil
}

// deriveSIVKey expands the 16-byte SCB master key into the 64-byte key
// AES-SIV needs (two 32-byte halves, each an AES-256 key), tagging each repetition
// with a distinct constant so the MAC and CTR subkeys don't collide.
func deriveSIVKey(key []byte, tag byte) []byte {
	sivKey := make([]byte, 64)
	for i := range sivKey {
		sivKey[i] = key[i%len(key)] ^ tag ^ byte(i/len(key))
	}
	return sivKey
}

// deterministicFilenameEncryptor uses AES-SIV for deterministic filename
// encryption: the same plaintext name always encrypts to the same
// ciphertext name under a given key, so directory listings and renames
// stay coherent without a separate metadata store.
type deterministicFilenameEncryptor struct {
	engine             *DeterministicEngine
	preserveExtensions bool
	separator          string
}

// NewDeterministicFilenameEncryptor creates a new deterministic filename
// encryptor.
func NewDeterministicFilenameEncryptor(key []byte, preserveExtensions bool, separator string) (*deterministicFilenameEncryptor, error) {
	engine, err := NewDeterministicEngine(deriveSIVKey(key, 0xAA))
	if err != nil {
		return nil, fmt.Errorf("failed to create deterministic engine: %w", err)
	}

	return &deterministicFilenameEncryptor{
		engine:             engine,
		preserveExtensions: preserveExtensions,
		separator:          separator,
	}, nil
}

func (d *deterministicFilenameEncryptor) EncryptFilename(plaintext string) (string, error) {
	if plaintext == "" || plaintext == "." || plaintext == ".." {
		return plaintext, nil
	}

	var base, ext string
	if d.preserveExtensions {
		ext = filepath.Ext(plaintext)
		base = strings.TrimSuffix(plaintext, ext)
	} else {
		base = plaintext
	}

	ciphertext, err := d.engine.Encrypt([]byte(base))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt filename: %w", err)
	}

	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(ciphertext)

	if d.preserveExtensions && ext != "" {
		return encoded + ext, nil
	}

	return encoded, nil
}

func (d *deterministicFilenameEncryptor) DecryptFilename(ciphertext string) (string, error) {
	if ciphertext == "" || ciphertext == "." || ciphertext == ".." {
		return ciphertext, nil
	}

	var encoded, ext string
	if d.preserveExtensions {
		ext = filepath.Ext(ciphertext)
		encoded = strings.TrimSuffix(ciphertext, ext)
	} else {
		encoded = ciphertext
	}

	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode filename: %w", err)
	}

	plaintext, err := d.engine.Decrypt(data)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt filename: %w", err)
	}

	if d.preserveExtensions && ext != "" {
		return string(plaintext) + ext, nil
	}

	return string(plaintext), nil
}

func (d *deterministicFilenameEncryptor) EncryptPath(plaintext string) (string, error) {
	if plaintext == "" || plaintext == "." {
		return plaintext, nil
	}

	parts := strings.Split(plaintext, d.separator)
	for i, part := range parts {
		if part != "" && part != "." && part != ".." {
			encrypted, err := d.EncryptFilename(part)
			if err != nil {
				return "", err
			}
			parts[i] = encrypted
		}
	}

	return strings.Join(parts, d.separator), nil
}

func (d *deterministicFilenameEncryptor) DecryptPath(ciphertext string) (string, error) {
	if ciphertext == "" || ciphertext == "." {
		return ciphertext, nil
	}

	parts := strings.Split(ciphertext, d.separator)
	for i, part := range parts {
		if part != "" && part != "." && part != ".." {
			decrypted, err := d.DecryptFilename(part)
			if err != nil {
				return "", err
			}
			parts[i] = decrypted
		}
	}

	return strings.Join(parts, d.separator), nil
}

// randomFilenameEncryptor uses random UUIDs with a metadata database
// mapping ciphertext names back to plaintext ones.
type randomFilenameEncryptor struct {
	metadata  *FilenameMetadata
	separator string
	mu        sync.RWMutex
}

// FilenameMetadata stores mappings between encrypted and plaintext
// filenames.
type FilenameMetadata struct {
	Mappings map[string]string `json:"mappings"`
	Reverse  map[string]string `json:"reverse"`
	mu       sync.RWMutex
}

// NewFilenameMetadata creates a new metadata store.
func NewFilenameMetadata() *FilenameMetadata {
	return &FilenameMetadata{
		Mappings: make(map[string]string),
		Reverse:  make(map[string]string),
	}
}

// Load loads metadata from a file.
func (m *FilenameMetadata) Load(fs absfs.FileSystem, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}

	m.Reverse = make(map[string]string)
	for encrypted, plaintext := range m.Mappings {
		m.Reverse[plaintext] = encrypted
	}

	return nil
}

// Save saves metadata to a file.
func (m *FilenameMetadata) Save(fs absfs.FileSystem, path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(m)
}

// Add adds a mapping.
func (m *FilenameMetadata) Add(encrypted, plaintext string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Mappings[encrypted] = plaintext
	m.Reverse[plaintext] = encrypted
}

// Get retrieves a plaintext filename from an encrypted one.
func (m *FilenameMetadata) Get(encrypted string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plaintext, ok := m.Mappings[encrypted]
	return plaintext, ok
}

// GetReverse retrieves an encrypted filename from a plaintext one.
func (m *FilenameMetadata) GetReverse(plaintext string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	encrypted, ok := m.Reverse[plaintext]
	return encrypted, ok
}

// NewRandomFilenameEncryptor creates a new random filename encryptor. It
// takes no key: random names carry no information derivable from the
// plaintext, so there is nothing to key.
func NewRandomFilenameEncryptor(metadata *FilenameMetadata, separator string) (*randomFilenameEncryptor, error) {
	return &randomFilenameEncryptor{
		metadata:  metadata,
		separator: separator,
	}, nil
}

func (r *randomFilenameEncryptor) EncryptFilename(plaintext string) (string, error) {
	if plaintext == "" || plaintext == "." || plaintext == ".." {
		return plaintext, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if encrypted, ok := r.metadata.GetReverse(plaintext); ok {
		return encrypted, nil
	}

	encrypted := uuid.New().String()
	r.metadata.Add(encrypted, plaintext)

	return encrypted, nil
}

func (r *randomFilenameEncryptor) DecryptFilename(ciphertext string) (string, error) {
	if ciphertext == "" || ciphertext == "." || ciphertext == ".." {
		return ciphertext, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	plaintext, ok := r.metadata.Get(ciphertext)
	if !ok {
		return "", fmt.Errorf("no mapping found for encrypted filename: %s", ciphertext)
	}

	return plaintext, nil
}

func (r *randomFilenameEncryptor) EncryptPath(plaintext string) (string, error) {
	if plaintext == "" || plaintext == "." {
		return plaintext, nil
	}

	parts := strings.Split(plaintext, r.separator)
	for i, part := range parts {
		if part != "" && part != "." && part != ".." {
			encrypted, err := r.EncryptFilename(part)
			if err != nil {
				return "", err
			}
			parts[i] = encrypted
		}
	}

	return strings.Join(parts, r.separator), nil
}

func (r *randomFilenameEncryptor) DecryptPath(ciphertext string) (string, error) {
	if ciphertext == "" || ciphertext == "." {
		return ciphertext, nil
	}

	parts := strings.Split(ciphertext, r.separator)
	for i, part := range parts {
		if part != "" && part != "." && part != ".." {
			decrypted, err := r.DecryptFilename(part)
			if err != nil {
				return "", err
			}
			parts[i] = decrypted
		}
	}

	return strings.Join(parts, r.separator), nil
}

// NewFilenameEncryptor creates a filename encryptor based on the
// configuration.
func NewFilenameEncryptor(config *Config, key []byte, fs absfs.FileSystem) (FilenameEncryptor, error) {
	separator := string([]byte{fs.Separator()})

	switch config.FilenameEncryption {
	case FilenameEncryptionNone:
		return &noOpFilenameEncryptor{}, nil

	case FilenameEncryptionDeterministic:
		return NewDeterministicFilenameEncryptor(key, config.PreserveExtensions, separator)

	case FilenameEncryptionRandom:
		metadata := NewFilenameMetadata()
		if config.MetadataPath != "" {
			_ = metadata.Load(fs, config.MetadataPath)
		}
		return NewRandomFilenameEncryptor(metadata, separator)

	default:
		return &noOpFilenameEncryptor{}, nil
	}
}
