package scbfs

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/absfs/absfs"
	"github.com/blockweave/scb"
)

// EncryptFS implements absfs.FileSystem, transparently encrypting file
// contents and, optionally, filenames with SCB.
type EncryptFS struct {
	base              absfs.FileSystem
	config            *Config
	keyProvider       KeyProvider
	params            scb.Params
	filenameEncryptor FilenameEncryptor
	masterKey         []byte
}

// New creates a new encrypted filesystem wrapping the base filesystem.
func New(base absfs.FileSystem, config *Config) (*EncryptFS, error) {
	if base == nil {
		return nil, fmt.Errorf("base filesystem cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	salt, err := config.KeyProvider.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	masterKey, err := config.KeyProvider.DeriveKey(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	filenameEncryptor, err := NewFilenameEncryptor(config, masterKey, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create filename encryptor: %w", err)
	}

	return &EncryptFS{
		base:              base,
		config:            config,
		keyProvider:       config.KeyProvider,
		params:            config.Params,
		filenameEncryptor: filenameEncryptor,
		masterKey:         masterKey,
	}, nil
}

// translatePath translates a plaintext path to its encrypted form.
func (e *EncryptFS) translatePath(plaintext string) (string, error) {
	return e.filenameEncryptor.EncryptPath(plaintext)
}

// untranslatePath translates an encrypted path back to plaintext.
func (e *EncryptFS) untranslatePath(ciphertext string) (string, error) {
	return e.filenameEncryptor.DecryptPath(ciphertext)
}

// Separator returns the path separator for the underlying filesystem.
func (e *EncryptFS) Separator() uint8 {
	return e.base.Separator()
}

// ListSeparator returns the list separator for the underlying filesystem.
func (e *EncryptFS) ListSeparator() uint8 {
	return e.base.ListSeparator()
}

// Chdir changes the current working directory.
func (e *EncryptFS) Chdir(dir string) error {
	encryptedPath, err := e.translatePath(dir)
	if err != nil {
		return err
	}
	return e.base.Chdir(encryptedPath)
}

// Getwd returns the current working directory.
func (e *EncryptFS) Getwd() (string, error) {
	encryptedPath, err := e.base.Getwd()
	if err != nil {
		return "", err
	}
	return e.untranslatePath(encryptedPath)
}

// TempDir returns the temporary directory path.
func (e *EncryptFS) TempDir() string {
	return e.base.TempDir()
}

// Open opens a file for reading with transparent decryption.
func (e *EncryptFS) Open(name string) (absfs.File, error) {
	return e.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates a file for writing with transparent
// encryption.
func (e *EncryptFS) Create(name string) (absfs.File, error) {
	return e.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// OpenFile opens a file with the specified flags and permissions.
func (e *EncryptFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return nil, err
	}

	baseFile, err := e.base.OpenFile(encryptedPath, flag, perm)
	if err != nil {
		return nil, err
	}

	if e.config.ChunkSize > 0 {
		chunkSize := uint32(e.config.ChunkSize)
		chunkFile, err := newChunkedFile(baseFile, e, chunkSize, flag)
		if err != nil {
			baseFile.Close()
			return nil, err
		}
		return chunkFile, nil
	}

	encFile, err := newEncryptedFile(baseFile, e, flag)
	if err != nil {
		baseFile.Close()
		return nil, err
	}

	return encFile, nil
}

// Mkdir creates a directory.
func (e *EncryptFS) Mkdir(name string, perm os.FileMode) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.Mkdir(encryptedPath, perm)
}

// MkdirAll creates a directory and all necessary parent directories.
func (e *EncryptFS) MkdirAll(name string, perm os.FileMode) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.MkdirAll(encryptedPath, perm)
}

// Remove removes a file or empty directory.
func (e *EncryptFS) Remove(name string) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.Remove(encryptedPath)
}

// RemoveAll removes a path and any children it contains.
func (e *EncryptFS) RemoveAll(path string) error {
	encryptedPath, err := e.translatePath(path)
	if err != nil {
		return err
	}
	return e.base.RemoveAll(encryptedPath)
}

// Rename renames (moves) a file.
func (e *EncryptFS) Rename(oldpath, newpath string) error {
	encryptedOld, err := e.translatePath(oldpath)
	if err != nil {
		return err
	}
	encryptedNew, err := e.translatePath(newpath)
	if err != nil {
		return err
	}
	return e.base.Rename(encryptedOld, encryptedNew)
}

// Stat returns file information, with Size() reporting the plaintext size.
func (e *EncryptFS) Stat(name string) (os.FileInfo, error) {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return nil, err
	}

	info, err := e.base.Stat(encryptedPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return info, nil
	}

	plaintextSize, err := e.plaintextSize(encryptedPath)
	if err != nil {
		return nil, err
	}

	return newEncryptedFileInfo(info, plaintextSize), nil
}

// plaintextSize reads just enough of an encrypted file to learn its
// plaintext length, without decrypting its contents.
func (e *EncryptFS) plaintextSize(encryptedPath string) (int64, error) {
	f, err := e.base.Open(encryptedPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() == 0 {
		return 0, nil
	}

	header := &FileHeader{}
	if _, err := header.ReadFrom(f); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}
	return int64(header.PlaintextSize), nil
}

// Chmod changes the mode of a file.
func (e *EncryptFS) Chmod(name string, mode os.FileMode) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.Chmod(encryptedPath, mode)
}

// Chtimes changes the access and modification times of a file.
func (e *EncryptFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.Chtimes(encryptedPath, atime, mtime)
}

// Chown changes the owner and group of a file.
func (e *EncryptFS) Chown(name string, uid, gid int) error {
	encryptedPath, err := e.translatePath(name)
	if err != nil {
		return err
	}
	return e.base.Chown(encryptedPath, uid, gid)
}

// Truncate truncates a file to a specified plaintext size.
func (e *EncryptFS) Truncate(name string, size int64) error {
	f, err := e.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(size)
}

// encryptedFileInfo wraps os.FileInfo to report the plaintext size instead
// of the on-disk (header + ciphertext) size.
type encryptedFileInfo struct {
	os.FileInfo
	plaintextSize int64
}

// newEncryptedFileInfo creates a new encryptedFileInfo.
func newEncryptedFileInfo(info os.FileInfo, plaintextSize int64) *encryptedFileInfo {
	return &encryptedFileInfo{FileInfo: info, plaintextSize: plaintextSize}
}

// Size returns the decrypted size of the file.
func (e *encryptedFileInfo) Size() int64 {
	return e.plaintextSize
}
