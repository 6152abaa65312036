package filerepo

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-quiz-session/credentials"
	apperrors "github.com/jrsteele09/go-quiz-session/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var _ credentials.Repo = (*FileRepo)(nil)

// FileRepo keeps credentials in a single JSON file, optionally sealed with
// secretbox. Every write replaces the file atomically.
type FileRepo struct {
	path string
	key  *[32]byte
	mu   sync.Mutex

	// lastSeen is the content this process last wrote or the watcher last
	// observed, used by Watch to tell external changes from our own.
	lastSeen map[string]string
}

type Option func(*FileRepo)

// WithSealKey encrypts the file with the given secretbox key
func WithSealKey(key *[32]byte) Option {
	return func(r *FileRepo) {
		r.key = key
	}
}

func New(path string, options ...Option) *FileRepo {
	r := &FileRepo{path: path}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ParseKey decodes a 64 character hex string into a secretbox key
func ParseKey(hexKey string) (*[32]byte, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidStoreKey, "hex decode: %v", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", apperrors.ErrInvalidStoreKey, len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (r *FileRepo) Put(values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load()
	if err != nil {
		return err
	}
	maps.Copy(current, values)
	return r.store(current)
}

func (r *FileRepo) Delete(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: filerepo remove %s: %v", apperrors.ErrStorageUnavailable, r.path, err)
		}
		r.lastSeen = current
		return nil
	}
	return r.store(current)
}

func (r *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: filerepo read %s: %v", apperrors.ErrStorageUnavailable, r.path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	if r.key != nil {
		if len(data) < nonceSize+secretbox.Overhead {
			return nil, fmt.Errorf("filerepo %s: %w: sealed file too short", r.path, apperrors.ErrInvalidStoreKey)
		}
		var nonce [nonceSize]byte
		copy(nonce[:], data[:nonceSize])
		opened, ok := secretbox.Open(nil, data[nonceSize:], &nonce, r.key)
		if !ok {
			return nil, fmt.Errorf("filerepo %s: %w: cannot open sealed file", r.path, apperrors.ErrInvalidStoreKey)
		}
		data = opened
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("filerepo decode %s: %w", r.path, err)
	}
	return values, nil
}

func (r *FileRepo) store(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("filerepo encode: %w", err)
	}

	if r.key != nil {
		var nonce [nonceSize]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("filerepo nonce: %w", err)
		}
		data = secretbox.Seal(nonce[:], data, &nonce, r.key)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: filerepo temp file: %v", apperrors.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filerepo chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filerepo write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filerepo close: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("filerepo rename: %w", err)
	}

	r.lastSeen = maps.Clone(values)
	return nil
}
