// Package blobstore saves exported files. A Store is picked at start-up: a
// local directory for desktop use, S3 for shared deployments, or memory for
// tests.
package blobstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrMissingFileName = errors.New("file name is required")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)

// MaxFileSize is the maximum accepted blob size in bytes (50 MB).
const MaxFileSize = 50 * 1024 * 1024

// Blob describes a stored file.
type Blob struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (*Blob, error)
	Get(ctx context.Context, name string) ([]byte, *Blob, error)
}

func describe(name, contentType string, data []byte) (*Blob, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingFileName
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return &Blob{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", sha256.Sum256(data)),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ---------------------------------------------------------------------------
// In-memory
// ---------------------------------------------------------------------------

type storedBlob struct {
	blob Blob
	data []byte
}

// MemoryStore is a thread-safe in-memory Store. Put overwrites by name.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*storedBlob)}
}

func (s *MemoryStore) Put(_ context.Context, name, contentType string, data []byte) (*Blob, error) {
	b, err := describe(name, contentType, data)
	if err != nil {
		return nil, err
	}
	b.Location = "memory://" + name

	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	s.blobs[name] = &storedBlob{blob: *b, data: cp}
	s.mu.Unlock()

	out := *b
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, *Blob, error) {
	s.mu.RLock()
	sb, ok := s.blobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	b := sb.blob
	return sb.data, &b, nil
}

// ---------------------------------------------------------------------------
// Local directory
// ---------------------------------------------------------------------------

// DirStore writes files into a directory, overwriting same-named files.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Put(_ context.Context, name, contentType string, data []byte) (*Blob, error) {
	b, err := describe(name, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	b.Location = path
	return b, nil
}

func (s *DirStore) Get(_ context.Context, name string) ([]byte, *Blob, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	b, err := describe(name, "", data)
	if err != nil {
		return nil, nil, err
	}
	b.Location = path
	return data, b, nil
}
