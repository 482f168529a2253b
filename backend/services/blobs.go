// ABOUTME: Content-addressed blob store for project images
// ABOUTME: Blobs are keyed by sha256, limited in size and restricted to image types

package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

var (
	// ErrBlobTooLarge is returned when an upload exceeds the size limit.
	ErrBlobTooLarge = errors.New("blob exceeds size limit")
	// ErrUnsupportedType is returned for content that is not an image.
	ErrUnsupportedType = errors.New("only image uploads are accepted")
	// ErrEmptyBlob is returned for zero-length uploads.
	ErrEmptyBlob = errors.New("blob is empty")
)

// Blob is stored content with its detected type.
type Blob struct {
	Data        []byte
	ContentType string
}

// BlobStore keeps uploaded blobs in memory.
type BlobStore struct {
	mu       sync.RWMutex
	blobs    map[string]Blob
	maxBytes int64
	baseURL  string
}

// NewBlobStore stores blobs up to maxBytes. URLs are built under baseURL.
func NewBlobStore(maxBytes int64, baseURL string) *BlobStore {
	return &BlobStore{
		blobs:    make(map[string]Blob),
		maxBytes: maxBytes,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Put reads r and stores its content. The second result is false when the
// same content was already stored.
func (s *BlobStore) Put(r io.Reader) (models.BlobInfo, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return models.BlobInfo{}, false, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return models.BlobInfo{}, false, ErrBlobTooLarge
	}
	if len(data) == 0 {
		return models.BlobInfo{}, false, ErrEmptyBlob
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return models.BlobInfo{}, false, fmt.Errorf("%w: got %s", ErrUnsupportedType, mt.String())
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	contentType, _, _ := strings.Cut(mt.String(), ";")

	s.mu.Lock()
	_, exists := s.blobs[hash]
	if !exists {
		s.blobs[hash] = Blob{Data: data, ContentType: contentType}
	}
	s.mu.Unlock()

	return s.info(hash, contentType, int64(len(data))), !exists, nil
}

// Get returns the blob stored under hash.
func (s *BlobStore) Get(hash string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[strings.ToLower(hash)]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return b, nil
}

func (s *BlobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// MaxBytes is the upload size limit.
func (s *BlobStore) MaxBytes() int64 {
	return s.maxBytes
}

func (s *BlobStore) info(hash, contentType string, size int64) models.BlobInfo {
	return models.BlobInfo{
		Hash:        hash,
		URL:         s.baseURL + "/api/v1/blobs/" + hash,
		ContentType: contentType,
		Size:        size,
	}
}
