// ABOUTME: Immutable handles to binary content, either hosted at a URL or held as local bytes
// ABOUTME: Content-addressed by sha256 so fetched bytes can be verified against the handle

package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotUploaded is returned when a local-only reference is sent where a hosted one is required.
	ErrNotUploaded = errors.New("blob has not been uploaded")
	// ErrNoFetcher is returned by Bytes for hosted references without a fetcher attached.
	ErrNoFetcher = errors.New("no fetcher attached to blob reference")
	// ErrHashMismatch is returned when fetched bytes do not match the reference's hash.
	ErrHashMismatch = errors.New("blob content does not match its hash")
)

// ProgressFunc receives upload progress as a percentage.
type ProgressFunc func(percent int)

// Reference points at blob content. Every With* method returns a copy.
type Reference struct {
	url         string
	hash        string
	contentType string
	size        int64
	data        []byte
	progress    ProgressFunc
	fetcher     *Fetcher
}

// FromURL references externally hosted content.
func FromURL(url string) *Reference {
	return &Reference{url: url}
}

// FromBytes references local content that has not been uploaded yet.
func FromBytes(data []byte) *Reference {
	own := bytes.Clone(data)
	sum := sha256.Sum256(own)
	return &Reference{
		hash:        hex.EncodeToString(sum[:]),
		contentType: mimetype.Detect(own).String(),
		size:        int64(len(own)),
		data:        own,
	}
}

// Hosted builds the reference returned by the backend after an upload.
func Hosted(url, hash, contentType string, size int64) *Reference {
	return &Reference{url: url, hash: hash, contentType: contentType, size: size}
}

func (r *Reference) clone() *Reference {
	cp := *r
	return &cp
}

// WithUploadProgress returns a copy that reports upload progress to fn.
func (r *Reference) WithUploadProgress(fn ProgressFunc) *Reference {
	cp := r.clone()
	cp.progress = fn
	return cp
}

// WithFetcher returns a copy that resolves hosted bytes through f.
func (r *Reference) WithFetcher(f *Fetcher) *Reference {
	cp := r.clone()
	cp.fetcher = f
	return cp
}

// Hash is the hex sha256 of the content, empty when unknown.
func (r *Reference) Hash() string { return r.hash }

// ContentType is the detected or declared MIME type, empty when unknown.
func (r *Reference) ContentType() string { return r.contentType }

// Size is the content length in bytes, zero when unknown.
func (r *Reference) Size() int64 { return r.size }

// Hosted reports whether the content is reachable by URL.
func (r *Reference) Hosted() bool { return r.url != "" }

// DirectURL returns a URL that renders the content directly. Local bytes are
// rendered as a data URL.
func (r *Reference) DirectURL() string {
	if r.url != "" {
		return r.url
	}
	return "data:" + r.contentType + ";base64," + base64.StdEncoding.EncodeToString(r.data)
}

// Bytes returns the content, fetching hosted content on demand.
func (r *Reference) Bytes(ctx context.Context) ([]byte, error) {
	if r.data != nil {
		return bytes.Clone(r.data), nil
	}
	if r.fetcher == nil {
		return nil, ErrNoFetcher
	}
	data, err := r.fetcher.Fetch(ctx, r.url)
	if err != nil {
		return nil, err
	}
	if r.hash != "" {
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != r.hash {
			return nil, fmt.Errorf("%w: %s", ErrHashMismatch, r.url)
		}
	}
	return data, nil
}

// Reader streams local content for upload.
func (r *Reference) Reader() (io.Reader, error) {
	if r.data == nil {
		return nil, fmt.Errorf("reference to %s has no local bytes", r.url)
	}
	return bytes.NewReader(r.data), nil
}

// ReportProgress forwards transfer progress to the observer, if any. The
// percentage stays strictly between 0 and 100 until the upload is confirmed.
func (r *Reference) ReportProgress(sent, total int64) {
	if r.progress == nil {
		return
	}
	r.progress(TransferPercent(sent, total))
}

// TransferPercent maps bytes sent to a percentage in [1, 99].
func TransferPercent(sent, total int64) int {
	if total <= 0 {
		return 1
	}
	pct := int(sent * 100 / total)
	return max(1, min(pct, 99))
}

type wireReference struct {
	URL         string `json:"url"`
	Hash        string `json:"hash,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// MarshalJSON encodes hosted references. Local-only references cannot be sent.
func (r *Reference) MarshalJSON() ([]byte, error) {
	if r.url == "" {
		return nil, ErrNotUploaded
	}
	return json.Marshal(wireReference{URL: r.url, Hash: r.hash, ContentType: r.contentType, Size: r.size})
}

// UnmarshalJSON decodes a hosted reference.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var w wireReference
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.URL == "" {
		return errors.New("blob reference without url")
	}
	*r = Reference{url: w.URL, hash: w.Hash, contentType: w.ContentType, size: w.Size}
	return nil
}
