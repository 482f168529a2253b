// ABOUTME: Blob handlers for project images
// ABOUTME: Uploads are content-addressed; fetches are public and cacheable forever

package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/services"
)

// UploadBlob stores the raw request body. It answers 201 for new content and
// 200 when the same bytes were already stored.
func (h *Handler) UploadBlob(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.blobs.MaxBytes() {
		writeError(w, "Upload exceeds "+humanize.IBytes(uint64(h.blobs.MaxBytes())), http.StatusRequestEntityTooLarge)
		return
	}

	info, created, err := h.blobs.Put(r.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if declared := r.Header.Get("Content-Type"); declared != "" && declared != info.ContentType {
		slog.Debug("Blob content type differs from declared", "declared", declared, "detected", info.ContentType)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.metrics.ObserveBlobBytes(info.Size)
		slog.Info("Blob stored",
			"hash", info.Hash,
			"size", humanize.IBytes(uint64(info.Size)),
			"principal", middleware.Principal(r),
		)
	}
	writeJSON(w, status, info)
}

// GetBlob serves stored content by hash.
func (h *Handler) GetBlob(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if err := services.ValidateHash(hash); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := h.blobs.Get(hash)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("ETag", `"`+hash+`"`)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(b.Data))
}
