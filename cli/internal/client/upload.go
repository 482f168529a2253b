// ABOUTME: Streams local blob bytes to the backend with progress reporting
// ABOUTME: Verifies the stored hash matches the content that was sent

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
)

type blobInfo struct {
	Hash        string `json:"hash"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// progressReader reports bytes consumed by the transport.
type progressReader struct {
	r      io.Reader
	sent   atomic.Int64
	total  int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.report(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}

// UploadBlob calls POST /api/v1/blobs with the reference's local bytes and
// returns the hosted reference. Progress is reported on ref while bytes are sent.
func (c *Client) UploadBlob(ctx context.Context, ref *blob.Reference) (*blob.Reference, error) {
	body, err := ref.Reader()
	if err != nil {
		return nil, err
	}

	pr := &progressReader{r: body, total: ref.Size(), report: ref.ReportProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/blobs", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = ref.Size()
	req.Header.Set("Content-Type", ref.ContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var info blobInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	if info.Hash != ref.Hash() {
		return nil, fmt.Errorf("invalid response from backend: stored hash %s does not match %s", info.Hash, ref.Hash())
	}

	hosted := blob.Hosted(info.URL, info.Hash, info.ContentType, info.Size)
	if c.blobs != nil {
		hosted = hosted.WithFetcher(c.blobs)
	}
	return hosted, nil
}
