// ABOUTME: Stages local image files for a project form and uploads them as blobs
// ABOUTME: Enforces the per-form item cap and hands references to the mutation all-or-nothing

package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
)

const (
	// DefaultLimit is the maximum number of staged items per form.
	DefaultLimit = 5
	// MaxLimit is the most images a project accepts.
	MaxLimit = 5
	// DefaultConcurrency bounds simultaneous transfers during Submit.
	DefaultConcurrency = 3
)

var (
	// ErrQuotaExceeded is wrapped by every *QuotaError.
	ErrQuotaExceeded = errors.New("upload quota exceeded")
	// ErrNoSuchItem is returned by Remove for an out-of-range index.
	ErrNoSuchItem = errors.New("no such upload item")
	// ErrSubmitting is returned while a submission is already running.
	ErrSubmitting = errors.New("submission already in progress")
)

// QuotaError reports files left out because the form was full.
type QuotaError struct {
	Limit    int
	Rejected int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%d file(s) not added: at most %d images per project", e.Rejected, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// SubmitError blocks a submission because some items have no reference.
type SubmitError struct {
	Failed []string
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("upload failed for %s: %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// File is a local file selected by the user.
type File struct {
	Name string
	Data []byte
}

// Warning explains why a single file was skipped.
type Warning struct {
	Name   string
	Reason string
}

func (w Warning) String() string { return w.Name + ": " + w.Reason }

// State is the lifecycle of one item.
type State int

const (
	StatePending State = iota
	StateUploading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateUploading:
		return "uploading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Uploader stores a local reference and returns its hosted form.
type Uploader interface {
	UploadBlob(ctx context.Context, ref *blob.Reference) (*blob.Reference, error)
}

// Item is one staged file.
type Item struct {
	ID   string
	Name string

	mu       sync.Mutex
	local    *blob.Reference
	hosted   *blob.Reference
	progress int
	state    State
	err      error
	removed  bool
	cancel   context.CancelFunc
}

// View is a snapshot of an item for display.
type View struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	Progress    int
	State       State
	Err         error
}

func (it *Item) view() View {
	it.mu.Lock()
	defer it.mu.Unlock()
	ref := it.hosted
	if ref == nil {
		ref = it.local
	}
	return View{
		ID:          it.ID,
		Name:        it.Name,
		ContentType: ref.ContentType(),
		Size:        ref.Size(),
		Progress:    it.progress,
		State:       it.state,
		Err:         it.err,
	}
}

// Pipeline owns the staged items of one form.
type Pipeline struct {
	mu          sync.Mutex
	items       []*Item
	submitting  bool
	limit       int
	concurrency int
	observer    func(View)
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimit overrides DefaultLimit. Values outside 1..MaxLimit are ignored.
func WithLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 && n <= MaxLimit {
			p.limit = n
		}
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithObserver receives a snapshot after every progress or state change.
func WithObserver(fn func(View)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		limit:       DefaultLimit,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Limit returns the maximum number of staged items.
func (p *Pipeline) Limit() int { return p.limit }

// Stage adds image files in order until the form is full. Non-image files
// produce a warning and do not use a slot. Files beyond the limit are
// reported by a *QuotaError; the ones that fit stay staged.
func (p *Pipeline) Stage(files []File) ([]Warning, error) {
	p.mu.Lock()
	var warnings []Warning
	var added []*Item
	rejected := 0
	for _, f := range files {
		ref := blob.FromBytes(f.Data)
		if !strings.HasPrefix(ref.ContentType(), "image/") {
			warnings = append(warnings, Warning{Name: f.Name, Reason: "not an image (" + ref.ContentType() + ")"})
			continue
		}
		if len(p.items) >= p.limit {
			rejected++
			continue
		}
		it := &Item{ID: uuid.NewString(), Name: f.Name, local: ref}
		p.items = append(p.items, it)
		added = append(added, it)
	}
	p.mu.Unlock()

	for _, it := range added {
		p.logger.Debug("Staged upload item", "id", it.ID, "name", it.Name, "size", it.local.Size())
		p.notify(it)
	}
	if rejected > 0 {
		return warnings, &QuotaError{Limit: p.limit, Rejected: rejected}
	}
	return warnings, nil
}

// Preload stages references that are already hosted, as when editing an
// existing project. They count toward the limit and are never re-uploaded.
func (p *Pipeline) Preload(refs []*blob.Reference) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rejected := 0
	for i, ref := range refs {
		if len(p.items) >= p.limit {
			rejected++
			continue
		}
		p.items = append(p.items, &Item{
			ID:       uuid.NewString(),
			Name:     fmt.Sprintf("image %d", i+1),
			local:    ref,
			hosted:   ref,
			progress: 100,
			state:    StateDone,
		})
	}
	if rejected > 0 {
		return &QuotaError{Limit: p.limit, Rejected: rejected}
	}
	return nil
}

// Remove discards the item at index. Nothing is sent to the backend; a
// transfer already running for the item is canceled and its result dropped.
func (p *Pipeline) Remove(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.items) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoSuchItem, index)
	}
	it := p.items[index]
	p.items = slices.Delete(p.items, index, index+1)
	p.mu.Unlock()

	it.mu.Lock()
	it.removed = true
	if it.cancel != nil {
		it.cancel()
	}
	it.mu.Unlock()
	p.logger.Debug("Removed upload item", "id", it.ID, "name", it.Name)
	return nil
}

// Items returns snapshots of the staged items in order.
func (p *Pipeline) Items() []View {
	p.mu.Lock()
	items := slices.Clone(p.items)
	p.mu.Unlock()

	views := make([]View, len(items))
	for i, it := range items {
		views[i] = it.view()
	}
	return views
}

// Len returns the number of staged items.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Reset discards every item.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	items := p.items
	p.items = nil
	p.mu.Unlock()

	for _, it := range items {
		it.mu.Lock()
		it.removed = true
		if it.cancel != nil {
			it.cancel()
		}
		it.mu.Unlock()
	}
}

// Submit uploads every item that has no hosted reference yet, then passes
// all references to mutate in staging order. If any item fails, mutate is
// not called and a *SubmitError names the failed files. Items that were
// uploaded stay uploaded so a retry only resends the failures. On success
// the pipeline is emptied.
func (p *Pipeline) Submit(ctx context.Context, up Uploader, mutate func([]*blob.Reference) error) error {
	p.mu.Lock()
	if p.submitting {
		p.mu.Unlock()
		return ErrSubmitting
	}
	p.submitting = true
	items := slices.Clone(p.items)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.submitting = false
		p.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, it := range items {
		g.Go(func() error {
			return p.transfer(gctx, up, it)
		})
	}
	uploadErr := g.Wait()

	p.mu.Lock()
	current := slices.Clone(p.items)
	p.mu.Unlock()

	refs := make([]*blob.Reference, 0, len(current))
	var failed []string
	for _, it := range current {
		it.mu.Lock()
		if it.state == StateDone {
			refs = append(refs, it.hosted)
		} else {
			failed = append(failed, it.Name)
		}
		it.mu.Unlock()
	}
	if len(failed) > 0 {
		if uploadErr == nil {
			uploadErr = errors.New("not uploaded")
		}
		p.logger.Warn("Submission blocked by failed uploads", "failed", len(failed), "error", uploadErr)
		return &SubmitError{Failed: failed, Err: uploadErr}
	}

	if err := mutate(refs); err != nil {
		return err
	}
	p.Reset()
	return nil
}

func (p *Pipeline) transfer(ctx context.Context, up Uploader, it *Item) error {
	it.mu.Lock()
	if it.removed || it.state == StateDone {
		it.mu.Unlock()
		return nil
	}
	tctx, cancel := context.WithCancel(ctx)
	defer cancel()
	it.cancel = cancel
	it.state = StateUploading
	it.err = nil
	ref := it.local.WithUploadProgress(func(pct int) { p.advance(it, pct) })
	it.mu.Unlock()
	p.notify(it)

	hosted, err := up.UploadBlob(tctx, ref)

	it.mu.Lock()
	it.cancel = nil
	if it.removed {
		it.mu.Unlock()
		p.logger.Debug("Dropped transfer for removed item", "id", it.ID)
		return nil
	}
	if err != nil {
		it.state = StateFailed
		it.err = err
		it.mu.Unlock()
		p.notify(it)
		return err
	}
	it.hosted = hosted
	it.state = StateDone
	it.progress = 100
	it.mu.Unlock()
	p.notify(it)
	return nil
}

// advance records transfer progress. Progress never decreases and reaches
// 100 only when the backend confirms the upload.
func (p *Pipeline) advance(it *Item, pct int) {
	pct = max(1, min(pct, 99))
	it.mu.Lock()
	if it.removed || it.state != StateUploading || pct <= it.progress {
		it.mu.Unlock()
		return
	}
	it.progress = pct
	it.mu.Unlock()
	p.notify(it)
}

func (p *Pipeline) notify(it *Item) {
	if p.observer != nil {
		p.observer(it.view())
	}
}
