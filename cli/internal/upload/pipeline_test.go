// ABOUTME: Tests for staging, removing and submitting upload items
// ABOUTME: Uses a fake uploader that reports progress like the HTTP transport does

package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
)

func png(tag string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), tag...)
}

func images(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = File{Name: fmt.Sprintf("img%d.png", i), Data: png(fmt.Sprint(i))}
	}
	return files
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	failFor  map[string]error
	block    chan struct{}
	started  chan string
}

func (u *fakeUploader) UploadBlob(ctx context.Context, ref *blob.Reference) (*blob.Reference, error) {
	if u.started != nil {
		u.started <- ref.Hash()
	}
	ref.ReportProgress(ref.Size()/2, ref.Size())
	if u.block != nil {
		select {
		case <-u.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	ref.ReportProgress(ref.Size(), ref.Size())

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.failFor[ref.Hash()]; err != nil {
		return nil, err
	}
	u.uploaded = append(u.uploaded, ref.Hash())
	return blob.Hosted("https://blobs.test/"+ref.Hash(), ref.Hash(), ref.ContentType(), ref.Size()), nil
}

func TestStage_QuotaStagesWhatFits(t *testing.T) {
	p := New()

	warnings, err := p.Stage(images(6))
	var quota *QuotaError
	if !errors.As(err, &quota) || !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if quota.Rejected != 1 || quota.Limit != 5 {
		t.Errorf("expected 1 rejected of limit 5, got %+v", quota)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no per-file warnings, got %v", warnings)
	}
	if p.Len() != 5 {
		t.Errorf("expected 5 staged items, got %d", p.Len())
	}
}

func TestStage_RemainingSlots(t *testing.T) {
	p := New()
	if _, err := p.Stage(images(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Stage(images(3)); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected quota error on second batch, got %v", err)
	}
	if p.Len() != 5 {
		t.Errorf("expected 5 staged items, got %d", p.Len())
	}
}

func TestStage_NonImagesWarnAndContinue(t *testing.T) {
	p := New()
	files := []File{
		{Name: "notes.txt", Data: []byte("just some text")},
		{Name: "a.png", Data: png("a")},
		{Name: "anim.gif", Data: []byte("GIF89a\x01\x00\x01\x00")},
	}

	warnings, err := p.Stage(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Name != "notes.txt" {
		t.Errorf("expected one warning for notes.txt, got %v", warnings)
	}
	items := p.Items()
	if len(items) != 2 || items[0].Name != "a.png" || items[1].Name != "anim.gif" {
		t.Errorf("expected images staged in order, got %+v", items)
	}
	if items[0].ContentType != "image/png" {
		t.Errorf("expected image/png, got %s", items[0].ContentType)
	}
}

func TestRemove_ThenSubmitSendsOnlyRemaining(t *testing.T) {
	p := New()
	p.Stage(images(3))
	removed := p.Items()[1]

	if err := p.Remove(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Remove(7); !errors.Is(err, ErrNoSuchItem) {
		t.Errorf("expected ErrNoSuchItem, got %v", err)
	}

	up := &fakeUploader{}
	var got []*blob.Reference
	err := p.Submit(context.Background(), up, func(refs []*blob.Reference) error {
		got = refs
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || len(up.uploaded) != 2 {
		t.Fatalf("expected 2 references and 2 uploads, got %d and %d", len(got), len(up.uploaded))
	}
	for _, ref := range got {
		if !ref.Hosted() {
			t.Errorf("expected hosted reference, got %s", ref.DirectURL())
		}
	}
	for _, h := range up.uploaded {
		if h == blob.FromBytes(png("1")).Hash() {
			t.Errorf("removed item %s was uploaded", removed.Name)
		}
	}
	if p.Len() != 0 {
		t.Errorf("expected pipeline emptied after submit, got %d", p.Len())
	}
}

func TestSubmit_ProgressMonotonicAndCompletesAt100(t *testing.T) {
	var mu sync.Mutex
	seen := map[string][]int{}
	p := New(WithObserver(func(v View) {
		mu.Lock()
		seen[v.ID] = append(seen[v.ID], v.Progress)
		mu.Unlock()
	}))
	p.Stage(images(2))

	if err := p.Submit(context.Background(), &fakeUploader{}, func([]*blob.Reference) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected progress for 2 items, got %d", len(seen))
	}
	for id, series := range seen {
		for i := 1; i < len(series); i++ {
			if series[i] < series[i-1] {
				t.Errorf("item %s: progress decreased: %v", id, series)
			}
		}
		for i, pct := range series[:len(series)-1] {
			if pct >= 100 {
				t.Errorf("item %s: reached 100 before confirmation at step %d: %v", id, i, series)
			}
		}
		if last := series[len(series)-1]; last != 100 {
			t.Errorf("item %s: expected final progress 100, got %d", id, last)
		}
	}
}

func TestWithLimit_BoundedByProjectMaximum(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"lower", 2, 2},
		{"maximum", MaxLimit, MaxLimit},
		{"above maximum", MaxLimit + 1, DefaultLimit},
		{"zero", 0, DefaultLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithLimit(tt.limit))
			p.Stage(images(MaxLimit + 2))
			if p.Len() != tt.want {
				t.Errorf("staged %d items, want %d", p.Len(), tt.want)
			}
		})
	}
}

func TestSubmit_AllOrNothing(t *testing.T) {
	p := New(WithConcurrency(1))
	files := images(3)
	p.Stage(files)

	bad := blob.FromBytes(files[1].Data).Hash()
	up := &fakeUploader{failFor: map[string]error{bad: errors.New("storage full")}}
	called := false
	err := p.Submit(context.Background(), up, func([]*blob.Reference) error {
		called = true
		return nil
	})

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if called {
		t.Error("expected mutation not to run with a failed upload")
	}
	if got, want := submitErr.Error(), "upload failed for img1.png: storage full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if p.Len() != 3 {
		t.Errorf("expected items kept for retry, got %d", p.Len())
	}

	up.mu.Lock()
	delete(up.failFor, bad)
	before := len(up.uploaded)
	up.mu.Unlock()

	var got []*blob.Reference
	if err := p.Submit(context.Background(), up, func(refs []*blob.Reference) error {
		got = refs
		return nil
	}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 references after retry, got %d", len(got))
	}
	if resent := len(up.uploaded) - before; resent != 3-before {
		t.Errorf("expected only missing items resent, got %d", resent)
	}
}

func TestSubmit_MutationFailureKeepsItems(t *testing.T) {
	p := New()
	p.Stage(images(1))
	boom := errors.New("backend rejected")

	err := p.Submit(context.Background(), &fakeUploader{}, func([]*blob.Reference) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	items := p.Items()
	if len(items) != 1 || items[0].State != StateDone {
		t.Errorf("expected uploaded item kept, got %+v", items)
	}
}

func TestRemove_DuringTransferDropsResult(t *testing.T) {
	p := New()
	p.Stage(images(2))
	up := &fakeUploader{block: make(chan struct{}), started: make(chan string, 2)}

	done := make(chan error, 1)
	var got []*blob.Reference
	go func() {
		done <- p.Submit(context.Background(), up, func(refs []*blob.Reference) error {
			got = refs
			return nil
		})
	}()
	<-up.started
	<-up.started

	if err := p.Remove(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	close(up.block)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected only the remaining reference, got %d", len(got))
	}
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	p := New()
	p.Stage(images(1))
	up := &fakeUploader{block: make(chan struct{}), started: make(chan string, 1)}

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(context.Background(), up, func([]*blob.Reference) error { return nil })
	}()
	<-up.started

	if err := p.Submit(context.Background(), up, func([]*blob.Reference) error { return nil }); !errors.Is(err, ErrSubmitting) {
		t.Errorf("expected ErrSubmitting, got %v", err)
	}
	close(up.block)
	<-done
}

func TestPreload_CountsTowardLimit(t *testing.T) {
	p := New()
	hosted := []*blob.Reference{
		blob.Hosted("https://blobs.test/a", "a", "image/png", 10),
		blob.Hosted("https://blobs.test/b", "b", "image/png", 10),
	}
	if err := p.Preload(hosted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Stage(images(4)); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}

	up := &fakeUploader{}
	var got []*blob.Reference
	p.Submit(context.Background(), up, func(refs []*blob.Reference) error {
		got = refs
		return nil
	})
	if len(got) != 5 || len(up.uploaded) != 3 {
		t.Errorf("expected 5 refs with 3 uploads, got %d and %d", len(got), len(up.uploaded))
	}
	if got[0].Hash() != "a" {
		t.Errorf("expected preloaded references first, got %s", got[0].Hash())
	}
}
