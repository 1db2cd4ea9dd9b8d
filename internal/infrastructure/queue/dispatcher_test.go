package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubReconciler struct {
	mu      sync.Mutex
	seen    map[string]int
	active  map[string]bool
	overlap bool
	done    chan string
}

func newStubReconciler() *stubReconciler {
	return &stubReconciler{seen: map[string]int{}, active: map[string]bool{}, done: make(chan string, 1024)}
}

func (r *stubReconciler) Reconcile(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	if r.active[slug] {
		r.overlap = true
	}
	r.active[slug] = true
	r.mu.Unlock()

	time.Sleep(time.Millisecond)

	r.mu.Lock()
	r.active[slug] = false
	r.seen[slug]++
	r.mu.Unlock()
	r.done <- slug
	return slug == "drifted", nil
}

type stubSource struct {
	slugs []string
	err   error
}

func (s stubSource) Slugs(context.Context) ([]string, error) { return s.slugs, s.err }

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, newStubReconciler(), zerolog.Nop())
	for _, slug := range []string{"pomodoro", "pdf-to-image", "password"} {
		first := d.shardIndex(slug)
		for i := 0; i < 10; i++ {
			if d.shardIndex(slug) != first {
				t.Fatalf("shard of %s changed", slug)
			}
		}
		if first < 0 || first >= 4 {
			t.Fatalf("shard out of range: %d", first)
		}
	}
}

func TestDispatcher_ReconcilesEverySlug(t *testing.T) {
	rec := newStubReconciler()
	d := NewDispatcher(3, rec, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	slugs := []string{"a", "b", "c", "drifted", "a", "a"}
	n, err := d.EnqueueAll(ctx, stubSource{slugs: slugs})
	if err != nil || n != len(slugs) {
		t.Fatalf("EnqueueAll = %d, %v", n, err)
	}

	for i := 0; i < len(slugs); i++ {
		select {
		case <-rec.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d reconciliations", i)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.seen["a"] != 3 || rec.seen["drifted"] != 1 {
		t.Fatalf("unexpected counts: %v", rec.seen)
	}
	if rec.overlap {
		t.Fatal("a slug was reconciled concurrently")
	}
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, newStubReconciler(), zerolog.Nop())

	accepted := 0
	for i := 0; i < channelBuffer+10; i++ {
		if d.Enqueue("same") {
			accepted++
		}
	}
	if accepted != channelBuffer {
		t.Fatalf("expected %d accepted, got %d", channelBuffer, accepted)
	}
}

func TestDispatcher_EnqueueAllSourceError(t *testing.T) {
	d := NewDispatcher(1, newStubReconciler(), zerolog.Nop())
	if _, err := d.EnqueueAll(context.Background(), stubSource{err: errors.New("down")}); err == nil {
		t.Fatal("expected source error")
	}
}

func TestDispatcher_EveryDisabledReturnsOnCancel(t *testing.T) {
	d := NewDispatcher(1, newStubReconciler(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Every(ctx, 0, stubSource{}) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}

func TestDispatcher_EveryTicks(t *testing.T) {
	rec := newStubReconciler()
	d := NewDispatcher(1, rec, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	go func() { _ = d.Every(ctx, 10*time.Millisecond, stubSource{slugs: []string{"pomodoro"}}) }()

	select {
	case slug := <-rec.done:
		if slug != "pomodoro" {
			t.Fatalf("unexpected slug %s", slug)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("periodic pass never ran")
	}
}
