package mood

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeConverter struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	result  map[string]string
	err     error
}

func (f *fakeConverter) NormalizeMoods(ctx context.Context, phrases []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, phrases)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestResolveCachesCaseInsensitively(t *testing.T) {
	fake := &fakeConverter{result: map[string]string{"foggy morning": "a bit unclear"}}
	n := NewNormalizer(fake)

	first := n.Resolve(context.Background(), []string{"foggy morning"})
	if first["foggy morning"] != "a bit unclear" {
		t.Fatalf("first = %v", first)
	}

	second := n.Resolve(context.Background(), []string{"Foggy Morning"})
	if second["foggy morning"] != "a bit unclear" {
		t.Fatalf("second = %v", second)
	}
	if fake.calls != 1 {
		t.Fatalf("model calls = %d, want 1 (case variants share a cache entry)", fake.calls)
	}
}

func TestResolveBatchesMisses(t *testing.T) {
	fake := &fakeConverter{result: map[string]string{
		"foggy morning": "a bit unclear",
		"deep water":    "in the thick of it",
	}}
	n := NewNormalizer(fake)

	got := n.Resolve(context.Background(), []string{"foggy morning", "deep water", "foggy morning"})
	if fake.calls != 1 {
		t.Fatalf("model calls = %d, want 1", fake.calls)
	}
	if len(fake.batches[0]) != 2 {
		t.Fatalf("batch = %v, want the two distinct phrases", fake.batches[0])
	}
	if got["deep water"] != "in the thick of it" {
		t.Fatalf("got = %v", got)
	}
}

func TestResolveIdentityOnFailure(t *testing.T) {
	fake := &fakeConverter{err: errors.New("connection refused")}
	n := NewNormalizer(fake)

	got := n.Resolve(context.Background(), []string{"paused traffic"})
	if got["paused traffic"] != "paused traffic" {
		t.Fatalf("got = %v, want identity mapping", got)
	}

	// The identity result is cached so the dead model is not re-asked.
	n.Resolve(context.Background(), []string{"paused traffic"})
	if fake.calls != 1 {
		t.Fatalf("model calls = %d, want 1", fake.calls)
	}
}

func TestResolveSkipsEmptyPhrases(t *testing.T) {
	fake := &fakeConverter{}
	n := NewNormalizer(fake)

	got := n.Resolve(context.Background(), []string{"", "   "})
	if len(got) != 0 {
		t.Fatalf("got = %v, want empty", got)
	}
	if fake.calls != 0 {
		t.Fatalf("model calls = %d, want 0", fake.calls)
	}
}

func TestResolveConcurrent(t *testing.T) {
	fake := &fakeConverter{result: map[string]string{"low battery": "running on empty"}}
	n := NewNormalizer(fake)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := n.Resolve(context.Background(), []string{"Low Battery"})
			if got["low battery"] == "" {
				t.Error("missing resolution")
			}
		}()
	}
	wg.Wait()

	if n.Feeling(context.Background(), "low battery") != "running on empty" {
		t.Fatal("cache did not settle on the model's answer")
	}
}

func TestResolveFirstWriterWins(t *testing.T) {
	fake := &fakeConverter{result: map[string]string{"open window": "quietly hopeful"}}
	n := NewNormalizer(fake)

	n.Resolve(context.Background(), []string{"open window"})
	fake.result = map[string]string{"open window": "something else"}
	got := n.Resolve(context.Background(), []string{"OPEN WINDOW"})
	if got["open window"] != "quietly hopeful" {
		t.Fatalf("got = %v, cached entry should be stable", got)
	}
}
