package loader

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const testDoc = `Objects:  {
	Model: 1, "Model::box", "Mesh" {
	}
}
Connections:  {
	C: "OO",1,0
}
`

type countingFetcher struct {
	calls int32
	gate  chan struct{}
}

func (f *countingFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	return io.NopCloser(strings.NewReader(testDoc)), nil
}

func TestLoadCached(t *testing.T) {
	f := &countingFetcher{}
	l := New(WithFetcher("mem", f))

	s1, err := l.Load(context.Background(), "mem://host/a.fbx")
	if err != nil {
		t.Fatal(err)
	}
	if len(s1.Objects.Models) != 1 || s1.Objects.Models[0].Name != "box" {
		t.Errorf("unexpected scene: %v", s1.Objects.Models)
	}
	s2, err := l.Load(context.Background(), "mem://host/a.fbx")
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 || f.calls != 1 {
		t.Errorf("same url should reuse the graph (calls=%d)", f.calls)
	}
	if hits, misses := l.Cache().Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats: %d %d", hits, misses)
	}

	if !l.Cache().Remove("mem://host/a.fbx") {
		t.Error("entry should be removed")
	}
	s3, _ := l.Load(context.Background(), "mem://host/a.fbx")
	if s3 == s1 || f.calls != 2 {
		t.Error("removed entry should be reloaded")
	}
	l.Cache().Clear()
	if l.Cache().Len() != 0 {
		t.Error("cache should be empty")
	}
}

func TestLoadConcurrent(t *testing.T) {
	f := &countingFetcher{gate: make(chan struct{})}
	l := New(WithFetcher("mem", f))

	var wg sync.WaitGroup
	results := make(chan interface{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := l.Load(context.Background(), "mem://host/b.fbx")
			if err != nil {
				results <- err
				return
			}
			results <- s
		}()
	}
	close(f.gate)
	wg.Wait()
	close(results)

	var first interface{}
	for r := range results {
		if err, ok := r.(error); ok {
			t.Fatal(err)
		}
		if first == nil {
			first = r
		} else if first != r {
			t.Error("concurrent loads returned different graphs")
		}
	}
	if f.calls != 1 {
		t.Errorf("fetch should run once, ran %d times", f.calls)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.fbx")
	if err := os.WriteFile(path, []byte(testDoc), 0644); err != nil {
		t.Fatal(err)
	}
	l := New()
	s, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := l.Key(path)
	if !strings.HasPrefix(key, "file://") {
		t.Errorf("unexpected key: %v", key)
	}
	if cached, ok := l.Cache().Get(key); !ok || cached != s {
		t.Error("scene should be cached by absolute url")
	}

	if _, err := l.Load(context.Background(), filepath.Join(dir, "missing.fbx")); err == nil {
		t.Error("expected error")
	}
	if l.Cache().Len() != 1 {
		t.Error("failed loads must not be cached")
	}
}

func TestKey(t *testing.T) {
	base, _ := url.Parse("https://example.com/models/")
	l := New(WithBase(base))
	key, err := l.Key("../chars/a.fbx")
	if err != nil || key != "https://example.com/chars/a.fbx" {
		t.Errorf("unexpected key: %v %v", key, err)
	}
	if _, err := l.Load(context.Background(), "ftp://example.com/a.fbx"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}
