package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "newsreader-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "newsreader-test")
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "hello" {
		t.Errorf("expected 'hello', got %q", body)
	}
}

func TestClientGetNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "")
	_, err := c.Get(context.Background(), srv.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", fetchErr.StatusCode)
	}
}

func TestClientGetConnectionRefused(t *testing.T) {
	c := NewClient(time.Second, "")
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/feed")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestHandleIsLazy(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html><body><article><p>Full story text goes here with enough words.</p></article></body></html>"))
	}))
	defer srv.Close()

	r := NewResolver(NewClient(5*time.Second, ""))
	h := r.Handle(srv.URL + "/story")

	if calls.Load() != 0 {
		t.Fatal("constructing a handle must not touch the network")
	}

	text, err := h.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Full story text") {
		t.Errorf("expected extracted story text, got %q", text)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls.Load())
	}

	// Resolving again issues a fresh request; nothing is cached.
	h.Resolve(context.Background())
	if calls.Load() != 2 {
		t.Errorf("expected 2 requests after second resolve, got %d", calls.Load())
	}
}

func TestHandleResolveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewResolver(NewClient(5*time.Second, ""))
	_, err := r.Handle(srv.URL).Resolve(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}
