package storage_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noteoverflow/noteoverflow/internal/storage"
)

// webpBytes builds a minimal payload carrying a valid WebP header.
func webpBytes(payload string) []byte {
	b := []byte("RIFF\x00\x00\x00\x00WEBP")
	return append(b, payload...)
}

func TestIsWebP(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"valid header", webpBytes("VP8 "), true},
		{"empty", nil, false},
		{"truncated", []byte("RIFF"), false},
		{"png", []byte("\x89PNG\r\n\x1a\n00000000"), false},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.IsWebP(tt.data); got != tt.want {
				t.Errorf("IsWebP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Put(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := storage.New(srv.URL, "questions")
	data := webpBytes("VP8 fake image data")

	url, err := c.Put(t.Context(), "9702/9702_12_MJ_23/Q4.webp", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if want := srv.URL + "/questions/9702/9702_12_MJ_23/Q4.webp"; url != want {
		t.Errorf("Put() url = %s, want %s", url, want)
	}
	if gotPath != "/questions/9702/9702_12_MJ_23/Q4.webp" {
		t.Errorf("server saw path %s", gotPath)
	}
	if gotContentType != "image/webp" {
		t.Errorf("Content-Type = %s, want image/webp", gotContentType)
	}
	if !bytes.Equal(gotBody, data) {
		t.Error("uploaded body does not match input")
	}
}

func TestClient_Put_RejectsNonWebP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-webp payload must not reach the object store")
	}))
	defer srv.Close()

	c := storage.New(srv.URL, "questions")
	if _, err := c.Put(t.Context(), "q.webp", []byte("not an image")); !errors.Is(err, storage.ErrNotWebP) {
		t.Errorf("Put() error = %v, want ErrNotWebP", err)
	}
}

func TestClient_Put_RejectsOversized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized payload must not reach the object store")
	}))
	defer srv.Close()

	c := storage.New(srv.URL, "questions", storage.WithMaxSize(16))
	if _, err := c.Put(t.Context(), "q.webp", webpBytes("way too much data here")); !errors.Is(err, storage.ErrTooLarge) {
		t.Errorf("Put() error = %v, want ErrTooLarge", err)
	}
}

func TestClient_Put_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := storage.New(srv.URL, "questions")
	if _, err := c.Put(t.Context(), "q.webp", webpBytes("VP8 ")); err == nil {
		t.Fatal("Put() should surface non-2xx responses")
	}
}

func TestMemoryStore(t *testing.T) {
	m := storage.NewMemoryStore("https://cdn.test")

	url, err := m.Put(t.Context(), "a/b.webp", webpBytes("x"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "https://cdn.test/a/b.webp" {
		t.Errorf("Put() url = %s", url)
	}
	if _, ok := m.Get("a/b.webp"); !ok {
		t.Error("object should be retrievable after Put")
	}
	if _, err := m.Put(t.Context(), "bad", []byte("nope")); !errors.Is(err, storage.ErrNotWebP) {
		t.Errorf("Put() error = %v, want ErrNotWebP", err)
	}
}
