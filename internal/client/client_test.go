package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/retouch/internal/compose"
	"github.com/example/retouch/internal/server"
	"github.com/example/retouch/internal/store"
)

func newTestServer(t *testing.T) (*Client, store.Store) {
	t.Helper()
	st := store.NewMemory()
	ts := httptest.NewServer(server.New(st, server.Config{}).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL), st
}

func pngArtifact(t *testing.T, name string) *compose.Artifact {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	return &compose.Artifact{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	first, err := c.Upload(ctx, pngArtifact(t, "first.png"))
	if err != nil {
		t.Fatal(err)
	}
	if first.Message != server.MsgUploaded || !strings.HasPrefix(first.FilePath, "/uploads/") {
		t.Fatalf("upload = %+v", first)
	}
	// Stored names sort by upload time.
	time.Sleep(2 * time.Millisecond)
	second, err := c.Upload(ctx, pngArtifact(t, "second.png"))
	if err != nil {
		t.Fatal(err)
	}

	urls, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 || urls[0] != second.FilePath || urls[1] != first.FilePath {
		t.Fatalf("list = %v, want most recent first", urls)
	}

	f, err := c.Fetch(ctx, second.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if f.ContentType != "image/png" || len(f.Data) == 0 {
		t.Fatalf("fetch = %s %s %d bytes", f.Name, f.ContentType, len(f.Data))
	}
	if want := "uploads-" + strings.TrimPrefix(second.FilePath, "/uploads/"); f.Name != want {
		t.Fatalf("name = %q, want %q", f.Name, want)
	}

	msg, err := c.Delete(ctx, second.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if msg != server.MsgDeleted {
		t.Fatalf("delete message = %q", msg)
	}
	urls, _ = c.List(ctx)
	if len(urls) != 1 || urls[0] != first.FilePath {
		t.Fatalf("list after delete = %v", urls)
	}
}

func TestTransportErrors(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, &compose.Artifact{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("upload err = %v, want TransportError", err)
	}
	if te.Status != http.StatusBadRequest || te.Message != server.MsgBadType {
		t.Fatalf("upload err = %+v", te)
	}

	_, err = c.Delete(ctx, "/uploads/missing.png")
	if !errors.As(err, &te) || te.Status != http.StatusInternalServerError || te.Message != server.MsgDeleteFailed {
		t.Fatalf("delete err = %v", err)
	}

	_, err = c.Fetch(ctx, "/uploads/missing.png")
	if !errors.As(err, &te) || te.Status != http.StatusNotFound || te.Message != server.MsgNotFound {
		t.Fatalf("fetch err = %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err := New(url).List(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Err == nil {
		t.Fatalf("err = %v, want wrapped network error", err)
	}
}

func TestNonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)
	_, err := New(ts.URL).List(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusBadGateway || te.Message != "boom" {
		t.Fatalf("err = %v", err)
	}
}

func TestResolve(t *testing.T) {
	c := New("http://example.com:3000/")
	tests := []struct{ in, want string }{
		{"/uploads/a.png", "http://example.com:3000/uploads/a.png"},
		{"uploads/a.png", "http://example.com:3000/uploads/a.png"},
		{"http://other/x.png", "http://other/x.png"},
	}
	for _, tt := range tests {
		got, err := c.resolve(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("resolve(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
