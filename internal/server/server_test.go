package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/example/retouch/internal/store"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestUploadListGetDelete(t *testing.T) {
	st := store.NewMemory()
	h := New(st, Config{}).Handler()
	data := pngBytes(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "image", "photo.PNG", "image/png", data))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d body=%s", rec.Code, rec.Body)
	}
	up := decode[UploadResponse](t, rec)
	if up.Message != MsgUploaded {
		t.Fatalf("message = %q", up.Message)
	}
	if !strings.HasPrefix(up.FilePath, "/uploads/") || !strings.HasSuffix(up.FilePath, ".png") {
		t.Fatalf("filePath = %q", up.FilePath)
	}

	st.Save(context.Background(), &store.Object{Name: "notes.txt", Data: []byte("x")})

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list-uploads", nil))
	list := decode[ListResponse](t, rec)
	if list.Message != MsgListed || len(list.FileURLs) != 1 || list.FileURLs[0] != up.FilePath {
		t.Fatalf("list = %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up.FilePath, nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Fatalf("get status = %d len=%d", rec.Code, rec.Body.Len())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, up.FilePath, nil))
	if rec.Code != http.StatusOK || decode[MessageResponse](t, rec).Message != MsgDeleted {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, up.FilePath, nil))
	if rec.Code != http.StatusInternalServerError || decode[MessageResponse](t, rec).Message != MsgDeleteFailed {
		t.Fatalf("second delete status = %d body=%s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up.FilePath, nil))
	if rec.Code != http.StatusNotFound || decode[MessageResponse](t, rec).Message != MsgNotFound {
		t.Fatalf("get deleted status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		msg    string
	}{
		{
			name: "wrong type",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "image", "a.gif", "image/gif", []byte("GIF89a"))
			},
			status: http.StatusBadRequest,
			msg:    MsgBadType,
		},
		{
			name: "wrong field",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "a.png", "image/png", pngBytes(t))
			},
			status: http.StatusBadRequest,
			msg:    MsgNoFile,
		},
		{
			name: "no body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload", nil)
			},
			status: http.StatusBadRequest,
			msg:    MsgNoFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			rec := httptest.NewRecorder()
			New(st, Config{}).Handler().ServeHTTP(rec, tt.req(t))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode[MessageResponse](t, rec).Message; got != tt.msg {
				t.Fatalf("message = %q, want %q", got, tt.msg)
			}
			if names, _ := st.List(context.Background()); len(names) != 0 {
				t.Fatalf("stored %v", names)
			}
		})
	}
}

func TestUploadExtensionFromType(t *testing.T) {
	h := New(store.NewMemory(), Config{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "image", "blob", "image/jpeg", []byte{0xff, 0xd8, 0xff}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if p := decode[UploadResponse](t, rec).FilePath; !strings.HasSuffix(p, ".jpg") {
		t.Fatalf("filePath = %q", p)
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := New(store.NewMemory(), Config{MaxUploadBytes: 64}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "image", "a.png", "image/png", bytes.Repeat([]byte{1}, 4096)))
	if rec.Code == http.StatusOK {
		t.Fatal("oversized upload accepted")
	}
}

func TestCustomPrefix(t *testing.T) {
	st := store.NewMemory()
	st.Save(context.Background(), &store.Object{Name: "1.png", ContentType: "image/png", Data: pngBytes(t)})
	h := New(st, Config{Prefix: "/images/"}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list-uploads", nil))
	if urls := decode[ListResponse](t, rec).FileURLs; len(urls) != 1 || urls[0] != "/images/1.png" {
		t.Fatalf("urls = %v", urls)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/1.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTraversalRejected(t *testing.T) {
	h := New(store.NewMemory(), Config{}).Handler()
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/uploads/..", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", method, rec.Code)
		}
	}
}

func TestCORSAllowsClientHost(t *testing.T) {
	h := New(store.NewMemory(), Config{ClientHosts: []string{"http://localhost:5173"}}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/list-uploads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/list-uploads", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow origin = %q, want none", got)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(store.NewMemory(), Config{Listen: "127.0.0.1:0"})
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("ListenAndServe = %v", err)
	}
}
