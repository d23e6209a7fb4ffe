// Package client talks to the upload server: upload, list, fetch and delete.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/compose"
	"github.com/example/retouch/internal/imagesource"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "http://localhost:3000"

// FieldName is the multipart field carrying the uploaded file.
const FieldName = "image"

// TransportError reports a failed request. Message holds the server's
// message when one was returned.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// UploadResult is the server's reply to a successful upload.
type UploadResult struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

type listResponse struct {
	Message  string   `json:"message"`
	FileURLs []string `json:"fileUrls"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Client is safe for concurrent use.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// resolve turns a server relative path like /uploads/x.png into a full URL.
// Absolute URLs are returned unchanged.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return ref, nil
	}
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/")}).String(), nil
}

func (c *Client) do(ctx context.Context, op, method, ref string, body io.Reader, contentType string) (*http.Response, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	logrus.WithFields(logrus.Fields{"method": method, "url": target}).Debug("client request")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var m messageResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, &m) != nil {
			m.Message = strings.TrimSpace(string(data))
		}
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Message: m.Message}
	}
	return resp, nil
}

func decodeJSON(op string, resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Upload sends the artifact as a multipart form.
func (c *Client) Upload(ctx context.Context, a *compose.Artifact) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, a.Name))
	h.Set("Content-Type", a.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return UploadResult{}, &TransportError{Op: "upload", Err: err}
	}
	if _, err := part.Write(a.Data); err != nil {
		return UploadResult{}, &TransportError{Op: "upload", Err: err}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, &TransportError{Op: "upload", Err: err}
	}
	resp, err := c.do(ctx, "upload", http.MethodPost, "/upload", &buf, mw.FormDataContentType())
	if err != nil {
		return UploadResult{}, err
	}
	var res UploadResult
	if err := decodeJSON("upload", resp, &res); err != nil {
		return UploadResult{}, err
	}
	logrus.WithFields(logrus.Fields{"name": a.Name, "path": res.FilePath}).Info("uploaded image")
	return res, nil
}

// List returns the stored file URLs, most recent first.
func (c *Client) List(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, "list", http.MethodGet, "/list-uploads", nil, "")
	if err != nil {
		return nil, err
	}
	var res listResponse
	if err := decodeJSON("list", resp, &res); err != nil {
		return nil, err
	}
	urls := make([]string, len(res.FileURLs))
	for i, u := range res.FileURLs {
		urls[len(urls)-1-i] = u
	}
	return urls, nil
}

// Delete removes the file at fileURL and returns the server's message.
func (c *Client) Delete(ctx context.Context, fileURL string) (string, error) {
	resp, err := c.do(ctx, "delete", http.MethodDelete, fileURL, nil, "")
	if err != nil {
		return "", err
	}
	var res messageResponse
	if err := decodeJSON("delete", resp, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Fetch downloads a gallery file. The name is inferred from the URL.
func (c *Client) Fetch(ctx context.Context, fileURL string) (imagesource.File, error) {
	resp, err := c.do(ctx, "fetch", http.MethodGet, fileURL, nil, "")
	if err != nil {
		return imagesource.File{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return imagesource.File{}, &TransportError{Op: "fetch", Status: resp.StatusCode, Err: err}
	}
	name := imagesource.NameFromURL(fileURL)
	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	if ct == "" || ct == "application/octet-stream" {
		ct = imagesource.DetectType(name, data)
	}
	return imagesource.File{Name: name, ContentType: ct, Data: data}, nil
}
