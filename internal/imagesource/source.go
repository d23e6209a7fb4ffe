// Package imagesource validates, names and decodes the images a session
// works on.
package imagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// AllowedTypes lists the content types an image source may have.
var AllowedTypes = []string{"image/jpg", "image/jpeg", "image/png"}

// ErrDecode is returned when image bytes cannot be turned into a bitmap.
var ErrDecode = errors.New("decode image")

// ValidationMessage is shown to the user when a file type is rejected.
const ValidationMessage = "File type not allowed. Please upload a valid image file. (JPG/PNG)"

// ValidationError reports a file whose type is not allowed.
type ValidationError struct {
	Name        string
	ContentType string
}

func (e *ValidationError) Error() string { return ValidationMessage }

// File is an undecoded image together with its name and type.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Source is a decoded image. It is never mutated after decoding.
type Source struct {
	Name        string
	ContentType string
	Image       image.Image
	Width       int
	Height      int
}

// Validate checks contentType against AllowedTypes.
func Validate(name, contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range AllowedTypes {
		if ct == allowed {
			return nil
		}
	}
	return &ValidationError{Name: name, ContentType: contentType}
}

// DetectType sniffs data, falling back to the file extension.
func DetectType(name string, data []byte) string {
	if len(data) > 0 {
		ct := http.DetectContentType(data)
		if ct != "application/octet-stream" {
			return ct
		}
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ReadFile loads path as a File.
func ReadFile(p string) (File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", p, err)
	}
	return File{Name: filepath.Base(p), ContentType: DetectType(p, data), Data: data}, nil
}

// Decode validates f and decodes it. ctx is checked before and after the
// decode; a cancelled context discards the result.
func Decode(ctx context.Context, f File) (*Source, error) {
	if err := Validate(f.Name, f.ContentType); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, f.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w %s: no pixels", ErrDecode, f.Name)
	}
	return &Source{
		Name:        f.Name,
		ContentType: f.ContentType,
		Image:       img,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// FromImage wraps an already decoded image, e.g. one read from the
// clipboard or captured from the screen.
func FromImage(name string, img image.Image) (*Source, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w %s: no pixels", ErrDecode, name)
	}
	b := img.Bounds()
	return &Source{Name: name, ContentType: "image/png", Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// NameFromURL derives a file name from a gallery URL by dropping the leading
// separator and joining the remaining path segments with "-":
// "/uploads/17.png" becomes "uploads-17.png".
func NameFromURL(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return strings.ReplaceAll(p, "/", "-")
}
