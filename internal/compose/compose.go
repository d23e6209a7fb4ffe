// Package compose merges the base canvas and the drawing layer into the
// encoded image that gets uploaded.
package compose

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/example/retouch/internal/drawing"
)

var (
	// ErrPreconditionFailed is returned when there is no base canvas.
	ErrPreconditionFailed = errors.New("no image loaded")
	// ErrCompositionFailed is returned when the merged image cannot be encoded.
	ErrCompositionFailed = errors.New("composition failed")
)

const (
	// FallbackName and FallbackType are used when the source file is unknown.
	FallbackName = "image.jpg"
	FallbackType = "image/jpeg"

	DefaultJPEGQuality = 92
)

// FileInfo describes the file the base image came from.
type FileInfo struct {
	Name        string
	ContentType string
}

// Artifact is an encoded, named image ready for upload.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options configures encoding.
type Options struct {
	JPEGQuality int
}

// Merge draws base at the origin and layer stretched over it. A nil layer,
// or one that was never sized, leaves the base untouched.
func Merge(base image.Image, layer drawing.Layer) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, ErrPreconditionFailed
	}
	bb := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(out, out.Bounds(), base, bb.Min, draw.Src)
	if layer == nil {
		return out, nil
	}
	snap := layer.Snapshot()
	if snap == nil || snap.Bounds().Empty() {
		return out, nil
	}
	if snap.Bounds().Size() == out.Bounds().Size() {
		draw.Draw(out, out.Bounds(), snap, snap.Bounds().Min, draw.Over)
	} else {
		xdraw.ApproxBiLinear.Scale(out, out.Bounds(), snap, snap.Bounds(), draw.Over, nil)
	}
	return out, nil
}

// Compose merges base and layer and encodes the result as src's type.
func Compose(base image.Image, layer drawing.Layer, src FileInfo, opts Options) (*Artifact, error) {
	merged, err := Merge(base, layer)
	if err != nil {
		return nil, err
	}
	name, ctype := src.Name, strings.TrimSpace(src.ContentType)
	if name == "" || normalizeType(ctype) == "" {
		name, ctype = FallbackName, FallbackType
	}
	data, err := Encode(merged, ctype, opts)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, ContentType: ctype, Data: data}, nil
}

// Encode writes img in the format named by contentType.
func Encode(img image.Image, contentType string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch normalizeType(contentType) {
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/jpeg":
		q := opts.JPEGQuality
		if q <= 0 || q > 100 {
			q = DefaultJPEGQuality
		}
		err = jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: q})
	default:
		err = fmt.Errorf("unsupported content type %q", contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over white. JPEG has no alpha channel and would
// otherwise turn transparent margins black.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}

func normalizeType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
