// Package imagestore decodes recipe images submitted as base64 data URIs and
// stores them either on the local disk or in an S3 bucket.
//
// The web client sends images inline, e.g.
//
//	"image": "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAA..."
//
// DecodeDataURI turns that into bytes; a Store writes the bytes under a
// random key and returns the URL recipes keep in their image column.
package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes bounds a decoded image.
const MaxImageBytes = 10 << 20

// ErrInvalidImage is wrapped by every DecodeDataURI failure.
var ErrInvalidImage = errors.New("invalid image")

// extensions maps an accepted MIME subtype to the stored file extension.
var extensions = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"jpg":  "jpg",
	"gif":  "gif",
	"webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	Ext         string // without the dot
	ContentType string
}

// Store persists images. Save returns the public URL of the stored file.
type Store interface {
	Save(ctx context.Context, img *Image) (string, error)
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(uri string) (*Image, error) {
	uri = strings.TrimSpace(uri)
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("%w: expected a data:image/...;base64, URI", ErrInvalidImage)
	}

	mediaType, encoding, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if encoding != "base64" {
		return nil, fmt.Errorf("%w: payload must be base64 encoded", ErrInvalidImage)
	}
	kind, subtype, _ := strings.Cut(strings.ToLower(mediaType), "/")
	ext, known := extensions[subtype]
	if kind != "image" || !known {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, mediaType)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 payload: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	// The declared type is only a hint; the bytes have to agree that this is
	// an image.
	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, fmt.Errorf("%w: content is %s, not an image", ErrInvalidImage, sniffed)
	}

	return &Image{Data: data, Ext: ext, ContentType: sniffed}, nil
}

// objectKey is the relative path every store uses: recipes/images/<uuid>.<ext>.
func objectKey(img *Image) string {
	return path.Join("recipes", "images", uuid.New().String()+"."+img.Ext)
}
