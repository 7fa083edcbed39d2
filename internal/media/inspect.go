package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"
)

// Category is the broad rendering class of a handle.
type Category int

const (
	CategoryOther Category = iota
	CategoryImage
	CategoryDocument
	CategoryText
)

func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryDocument:
		return "document"
	case CategoryText:
		return "text"
	default:
		return "file"
	}
}

// Info describes what a handle holds.
type Info struct {
	Category Category
	Format   string
	Width    int
	Height   int
}

var pdfMagic = []byte("%PDF-")

// Inspect classifies the handle and, for decodable images, reads dimensions.
func Inspect(h *Handle) Info {
	info := Info{Category: categorize(h.ContentType())}
	data, ok := h.Bytes()
	if !ok {
		return info
	}
	if info.Category == CategoryImage {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			info.Format = format
			info.Width = cfg.Width
			info.Height = cfg.Height
		}
	}
	if info.Category == CategoryDocument {
		info.Format = "pdf"
	}
	return info
}

func categorize(contentType string) Category {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return CategoryImage
	case contentType == "application/pdf":
		return CategoryDocument
	case strings.HasPrefix(contentType, "text/"):
		return CategoryText
	default:
		return CategoryOther
	}
}

// decodableImage lists the image types the registered decoders understand.
var decodableImage = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// validate rejects bodies that claim to be a renderable type but are not.
func validate(h *Handle) error {
	data, ok := h.Bytes()
	if !ok {
		return ErrReleased
	}
	ct := h.ContentType()
	switch {
	case decodableImage[ct]:
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("decode %s: %w", ct, err)
		}
	case ct == "application/pdf":
		if !bytes.HasPrefix(data, pdfMagic) {
			return fmt.Errorf("decode %s: missing header", ct)
		}
	}
	return nil
}

// detectContentType prefers the server's header and sniffs when it is
// missing or generic.
func detectContentType(header string, body []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	sniffed, _, err := mime.ParseMediaType(http.DetectContentType(body))
	if err != nil {
		return "application/octet-stream"
	}
	return sniffed
}
