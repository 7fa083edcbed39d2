package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/fieldops/fieldview/internal/api"
	"github.com/fieldops/fieldview/internal/document"
	"github.com/fieldops/fieldview/internal/gallery"
	"github.com/fieldops/fieldview/internal/media"
)

const checkConcurrency = 4

// Check resolves every file in a gallery once, writes one line per file to
// out and releases everything it loaded. It fails when any file failed.
func Check(ctx context.Context, source api.GallerySource, resolver media.Resolver, galleryID string, out io.Writer) error {
	items, err := source.FetchGallery(ctx, galleryID)
	if err != nil {
		return fmt.Errorf("fetch gallery %s: %w", galleryID, err)
	}

	refs := make([]media.Ref, len(items))
	names := make([]*string, len(items))
	for i, item := range items {
		refs[i] = media.Ref(item.URL)
		names[i] = item.Name
	}

	g := gallery.New(refs, names, 0, gallery.Options{Thumbnails: true})
	defer g.Close()

	// Only the thumbnail slots are reported; the active load is left pending
	// and dropped by Close.
	var thumbs []gallery.Request
	for _, req := range g.Open() {
		if req.Slot.IsThumbnail() {
			thumbs = append(thumbs, req)
		}
	}

	for _, result := range gallery.Prefetch(ctx, resolver, thumbs, checkConcurrency) {
		g.Apply(result)
	}

	failed := 0
	for i := range items {
		view, _ := g.Thumbnail(i)
		fmt.Fprintf(out, "%-4d %-10s %s\n", i+1, checkStatus(view), describe(items[i], view))
		if view.State == gallery.Errored {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(items))
	}
	return nil
}

func checkStatus(view gallery.SlotView) string {
	if view.State != gallery.Errored {
		return "ok"
	}
	var merr *media.Error
	if errors.As(view.Err, &merr) {
		return merr.Kind.String()
	}
	return "error"
}

func describe(item api.Item, view gallery.SlotView) string {
	label := item.URL
	if item.Name != nil {
		label = fmt.Sprintf("%s (%s)", *item.Name, item.URL)
	}
	switch {
	case view.State == gallery.Errored:
		return fmt.Sprintf("%s: %v", label, view.Err)
	case view.Resource.Owned():
		h := view.Resource.Handle
		info := media.Inspect(h)
		line := fmt.Sprintf("%s: %s %s, %s", label, info.Category, h.ContentType(), humanize.IBytes(uint64(h.Size())))
		if info.Category == media.CategoryText {
			if data, ok := h.Bytes(); ok {
				if doc := document.Analyze(string(data)).Line(); doc != "" {
					line += " [" + doc + "]"
				}
			}
		}
		return line
	default:
		return label + ": external"
	}
}
