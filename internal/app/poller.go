package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldview/internal/api"
	"github.com/fieldops/fieldview/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store,
// backing off while the API keeps failing. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source api.GallerySource, galleryID string, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		for {
			wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			_ = refresh(ctx, store, source, galleryID, log)
		}
	}()
}

// calculateBackoff doubles base once per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func refresh(ctx context.Context, store *state.Store, source api.GallerySource, galleryID string, log *zap.Logger) error {
	items, err := source.FetchGallery(ctx, galleryID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fmt.Errorf("fetch gallery %s: %w", galleryID, err)
		store.Update(galleryID, nil, err)
		log.Warn("gallery poll failed", zap.String("gallery", galleryID), zap.Error(err))
		return err
	}
	store.Update(galleryID, items, nil)
	return nil
}
