package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldview/internal/api"
	"github.com/fieldops/fieldview/internal/auth"
	"github.com/fieldops/fieldview/internal/config"
	"github.com/fieldops/fieldview/internal/logging"
	"github.com/fieldops/fieldview/internal/media"
	"github.com/fieldops/fieldview/internal/prefs"
	"github.com/fieldops/fieldview/internal/state"
	"github.com/fieldops/fieldview/internal/ui"
)

// Options configure the fieldview application.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/fieldview/prefs.toml
	GalleryID    string
	InitialIndex int
	PollEvery    int  // seconds; zero uses default
	Check        bool // resolve every file once and exit instead of starting the UI
	Stdout       io.Writer
}

// Run boots the viewer (or the one-shot check) until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	galleryID := strings.TrimSpace(opts.GalleryID)
	if galleryID == "" {
		return fmt.Errorf("gallery id required")
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = log.Sync() }()

	tokens := auth.Chain{auth.Env(config.TokenEnv), auth.File{Path: cfg.TokenFile}}
	client, err := api.NewClient(cfg.APIBase, tokens, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	registry := media.NewRegistry(log.Named("media"))
	loader := media.NewLoader(client, media.Options{
		UploadPrefix: cfg.UploadPrefix,
		MaxBytes:     cfg.MaxMediaBytes,
		Registry:     registry,
		Logger:       log.Named("loader"),
	})
	defer func() {
		if n := registry.ReleaseAll(); n > 0 {
			log.Warn("released handles still live at exit", zap.Int("count", n))
		}
		stats := registry.Stats()
		log.Info("media handles", zap.Uint64("created", stats.Created), zap.Uint64("released", stats.Released))
	}()

	log.Info("starting",
		zap.String("api", client.BaseURL().String()),
		zap.String("gallery", galleryID),
		zap.Bool("check", opts.Check))

	if opts.Check {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		return Check(ctx, client, loader, galleryID, out)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn("using default preferences", zap.Error(err))
	}

	store := &state.Store{}

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// Do initial refresh to populate store before UI starts
	_ = refresh(ctx, store, client, galleryID, log)

	StartPoller(ctx, store, client, galleryID, interval, log.Named("poller"))

	// Loads still in flight at quit see this cancelled before the handle sweep.
	uiCtx, cancelUI := context.WithCancel(ctx)
	defer cancelUI()

	return ui.Run(ui.Options{
		Context:      uiCtx,
		Resolver:     loader,
		Registry:     registry,
		Source:       client,
		Store:        store,
		GalleryID:    galleryID,
		InitialIndex: opts.InitialIndex,
		ThemeName:    userPrefs.Theme,
		Thumbnails:   userPrefs.Thumbnails,
		PrefsPath:    opts.PrefsPath,
		Logger:       log.Named("ui"),
	})
}
