package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldops/fieldview/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	galleryID := flag.String("gallery", "", "gallery id to browse (required)")
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	index := flag.Int("index", 0, "file to open first, zero-based (optional)")
	pollSeconds := flag.Int("poll", 0, "listing refresh interval in seconds (optional, defaults to 5s)")
	check := flag.Bool("check", false, "resolve every file once, print a report and exit")
	flag.Parse()

	if *galleryID == "" {
		fmt.Fprintln(os.Stderr, "fieldview: -gallery is required")
		flag.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:   *configPath,
		PrefsPath:    *prefsPath,
		GalleryID:    *galleryID,
		InitialIndex: *index,
		Check:        *check,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "fieldview: %v\n", err)
		return 1
	}
	return 0
}
