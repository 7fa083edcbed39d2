package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops detail.
	LayoutCompactWidth = 80
)

// Viewer sizing.
const (
	// ThumbnailCellWidth is the rendered width of one thumbnail strip cell.
	ThumbnailCellWidth = 16

	// PreviewMaxLines caps the text preview regardless of terminal height.
	PreviewMaxLines = 200

	// ModalWidth is the width of the help and confirm overlays.
	ModalWidth = 44

	// NameCharLimit bounds the display name editor.
	NameCharLimit = 120

	// DocumentScanBytes bounds how much of a text file is searched for
	// document fields.
	DocumentScanBytes = 64 << 10
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
