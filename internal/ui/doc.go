// Package ui provides the Bubble Tea terminal viewer for fieldview.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling, commands and Run
//   - view.go: header, active viewer, listing, thumbnail strip and footer
//   - keys.go: key bindings (bubbles/key)
//   - help.go: help overlay rendered from the key map
//   - modal.go: modal interface and the delete confirmation
//   - theme.go: lipgloss palettes with per-slot-state colors
//
// # Event Flow
//
//  1. A tick pulls a state.Snapshot from the store.
//  2. When the listing revision moved, the gallery is built (first time,
//     then opened) or replaced; the returned requests become load commands.
//  3. Each load command runs gallery.Load off the update loop and returns a
//     loadedMsg.
//  4. Update hands the result to Gallery.Apply, which discards and releases
//     anything superseded by navigation, retry, close or replace.
//
// Loads are never retried automatically. An errored slot shows the error
// message and raw ref, and offers "r" unless the file is confirmed missing.
//
// # Key Bindings
//
//   - l/right, h/left: next/previous file
//   - g/G: first/last file
//   - o/enter, esc: open/close the viewer
//   - r, R: retry the active file, retry failed thumbnails
//   - e: edit the display name (enter commits, esc cancels)
//   - d: delete the current file after confirmation
//   - t: toggle thumbnails
//   - T: cycle theme
//   - ?: help
//   - q or Ctrl+C: quit
package ui
