// Package app is the composition root for fieldview.
//
// # Startup
//
//  1. Load config from ~/.config/fieldview/config.toml (or -config)
//  2. Build the zap logger (output goes to a file; the terminal belongs to the UI)
//  3. Build the token chain: FIELDVIEW_TOKEN, then the token file
//  4. Create the API client, handle registry and media loader
//  5. Either run Check, or refresh once, start the poller and run the UI
//  6. On exit, release any handle still live and log the totals
//
// # Components
//
//   - app.go: Run and wiring
//   - poller.go: background listing refresh with exponential backoff
//   - check.go: one-shot resolve of every file in a gallery (-check)
//
// # Polling Behavior
//
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> wait calculateBackoff(failures)    │
//	│  ├─> FetchGallery()                     │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// The wait starts at the configured interval (default 5 seconds) and doubles
// per consecutive failure up to 30 seconds. A cancelled context is not
// counted as a failure.
//
// # Error Handling
//
// Config, logger and client construction errors are returned from Run.
// Poll failures are logged at warn and recorded in the store so the header
// can show the offline state; polling continues.
package app
