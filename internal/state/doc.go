// Package state shares the latest gallery listing between the background
// poller and the viewer.
//
// The poller calls Update after every fetch; the UI reads Snapshot on its own
// refresh tick. Both sides copy items so neither can mutate the other's view.
//
//	Producer (poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ FetchGallery() │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │ gallery.Replace │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
// A successful Update replaces Items and resets ConsecutiveFailures. Revision
// advances only when the listing actually changed, so the UI can skip
// rebuilding its gallery (and dropping loaded media) on identical polls.
// A failed Update keeps the previous Items and records LastError.
//
// The zero Store is ready to use.
package state
