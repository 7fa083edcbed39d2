package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/fieldops/fieldview/internal/api"
)

// Snapshot represents the latest gallery listing available to the UI.
type Snapshot struct {
	GalleryID           string
	Items               []api.Item
	HasItems            bool
	Revision            int // Incremented whenever Items changes
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored listing. When err is non-nil the previous data is
// kept but the error is recorded for visibility. Revision only advances when
// the listing differs from what is stored.
func (s *Store) Update(galleryID string, items []api.Item, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if !s.snapshot.HasItems || s.snapshot.GalleryID != galleryID || !sameItems(s.snapshot.Items, items) {
		s.snapshot.Items = cloneItems(items)
		s.snapshot.Revision++
	}
	s.snapshot.GalleryID = galleryID
	s.snapshot.HasItems = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Remove drops the item with the given ID after a confirmed delete.
func (s *Store) Remove(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.snapshot.Items {
		if item.ID != itemID {
			continue
		}
		items := make([]api.Item, 0, len(s.snapshot.Items)-1)
		items = append(items, s.snapshot.Items[:i]...)
		items = append(items, s.snapshot.Items[i+1:]...)
		s.snapshot.Items = items
		s.snapshot.Revision++
		return true
	}
	return false
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Items = cloneItems(s.snapshot.Items)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func sameItems(a, b []api.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].URL != b[i].URL || a[i].ContentType != b[i].ContentType {
			return false
		}
		if !sameName(a[i].Name, b[i].Name) {
			return false
		}
	}
	return true
}

func sameName(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneItems(items []api.Item) []api.Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.Item, len(items))
	for i, item := range items {
		dup[i] = item
		if item.Name != nil {
			name := *item.Name
			dup[i].Name = &name
		}
	}
	return dup
}
