package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fieldops/fieldview/internal/api"
)

func strPtr(s string) *string { return &s }

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	items := []api.Item{{ID: "1", URL: "a.png", Name: strPtr("Front")}, {ID: "2", URL: "b.pdf"}}

	before := time.Now()
	s.Update("g1", items, nil)

	snap := s.Snapshot()
	if !snap.HasItems || snap.GalleryID != "g1" {
		t.Fatalf("snapshot = %#v, want HasItems for g1", snap)
	}
	if len(snap.Items) != 2 || snap.Items[0].ID != "1" {
		t.Fatalf("snapshot items = %#v, want 2 items", snap.Items)
	}
	if snap.Revision != 1 {
		t.Fatalf("Revision = %d, want 1", snap.Revision)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Items[0].ID = "999"
	*snap.Items[0].Name = "Changed"
	snap2 := s.Snapshot()
	if snap2.Items[0].ID != "1" || *snap2.Items[0].Name != "Front" {
		t.Fatalf("Snapshot should clone items; got %#v", snap2.Items[0])
	}
}

func TestStore_RevisionOnlyAdvancesOnChange(t *testing.T) {
	var s Store

	s.Update("g1", []api.Item{{ID: "1", URL: "a.png"}}, nil)
	s.Update("g1", []api.Item{{ID: "1", URL: "a.png"}}, nil)
	if got := s.Snapshot().Revision; got != 1 {
		t.Fatalf("Revision = %d after identical update, want 1", got)
	}

	s.Update("g1", []api.Item{{ID: "1", URL: "a.png", Name: strPtr("Renamed")}}, nil)
	if got := s.Snapshot().Revision; got != 2 {
		t.Fatalf("Revision = %d after rename, want 2", got)
	}

	s.Update("g1", nil, nil)
	snap := s.Snapshot()
	if snap.Revision != 3 || len(snap.Items) != 0 || !snap.HasItems {
		t.Fatalf("snapshot = %#v, want empty listing at revision 3", snap)
	}
}

func TestStore_Remove(t *testing.T) {
	var s Store
	s.Update("g1", []api.Item{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil)

	if !s.Remove("2") {
		t.Fatalf("Remove(2) = false, want true")
	}
	if s.Remove("missing") {
		t.Fatalf("Remove(missing) = true, want false")
	}
	snap := s.Snapshot()
	if len(snap.Items) != 2 || snap.Items[0].ID != "1" || snap.Items[1].ID != "3" {
		t.Fatalf("items = %#v, want [1 3]", snap.Items)
	}
	if snap.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", snap.Revision)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update("g1", []api.Item{{ID: "1"}}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update("g1", nil, origErr)

	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "1" {
		t.Fatalf("items changed on error: got %#v want %#v", snap.Items, prev.Items)
	}
	if snap.Revision != prev.Revision {
		t.Fatalf("Revision = %d, want %d", snap.Revision, prev.Revision)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store = %#v, want online with 0 failures", snap)
	}

	for i := 1; i <= 3; i++ {
		s.Update("g1", nil, errors.New("fail"))
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if snap.IsOffline() != (i >= 2) {
			t.Fatalf("IsOffline() = %v with %d failures", snap.IsOffline(), i)
		}
	}

	s.Update("g1", nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success = %#v, want online with 0 failures", snap)
	}
}
