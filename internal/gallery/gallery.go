package gallery

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldops/fieldview/internal/media"
)

// State is the load state of a slot.
type State int

const (
	Idle State = iota
	Loading
	Displayed
	Errored
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Slot names a display position: the active viewer or one thumbnail.
type Slot int

// ActiveSlot is the full-size viewer.
const ActiveSlot Slot = -1

// ThumbnailSlot returns the slot of the thumbnail for gallery index i.
func ThumbnailSlot(i int) Slot { return Slot(i) }

// IsThumbnail reports whether s names a thumbnail.
func (s Slot) IsThumbnail() bool { return s >= 0 }

// Request asks for Ref to be resolved into Slot. It carries the tags Apply
// uses to recognise superseded loads.
type Request struct {
	Slot  Slot
	Index int
	Ref   media.Ref

	epoch uint64
	gen   uint64
}

// Result is a completed Request.
type Result struct {
	Request
	Resource media.Resource
	Err      error
}

// SlotView is a read-only copy of a slot.
type SlotView struct {
	Index    int
	Ref      media.Ref
	State    State
	Resource media.Resource
	Err      error
	Retries  int
}

type slot struct {
	index   int
	ref     media.Ref
	gen     uint64
	retries int
	state   State
	res     media.Resource
	err     error
}

func (s *slot) view() SlotView {
	return SlotView{
		Index:    s.index,
		Ref:      s.ref,
		State:    s.state,
		Resource: s.res,
		Err:      s.err,
		Retries:  s.retries,
	}
}

// reset releases the slot's handle and returns it to Idle.
func (s *slot) reset() {
	s.res.Release()
	*s = slot{index: s.index, ref: s.ref}
}

// Options configure a Gallery.
type Options struct {
	// Thumbnails enables eager resolution of every entry.
	Thumbnails bool
	// OnDelete is called with the cursor position when removal is requested.
	// Persisting the removal is the caller's job.
	OnDelete func(index int, ref media.Ref)
	Logger   *zap.Logger
}

// Gallery is an ordered set of refs browsed through a cursor. It owns the
// handles held by its active and thumbnail slots and releases each exactly
// once. All methods are safe for concurrent use.
type Gallery struct {
	onDelete func(int, media.Ref)
	log      *zap.Logger

	mu         sync.Mutex
	refs       []media.Ref
	names      []*string
	cursor     int
	visible    bool
	thumbnails bool
	epoch      uint64
	gen        uint64
	active     slot
	thumbs     []slot
	editIndex  int
}

// New builds a closed gallery. names is matched to refs by position; the
// cursor starts at initialIndex clamped into range.
func New(refs []media.Ref, names []*string, initialIndex int, opts Options) *Gallery {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gallery{
		onDelete:   opts.OnDelete,
		log:        log,
		thumbnails: opts.Thumbnails,
		editIndex:  -1,
	}
	g.setEntries(refs, names)
	g.cursor = clamp(initialIndex, len(g.refs))
	return g
}

func (g *Gallery) setEntries(refs []media.Ref, names []*string) {
	g.refs = append([]media.Ref(nil), refs...)
	g.names = make([]*string, len(g.refs))
	for i := range g.names {
		if i < len(names) {
			g.names[i] = cloneName(names[i])
		}
	}
	g.thumbs = make([]slot, len(g.refs))
	for i, ref := range g.refs {
		g.thumbs[i] = slot{index: i, ref: ref}
	}
}

func clamp(index, length int) int {
	if length == 0 {
		return -1
	}
	if index < 0 {
		return 0
	}
	if index > length-1 {
		return length - 1
	}
	return index
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refs)
}

// Cursor returns the current index, or false for an empty gallery.
func (g *Gallery) Cursor() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor, g.cursor >= 0
}

// Ref returns the ref at index i.
func (g *Gallery) Ref(i int) (media.Ref, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.refs) {
		return "", false
	}
	return g.refs[i], true
}

// Visible reports whether the viewer is open.
func (g *Gallery) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

// Thumbnails reports whether thumbnail prefetch is enabled.
func (g *Gallery) Thumbnails() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.thumbnails
}

// Active returns a copy of the active slot.
func (g *Gallery) Active() SlotView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active.view()
}

// Thumbnail returns a copy of the thumbnail slot for index i.
func (g *Gallery) Thumbnail(i int) (SlotView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.thumbs) {
		return SlotView{}, false
	}
	return g.thumbs[i].view(), true
}

// Open shows the viewer and returns the loads it needs: the active entry
// plus, when enabled, every thumbnail. Opening an open or empty gallery
// returns nothing.
func (g *Gallery) Open() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.visible {
		return nil
	}
	g.visible = true
	return g.loadAllLocked()
}

func (g *Gallery) loadAllLocked() []Request {
	var reqs []Request
	if req, ok := g.activateLocked(); ok {
		reqs = append(reqs, req)
	}
	if g.thumbnails {
		for i := range g.thumbs {
			reqs = append(reqs, g.startLocked(ThumbnailSlot(i), &g.thumbs[i]))
		}
	}
	return reqs
}

// activateLocked points the active slot at the cursor, releasing whatever it held.
func (g *Gallery) activateLocked() (Request, bool) {
	g.active.res.Release()
	if g.cursor < 0 {
		g.active = slot{}
		return Request{}, false
	}
	g.active = slot{index: g.cursor, ref: g.refs[g.cursor]}
	return g.startLocked(ActiveSlot, &g.active), true
}

func (g *Gallery) startLocked(id Slot, s *slot) Request {
	s.res.Release()
	s.res = media.Resource{}
	s.err = nil
	s.state = Loading
	g.gen++
	s.gen = g.gen
	return Request{Slot: id, Index: s.index, Ref: s.ref, epoch: g.epoch, gen: s.gen}
}

// Next moves the cursor forward. It is a no-op on the last entry.
func (g *Gallery) Next() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked(g.cursor + 1)
}

// Previous moves the cursor back. It is a no-op on the first entry.
func (g *Gallery) Previous() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked(g.cursor - 1)
}

// Jump moves the cursor to i. Out-of-range targets are ignored.
func (g *Gallery) Jump(i int) []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked(i)
}

func (g *Gallery) moveLocked(target int) []Request {
	if g.cursor < 0 || target < 0 || target >= len(g.refs) || target == g.cursor {
		return nil
	}
	g.cursor = target
	if !g.visible {
		return nil
	}
	req, _ := g.activateLocked()
	return []Request{req}
}

// Retry reissues the load for a slot, clearing its error and bumping its
// retry counter. It returns nothing while the viewer is closed or for a
// slot that has never been loaded.
func (g *Gallery) Retry(id Slot) []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.slotLocked(id)
	if !g.visible || s == nil || s.state == Idle {
		return nil
	}
	req := g.startLocked(id, s)
	s.retries++
	return []Request{req}
}

func (g *Gallery) slotLocked(id Slot) *slot {
	if id == ActiveSlot {
		return &g.active
	}
	if id.IsThumbnail() && int(id) < len(g.thumbs) {
		return &g.thumbs[id]
	}
	return nil
}

// Apply records a finished load. Results that no longer match the slot
// (it moved, was retried, closed or replaced) are discarded and their
// handle released; Apply then returns false.
func (g *Gallery) Apply(r Result) bool {
	g.mu.Lock()
	s := g.slotLocked(r.Slot)
	current := s != nil &&
		g.visible &&
		r.epoch == g.epoch &&
		s.state == Loading &&
		s.gen == r.gen &&
		s.index == r.Index &&
		s.ref == r.Ref
	if !current {
		duplicate := s != nil && r.Resource.Owned() && s.res.Handle == r.Resource.Handle
		g.mu.Unlock()
		if duplicate {
			return false
		}
		if r.Resource.Release() {
			g.log.Debug("discarded stale load", zap.Int("slot", int(r.Slot)), zap.String("ref", string(r.Ref)))
		}
		return false
	}
	defer g.mu.Unlock()

	if r.Err != nil {
		r.Resource.Release()
		s.state = Errored
		s.err = r.Err
		g.log.Debug("load failed", zap.Int("slot", int(r.Slot)), zap.String("ref", string(r.Ref)), zap.Error(r.Err))
		return true
	}
	s.state = Displayed
	s.res = r.Resource
	return true
}

// Close hides the viewer and releases every handle it holds. Entries,
// names and the cursor are kept.
func (g *Gallery) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = false
	g.epoch++
	g.releaseAllLocked()
}

func (g *Gallery) releaseAllLocked() {
	g.active.reset()
	for i := range g.thumbs {
		g.thumbs[i].reset()
	}
}

// Replace swaps in a new set of entries. Every handle is released, the
// cursor is clamped, and an open viewer reloads.
func (g *Gallery) Replace(refs []media.Ref, names []*string) []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseAllLocked()
	g.epoch++

	cursor := g.cursor
	if cursor < 0 {
		cursor = 0
	}
	g.setEntries(refs, names)
	g.cursor = clamp(cursor, len(g.refs))
	g.active = slot{}
	if g.editIndex >= len(g.refs) {
		g.editIndex = -1
	}
	if !g.visible {
		return nil
	}
	return g.loadAllLocked()
}

// SetThumbnails toggles thumbnail prefetch. Turning it on while open
// returns the thumbnail loads; turning it off releases every thumbnail.
func (g *Gallery) SetThumbnails(on bool) []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.thumbnails == on {
		return nil
	}
	g.thumbnails = on
	if !on {
		for i := range g.thumbs {
			g.thumbs[i].reset()
		}
		return nil
	}
	if !g.visible {
		return nil
	}
	reqs := make([]Request, 0, len(g.thumbs))
	for i := range g.thumbs {
		reqs = append(reqs, g.startLocked(ThumbnailSlot(i), &g.thumbs[i]))
	}
	return reqs
}

// RequestDelete hands the entry under the cursor to OnDelete. It reports
// whether a callback ran.
func (g *Gallery) RequestDelete() bool {
	g.mu.Lock()
	cursor := g.cursor
	onDelete := g.onDelete
	var ref media.Ref
	if cursor >= 0 {
		ref = g.refs[cursor]
	}
	g.mu.Unlock()

	if cursor < 0 || onDelete == nil {
		return false
	}
	onDelete(cursor, ref)
	return true
}

// Name returns the display name of entry i, if it has one.
func (g *Gallery) Name(i int) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.names) || g.names[i] == nil {
		return "", false
	}
	return *g.names[i], true
}

// Names returns a copy of the name table.
func (g *Gallery) Names() []*string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*string, len(g.names))
	for i, n := range g.names {
		out[i] = cloneName(n)
	}
	return out
}

// BeginEdit enters edit mode for entry i and returns the current label.
func (g *Gallery) BeginEdit(i int) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.refs) {
		return "", false
	}
	g.editIndex = i
	if g.names[i] == nil {
		return "", true
	}
	return *g.names[i], true
}

// Editing returns the index being edited, if any.
func (g *Gallery) Editing() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editIndex, g.editIndex >= 0
}

// CommitEdit stores the trimmed value as entry i's name (blank clears it)
// and leaves edit mode. Nothing is persisted.
func (g *Gallery) CommitEdit(i int, value string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.names) {
		return false
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		g.names[i] = nil
	} else {
		g.names[i] = &trimmed
	}
	g.editIndex = -1
	return true
}

// CancelEdit leaves edit mode for entry i without writing.
func (g *Gallery) CancelEdit(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editIndex == i {
		g.editIndex = -1
	}
}

func cloneName(n *string) *string {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// Load runs a request. This is the only blocking step; call it off the
// goroutine that owns the UI and hand the Result back to Apply.
func Load(ctx context.Context, resolver media.Resolver, req Request) Result {
	res, err := resolver.Resolve(ctx, req.Ref)
	return Result{Request: req, Resource: res, Err: err}
}
