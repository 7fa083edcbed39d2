package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fieldops/fieldview/internal/api"
	"github.com/fieldops/fieldview/internal/gallery"
	"github.com/fieldops/fieldview/internal/media"
	"github.com/fieldops/fieldview/internal/prefs"
	"github.com/fieldops/fieldview/internal/state"
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Resolver     media.Resolver
	Registry     *media.Registry
	Source       api.GallerySource
	Store        *state.Store
	GalleryID    string
	InitialIndex int
	PollTick     time.Duration
	ThemeName    string
	Thumbnails   bool
	PrefsPath    string
	Logger       *zap.Logger
}

// deleteRequest is queued by the gallery's OnDelete hook and drained by
// handleKey once RequestDelete returns.
type deleteRequest struct {
	index int
	ref   media.Ref
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	resolver  media.Resolver
	registry  *media.Registry
	source    api.GallerySource
	store     *state.Store
	galleryID string
	initial   int
	prefsPath string
	pollTick  time.Duration
	log       *zap.Logger

	// UI state
	theme      Theme
	keys       keyMap
	width      int
	height     int
	ready      bool
	showHelp   bool
	thumbnails bool
	spinner    spinner.Model
	editor     textinput.Model
	modal      Modal
	flash      string

	// Data state
	snapshot   state.Snapshot
	revision   int
	gallery    *gallery.Gallery
	itemIDs    []string
	localNames map[string]*string
	deletes    chan deleteRequest
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	editor := textinput.New()
	editor.Prompt = "Name: "
	editor.Placeholder = "display name (blank clears)"
	editor.CharLimit = NameCharLimit

	return Model{
		ctx:        ctx,
		resolver:   opts.Resolver,
		registry:   opts.Registry,
		source:     opts.Source,
		store:      opts.Store,
		galleryID:  opts.GalleryID,
		initial:    opts.InitialIndex,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		log:        log,
		theme:      GetTheme(themeName),
		keys:       DefaultKeyMap(),
		thumbnails: opts.Thumbnails,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		editor:     editor,
		localNames: make(map[string]*string),
		deletes:    make(chan deleteRequest, 1),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.editor.Width = maxInt(10, m.width-len(m.editor.Prompt)-4)
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		return m.applySnapshot(state.Snapshot(msg))

	case loadedMsg:
		result := gallery.Result(msg)
		if m.gallery == nil {
			result.Resource.Release()
			return m, nil
		}
		if !m.gallery.Apply(result) {
			m.log.Debug("discarded stale load",
				zap.Int("index", result.Index),
				zap.String("ref", string(result.Ref)))
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.flash = "Delete failed: " + msg.err.Error()
			m.log.Warn("delete failed", zap.String("item", msg.itemID), zap.Error(msg.err))
			return m, nil
		}
		m.flash = "Deleted"
		delete(m.localNames, msg.itemID)
		if m.store != nil {
			m.store.Remove(msg.itemID)
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.editing() {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshot rebuilds the gallery when the listing revision moved.
func (m Model) applySnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	m.snapshot = snap
	if !snap.HasItems || (m.gallery != nil && snap.Revision == m.revision) {
		return m, nil
	}
	m.revision = snap.Revision

	refs := make([]media.Ref, len(snap.Items))
	names := make([]*string, len(snap.Items))
	ids := make([]string, len(snap.Items))
	for i, item := range snap.Items {
		refs[i] = media.Ref(item.URL)
		names[i] = item.Name
		if local, ok := m.localNames[item.ID]; ok {
			names[i] = local
		}
		ids[i] = item.ID
	}
	m.itemIDs = ids

	if m.gallery == nil {
		deletes := m.deletes
		m.gallery = gallery.New(refs, names, m.initial, gallery.Options{
			Thumbnails: m.thumbnails,
			Logger:     m.log,
			OnDelete: func(index int, ref media.Ref) {
				select {
				case deletes <- deleteRequest{index: index, ref: ref}:
				default:
				}
			},
		})
		return m, m.loadCmds(m.gallery.Open())
	}

	if index, ok := m.gallery.Editing(); ok {
		m.gallery.CancelEdit(index)
		m.editor.Blur()
		m.flash = "Listing changed, edit cancelled"
	}
	return m, m.loadCmds(m.gallery.Replace(refs, names))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		return m.handleModalKey(msg)
	}

	if m.editing() {
		return m.handleEditKey(msg)
	}

	m.flash = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	}

	if m.gallery == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		if m.gallery.Visible() {
			m.gallery.Close()
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m, m.loadCmds(m.gallery.Open())

	case key.Matches(msg, m.keys.ToggleThumbnails):
		m.thumbnails = !m.thumbnails
		m.savePrefs()
		return m, m.loadCmds(m.gallery.SetThumbnails(m.thumbnails))

	case key.Matches(msg, m.keys.Next):
		return m, m.loadCmds(m.gallery.Next())

	case key.Matches(msg, m.keys.Previous):
		return m, m.loadCmds(m.gallery.Previous())

	case key.Matches(msg, m.keys.First):
		return m, m.loadCmds(m.gallery.Jump(0))

	case key.Matches(msg, m.keys.Last):
		return m, m.loadCmds(m.gallery.Jump(m.gallery.Len() - 1))

	case key.Matches(msg, m.keys.Retry):
		return m, m.loadCmds(m.gallery.Retry(gallery.ActiveSlot))

	case key.Matches(msg, m.keys.RetryThumbnails):
		return m, m.retryThumbnails()

	case key.Matches(msg, m.keys.Edit):
		cursor, ok := m.gallery.Cursor()
		if !ok {
			return m, nil
		}
		label, ok := m.gallery.BeginEdit(cursor)
		if !ok {
			return m, nil
		}
		m.editor.SetValue(label)
		m.editor.CursorEnd()
		cmd := m.editor.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if m.source == nil {
			m.flash = "Delete unavailable"
			return m, nil
		}
		cursor, ok := m.gallery.Cursor()
		if !ok {
			return m, nil
		}
		m.modal = newConfirmDelete(cursor, m.label(cursor))
		return m, nil
	}

	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	index, _ := m.gallery.Editing()
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if m.gallery.CommitEdit(index, m.editor.Value()) && index < len(m.itemIDs) {
			name, ok := m.gallery.Name(index)
			if ok {
				m.localNames[m.itemIDs[index]] = &name
			} else {
				m.localNames[m.itemIDs[index]] = nil
			}
		}
		m.editor.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.gallery.CancelEdit(index)
		m.editor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal, cmd, done := m.modal.Update(msg, m.keys)
	if !done {
		m.modal = modal
		return m, cmd
	}
	m.modal = nil

	confirm, ok := modal.(confirmDelete)
	if !ok || !confirm.confirmed {
		return m, cmd
	}
	if cursor, ok := m.gallery.Cursor(); !ok || cursor != confirm.index {
		m.flash = "Selection changed, delete cancelled"
		return m, cmd
	}
	if !m.gallery.RequestDelete() {
		return m, cmd
	}
	select {
	case req := <-m.deletes:
		if req.index >= len(m.itemIDs) {
			return m, cmd
		}
		m.flash = "Deleting..."
		return m, tea.Batch(cmd, deleteCmd(m.ctx, m.source, m.galleryID, m.itemIDs[req.index]))
	default:
		return m, cmd
	}
}

// retryThumbnails re-issues every errored thumbnail.
func (m Model) retryThumbnails() tea.Cmd {
	var reqs []gallery.Request
	for i := 0; i < m.gallery.Len(); i++ {
		view, ok := m.gallery.Thumbnail(i)
		if !ok || view.State != gallery.Errored || !retryable(view.Err) {
			continue
		}
		reqs = append(reqs, m.gallery.Retry(gallery.ThumbnailSlot(i))...)
	}
	return m.loadCmds(reqs)
}

func (m Model) editing() bool {
	if m.gallery == nil {
		return false
	}
	_, ok := m.gallery.Editing()
	return ok
}

// label returns the display name for entry i, falling back to the ref's
// last path element.
func (m Model) label(i int) string {
	if m.gallery == nil {
		return ""
	}
	if name, ok := m.gallery.Name(i); ok {
		return name
	}
	ref, _ := m.gallery.Ref(i)
	return baseName(string(ref))
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Thumbnails: m.thumbnails}); err != nil {
		m.log.Warn("save prefs failed", zap.Error(err))
	}
}

func (m Model) loadCmds(reqs []gallery.Request) tea.Cmd {
	if len(reqs) == 0 || m.resolver == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(reqs))
	for _, req := range reqs {
		cmds = append(cmds, loadCmd(m.ctx, m.resolver, req))
	}
	return tea.Batch(cmds...)
}

func retryable(err error) bool {
	var merr *media.Error
	if errors.As(err, &merr) {
		return merr.Retryable()
	}
	return err != nil
}

func baseName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type loadedMsg gallery.Result

type deletedMsg struct {
	itemID string
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadCmd(ctx context.Context, resolver media.Resolver, req gallery.Request) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(gallery.Load(ctx, resolver, req))
	}
}

func deleteCmd(ctx context.Context, source api.GallerySource, galleryID, itemID string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{itemID: itemID, err: source.DeleteItem(ctx, galleryID, itemID)}
	}
}

// Run starts the Bubble Tea program. Every handle still held by the gallery
// is released before it returns.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.gallery != nil {
		fm.gallery.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
