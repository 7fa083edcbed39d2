package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fieldops/fieldview/internal/document"
	"github.com/fieldops/fieldview/internal/gallery"
	"github.com/fieldops/fieldview/internal/media"
	"github.com/fieldops/fieldview/internal/preview"
)

// renderMain renders header, body, optional thumbnail strip and footer.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	var strip string
	if m.gallery != nil && m.gallery.Visible() && m.gallery.Thumbnails() && m.gallery.Len() > 0 {
		strip = m.renderThumbnails()
	}

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if strip != "" {
		bodyHeight -= lipgloss.Height(strip)
	}
	bodyHeight = maxInt(3, bodyHeight)

	body := lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(m.renderBody(bodyHeight))

	parts := []string{header, body}
	if strip != "" {
		parts = append(parts, strip)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	parts := []string{styles.Logo.Render("fieldview")}
	if m.galleryID != "" {
		parts = append(parts, styles.MutedText.Render("gallery")+" "+styles.Text.Render(m.galleryID))
	}

	switch {
	case m.snapshot.IsOffline():
		last := "soon"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format("15:04:05")
		}
		parts = append(parts,
			styles.DangerText.Render("OFFLINE"),
			styles.WarningText.Render("Retrying..."),
			styles.MutedText.Render(last))
	case !m.snapshot.HasItems:
		parts = append(parts, styles.WarningText.Render("Connecting..."))
	case m.gallery != nil:
		if cursor, ok := m.gallery.Cursor(); ok {
			parts = append(parts, styles.Text.Render(fmt.Sprintf("%d/%d", cursor+1, m.gallery.Len())))
		} else {
			parts = append(parts, styles.MutedText.Render("empty"))
		}
	}

	if m.width >= LayoutCompactWidth && m.registry != nil {
		stats := m.registry.Stats()
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("handles %d", stats.Live)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.editing() {
		return styles.Footer.Width(m.width).Render(m.editor.View())
	}
	if m.flash != "" {
		return styles.Footer.Width(m.width).Render(styles.WarningText.Render(m.flash))
	}
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(strings.Join(hints, " · "))
}

// renderBody renders the active viewer, or the listing when the viewer is closed.
func (m Model) renderBody(height int) string {
	styles := m.theme.Styles()
	if m.gallery == nil {
		if m.snapshot.LastError != nil {
			return styles.DangerText.Render("Unable to load gallery") + "\n" +
				styles.MutedText.Render(m.snapshot.LastError.Error())
		}
		return styles.MutedText.Render("Waiting for gallery...")
	}
	if m.gallery.Len() == 0 {
		return styles.MutedText.Render("This gallery has no files.")
	}
	if !m.gallery.Visible() {
		return m.renderListing(height)
	}

	active := m.gallery.Active()
	title := m.renderTitle(active)
	content := m.renderSlot(active, height-2)
	return title + "\n\n" + content
}

func (m Model) renderTitle(active gallery.SlotView) string {
	styles := m.theme.Styles()
	badge := styles.StateStyle(active.State.String()).Render(active.State.String())
	return badge + " " + styles.Text.Bold(true).Render(truncateMiddle(m.label(active.Index), maxInt(10, m.width-16)))
}

// renderSlot renders one slot's current state.
func (m Model) renderSlot(view gallery.SlotView, height int) string {
	styles := m.theme.Styles()
	switch view.State {
	case gallery.Loading:
		return m.spinner.View() + " " + styles.InfoText.Render("Loading "+m.label(view.Index)+"...")
	case gallery.Errored:
		return m.renderError(view)
	case gallery.Displayed:
		return m.renderResource(view.Resource, height)
	default:
		return styles.MutedText.Render("Not loaded")
	}
}

// renderError shows icon, message and raw ref. The retry hint is hidden for
// a confirmed 404.
func (m Model) renderError(view gallery.SlotView) string {
	styles := m.theme.Styles()

	message := "Failed to load file"
	var merr *media.Error
	if errors.As(view.Err, &merr) {
		message = merr.Message()
	} else if view.Err != nil {
		message = view.Err.Error()
	}

	lines := []string{
		styles.DangerText.Render("✗ " + message),
		styles.FaintText.Render(string(view.Ref)),
	}
	if retryable(view.Err) {
		hint := "Press r to retry"
		if view.Retries > 0 {
			hint = fmt.Sprintf("%s (attempt %d)", hint, view.Retries+1)
		}
		lines = append(lines, "", styles.MutedText.Render(hint))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderResource(res media.Resource, height int) string {
	styles := m.theme.Styles()
	if !res.Owned() {
		return styles.AccentText.Render("External file") + "\n" +
			styles.Text.Render(res.URL) + "\n" +
			styles.FaintText.Render("Served directly from its signed URL")
	}

	h := res.Handle
	info := media.Inspect(h)
	meta := styles.FaintText.Render(fmt.Sprintf("%s · %s · %s", h.ContentType(), humanBytes(h.Size()), h.URL()))

	switch info.Category {
	case media.CategoryImage:
		desc := strings.ToUpper(info.Format) + " image"
		if info.Width > 0 {
			desc = fmt.Sprintf("%s %d×%d", desc, info.Width, info.Height)
		}
		return styles.Text.Render(desc) + "\n" + meta
	case media.CategoryDocument:
		return styles.Text.Render("PDF document") + "\n" + meta
	case media.CategoryText:
		if badge := documentLine(h); badge != "" {
			return styles.AccentText.Render(truncate(badge, maxInt(10, m.width-2))) + "\n" + meta + "\n\n" +
				m.renderPreview(h, height-3)
		}
		return meta + "\n\n" + m.renderPreview(h, height-2)
	default:
		return styles.Text.Render("File") + "\n" + meta
	}
}

// documentLine summarises a recognised business document held in h.
func documentLine(h *media.Handle) string {
	data, ok := h.Bytes()
	if !ok {
		return ""
	}
	if len(data) > DocumentScanBytes {
		data = data[:DocumentScanBytes]
	}
	return document.Analyze(string(data)).Line()
}

func (m Model) renderPreview(h *media.Handle, maxLines int) string {
	styles := m.theme.Styles()
	if maxLines > PreviewMaxLines {
		maxLines = PreviewMaxLines
	}
	r, err := h.Reader()
	if err != nil {
		return styles.FaintText.Render("Preview unavailable")
	}
	lines, more, err := preview.Lines(r, maxInt(1, maxLines-1))
	if err != nil {
		return styles.FaintText.Render("Preview unavailable")
	}
	for i, line := range lines {
		lines[i] = truncate(line, maxInt(10, m.width-2))
	}
	out := styles.Text.Render(strings.Join(lines, "\n"))
	if more {
		out += "\n" + styles.FaintText.Render("…")
	}
	return out
}

// renderListing lists entries while the viewer is closed.
func (m Model) renderListing(height int) string {
	styles := m.theme.Styles()
	cursor, _ := m.gallery.Cursor()
	n := m.gallery.Len()

	rows := maxInt(1, height-2)
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}
	end := start + rows
	if end > n {
		end = n
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render("Viewer closed. Press o to open."))
	b.WriteString("\n\n")
	for i := start; i < end; i++ {
		line := padRight(fmt.Sprintf("%3d  %s", i+1, m.label(i)), maxInt(10, m.width-2))
		if i == cursor {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderThumbnails renders a window of thumbnail cells around the cursor.
func (m Model) renderThumbnails() string {
	n := m.gallery.Len()
	cursor, _ := m.gallery.Cursor()

	count := maxInt(1, m.width/ThumbnailCellWidth)
	start := cursor - count/2
	if start+count > n {
		start = n - count
	}
	if start < 0 {
		start = 0
	}
	end := start + count
	if end > n {
		end = n
	}

	cells := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		view, _ := m.gallery.Thumbnail(i)
		cells = append(cells, m.renderThumbnail(i, view, i == cursor))
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.SurfaceAlt)).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func (m Model) renderThumbnail(i int, view gallery.SlotView, selected bool) string {
	icon := thumbnailIcon(view, m.spinner.View())
	label := truncateMiddle(m.label(i), ThumbnailCellWidth-6)

	style := lipgloss.NewStyle().
		Width(ThumbnailCellWidth-2).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Foreground(lipgloss.Color(m.theme.StateColor(view.State.String())))
	if selected {
		style = style.BorderForeground(lipgloss.Color(m.theme.BorderFocus))
	}
	return style.Render(icon + " " + label)
}

func thumbnailIcon(view gallery.SlotView, spin string) string {
	switch view.State {
	case gallery.Loading:
		return spin
	case gallery.Errored:
		return "✗"
	case gallery.Displayed:
		if !view.Resource.Owned() {
			return "↗"
		}
		switch media.Inspect(view.Resource.Handle).Category {
		case media.CategoryImage:
			return "▣"
		case media.CategoryDocument:
			return "▤"
		case media.CategoryText:
			return "≡"
		default:
			return "■"
		}
	default:
		return "·"
	}
}
