package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	// Viewer
	Open             key.Binding
	Close            key.Binding
	ToggleThumbnails key.Binding

	// Navigation
	Next     key.Binding
	Previous key.Binding
	First    key.Binding
	Last     key.Binding

	// Item actions
	Retry           key.Binding
	RetryThumbnails key.Binding
	Edit            key.Binding
	Delete          key.Binding

	// Editor / modal
	Confirm key.Binding
	Cancel  key.Binding
	Yes     key.Binding
	No      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),

		// Viewer
		Open: key.NewBinding(
			key.WithKeys("o", "enter"),
			key.WithHelp("o/enter", "Open viewer"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc", "Close viewer"),
		),
		ToggleThumbnails: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle thumbnails"),
		),

		// Navigation
		Next: key.NewBinding(
			key.WithKeys("l", "right", "n"),
			key.WithHelp("l/right", "Next file"),
		),
		Previous: key.NewBinding(
			key.WithKeys("h", "left", "p"),
			key.WithHelp("h/left", "Previous file"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First file"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last file"),
		),

		// Item actions
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Retry file"),
		),
		RetryThumbnails: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Retry failed thumbnails"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit name"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete file"),
		),

		// Editor / modal
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "Yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "No"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Retry, k.Edit, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Previous, k.First, k.Last},
		{k.Open, k.Close, k.ToggleThumbnails},
		{k.Retry, k.RetryThumbnails, k.Edit, k.Delete},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
