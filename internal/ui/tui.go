// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the companion UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Watchbird-Live/watchbird-go/internal/catalog"
)

// Controls holds channels the UI uses to drive the session manager
// and the catalog store.
type Controls struct {
	Connect    chan catalog.Item
	Disconnect chan struct{}
	Describe   chan DescribeRequest
	Quit       chan struct{}
}

// DescribeRequest asks for an item's description to be replaced.
type DescribeRequest struct {
	ItemID      string
	Description string
}

// NewControls creates the control channel set.
func NewControls() *Controls {
	return &Controls{
		Connect:    make(chan catalog.Item, 10),
		Disconnect: make(chan struct{}, 10),
		Describe:   make(chan DescribeRequest, 10),
		Quit:       make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(controls *Controls, items []catalog.Item) Model {
	m := Model{
		items:    items,
		controls: controls,
	}
	m.reselect()
	return m
}

// Run starts the TUI.
func Run(controls *Controls, items []catalog.Item) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls, items), tea.WithAltScreen())
	return p, nil
}
