// ABOUTME: Bubbletea model for the companion TUI
// ABOUTME: Catalog browsing, session status, and recommendations
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Watchbird-Live/watchbird-go/internal/catalog"
	"github.com/Watchbird-Live/watchbird-go/internal/frames"
	"github.com/Watchbird-Live/watchbird-go/internal/playback"
	"github.com/Watchbird-Live/watchbird-go/internal/session"
	"github.com/Watchbird-Live/watchbird-go/pkg/relevance"
)

// Model represents the TUI state
type Model struct {
	// Catalog
	items     []catalog.Item
	cursor    int
	watching  string // item id of the active session, "" when idle
	selection relevance.Selection

	// Session
	status  session.Status
	lastErr string

	// Stats
	playback playback.Stats
	frames   frames.Stats

	// Description editing
	editing    bool
	editBuffer string

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ItemsMsg:
		m.items = msg.Items
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		m.reselect()
	case StatusMsg:
		m.status = msg.Status
		if msg.Status.State == session.StateIdle {
			m.watching = ""
		}
	case WatchingMsg:
		m.watching = msg.ItemID
	case ErrorMsg:
		m.lastErr = msg.Message
	case StatsMsg:
		m.playback = msg.Playback
		m.frames = msg.Frames
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.reselect()
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
			m.reselect()
		}
	case "enter":
		if m.controls != nil && m.cursor < len(m.items) {
			select {
			case m.controls.Connect <- m.items[m.cursor]:
			default:
			}
		}
	case "x", "esc":
		if m.controls != nil {
			select {
			case m.controls.Disconnect <- struct{}{}:
			default:
			}
		}
	case "e":
		if m.cursor < len(m.items) {
			m.editing = true
			m.editBuffer = m.items[m.cursor].Description
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// handleEditKey handles keys while editing a description.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.editBuffer = ""
	case tea.KeyEnter:
		if m.controls != nil && m.cursor < len(m.items) {
			select {
			case m.controls.Describe <- DescribeRequest{
				ItemID:      m.items[m.cursor].ID,
				Description: m.editBuffer,
			}:
			default:
			}
		}
		m.editing = false
		m.editBuffer = ""
	case tea.KeyBackspace:
		if len(m.editBuffer) > 0 {
			runes := []rune(m.editBuffer)
			m.editBuffer = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.editBuffer += " "
	case tea.KeyRunes:
		m.editBuffer += string(msg.Runes)
	}

	return m, nil
}

// reselect recomputes recommendations for the highlighted item.
func (m *Model) reselect() {
	if m.cursor >= len(m.items) {
		m.selection = relevance.Selection{}
		return
	}
	m.selection = relevance.Select(m.items[m.cursor], m.items)
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderCatalog()
	if m.editing {
		s += m.renderEditor()
	}
	s += m.renderRecommendations()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders companion session status
func (m Model) renderHeader() string {
	status := "Idle"
	switch m.status.State {
	case session.StateConnecting:
		status = "Connecting..."
	case session.StateActive:
		status = "Live"
	}

	mic := "off"
	if m.status.MicLive {
		mic = "live"
	}

	line := fmt.Sprintf("%s  (mic: %s)", status, mic)
	if m.lastErr != "" {
		line = fmt.Sprintf("%s  !%s", line, truncate(m.lastErr, 30))
	}

	return fmt.Sprintf(`┌─ Watchbird ──────────────────────────────────────────┐
│ Companion: %-41s │
├──────────────────────────────────────────────────────┤
`, truncate(line, 41))
}

// renderCatalog renders the selectable item list
func (m Model) renderCatalog() string {
	if len(m.items) == 0 {
		return "│ Catalog empty                                        │\n"
	}

	s := "│ Catalog:                                             │\n"
	for i, item := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		live := " "
		if item.ID == m.watching {
			live = "●"
		}
		s += fmt.Sprintf("│ %s%s %-47s │\n", marker, live, truncate(item.Title, 47))
	}
	return s
}

// renderEditor renders the description edit line
func (m Model) renderEditor() string {
	return fmt.Sprintf("│ Edit: %-46s │\n", truncate(m.editBuffer+"_", 46))
}

// renderRecommendations renders up-next and more-like-this
func (m Model) renderRecommendations() string {
	s := "│                                                      │\n"
	if m.selection.Primary == nil {
		s += "│ Up Next: (nothing similar)                           │\n"
		return s
	}

	s += fmt.Sprintf("│ Up Next: %-43s │\n", truncate(m.selection.Primary.Title, 43))
	if len(m.selection.Rest) > 0 {
		titles := make([]string, 0, len(m.selection.Rest))
		for _, item := range m.selection.Rest {
			titles = append(titles, item.Title)
		}
		s += fmt.Sprintf("│ More:    %-43s │\n", truncate(strings.Join(titles, ", "), 43))
	}
	return s
}

// renderStats renders pipeline statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Audio: RX %d Played %d Dropped %d Cut %d%-10s │
│ Video: Sent %d Skipped %d%-27s │
`, m.playback.Received, m.playback.Played, m.playback.Dropped,
		m.playback.Interruptions, "",
		m.frames.Sent, m.frames.Skipped, "")
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Terminal: %dx%d                                   │
│   Items: %d  Cursor: %d                              │
`, m.width, m.height, len(m.items), m.cursor)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	if m.editing {
		return `│ Enter:Save  Esc:Cancel                              │
└──────────────────────────────────────────────────────┘
`
	}
	return `│ ↑/↓:Browse  Enter:Watch  x:Stop  e:Edit  q:Quit     │
└──────────────────────────────────────────────────────┘
`
}

// ItemsMsg replaces the catalog listing
type ItemsMsg struct {
	Items []catalog.Item
}

// StatusMsg updates the session status line
type StatusMsg struct {
	Status session.Status
}

// WatchingMsg marks which item has the live session
type WatchingMsg struct {
	ItemID string
}

// ErrorMsg surfaces the most recent session error
type ErrorMsg struct {
	Message string
}

// StatsMsg updates the pipeline counters
type StatsMsg struct {
	Playback playback.Stats
	Frames   frames.Stats
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
