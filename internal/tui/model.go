// Package tui is an interactive terminal console for querying the engine.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragserver/internal/domain"
)

// defaultTopK is how many passages one console query retrieves when the
// config does not say otherwise.
const defaultTopK = 10

// SearchPort is the engine surface the console needs.
type SearchPort interface {
	Ready() bool
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea model for the search console.
type Model struct {
	engine   SearchPort
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	status   string
	topK     int
	cursor   int
	ready    bool
}

// New creates a console over an already constructed engine. topK bounds how
// many results one query shows.
func New(engine SearchPort, topK int) Model {
	if topK <= 0 {
		topK = defaultTopK
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a question and press Enter"
	ti.Focus()
	status := "Index ready. Type to search."
	if !engine.Ready() {
		status = "No documents indexed. Searches will return nothing."
	}
	return Model{
		engine:   engine,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   status,
		topK:     topK,
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultStyle.GetFrameSize()
		_, qh := queryStyle.GetFrameSize()
		height := msg.Height - rh - qh - 3
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query != "" {
				m.runQuery(query)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery(query string) {
	results, err := m.engine.Search(context.Background(), query, m.topK)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		return
	}
	if len(results) == 0 {
		m.status = fmt.Sprintf("No matches for %q", query)
	} else {
		m.status = fmt.Sprintf("%d results for %q (up/down to browse)", len(results), query)
	}
	m.results = results
	m.cursor = 0
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return headerStyle.Render("ragserver console") + "\n" +
		resultStyle.Render(m.viewport.View()) + "\n" +
		queryStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

func (m Model) renderResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	meta := fmt.Sprintf("Result %d/%d  %s  page %s  distance %.4f",
		m.cursor+1, len(m.results), filepath.Base(r.Source), r.Page, r.Score)
	return metaStyle.Render(meta) + "\n\n" + r.Content
}
