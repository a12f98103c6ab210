// Package tui provides a Bubble Tea terminal user interface for browsing
// a vinyl collection.
package tui

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/vinyl-stack/internal/cover"
	"github.com/handiism/vinyl-stack/internal/model"
	"github.com/handiism/vinyl-stack/internal/window"
)

// HintDuration is how long the navigation hint stays visible.
const HintDuration = 5 * time.Second

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6C757D")).
			Width(22).
			Height(6).
			Padding(0, 1)

	centerCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#F8B500")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	albumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateLoading State = iota
	StateBrowse
	StateHelp
	StateError
)

// Loader loads the collection. *collection.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context) (*model.Collection, error)
}

// Resolver finds cover URLs. *cover.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, rec *model.Record) (string, error)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	spinner  spinner.Model
	slider   progress.Model
	loader   Loader
	resolver Resolver

	coll     *model.Collection
	selected int
	covers   map[string]string
	showHint bool
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(loader Loader, resolver Resolver) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	slider := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	slider.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateLoading,
		spinner:  sp,
		slider:   slider,
		loader:   loader,
		resolver: resolver,
		covers:   make(map[string]string),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Message types
type (
	// LoadedMsg is sent when the collection load finishes.
	LoadedMsg struct {
		Collection *model.Collection
		Err        error
	}

	// CoverMsg carries a resolved cover URL.
	CoverMsg struct {
		ID  string
		URL string
	}

	// HideHintMsg hides the navigation hint.
	HideHintMsg struct{}
)

// Selected returns the index of the record in the centre.
func (m Model) Selected() int {
	return m.selected
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.slider.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case LoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.coll = msg.Collection
		m.selected = 0
		m.state = StateBrowse
		m.showHint = true
		cmds = append(cmds, m.hideHint(), m.resolveWindow())

	case CoverMsg:
		m.covers[msg.ID] = msg.URL

	case HideHintMsg:
		m.showHint = false
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit
	}

	switch m.state {
	case StateHelp:
		if key == "?" || key == "esc" {
			m.state = StateBrowse
		}
		return m, nil
	case StateBrowse:
	default:
		return m, nil
	}

	n := m.coll.Len()
	prev := m.selected

	switch key {
	case "left", "h":
		m.selected = window.Step(m.selected, -1, n)
	case "right", "l":
		m.selected = window.Step(m.selected, 1, n)
	case "pgdown", "shift+right":
		m.selected = window.Clamp(m.selected+sliderStep(n), n)
	case "pgup", "shift+left":
		m.selected = window.Clamp(m.selected-sliderStep(n), n)
	case "home":
		m.selected = 0
	case "end":
		m.selected = window.Clamp(n-1, n)
	case "?":
		m.state = StateHelp
		return m, nil
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			m.selected = sliderIndex(int(key[0]-'0'), n)
		}
	}

	if m.selected == prev {
		return m, nil
	}
	return m, m.resolveWindow()
}

// sliderIndex maps a digit 0-9 onto the collection, 0 being the first
// record and 9 the last.
func sliderIndex(digit, n int) int {
	if n <= 1 {
		return 0
	}
	return window.Clamp((digit*(n-1)+4)/9, n)
}

// sliderStep is how far pgup/pgdown move the slider: a tenth of the
// collection, at least one record.
func sliderStep(n int) int {
	return max(n/10, 1)
}

func (m Model) load() tea.Cmd {
	loader := m.loader
	ctx := m.ctx
	return func() tea.Msg {
		coll, err := loader.Load(ctx)
		return LoadedMsg{Collection: coll, Err: err}
	}
}

func (m Model) hideHint() tea.Cmd {
	return tea.Tick(HintDuration, func(_ time.Time) tea.Msg {
		return HideHintMsg{}
	})
}

// resolveWindow resolves covers for visible records not seen yet.
func (m Model) resolveWindow() tea.Cmd {
	if m.coll.Len() == 0 || m.resolver == nil {
		return nil
	}

	var cmds []tea.Cmd
	for _, e := range window.Compute(m.selected, m.coll.Records).Unique() {
		rec := e.Item
		if _, ok := m.covers[rec.ID]; ok {
			continue
		}
		resolver := m.resolver
		ctx := m.ctx
		cmds = append(cmds, func() tea.Msg {
			url, err := resolver.Resolve(ctx, rec)
			if err != nil {
				return nil
			}
			return CoverMsg{ID: rec.ID, URL: url}
		})
	}
	return tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♪ Vinyl Stack"))
	b.WriteString("\n")

	switch m.state {
	case StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Loading collection..."))
		b.WriteString("\n")
	case StateBrowse:
		b.WriteString(m.viewBrowse())
	case StateHelp:
		b.WriteString(m.viewHelp())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	if m.coll.Len() == 0 {
		return infoStyle.Render("The collection is empty.") + "\n"
	}

	b.WriteString(m.viewCarousel())
	b.WriteString("\n")

	n := m.coll.Len()
	percent := 1.0
	if n > 1 {
		percent = float64(m.selected) / float64(n-1)
	}
	b.WriteString(m.slider.ViewAs(percent))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d / %d", m.selected+1, n)))
	b.WriteString("\n\n")

	if m.showHint {
		b.WriteString(infoStyle.Render("Use ←/→ to browse, 0-9 to jump along the slider"))
		b.WriteString("\n\n")
	}

	b.WriteString(m.viewTracklist(m.coll.At(m.selected)))
	return b.String()
}

func (m Model) viewCarousel() string {
	var cards []string
	for _, e := range window.Compute(m.selected, m.coll.Records).Unique() {
		style := cardStyle
		if e.Offset == 0 {
			style = centerCardStyle
		}
		cards = append(cards, style.Render(m.cardContent(e.Item)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, cards...)
}

func (m Model) cardContent(rec *model.Record) string {
	art := "…"
	if url, ok := m.covers[rec.ID]; ok {
		art = "▣ " + path.Base(url)
	} else if !rec.HasCover() {
		art = "▢ " + path.Base(cover.FallbackImage(rec))
	}
	return fmt.Sprintf("%s\n\n%s\n%s", dimStyle.Render(art), albumStyle.Render(rec.Artist), rec.Title)
}

func (m Model) viewTracklist(rec *model.Record) string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render(rec.Title))
	b.WriteString("\n")
	b.WriteString(rec.Artist)
	details := []string{}
	if rec.Year != 0 {
		details = append(details, rec.Year.String())
	}
	if rec.Label != "" {
		details = append(details, rec.Label)
	}
	if len(details) > 0 {
		b.WriteString(dimStyle.Render(" · " + strings.Join(details, " · ")))
	}
	b.WriteString("\n\n")

	if len(rec.Tracks) == 0 {
		b.WriteString(dimStyle.Render("No tracks listed"))
		return boxStyle.Render(b.String())
	}

	for i, track := range rec.Tracks {
		line := fmt.Sprintf("%2d. %s", i+1, track.Title)
		if track.Duration != "" {
			line += dimStyle.Render("  " + track.Duration)
		}
		b.WriteString(line)
		if i < len(rec.Tracks)-1 {
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(b.String())
}

func (m Model) viewHelp() string {
	rows := [][2]string{
		{"←/h", "previous record"},
		{"→/l", "next record"},
		{"pgup/pgdn", "move the slider a tenth"},
		{"home/end", "first/last record"},
		{"0-9", "jump along the slider"},
		{"?", "toggle help"},
		{"q", "quit"},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-10s %s\n", r[0], r[1]))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Could not load the collection:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Restart vinyl-stack to try again."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateBrowse:
		return "←/→: browse • pgup/pgdn • home/end • 0-9: jump • ?: help • q: quit"
	case StateHelp:
		return "?: back • q: quit"
	case StateLoading, StateError:
		return "q: quit"
	}
	return ""
}

// Run starts the TUI application and blocks until it exits.
func Run(loader Loader, resolver Resolver) error {
	p := tea.NewProgram(NewModel(loader, resolver), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
