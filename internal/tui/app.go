// Package tui renders the digest in the terminal, showing pipeline
// progress while it is being built.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/piyush0609/ai-pulse/internal/browser"
	"github.com/piyush0609/ai-pulse/internal/digest"
	"github.com/piyush0609/ai-pulse/internal/service"
)

// Streamer produces the ordered pipeline events the TUI renders.
type Streamer interface {
	Stream(ctx context.Context, forceFresh bool) <-chan service.Event
}

type mode int

const (
	modeLoading mode = iota
	modeDigest
	modeError
)

// stage tracks which pipeline steps have completed, for the loading view.
type stage struct {
	label string
	done  bool
}

type App struct {
	streamer Streamer
	events   <-chan service.Event
	gen      int // bumped on refresh so messages from the old stream are ignored
	mode     mode

	width  int
	height int

	spinner spinner.Model
	stages  []stage

	payload    *digest.Payload
	fromCache  bool
	itemCount  int
	scroll     int
	cursor     int // highlight cursor, -1 when none selected
	refreshing bool
	errText    string
	err        error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Streamer   Streamer
	ForceFresh bool
}

func NewApp(opts RunOpts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &App{
		streamer: opts.Streamer,
		events:   opts.Streamer.Stream(context.Background(), opts.ForceFresh),
		spinner:  sp,
		stages:   newStages(),
		cursor:   -1,
	}
}

func newStages() []stage {
	return []stage{
		{label: "fetching feeds"},
		{label: "synthesizing digest"},
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForEvent(), a.spinner.Tick)
}

func (a *App) waitForEvent() tea.Cmd {
	gen, ch := a.gen, a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{gen: gen}
		}
		return eventMsg{gen: gen, event: ev}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case eventMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		return a.handleEvent(msg.event)

	case streamClosedMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		a.refreshing = false
		if a.payload == nil && a.mode != modeError {
			a.mode = modeError
			a.errText = "stream ended without a digest"
		}
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.mode == modeLoading || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleEvent(ev service.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case service.EventFeedsFetching:
		// Loading view already shows the stage as pending.
	case service.EventFeedsDone:
		a.stages[0].done = true
		a.itemCount = ev.ItemCount
	case service.EventSynthesized:
		a.stages[1].done = true
	case service.EventCached:
		a.fromCache = true
		a.stages[0].done = true
		a.stages[1].done = true
	case service.EventDigest:
		var p digest.Payload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			a.mode = modeError
			a.errText = "received a malformed digest"
			return a, a.waitForEvent()
		}
		a.payload = &p
		a.mode = modeDigest
		a.scroll = 0
		a.cursor = -1
	case service.EventDone:
		a.refreshing = false
	case service.EventError:
		a.mode = modeError
		a.errText = ev.Error
		a.refreshing = false
	}
	return a, a.waitForEvent()
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	}

	if a.mode != modeDigest {
		return a, nil
	}

	switch msg.String() {
	case "j", "down":
		a.scroll++
		return a, nil
	case "k", "up":
		if a.scroll > 0 {
			a.scroll--
		}
		return a, nil
	case "tab", "n":
		if n := len(a.payload.Highlights); n > 0 {
			a.cursor = (a.cursor + 1) % n
		}
		return a, nil
	case "p":
		if n := len(a.payload.Highlights); n > 0 {
			a.cursor--
			if a.cursor < 0 {
				a.cursor = n - 1
			}
		}
		return a, nil
	case "o", "enter":
		if a.cursor >= 0 && a.cursor < len(a.payload.Highlights) {
			return a, openBrowserCmd(a.payload.Highlights[a.cursor].Item.URL)
		}
		return a, nil
	case "r":
		if !a.refreshing {
			a.refreshing = true
			a.stages = newStages()
			a.gen++
			a.events = a.streamer.Stream(context.Background(), true)
			return a, tea.Batch(a.waitForEvent(), a.spinner.Tick)
		}
		return a, nil
	}

	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  ai-pulse")
	}

	switch a.mode {
	case modeLoading:
		return a.renderLoading()
	case modeError:
		return errorStyle.Render("  " + a.errText + "\n\n  press q to quit")
	}
	return a.renderDigest()
}

func (a *App) renderLoading() string {
	var b strings.Builder
	b.WriteString("\n  " + a.spinner.View() + " building your digest\n\n")
	for _, st := range a.stages {
		if st.done {
			b.WriteString(stageDoneStyle.Render("  ✓ "+st.label) + "\n")
		} else {
			b.WriteString(stagePendingStyle.Render("  · "+st.label) + "\n")
		}
	}
	if a.itemCount > 0 {
		b.WriteString(stagePendingStyle.Render(fmt.Sprintf("\n  %d items collected", a.itemCount)))
	}
	return b.String()
}

func (a *App) renderDigest() string {
	p := a.payload

	headerLeft := headerStyle.Render("ai-pulse")
	headerRight := headerDateStyle.Render(p.GeneratedAt.Format("Jan 2, 15:04"))
	gap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if gap < 0 {
		gap = 0
	}
	header := headerLeft + strings.Repeat(" ", gap) + headerRight

	var sections []string
	sections = append(sections, summaryStyle.Width(a.width-2).Render(p.Summary))

	for _, theme := range p.Themes {
		sections = append(sections, a.renderTheme(theme))
	}

	if len(p.Highlights) > 0 {
		sections = append(sections, a.renderHighlights(p.Highlights))
	}

	if p.ClosingNote != "" {
		sections = append(sections, closingStyle.Width(a.width-2).Render(p.ClosingNote))
	}

	body := a.clampScroll(strings.Join(sections, "\n"))

	status := fmt.Sprintf("%d items · %s", p.ItemCount, p.Source)
	if a.fromCache {
		status += " · cached"
	}
	if a.refreshing {
		status = a.spinner.View() + " refreshing · " + status
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}
	hints := "j/k scroll  tab select  o open  r refresh  q quit"
	bar := statusBarStyle.Width(a.width).Render(status + "  —  " + hints)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, bar)
}

func (a *App) renderTheme(theme digest.Theme) string {
	title := themeTitleStyle.Render(theme.Title) + " " + moodBadge(theme.Mood)
	body := themeBodyStyle.Width(a.width - 6).Render(theme.Description)

	var items []string
	for _, h := range theme.Items {
		items = append(items, "  • "+h.Item.Title+" "+highlightSourceStyle.Render(h.Item.Source))
	}

	content := title + "\n" + body
	if len(items) > 0 {
		content += "\n" + strings.Join(items, "\n")
	}
	return sectionCardStyle.Width(a.width - 4).Render(content)
}

func (a *App) renderHighlights(highlights []digest.Highlight) string {
	var lines []string
	lines = append(lines, themeTitleStyle.Render("Highlights"))
	for i, h := range highlights {
		titleStyle := highlightTitleStyle
		marker := "  "
		if i == a.cursor {
			titleStyle = highlightSelectedStyle
			marker = "> "
		}
		lines = append(lines, marker+titleStyle.Render(h.Item.Title)+" "+highlightSourceStyle.Render(h.Item.Source))
		if h.WhyMatters != "" {
			lines = append(lines, "    "+highlightWhyStyle.Width(a.width-10).Render(h.WhyMatters))
		}
	}
	return sectionCardStyle.Width(a.width - 4).Render(strings.Join(lines, "\n"))
}

// clampScroll windows the body to the visible height, keeping the scroll
// offset inside the content.
func (a *App) clampScroll(content string) string {
	lines := strings.Split(content, "\n")
	visible := a.height - 2 // header + status bar
	if visible < 3 {
		visible = 3
	}
	maxScroll := len(lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if a.scroll > maxScroll {
		a.scroll = maxScroll
	}
	end := a.scroll + visible
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[a.scroll:end], "\n")
}

func moodBadge(m digest.Mood) string {
	switch m {
	case digest.MoodExciting:
		return highlightSelectedStyle.Render("●")
	case digest.MoodPractical:
		return highlightSourceStyle.Render("●")
	case digest.MoodWorthWatching:
		return headerStyle.Render("●")
	default:
		return stagePendingStyle.Render("●")
	}
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
