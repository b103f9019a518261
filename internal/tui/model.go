// Package tui is the interactive movie search UI built on Bubble Tea.
//
// The model renders the coordinator's accumulated results as cards and
// asks the coordinator for the next page whenever the loader row below the
// last card scrolls into view. Submitting the form writes the query to the
// view state store; the store's subscription resets the coordinator.
package tui

import (
	"context"

	"github.com/Sternrassler/movie-search/internal/state"
	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/Sternrassler/movie-search/pkg/pagination"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	inputPlaceholder = "Movie title..."

	// inputCharLimit is above the query limit so an over-long title can be
	// typed and then rejected with a message.
	inputCharLimit = 64

	// chromeHeight is the rows used by everything except the cards.
	chromeHeight = 8
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	store  *state.Store
	coord  *pagination.Coordinator
	logger zerolog.Logger

	styles *Styles
	keymap *KeyMap
	input  textinput.Model
	cards  *CardRenderer
	help   help.Model
	window Window

	snap          pagination.Snapshot
	validationErr string
	changes       chan struct{}
	unsubscribe   []func()

	width  int
	height int
}

// Options configures New.
type Options struct {
	// ImageBase is the URL prefix card image paths are joined onto.
	ImageBase string

	Styles *Styles
	KeyMap *KeyMap
}

// New creates the model and wires the store to the coordinator: every
// store Set resets the coordinator to the new query. A non-empty saved
// query is restored into the input and made the active query.
func New(ctx context.Context, store *state.Store, coord *pagination.Coordinator, opts Options) *Model {
	if opts.Styles == nil {
		opts.Styles = DefaultStyles()
	}
	if opts.KeyMap == nil {
		opts.KeyMap = DefaultKeyMap()
	}

	input := textinput.New()
	input.Placeholder = inputPlaceholder
	input.CharLimit = inputCharLimit
	input.Prompt = "> "

	m := &Model{
		ctx:     ctx,
		store:   store,
		coord:   coord,
		logger:  log.With().Str("component", "tui").Logger(),
		styles:  opts.Styles,
		keymap:  opts.KeyMap,
		input:   input,
		cards:   NewCardRenderer(opts.Styles, opts.ImageBase),
		help:    help.New(),
		window:  NewWindow(1),
		changes: make(chan struct{}, 1),
	}

	m.unsubscribe = append(m.unsubscribe,
		store.Subscribe(func(q catalog.SearchQuery) {
			coord.Reset(q)
		}),
		coord.Subscribe(func(pagination.Snapshot) {
			select {
			case m.changes <- struct{}{}:
			default:
			}
		}),
	)

	saved := store.Get()
	m.input.SetValue(saved.String())
	if !saved.IsEmpty() && coord.Query() != saved {
		m.logger.Info().Str("query", saved.String()).Msg("Restoring saved search")
		coord.Reset(saved)
	}
	if saved.IsEmpty() {
		m.input.Focus()
	}

	m.SetDimensions(80, 24)
	m.snap = coord.Snapshot()
	return m
}

// Close removes the model's subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// Init starts listening for coordinator changes and loads the first page of
// a restored query.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen(), m.maybeFetch())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetDimensions(msg.Width, msg.Height)
		return m, m.maybeFetch()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case coordinatorChangedMsg:
		m.refresh()
		return m, m.listen()

	case pageLoadedMsg:
		return m, m.handlePageLoaded(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keymap.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keymap.Blur):
			m.input.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	total := m.snap.MovieCount()
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Focus):
		return m, m.input.Focus()
	case key.Matches(msg, m.keymap.Up):
		m.window.Move(-1, total)
	case key.Matches(msg, m.keymap.Down):
		m.window.Move(1, total)
	case key.Matches(msg, m.keymap.PageUp):
		m.window.Move(-m.window.Size(), total)
	case key.Matches(msg, m.keymap.PageDown):
		m.window.Move(m.window.Size(), total)
	case key.Matches(msg, m.keymap.Top):
		m.window.MoveTo(0, total)
	case key.Matches(msg, m.keymap.Bottom):
		m.window.MoveTo(total-1, total)
	default:
		return m, nil
	}

	return m, m.maybeFetch()
}

// submit validates the input. An invalid query only sets the inline
// message; the store and coordinator are left alone.
func (m *Model) submit() tea.Cmd {
	query, err := catalog.ValidateQuery(m.input.Value())
	if err != nil {
		m.validationErr = catalog.ValidationMessage(err)
		m.logger.Debug().Str("input", m.input.Value()).Msg("Rejected search input")
		return nil
	}
	m.validationErr = ""
	m.input.SetValue(query.String())

	if err := m.store.Set(m.ctx, query); err != nil {
		m.logger.Warn().Err(err).Msg("Search query not persisted")
	}
	if err := m.store.RemoveResults(m.ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Saved results not cleared")
	}

	m.input.Blur()
	m.window.Reset()
	m.refresh()
	return m.maybeFetch()
}

func (m *Model) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	m.refresh()

	if msg.Appended && msg.Query == m.snap.Query {
		if err := m.store.SetResults(m.ctx, m.snap.Movies()); err != nil {
			m.logger.Warn().Err(err).Msg("Results not persisted")
		}
	}

	// A short page can leave the sentinel on screen.
	return m.maybeFetch()
}

// maybeFetch returns a fetch command when the sentinel is visible and the
// coordinator would start a fetch.
func (m *Model) maybeFetch() tea.Cmd {
	m.refresh()
	if !m.window.SentinelVisible(m.snap.MovieCount()) || !m.coord.ShouldFetchMore() {
		return nil
	}

	ctx, coord, query := m.ctx, m.coord, m.snap.Query
	return func() tea.Msg {
		appended := coord.FetchNext(ctx)
		return pageLoadedMsg{Query: query, Appended: appended}
	}
}

// listen waits for the next coordinator change.
func (m *Model) listen() tea.Cmd {
	ctx, changes := m.ctx, m.changes
	return func() tea.Msg {
		select {
		case <-changes:
			return coordinatorChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) refresh() {
	m.snap = m.coord.Snapshot()
	m.window.Move(0, m.snap.MovieCount())
}

// SetDimensions sets the terminal size and recomputes how many cards fit.
func (m *Model) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4
	m.cards.SetWidth(width)
	m.help.Width = width
	m.window.SetSize((height - chromeHeight) / cardHeight)
}

// ValidationError returns the inline form message, or "".
func (m *Model) ValidationError() string {
	return m.validationErr
}

// View renders the UI.
func (m *Model) View() string {
	sections := make([]string, 0, 8)

	sections = append(sections, m.styles.Title.Render("Movie Search"), m.input.View())
	if m.validationErr != "" {
		sections = append(sections, m.styles.Error.Render(m.validationErr))
	}
	sections = append(sections, "")

	movies := m.snap.Movies()
	start, end := m.window.Range(len(movies))
	for i := start; i < end; i++ {
		sections = append(sections, m.cards.Render(movies[i], i == m.window.Cursor() && !m.input.Focused()), "")
	}

	sections = append(sections,
		m.styles.Footer.Render(FooterText(m.snap)),
		m.help.View(m.keymap),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
