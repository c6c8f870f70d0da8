package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/views/dictionary"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/views/lookup"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/medterm/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// lookupView is the keyword lookup view.
	lookupView *lookup.View

	// dictionaryView edits custom entries.
	dictionaryView *dictionary.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		lookupView:     lookup.NewView(s, km, ports.Lookup, ports.Keywords),
		dictionaryView: dictionary.NewView(s, km, ports.Keywords),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.lookupView.WithContext(ctx)
	a.dictionaryView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("medterm - Medical Terminology Lookup"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewLookup:
			a.lookupView, cmd = a.lookupView.Update(msg)
			a.err = a.lookupView.Err()
		case messages.ViewDictionary:
			a.dictionaryView, cmd = a.dictionaryView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.LookupCompleted:
		a.lookupView, cmd = a.lookupView.Update(msg)
		a.err = a.lookupView.Err()
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewLookup:
			a.lookupView.Reset()
			return a, a.lookupView.Init()
		case messages.ViewDictionary:
			a.dictionaryView.Reset()
			return a, a.dictionaryView.Init()
		case messages.ViewMenu, messages.ViewHelp:
			// No initialisation needed
		}
		return a, nil

	case messages.StatsLoaded, messages.KeywordAdded:
		a.dictionaryView, cmd = a.dictionaryView.Update(msg)
		return a, cmd

	case messages.KeywordRemoved:
		// Removals start from either view; the originating view owns the result
		if a.currentView == messages.ViewDictionary {
			a.dictionaryView, cmd = a.dictionaryView.Update(msg)
		} else {
			a.lookupView, cmd = a.lookupView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewLookup {
			a.lookupView, cmd = a.lookupView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blink etc.) to the active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewLookup:
		a.lookupView, cmd = a.lookupView.Update(msg)
	case messages.ViewDictionary:
		a.dictionaryView, cmd = a.dictionaryView.Update(msg)
	case messages.ViewHelp:
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewLookup:
		return a.lookupView.View()
	case messages.ViewDictionary:
		return a.dictionaryView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Look up:
  (type)      Keywords, separated by commas
  enter       Look up all keywords
  esc         Back to Menu

Results:
  j/k, ↑/↓    Navigate entries
  enter       Actions (details, remove custom entry)
  n           New lookup

Dictionary:
  tab         Next field
  ←/→         Switch kind (abbreviation, term)
  enter       Add keyword
  ctrl+d      Remove keyword

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Query returns the current lookup input.
func (a *App) Query() string {
	return a.lookupView.Query()
}

// Results returns the results of the last lookup.
func (a *App) Results() []domain.AggregatedResult {
	return a.lookupView.Results()
}

// SelectedIndex returns the currently selected row index.
func (a *App) SelectedIndex() int {
	return a.lookupView.SelectedIndex()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.lookupView.SetDimensions(width, height)
	a.dictionaryView.SetDimensions(width, height)
}
