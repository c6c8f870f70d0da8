// Package lookup provides the main keyword lookup view for the TUI.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
)

// Actions offered on a selected row.
const (
	actionDetails = "Show details"
	actionRemove  = "Remove from dictionary"
	actionCancel  = "Cancel"
)

// ActionMenu represents a simple action selection overlay.
type ActionMenu struct {
	actions  []string
	selected int
	visible  bool
	row      *list.Row
}

// View represents the lookup view with input, entry list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.EntryList
	statusbar *status.Bar

	lookupService  driving.LookupService
	keywordService driving.KeywordService
	ctx            context.Context

	results  []domain.AggregatedResult
	keywords []string
	details  *list.Row

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = results mode (navigating)
	actionMenu *ActionMenu
}

// NewView creates a new lookup view. keywordService may be nil, in which
// case custom entries cannot be removed from the results.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	lookupService driving.LookupService,
	keywordService driving.KeywordService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:         s,
		keymap:         km,
		input:          input.NewKeywordInput(s),
		list:           list.NewEntryList(s),
		statusbar:      status.NewBar(s, km),
		lookupService:  lookupService,
		keywordService: keywordService,
		ctx:            context.Background(),
		width:          80,
		height:         24,
		focusInput:     true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the lookup view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.LookupCompleted:
		v.handleLookupCompleted(msg)
		return v, nil

	case messages.KeywordRemoved:
		return v, v.handleKeywordRemoved(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var inputCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	var listCmd tea.Cmd
	v.list, listCmd = v.list.Update(msg)
	if listCmd != nil {
		cmds = append(cmds, listCmd)
	}

	return v, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actionMenu != nil && v.actionMenu.visible {
		return v.handleActionMenuKey(msg)
	}

	// Esc closes the details pane first, then goes back to menu
	if msg.Type == tea.KeyEsc {
		if v.details != nil {
			v.details = nil
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyEnter && v.focusInput {
		keywords := SplitKeywords(v.input.Value())
		if len(keywords) == 0 {
			return v, nil
		}
		v.statusbar.SetState(status.StateLooking)
		v.statusbar.SetMessage("")
		v.focusInput = false
		v.input.Blur()
		return v, v.performLookup(keywords)
	}

	// Input mode: all keys go to input
	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		row := v.list.SelectedRow()
		if row != nil && row.Entry != nil {
			actions := []string{actionDetails}
			if v.removable(row) {
				actions = append(actions, actionRemove)
			}
			v.actionMenu = &ActionMenu{
				actions: append(actions, actionCancel),
				visible: true,
				row:     row,
			}
		}
		return v, nil
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.list.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.list.MoveDown()
		return v, nil
	}

	switch msg.String() {
	case "k":
		v.list.MoveUp()
	case "j":
		v.list.MoveDown()
	case "n":
		v.focusInput = true
		v.details = nil
		v.input.Focus()
		v.input.SetValue("")
	}

	return v, nil
}

// removable reports whether the row is a custom dictionary entry.
func (v *View) removable(row *list.Row) bool {
	if v.keywordService == nil || row.Entry == nil {
		return false
	}
	def := row.Entry.Payload.Definition
	return row.Entry.Source == domain.SourceLocal && def != nil && def.Origin == domain.OriginCustom
}

// handleActionMenuKey processes keyboard input when the action menu is visible.
func (v *View) handleActionMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		if v.actionMenu.selected > 0 {
			v.actionMenu.selected--
		}
		return v, nil
	case tea.KeyDown:
		if v.actionMenu.selected < len(v.actionMenu.actions)-1 {
			v.actionMenu.selected++
		}
		return v, nil
	case tea.KeyEnter:
		action := v.actionMenu.actions[v.actionMenu.selected]
		row := v.actionMenu.row
		v.actionMenu = nil
		return v.executeAction(action, row)
	case tea.KeyEsc:
		v.actionMenu = nil
		return v, nil
	default:
	}

	switch msg.String() {
	case "k":
		if v.actionMenu.selected > 0 {
			v.actionMenu.selected--
		}
	case "j":
		if v.actionMenu.selected < len(v.actionMenu.actions)-1 {
			v.actionMenu.selected++
		}
	}

	return v, nil
}

// executeAction performs the selected action on a row.
func (v *View) executeAction(action string, row *list.Row) (*View, tea.Cmd) {
	if row == nil {
		return v, nil
	}

	switch action {
	case actionDetails:
		v.details = row
	case actionRemove:
		return v, v.removeKeyword(row.Entry.Payload.Definition.Keyword)
	case actionCancel:
		// Menu is already closed
	}

	return v, nil
}

// SplitKeywords splits comma-separated input into trimmed keywords.
func SplitKeywords(value string) []string {
	parts := strings.Split(value, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// performLookup runs a batch lookup and returns the aggregated results.
func (v *View) performLookup(keywords []string) tea.Cmd {
	v.keywords = keywords
	return func() tea.Msg {
		if v.lookupService == nil {
			return messages.ErrorOccurred{Err: ErrNoLookupService}
		}

		results, err := v.lookupService.LookupMany(v.ctx, keywords, domain.LookupOptions{})
		return messages.LookupCompleted{Results: results, Err: err}
	}
}

// removeKeyword deletes a custom entry.
func (v *View) removeKeyword(keyword string) tea.Cmd {
	return func() tea.Msg {
		if v.keywordService == nil {
			return messages.ErrorOccurred{Err: ErrNoKeywordService}
		}
		err := v.keywordService.Remove(v.ctx, keyword)
		outcome, _ := domain.RemoveOutcomeOf(err)
		if outcome != "" {
			err = nil
		}
		return messages.KeywordRemoved{Keyword: keyword, Outcome: outcome, Err: err}
	}
}

// handleLookupCompleted processes aggregated results.
func (v *View) handleLookupCompleted(msg messages.LookupCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.details = nil
	v.results = msg.Results
	v.list.SetResults(msg.Results)
	v.statusbar.ShowResults(v.list.EntryCount(), status.CollectFailures(msg.Results))

	v.focusInput = false
	v.input.Blur()
}

// handleKeywordRemoved reports the outcome and refreshes the results.
func (v *View) handleKeywordRemoved(msg messages.KeywordRemoved) tea.Cmd {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return nil
	}

	switch msg.Outcome {
	case domain.RemoveRemoved:
		v.statusbar.SetMessage("Removed " + msg.Keyword)
	case domain.RemoveProtected:
		v.statusbar.SetMessage(fmt.Sprintf("'%s' is a built-in entry and cannot be removed", msg.Keyword))
	case domain.RemoveNotFound:
		v.statusbar.SetMessage(fmt.Sprintf("'%s' not found", msg.Keyword))
	}

	if len(v.keywords) == 0 {
		return nil
	}
	return v.performLookup(v.keywords)
}

// View renders the lookup view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)

	header := v.styles.Title.Render("medterm")
	sections = append(sections, header, "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.details != nil {
		sections = append(sections, v.renderDetails(v.details))
	} else {
		sections = append(sections, v.list.View())
	}

	if v.actionMenu != nil && v.actionMenu.visible {
		sections = append(sections, "", v.renderActionMenu())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetails renders every payload field of the selected entry.
func (v *View) renderDetails(row *list.Row) string {
	lines := []string{
		v.styles.Subtitle.Render(row.Keyword),
		v.styles.Muted.Render(fmt.Sprintf("%s · %s · rank %d", row.Entry.Category, row.Entry.Source.Description(), row.Entry.Rank)),
		"",
	}

	body, err := json.MarshalIndent(row.Entry.Payload, "", "  ")
	if err != nil {
		lines = append(lines, v.styles.Error.Render(err.Error()))
	} else {
		lines = append(lines, v.styles.Normal.Render(string(body)))
	}

	lines = append(lines, "", v.styles.Help.Render("[esc] back to results"))
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	if v.actionMenu == nil {
		return ""
	}

	lines := make([]string, 0, len(v.actionMenu.actions))
	for i, action := range v.actionMenu.actions {
		if i == v.actionMenu.selected {
			lines = append(lines, v.styles.Selected.Render("> "+action))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+action))
		}
	}

	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, status
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current input value.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input value.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the aggregated results of the last lookup.
func (v *View) Results() []domain.AggregatedResult {
	return v.results
}

// SelectedIndex returns the index of the selected row.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedRow returns the currently selected row.
func (v *View) SelectedRow() *list.Row {
	return v.list.SelectedRow()
}

// Details returns the row shown in the details pane, if any.
func (v *View) Details() *list.Row {
	return v.details
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Reset resets the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.results = nil
	v.keywords = nil
	v.details = nil
	v.actionMenu = nil
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ActionMenuVisible reports whether the action overlay is open.
func (v *View) ActionMenuVisible() bool {
	return v.actionMenu != nil && v.actionMenu.visible
}

// Actions returns the entries of the open action menu.
func (v *View) Actions() []string {
	if v.actionMenu == nil {
		return nil
	}
	return v.actionMenu.actions
}
