// Package dictionary provides the view that edits custom dictionary entries.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
)

// ErrNoKeywordService indicates that dictionary edits are unavailable.
var ErrNoKeywordService = errors.New("keyword service is required")

// Field identifies the focused form field.
type Field int

const (
	FieldKeyword Field = iota
	FieldDefinition
	FieldKind
	fieldCount
)

// View is the dictionary add/remove form.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	keywordService driving.KeywordService
	ctx            context.Context

	keyword    *input.Field
	definition *input.Field
	kind       domain.EntryKind
	focused    Field

	stats *domain.StoreStats
	err   error

	width  int
	height int
	ready  bool
}

// NewView creates a new dictionary view.
func NewView(s *styles.Styles, km *keymap.KeyMap, keywordService driving.KeywordService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:         s,
		keymap:         km,
		statusbar:      status.NewBar(s, km),
		keywordService: keywordService,
		ctx:            context.Background(),
		keyword:        input.NewField(s, "Keyword", "e.g. XYZ"),
		definition:     input.NewField(s, "Definition", "what the keyword means"),
		kind:           domain.KindAbbreviation,
		width:          80,
		height:         24,
	}
	v.Reset()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the dictionary counts.
func (v *View) Init() tea.Cmd {
	return v.loadStats()
}

func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.keywordService == nil {
			return messages.StatsLoaded{Err: ErrNoKeywordService}
		}
		stats, err := v.keywordService.Stats(v.ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the dictionary view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		stats := msg.Stats
		v.stats = &stats
		return v, nil

	case messages.KeywordAdded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.done(fmt.Sprintf("Added %s → %s", msg.Entry.Keyword, msg.Entry.Kind.Category()))
		v.clearForm()
		return v, v.loadStats()

	case messages.KeywordRemoved:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		switch msg.Outcome {
		case domain.RemoveRemoved:
			v.done("Removed " + msg.Keyword)
			v.clearForm()
			return v, v.loadStats()
		case domain.RemoveProtected:
			v.setError(fmt.Errorf("'%s' is a built-in entry and cannot be removed", msg.Keyword))
		case domain.RemoveNotFound:
			v.setError(fmt.Errorf("'%s' not found", msg.Keyword))
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

//nolint:exhaustive // handling only relevant key types
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case tea.KeyTab, tea.KeyDown:
		v.focus((v.focused + 1) % fieldCount)
		return v, nil
	case tea.KeyShiftTab, tea.KeyUp:
		v.focus((v.focused + fieldCount - 1) % fieldCount)
		return v, nil
	case tea.KeyEnter:
		return v, v.submitAdd()
	}
	if keymap.Matches(msg.String(), v.keymap.Remove) {
		return v, v.submitRemove()
	}

	switch v.focused {
	case FieldKeyword:
		v.keyword, _ = v.keyword.Update(msg)
	case FieldDefinition:
		v.definition, _ = v.definition.Update(msg)
	case FieldKind:
		if keymap.Matches(msg.String(), v.keymap.ToggleKind) {
			v.toggleKind()
		}
	}
	return v, nil
}

func (v *View) focus(f Field) {
	v.focused = f
	v.keyword.Blur()
	v.definition.Blur()
	switch f {
	case FieldKeyword:
		v.keyword.Focus()
	case FieldDefinition:
		v.definition.Focus()
	}
}

func (v *View) toggleKind() {
	if v.kind == domain.KindAbbreviation {
		v.kind = domain.KindTerm
	} else {
		v.kind = domain.KindAbbreviation
	}
}

// submitAdd validates the form and stores a custom entry.
func (v *View) submitAdd() tea.Cmd {
	keyword := strings.TrimSpace(v.keyword.Value())
	definition := strings.TrimSpace(v.definition.Value())
	if keyword == "" || definition == "" {
		v.setError(errors.New("keyword and definition are required"))
		return nil
	}
	kind := v.kind

	return func() tea.Msg {
		if v.keywordService == nil {
			return messages.KeywordAdded{Err: ErrNoKeywordService}
		}
		entry, err := v.keywordService.Add(v.ctx, keyword, definition, kind)
		if errors.Is(err, domain.ErrAlreadyExists) {
			err = fmt.Errorf("'%s' is a built-in entry and cannot be changed", keyword)
		}
		return messages.KeywordAdded{Entry: entry, Err: err}
	}
}

// submitRemove deletes the custom entry named in the keyword field.
func (v *View) submitRemove() tea.Cmd {
	keyword := strings.TrimSpace(v.keyword.Value())
	if keyword == "" {
		v.setError(errors.New("keyword is required"))
		return nil
	}

	return func() tea.Msg {
		if v.keywordService == nil {
			return messages.KeywordRemoved{Keyword: keyword, Err: ErrNoKeywordService}
		}
		err := v.keywordService.Remove(v.ctx, keyword)
		outcome, ok := domain.RemoveOutcomeOf(err)
		if ok {
			err = nil
		}
		return messages.KeywordRemoved{Keyword: keyword, Outcome: outcome, Err: err}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) done(message string) {
	v.err = nil
	v.statusbar.SetState(status.StateDone)
	v.statusbar.SetMessage(message)
}

func (v *View) clearForm() {
	v.keyword.SetValue("")
	v.definition.SetValue("")
	v.kind = domain.KindAbbreviation
	v.focus(FieldKeyword)
}

// View renders the dictionary view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Dictionary"), "")

	if v.stats != nil {
		sections = append(sections, v.styles.Muted.Render(fmt.Sprintf(
			"Built-in: %d  Custom: %d  Total: %d",
			v.stats.Seeded, v.stats.Custom, v.stats.Seeded+v.stats.Custom,
		)), "")
	}

	sections = append(sections, v.keyword.View(), v.definition.View(), v.renderKind(), "")

	footer := "[tab] Next field  [←/→] Kind  [enter] Add  [ctrl+d] Remove keyword  [esc] Back"
	sections = append(sections, v.styles.Help.Render(footer), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderKind() string {
	label := v.styles.Title.Render("Kind: ")
	options := make([]string, 0, 2)
	for _, k := range []domain.EntryKind{domain.KindAbbreviation, domain.KindTerm} {
		text := "( ) " + k.String()
		style := v.styles.Normal
		if k == v.kind {
			text = "(•) " + k.String()
			if v.focused == FieldKind {
				style = v.styles.Selected
			}
		}
		options = append(options, style.Render(text))
	}
	return label + strings.Join(options, "  ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.keyword.SetWidth(width)
	v.definition.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Reset clears the form and status.
func (v *View) Reset() {
	v.err = nil
	v.clearForm()
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateEditing)
}

// Focused returns the focused field.
func (v *View) Focused() Field {
	return v.focused
}

// Kind returns the selected entry kind.
func (v *View) Kind() domain.EntryKind {
	return v.kind
}

// Stats returns the last loaded dictionary counts.
func (v *View) Stats() *domain.StoreStats {
	return v.stats
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// SetKeyword sets the keyword field.
func (v *View) SetKeyword(keyword string) {
	v.keyword.SetValue(keyword)
}

// SetDefinition sets the definition field.
func (v *View) SetDefinition(definition string) {
	v.definition.SetValue(definition)
}
