// Package status renders the footer line shared by the lookup and
// dictionary views: what just happened on the left, key hints on the right.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/medterm/internal/core/domain"
)

// State selects what the left side of the bar reports.
type State string

const (
	StateReady   State = "ready"
	StateLooking State = "looking"
	StateError   State = "error"
	StateHelp    State = "help"
	StateResults State = "results"
	StateEditing State = "editing"
	StateDone    State = "done"
)

// SourceFailure is a source that failed during the last lookup.
type SourceFailure struct {
	Source domain.SourceKind
	Kind   domain.ErrorKind
}

func (f SourceFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Source, f.Kind)
}

// CollectFailures flattens the per-keyword source errors of a batch into
// one failure per source, in source priority order. When a source failed
// differently for several keywords, the first keyword's kind is reported.
func CollectFailures(results []domain.AggregatedResult) []SourceFailure {
	seen := make(map[domain.SourceKind]domain.ErrorKind)
	for _, res := range results {
		for src, kind := range res.SourceErrors {
			if _, ok := seen[src]; !ok {
				seen[src] = kind
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	failures := make([]SourceFailure, 0, len(seen))
	for _, src := range domain.AllSourceKinds() {
		if kind, ok := seen[src]; ok {
			failures = append(failures, SourceFailure{Source: src, Kind: kind})
		}
	}
	return failures
}

// Bar is a passive footer; views push state into it and render View.
type Bar struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	state    State
	note     string
	entries  int
	failures []SourceFailure
	width    int
}

// NewBar creates a status bar. Nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: km, state: StateReady, width: 80}
}

// View renders the bar at its configured width.
func (s *Bar) View() string {
	summary := s.summary()
	hints := s.hints()

	gap := s.width - lipgloss.Width(summary) - lipgloss.Width(hints)
	if gap < 1 {
		gap = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(summary + strings.Repeat(" ", gap) + hints)
}

func (s *Bar) summary() string {
	st := s.styles
	switch s.state {
	case StateLooking:
		return st.Muted.Render("Looking up...")
	case StateHelp:
		return st.Normal.Render("Help")
	case StateDone:
		return st.Success.Render(s.note)
	case StateError:
		if s.note == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + s.note)
	}

	// Ready, results and editing share one layout: a notice wins over counts.
	if s.note != "" {
		return st.Warning.Render(s.note)
	}
	switch {
	case s.entries > 0:
		return st.Normal.Render(countEntries(s.entries)) + s.failureList()
	case s.state == StateResults:
		return st.Muted.Render("No entries") + s.failureList()
	default:
		return st.Muted.Render("Ready")
	}
}

// failureList names each failed source with its error kind.
func (s *Bar) failureList() string {
	if len(s.failures) == 0 {
		return ""
	}
	parts := make([]string, len(s.failures))
	for i, f := range s.failures {
		parts[i] = f.String()
	}
	return s.styles.SourceError.Render(" · failed " + strings.Join(parts, ", "))
}

func countEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func (s *Bar) hints() string {
	var bindings []key.Binding
	switch {
	case s.state == StateResults && s.entries > 0:
		bindings = s.keys.ResultsHelp()
	case s.state == StateEditing:
		bindings = s.keys.FormHelp()
	default:
		bindings = s.keys.ShortHelp()
	}

	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Help().Key + ": " + b.Help().Desc
	}
	return s.styles.Muted.Render(strings.Join(parts, " | "))
}

// ShowResults switches to the results state for a finished batch.
func (s *Bar) ShowResults(entries int, failures []SourceFailure) {
	s.state = StateResults
	s.note = ""
	s.entries = entries
	s.failures = failures
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the notice shown instead of the entry count.
func (s *Bar) SetMessage(message string) {
	s.note = message
}

// Message returns the current notice.
func (s *Bar) Message() string {
	return s.note
}

// ResultCount returns the entry count of the last batch.
func (s *Bar) ResultCount() int {
	return s.entries
}

// Failures returns the sources that failed in the last batch.
func (s *Bar) Failures() []SourceFailure {
	return s.failures
}

// SetWidth sets the rendered width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the rendered width.
func (s *Bar) Width() int {
	return s.width
}

// Clear returns the bar to Ready and forgets the last batch.
func (s *Bar) Clear() {
	s.state = StateReady
	s.note = ""
	s.entries = 0
	s.failures = nil
}
