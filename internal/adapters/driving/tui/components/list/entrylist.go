// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/medterm/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/medterm/internal/core/domain"
)

// Row is one line item of the entry list. A keyword with no data gets a
// single row with a nil Entry and the not-found message.
type Row struct {
	Keyword string
	Entry   *domain.LookupEntry
	Message string

	// SourceErrors is set on the first row of each keyword only.
	SourceErrors map[domain.SourceKind]domain.ErrorKind
}

// Rows flattens aggregated results into list rows, preserving keyword
// order and entry rank.
func Rows(results []domain.AggregatedResult) []Row {
	rows := make([]Row, 0, len(results))
	for _, res := range results {
		if !res.Found || len(res.Entries) == 0 {
			rows = append(rows, Row{Keyword: res.Keyword, Message: res.Message, SourceErrors: res.SourceErrors})
			continue
		}
		for i := range res.Entries {
			row := Row{Keyword: res.Keyword, Entry: &res.Entries[i]}
			if i == 0 {
				row.SourceErrors = res.SourceErrors
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// EntryList displays lookup entries in a navigable list.
type EntryList struct {
	rows     []Row
	entries  int
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewEntryList creates a new entry list component.
func NewEntryList(s *styles.Styles) *EntryList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &EntryList{
		rows:     nil,
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the entry list.
func (l *EntryList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *EntryList) Update(msg tea.Msg) (*EntryList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			l.MoveUp()
		case tea.KeyDown:
			l.MoveDown()
		default:
			// Handle other keys
		}
		switch msg.String() {
		case "k":
			l.MoveUp()
		case "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the entry list.
func (l *EntryList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(l.rows)*2+2)

	header := l.styles.Subtitle.Render(fmt.Sprintf("Entries (%d)", l.entries))
	lines = append(lines, header, "")

	// Each row takes 2-3 lines, so divide by 3 for safety
	visibleCount := (l.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.rows) {
		end = len(l.rows)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, &l.rows[i]))
	}

	return strings.Join(lines, "\n")
}

// renderRow formats a single row with its summary line.
func (l *EntryList) renderRow(index int, row *Row) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	keyword := row.Keyword
	maxKeywordLen := l.width - 30
	if maxKeywordLen < 10 {
		maxKeywordLen = 10
	}
	keyword = truncate(keyword, maxKeywordLen)

	tag := "not found"
	tagStyle := l.styles.Muted
	if row.Entry != nil {
		tag = fmt.Sprintf("%s · %s", row.Entry.Category, row.Entry.Source)
		tagStyle = l.styles.Category(row.Entry.Category)
	}

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxKeywordLen, keyword, tag))
	} else {
		titleLine = l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxKeywordLen, keyword)) +
			tagStyle.Render(tag)
	}

	detail := row.Message
	if row.Entry != nil {
		detail = row.Entry.Payload.Summary()
	}

	maxDetailLen := l.width - 6
	if maxDetailLen < 20 {
		maxDetailLen = 20
	}
	detailLine := l.styles.Muted.Render("    " + truncate(detail, maxDetailLen))

	var errorLine string
	if len(row.SourceErrors) > 0 {
		errorLine = "\n" + l.styles.SourceError.Render("    ! "+formatSourceErrors(row.SourceErrors))
	}

	return titleLine + "\n" + detailLine + errorLine
}

func formatSourceErrors(errs map[domain.SourceKind]domain.ErrorKind) string {
	parts := make([]string, 0, len(errs))
	for kind, errKind := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", kind, errKind))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// SetResults replaces the list contents with flattened aggregated results.
func (l *EntryList) SetResults(results []domain.AggregatedResult) {
	l.rows = Rows(results)
	l.entries = 0
	for _, r := range l.rows {
		if r.Entry != nil {
			l.entries++
		}
	}
	l.selected = 0
}

// Rows returns the current rows.
func (l *EntryList) Rows() []Row {
	return l.rows
}

// EntryCount returns the number of rows that carry an entry.
func (l *EntryList) EntryCount() int {
	return l.entries
}

// Selected returns the index of the selected row.
func (l *EntryList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *EntryList) SetSelected(index int) {
	if index >= 0 && index < len(l.rows) {
		l.selected = index
	}
}

// SelectedRow returns the currently selected row, or nil if none.
func (l *EntryList) SelectedRow() *Row {
	if len(l.rows) == 0 || l.selected < 0 || l.selected >= len(l.rows) {
		return nil
	}
	return &l.rows[l.selected]
}

// MoveUp moves selection up.
func (l *EntryList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *EntryList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *EntryList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the current width.
func (l *EntryList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *EntryList) Height() int {
	return l.height
}

// Count returns the number of rows.
func (l *EntryList) Count() int {
	return len(l.rows)
}

// IsEmpty returns whether the list is empty.
func (l *EntryList) IsEmpty() bool {
	return len(l.rows) == 0
}
