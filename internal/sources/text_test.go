package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermMatches(t *testing.T) {
	tests := []struct {
		name string
		term string
		text string
		want bool
	}{
		{"short whole word", "stat", "Give STAT dose", true},
		{"short inside word", "stat", "Stature and growth", false},
		{"short at end", "copd", "Severe COPD", true},
		{"short with punctuation", "mi", "Acute MI, inferior", true},
		{"short second occurrence", "ast", "Fast AST rise", true},
		{"long substring", "diabetes", "Type 2 diabetes mellitus", true},
		{"long inside word", "asthma", "Nonasthmatic cough", true},
		{"long missing", "metformin", "Insulin", false},
		{"empty text", "abg", "", false},
		{"empty term", "  ", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TermMatches(tt.term, tt.text))
		})
	}
}

func TestTruncate(t *testing.T) {
	short := "Arterial blood gas"
	assert.Equal(t, short, Truncate(short))

	long := strings.Repeat("a", MaxTextLength+10)
	got := Truncate(long)
	assert.Equal(t, MaxTextLength+3, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "héll...", TruncateTo("héllo", 4))
}

func TestStripHTML(t *testing.T) {
	in := "<p>Asthma is a <b>chronic</b>\n\n disease &amp; it affects\tairways.</p>"
	assert.Equal(t, "Asthma is a chronic disease & it affects airways.", StripHTML(in))
}
