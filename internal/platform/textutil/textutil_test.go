package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"whatsapp", "Whatsapp"},
		{"telegram", "Telegram"},
		{"", ""},
		{"éclair", "Éclair"},
		{"signal Bridge", "Signal Bridge"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Capitalize(tt.input))
		})
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Mom (WA)", "mom"))
	assert.False(t, ContainsFold("Alice", "bob"))
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 6, "hello…"},
		{"multibyte", "ääääää", 3, "ää…"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.input, tt.max))
		})
	}
}

func TestRemoveBridgeSuffix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice (WA)", "Alice"},
		{"Work group (Telegram)", "Work group"},
		{"Bob", "Bob"},
		{"(WA) Carol", "(WA) Carol"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveBridgeSuffix(tt.input))
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "just text &amp; more", "just text & more"},
		{"inline tags", "<b>urgent</b> call   me", "urgent call me"},
		{"blocks", "<p>line one</p><p>line two</p>", "line one\nline two"},
		{"script dropped", "<div>hi<script>alert(1)</script></div>", "hi"},
		{"br", "a<br/>b", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTMLToText(tt.input))
		})
	}
}
