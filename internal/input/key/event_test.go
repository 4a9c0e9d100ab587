package key

import (
	"testing"
)

func TestNewRuneEvent(t *testing.T) {
	e := NewRuneEvent('a', ModNone)
	if e.Key != KeyRune {
		t.Errorf("NewRuneEvent key = %v, want KeyRune", e.Key)
	}
	if e.Rune != 'a' {
		t.Errorf("NewRuneEvent rune = %q, want 'a'", e.Rune)
	}
	if e.Time.IsZero() {
		t.Error("NewRuneEvent time not set")
	}
}

func TestNewSpecialEvent(t *testing.T) {
	e := NewSpecialEvent(KeyEscape, ModNone)
	if e.Key != KeyEscape {
		t.Errorf("NewSpecialEvent key = %v, want KeyEscape", e.Key)
	}
	if e.Rune != 0 {
		t.Errorf("NewSpecialEvent rune = %q, want 0", e.Rune)
	}
}

func TestEventToken(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"lowercase", NewRuneEvent('a', ModNone), "a"},
		{"uppercase", NewRuneEvent('A', ModShift), "A"},
		{"digit", NewRuneEvent('7', ModNone), "7"},
		{"space", NewRuneEvent(' ', ModNone), "<Space>"},
		{"unicode", NewRuneEvent('é', ModNone), "é"},
		{"ctrl-rune", NewRuneEvent('s', ModCtrl), "<C-s>"},
		{"alt-rune", NewRuneEvent('x', ModAlt), "<A-x>"},
		{"ctrl-alt", NewRuneEvent('p', ModCtrl|ModAlt), "<C-A-p>"},
		{"ctrl-space", NewRuneEvent(' ', ModCtrl), "<C-Space>"},
		{"escape", NewSpecialEvent(KeyEscape, ModNone), "<Esc>"},
		{"enter", NewSpecialEvent(KeyEnter, ModNone), "<CR>"},
		{"tab", NewSpecialEvent(KeyTab, ModNone), "<Tab>"},
		{"backspace", NewSpecialEvent(KeyBackspace, ModNone), "<BS>"},
		{"shift-tab", NewSpecialEvent(KeyTab, ModShift), "<S-Tab>"},
		{"ctrl-f5", NewSpecialEvent(KeyF5, ModCtrl), "<C-F5>"},
		{"up", NewSpecialEvent(KeyUp, ModNone), "<Up>"},
		{"control-byte", NewRuneEvent('\x07', ModNone), "<U+0007>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Token(); got != tt.want {
				t.Errorf("Token() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventTokenNeverContainsControlBytes(t *testing.T) {
	for r := rune(0); r < 0x20; r++ {
		tok := NewRuneEvent(r, ModNone).Token()
		for _, c := range tok {
			if c < 0x20 || c == 0x7f {
				t.Fatalf("Token() for rune %#x contains control byte %#x: %q", r, c, tok)
			}
		}
	}
}

func TestEventIsModified(t *testing.T) {
	tests := []struct {
		event Event
		want  bool
	}{
		{NewRuneEvent('A', ModShift), false}, // Shift is part of the character
		{NewRuneEvent('a', ModCtrl), true},
		{NewSpecialEvent(KeyTab, ModShift), true},
		{NewSpecialEvent(KeyEnter, ModNone), false},
	}

	for _, tt := range tests {
		if got := tt.event.IsModified(); got != tt.want {
			t.Errorf("IsModified() = %v, want %v for %#v", got, tt.want, tt.event)
		}
	}
}

func TestEventEquals(t *testing.T) {
	a := NewRuneEvent('a', ModCtrl)
	b := NewRuneEvent('a', ModCtrl)
	b.Time = a.Time.Add(1000)
	if !a.Equals(b) {
		t.Error("events with different timestamps should be equal")
	}
	if a.Equals(NewRuneEvent('b', ModCtrl)) {
		t.Error("events with different runes should not be equal")
	}
}
