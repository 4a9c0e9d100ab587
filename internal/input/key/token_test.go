package key

import (
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "diw", "diw"},
		{"angle", "<C-x><C-s>", "<C-x><C-s>"},
		{"control bytes", "a\x1bb\x00c", "abc"},
		{"newline", "gg\n", "gg"},
		{"tab byte", "a\tb", "ab"},
		{"unicode", "héllo", "héllo"},
		{"empty", "", ""},
		{"invalid utf8", "a\xffb", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.in); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in   string
		want Event
	}{
		{"a", Event{Key: KeyRune, Rune: 'a'}},
		{"<Space>", Event{Key: KeyRune, Rune: ' '}},
		{"<CR>", Event{Key: KeyEnter}},
		{"<Esc>", Event{Key: KeyEscape}},
		{"<C-s>", Event{Key: KeyRune, Rune: 's', Modifiers: ModCtrl}},
		{"<C-A-p>", Event{Key: KeyRune, Rune: 'p', Modifiers: ModCtrl | ModAlt}},
		{"<S-Tab>", Event{Key: KeyTab, Modifiers: ModShift}},
		{"<F11>", Event{Key: KeyF11}},
		{"<Up>", Event{Key: KeyUp}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseToken(tt.in)
			if err != nil {
				t.Fatalf("ParseToken(%q) error: %v", tt.in, err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("ParseToken(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTokenErrors(t *testing.T) {
	for _, in := range []string{"", "<C-", "<Bogus>", "ab"} {
		if _, err := ParseToken(in); err == nil {
			t.Errorf("ParseToken(%q) should fail", in)
		}
	}
}

func TestParseSequence(t *testing.T) {
	events, err := ParseSequence("d2w<C-s><Esc>")
	if err != nil {
		t.Fatalf("ParseSequence error: %v", err)
	}
	want := []Event{
		{Key: KeyRune, Rune: 'd'},
		{Key: KeyRune, Rune: '2'},
		{Key: KeyRune, Rune: 'w'},
		{Key: KeyRune, Rune: 's', Modifiers: ModCtrl},
		{Key: KeyEscape},
	}
	if len(events) != len(want) {
		t.Fatalf("ParseSequence returned %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if !events[i].Equals(want[i]) {
			t.Errorf("event %d = %#v, want %#v", i, events[i], want[i])
		}
	}
}

func TestParseSequenceLiteralAngle(t *testing.T) {
	events, err := ParseSequence("a<b")
	if err != nil {
		t.Fatalf("ParseSequence error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("ParseSequence returned %d events, want 3", len(events))
	}
	if events[1].Rune != '<' {
		t.Errorf("unterminated bracket should parse as literal '<', got %q", events[1].Rune)
	}
}

func TestJoinTokensRoundTrip(t *testing.T) {
	seqs := []string{"diw", "<C-x><C-s>", "gg", "<Esc>:wq<CR>"}
	for _, s := range seqs {
		events, err := ParseSequence(s)
		if err != nil {
			t.Fatalf("ParseSequence(%q) error: %v", s, err)
		}
		if got := JoinTokens(events); got != s {
			t.Errorf("JoinTokens(ParseSequence(%q)) = %q", s, got)
		}
	}
}
