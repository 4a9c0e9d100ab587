package key

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeToken strips control characters and other non-printables from a
// sequence token string. Used as a guard before display or persistence,
// in particular for token strings loaded from disk.
func SanitizeToken(s string) string {
	if s == "" {
		return s
	}

	clean := true
	for _, r := range s {
		if !isTokenRune(r) {
			clean = false
			break
		}
	}
	if clean && utf8.ValidString(s) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError || !isTokenRune(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// isTokenRune reports whether r may appear in a token string.
func isTokenRune(r rune) bool {
	return unicode.IsPrint(r) && r != utf8.RuneError
}

// ParseToken parses a single token string into an Event.
// Accepts bare characters ("a", "Z") and angle notation
// ("<Space>", "<CR>", "<C-s>", "<A-F5>").
func ParseToken(s string) (Event, error) {
	if s == "" {
		return Event{}, fmt.Errorf("empty token")
	}

	// Bare character
	if !strings.HasPrefix(s, "<") {
		r, size := utf8.DecodeRuneInString(s)
		if size != len(s) || r == utf8.RuneError {
			return Event{}, fmt.Errorf("invalid token %q", s)
		}
		return NewRuneEvent(r, ModNone), nil
	}

	if !strings.HasSuffix(s, ">") || len(s) < 3 {
		return Event{}, fmt.Errorf("unterminated token %q", s)
	}
	inner := s[1 : len(s)-1]

	// Split off modifier prefixes. The final part is the key name;
	// everything before it must be a recognized modifier.
	parts := strings.Split(inner, "-")
	var mods Modifier
	for len(parts) > 1 {
		mod := ModifierFromName(parts[0])
		if mod == ModNone {
			break
		}
		mods = mods.With(mod)
		parts = parts[1:]
	}
	name := strings.Join(parts, "-")

	if name == "Space" || strings.EqualFold(name, "space") {
		return Event{Key: KeyRune, Rune: ' ', Modifiers: mods}, nil
	}

	if k := KeyFromName(name); k != KeyNone {
		return Event{Key: k, Modifiers: mods}, nil
	}

	// Single character with modifiers, e.g. <C-s>
	r, size := utf8.DecodeRuneInString(name)
	if size == len(name) && r != utf8.RuneError {
		return Event{Key: KeyRune, Rune: r, Modifiers: mods}, nil
	}

	return Event{}, fmt.Errorf("unknown key name %q in token %q", name, s)
}

// ParseSequence parses a concatenated token string into events.
// Example: "diw", "<C-x><C-s>", "gg<Esc>"
func ParseSequence(s string) ([]Event, error) {
	if s == "" {
		return nil, nil
	}

	var events []Event
	for i := 0; i < len(s); {
		if s[i] == '<' {
			end := strings.IndexByte(s[i:], '>')
			if end == -1 {
				// No closing bracket: literal '<'
				events = append(events, Event{Key: KeyRune, Rune: '<'})
				i++
				continue
			}
			ev, err := ParseToken(s[i : i+end+1])
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
			i += end + 1
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError {
			return nil, fmt.Errorf("invalid UTF-8 in sequence at byte %d", i)
		}
		events = append(events, Event{Key: KeyRune, Rune: r})
		i += size
	}
	return events, nil
}

// JoinTokens renders a series of events as one concatenated token string.
func JoinTokens(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(e.Token())
	}
	return sb.String()
}
