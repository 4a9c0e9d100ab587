// Package key provides key event types and token rendering for keytally.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single key press with modifiers and timestamp
//
// # Tokens
//
// Every event has a readable token form used wherever a sequence is
// displayed or persisted. Bare printable characters render as themselves;
// everything else uses angle notation:
//
//   - "a", "A", "1"
//   - "<Space>", "<CR>", "<Esc>", "<BS>"
//   - "<C-s>", "<A-f>", "<C-F5>"
//
// A recorded sequence is the concatenation of its tokens, e.g. "diw" or
// "<C-x><C-s>". SanitizeToken guards the token alphabet: control bytes
// never appear in token strings, including strings loaded from disk.
package key
