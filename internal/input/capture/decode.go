package capture

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keytally/internal/input/key"
)

// Decode converts a tcell key event into a key.Event.
// Returns false if the event does not represent a key press keytally
// records (currently only tcell.KeyNUL with no rune).
func Decode(ev *tcell.EventKey) (key.Event, bool) {
	mods := decodeModifiers(ev.Modifiers())

	switch ev.Key() {
	case tcell.KeyRune:
		return key.Event{Key: key.KeyRune, Rune: ev.Rune(), Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyEnter:
		return key.Event{Key: key.KeyEnter, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyTab:
		return key.Event{Key: key.KeyTab, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyBacktab:
		return key.Event{Key: key.KeyTab, Modifiers: mods.With(key.ModShift), Time: ev.When()}, true
	case tcell.KeyEsc:
		return key.Event{Key: key.KeyEscape, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.Event{Key: key.KeyBackspace, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyDelete:
		return key.Event{Key: key.KeyDelete, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyInsert:
		return key.Event{Key: key.KeyInsert, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyHome:
		return key.Event{Key: key.KeyHome, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyEnd:
		return key.Event{Key: key.KeyEnd, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyPgUp:
		return key.Event{Key: key.KeyPageUp, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyPgDn:
		return key.Event{Key: key.KeyPageDown, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyUp:
		return key.Event{Key: key.KeyUp, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyDown:
		return key.Event{Key: key.KeyDown, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyLeft:
		return key.Event{Key: key.KeyLeft, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyRight:
		return key.Event{Key: key.KeyRight, Modifiers: mods, Time: ev.When()}, true
	case tcell.KeyCtrlSpace:
		return key.Event{Key: key.KeyRune, Rune: ' ', Modifiers: mods.With(key.ModCtrl), Time: ev.When()}, true
	}

	// Function keys
	if ev.Key() >= tcell.KeyF1 && ev.Key() <= tcell.KeyF12 {
		k := key.KeyF1 + key.Key(ev.Key()-tcell.KeyF1)
		return key.Event{Key: k, Modifiers: mods, Time: ev.When()}, true
	}

	// tcell folds Ctrl+letter into dedicated key codes (C-a == 0x01).
	// KeyTab/KeyEnter/KeyBackspace/KeyEsc alias some of these and are
	// handled above, so only the remaining control codes land here.
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		r := rune('a' + ev.Key() - tcell.KeyCtrlA)
		return key.Event{Key: key.KeyRune, Rune: r, Modifiers: mods.With(key.ModCtrl), Time: ev.When()}, true
	}

	return key.Event{}, false
}

// decodeModifiers maps tcell modifier flags to key modifiers.
func decodeModifiers(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}
