package main

import "github.com/gdamore/tcell/v2"

// intent is what a key press asks the sandbox to do
type intent uint8

const (
	intentNone intent = iota
	intentQuit
	intentUp
	intentDown
	intentListenerLeft
	intentListenerRight
	intentPlay
	intentToggleLoop
	intentSave
	intentLoad
	intentDelete
	intentDump
	intentPanel
)

// keyTable maps keys to intents
type keyTable struct {
	SpecialKeys map[tcell.Key]intent
	Runes       map[rune]intent
}

func defaultKeyTable() *keyTable {
	return &keyTable{
		SpecialKeys: map[tcell.Key]intent{
			tcell.KeyEscape: intentQuit,
			tcell.KeyCtrlC:  intentQuit,
			tcell.KeyUp:     intentUp,
			tcell.KeyDown:   intentDown,
			tcell.KeyLeft:   intentListenerLeft,
			tcell.KeyRight:  intentListenerRight,
			tcell.KeyEnter:  intentPlay,
			tcell.KeyTab:    intentPanel,
		},
		Runes: map[rune]intent{
			'q': intentQuit,
			'k': intentUp,
			'j': intentDown,
			'h': intentListenerLeft,
			' ': intentPlay,
			'l': intentToggleLoop,
			's': intentSave,
			'o': intentLoad,
			'x': intentDelete,
			'd': intentDump,
		},
	}
}

// lookup resolves a key event; unbound keys map to intentNone
func (t *keyTable) lookup(ev *tcell.EventKey) intent {
	if ev.Key() == tcell.KeyRune {
		return t.Runes[ev.Rune()]
	}
	return t.SpecialKeys[ev.Key()]
}
