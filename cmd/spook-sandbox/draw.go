package main

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/spook/audio"
)

var (
	styleText   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorAqua)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelect = tcell.StyleDefault.Reverse(true)
	styleLoop   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

const helpLine = "↑↓ select  ⏎/space play  l loop  ←→/h listener  s save  o load  x delete  d dump  tab panel  q quit"

// drawText writes s at x,y clipped to width w
func drawText(screen tcell.Screen, x, y, w int, style tcell.Style, s string) {
	col := 0
	for _, r := range s {
		if col >= w {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
}

func (a *app) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()
	if width < 40 || height < 10 {
		drawText(a.screen, 0, 0, width, styleWarn, "terminal too small")
		a.screen.Show()
		return
	}

	listener := a.scene.Listener()
	header := fmt.Sprintf("spook sandbox  frame %d  started %v  listener (%.0f, %.0f, %.0f)",
		a.ticker.Frame(), a.host.Started(), listener.X, listener.Y, listener.Z)
	drawText(a.screen, 0, 0, width, styleTitle, header)

	colW := width / 3
	body := height - 4
	a.drawDefinitions(0, 2, colW-1, body)
	a.drawPool(colW, 2, colW-1, body)
	if a.panel == panelEvents {
		a.drawEvents(2*colW, 2, width-2*colW, body)
	} else {
		a.drawMetrics(2*colW, 2, width-2*colW, body)
	}

	drawText(a.screen, 0, height-2, width, styleDim, helpLine)
	drawText(a.screen, 0, height-1, width, styleWarn, a.message)
	a.screen.Show()
}

func (a *app) drawDefinitions(x, y, w, h int) {
	drawText(a.screen, x, y, w, styleTitle, "Definitions")
	looping := a.scene.Looping()
	for i, def := range a.definitions() {
		row := y + 1 + i
		if row >= y+h {
			break
		}
		style := styleText
		mark := " "
		if looping[def.Name()] {
			style, mark = styleLoop, "~"
		}
		if i == a.selected {
			style = styleSelect
		}
		drawText(a.screen, x, row, w, style, fmt.Sprintf("%s %-12s %s", mark, def.Name(), def.Group))
	}

	savesY := y + h/2
	drawText(a.screen, x, savesY, w, styleTitle, "Saves")
	for i, e := range a.entries {
		row := savesY + 1 + i
		if row >= y+h {
			break
		}
		drawText(a.screen, x, row, w, styleDim,
			fmt.Sprintf("%-10s %s %dB", e.Name, e.Modified.Format("15:04:05"), e.Size))
	}
}

func (a *app) drawPool(x, y, w, h int) {
	leased, available := a.audio.Pool().Stats()
	drawText(a.screen, x, y, w, styleTitle, fmt.Sprintf("Pool  leased %d  free %d", leased, available))

	handles := a.audio.Pool().Leased()
	for i, hd := range handles {
		row := y + 1 + i
		if row >= y+h {
			break
		}
		drawText(a.screen, x, row, w, handleStyle(hd), handleLine(hd))
	}
}

func handleStyle(h *audio.Handle) tcell.Style {
	switch h.State() {
	case audio.HandlePlaying:
		return styleLoop
	case audio.HandleStarting:
		return styleWarn
	default:
		return styleDim
	}
}

func handleLine(h *audio.Handle) string {
	name := "-"
	src := h.Source()
	if clip := src.Clip(); clip != nil {
		name = clip.Name
	}
	return fmt.Sprintf("#%-3d %-8s vol %.2f  %s", h.ID(), h.State(), src.Volume(), name)
}

func (a *app) drawEvents(x, y, w, h int) {
	drawText(a.screen, x, y, w, styleTitle, "Events (tab: metrics)")
	row := y + 1
	for _, info := range a.host.Runtime().Events.Reactors() {
		if row >= y+h {
			return
		}
		drawText(a.screen, x, row, w, styleText,
			fmt.Sprintf("%s  raised %d  handlers %d", info.Name, info.Raised, info.Handlers()))
		row++
		for _, pr := range info.Rows {
			for _, name := range pr.Handlers {
				if row >= y+h {
					return
				}
				drawText(a.screen, x+2, row, w-2, styleDim, fmt.Sprintf("[%d] %s", pr.Priority, name))
				row++
			}
		}
	}
}

func (a *app) drawMetrics(x, y, w, h int) {
	drawText(a.screen, x, y, w, styleTitle, "Metrics (tab: events)")
	entries := a.host.Runtime().Status.Snapshot()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	for i, e := range entries {
		row := y + 1 + i
		if row >= y+h {
			return
		}
		drawText(a.screen, x, row, w, styleText, fmt.Sprintf("%-24s %s", e.Key, e.Value))
	}
}
