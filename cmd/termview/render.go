package main

import (
	"cmp"
	"math"
	"slices"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/decker502/cityflight/pkg/modules"
	"github.com/decker502/cityflight/pkg/systems"
	"github.com/decker502/cityflight/pkg/view"
)

// termAspectY 终端字符格高约为宽的两倍
const termAspectY = 0.5

var (
	skyColor     = tcell.NewRGBColor(24, 28, 48)
	hudStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(skyColor)
	hudDimStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(skyColor)
	recordStyle  = tcell.StyleDefault.Foreground(tcell.ColorGold).Background(skyColor).Bold(true)
	printer      = message.NewPrinter(language.English)
	segmentRunes = []rune{'#', '%', '&', '$'}
)

// boxCell 每类长方体的字符和颜色
func boxCell(box modules.Box) (rune, tcell.Color) {
	switch box.Kind {
	case modules.BoxShip:
		return '@', tcell.NewRGBColor(90, 220, 255)
	case modules.BoxClosing:
		return 'X', tcell.NewRGBColor(170, 70, 70)
	case modules.BoxObstacle:
		return '!', tcell.NewRGBColor(240, 140, 40)
	case modules.BoxCloud:
		return '~', tcell.NewRGBColor(220, 225, 235)
	default:
		return segmentRunes[box.Variant%len(segmentRunes)], tcell.NewRGBColor(112, 118, 140)
	}
}

// foggedColor 按深度混向天空颜色
func foggedColor(c tcell.Color, depth float64) tcell.Color {
	t := view.Fog(depth)
	r, g, b := c.RGB()
	sr, sg, sb := skyColor.RGB()
	mix := func(a, b int32) int32 {
		return int32(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return tcell.NewRGBColor(mix(r, sr), mix(g, sg), mix(b, sb))
}

// draw 由远及近填充字符格
func (v *viewer) draw() {
	width, height := v.screen.Size()
	v.screen.SetStyle(tcell.StyleDefault.Background(skyColor))
	v.screen.Clear()

	camera := view.NewCamera(v.module.Config().Viewport, width, height, termAspectY)
	boxes := v.module.Boxes()
	slices.SortStableFunc(boxes, func(a, b modules.Box) int {
		return cmp.Compare(b.Center.Z(), a.Center.Z())
	})

	for _, box := range boxes {
		x0, y0, x1, y1, ok := camera.BoxRect(box)
		if !ok {
			continue
		}
		ch, clr := boxCell(box)
		if box.Kind != modules.BoxShip {
			clr = foggedColor(clr, box.Center.Z())
		}
		style := tcell.StyleDefault.Foreground(clr).Background(skyColor)
		fill(v.screen, x0, y0, x1, y1, width, height, ch, style)
	}

	v.drawHUD(width, height)
	v.screen.Show()
}

// fill 填充投影矩形覆盖的字符格，至少一格
func fill(screen tcell.Screen, x0, y0, x1, y1 float64, width, height int, ch rune, style tcell.Style) {
	cx0, cy0 := int(math.Floor(x0)), int(math.Floor(y0))
	cx1, cy1 := int(math.Ceil(x1))-1, int(math.Ceil(y1))-1
	cx1, cy1 = max(cx1, cx0), max(cy1, cy0)
	cx0, cy0 = max(cx0, 0), max(cy0, 0)
	cx1, cy1 = min(cx1, width-1), min(cy1, height-1)
	for y := cy0; y <= cy1; y++ {
		for x := cx0; x <= cx1; x++ {
			screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func drawString(screen tcell.Screen, x, y int, msg string, style tcell.Style) {
	for i, r := range []rune(msg) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

func drawCentered(screen tcell.Screen, width, y int, msg string, style tcell.Style) {
	drawString(screen, (width-len([]rune(msg)))/2, y, msg, style)
}

func (v *viewer) drawHUD(width, height int) {
	run := v.module.Run()
	if run.Phase() == systems.RunPhaseRunning {
		drawString(v.screen, 1, 0, printer.Sprintf("DISTANCE %d m", run.Distance()), hudStyle)
	}
	drawString(v.screen, 1, 1, printer.Sprintf("BEST %d m", run.BestDistance()), hudDimStyle)
	if v.keys.pilot != nil {
		drawString(v.screen, 1, 2, "AUTOPILOT "+v.pilot.Target().String(), hudDimStyle)
	}

	if run.Phase() != systems.RunPhaseMenu {
		return
	}
	mid := height / 2
	if v.summary != nil {
		drawCentered(v.screen, width, mid-2, printer.Sprintf("You traveled a total of %d meters.", v.summary.Distance), hudStyle)
		if v.summary.NewRecord {
			drawCentered(v.screen, width, mid-1, "New record!", recordStyle)
		} else {
			drawCentered(v.screen, width, mid-1, printer.Sprintf("Best: %d meters", v.summary.Best), hudDimStyle)
		}
	}
	drawCentered(v.screen, width, mid+1, "PRESS SPACE TO FLY  (a: autopilot, q: quit)", hudStyle)
}
