package scenes

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/modules"
	"github.com/decker502/cityflight/pkg/systems"
	"github.com/decker502/cityflight/pkg/utils"
	"github.com/decker502/cityflight/pkg/view"
)

var (
	skyColor      = color.RGBA{R: 24, G: 28, B: 48, A: 255}
	hudColor      = color.RGBA{R: 230, G: 236, B: 245, A: 255}
	hudDimColor   = color.RGBA{R: 150, G: 160, B: 180, A: 255}
	recordColor   = color.RGBA{R: 255, G: 210, B: 90, A: 255}
	debugBgColor  = color.RGBA{A: 160}
	outlineColor  = color.RGBA{R: 10, G: 12, B: 20, A: 255}
	shipColor     = color.RGBA{R: 90, G: 220, B: 255, A: 255}
	closingColor  = color.RGBA{R: 170, G: 70, B: 70, A: 255}
	obstacleColor = color.RGBA{R: 240, G: 140, B: 40, A: 255}
	cloudColor    = color.RGBA{R: 220, G: 225, B: 235, A: 90}

	// 建筑外观变体的颜色
	segmentColors = []color.RGBA{
		{R: 96, G: 104, B: 128, A: 255},
		{R: 112, G: 108, B: 120, A: 255},
		{R: 84, G: 96, B: 116, A: 255},
		{R: 124, G: 120, B: 136, A: 255},
	}
)

// summaryFadeSeconds 结算文字淡入时长
const summaryFadeSeconds = 0.6

// faded 按不透明度缩放预乘颜色
func faded(c color.RGBA, alpha float64) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(math.Round(float64(v) * alpha)) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: scale(c.A)}
}

// fogged 按深度把颜色混向天空颜色
func fogged(c color.RGBA, depth float64) color.RGBA {
	t := view.Fog(depth)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(utils.Lerp(float64(a), float64(b), t)))
	}
	return color.RGBA{R: mix(c.R, skyColor.R), G: mix(c.G, skyColor.G), B: mix(c.B, skyColor.B), A: c.A}
}

// boxColor 按类别和变体选择颜色
func boxColor(box modules.Box) color.RGBA {
	switch box.Kind {
	case modules.BoxClosing:
		return closingColor
	case modules.BoxObstacle:
		return obstacleColor
	case modules.BoxCloud:
		return cloudColor
	case modules.BoxShip:
		return shipColor
	default:
		return segmentColors[box.Variant%len(segmentColors)]
	}
}

// drawWorld 由远及近绘制全部长方体
func (s *FlightScene) drawWorld(screen *ebiten.Image) {
	boxes := s.module.Boxes()
	slices.SortStableFunc(boxes, func(a, b modules.Box) int {
		return cmp.Compare(b.Center.Z(), a.Center.Z())
	})

	for _, box := range boxes {
		x0, y0, x1, y1, ok := s.camera.BoxRect(box)
		if !ok || x1 < 0 || y1 < 0 || x0 > float64(config.GameWindowWidth) || y0 > float64(config.GameWindowHeight) {
			continue
		}
		w, h := float32(x1-x0), float32(y1-y0)
		if w < 0.5 && h < 0.5 {
			continue
		}

		clr := boxColor(box)
		if box.Kind != modules.BoxShip {
			clr = fogged(clr, box.Center.Z())
		}
		vector.DrawFilledRect(screen, float32(x0), float32(y0), w, h, clr, false)
		if box.Kind != modules.BoxCloud {
			vector.StrokeRect(screen, float32(x0), float32(y0), w, h, 1, outlineColor, false)
		}
	}
}

// drawText 在指定位置绘制一行文字
func (s *FlightScene) drawText(screen *ebiten.Image, msg string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, s.face, op)
}

// drawCentered 水平居中绘制一行文字
func (s *FlightScene) drawCentered(screen *ebiten.Image, msg string, y float64, clr color.Color) {
	x := (float64(config.GameWindowWidth) - text.Advance(msg, s.face)) / 2
	s.drawText(screen, msg, x, y, clr)
}

// drawHUD 距离、最远距离和菜单提示
func (s *FlightScene) drawHUD(screen *ebiten.Image) {
	run := s.module.Run()
	m := config.HUDMargin

	if run.Phase() == systems.RunPhaseRunning {
		s.drawText(screen, s.printer.Sprintf("DISTANCE %d m", run.Distance()), m, m, hudColor)
	}
	s.drawText(screen, s.printer.Sprintf("BEST %d m", run.BestDistance()), m, m+config.HUDLineHeight, hudDimColor)

	if run.Phase() != systems.RunPhaseMenu {
		return
	}

	centerY := float64(config.GameWindowHeight) / 2
	if s.summary != nil {
		alpha := utils.EaseOutCubic(s.summaryAge / summaryFadeSeconds)
		s.drawCentered(screen, s.printer.Sprintf("You traveled a total of %d meters.", s.summary.Distance),
			centerY-2*config.HUDLineHeight, faded(hudColor, alpha))
		if s.summary.NewRecord {
			s.drawCentered(screen, "New record!", centerY-config.HUDLineHeight, faded(recordColor, alpha))
		} else {
			s.drawCentered(screen, s.printer.Sprintf("Best: %d meters", s.summary.Best),
				centerY-config.HUDLineHeight, faded(hudDimColor, alpha))
		}
	}

	prompt := "PRESS SPACE TO FLY"
	if utils.IsMobile() {
		prompt = "TAP TO FLY"
	}
	s.drawCentered(screen, prompt, centerY+config.HUDLineHeight, hudColor)
}

// drawDebug 右上角的运行统计
func (s *FlightScene) drawDebug(screen *ebiten.Image) {
	stats := s.module.Stats()
	lines := []string{
		fmt.Sprintf("TPS %.0f  FPS %.0f", ebiten.ActualTPS(), ebiten.ActualFPS()),
		fmt.Sprintf("tick %d  phase %s", stats.Tick, stats.Phase),
		fmt.Sprintf("commits %d  crashes %d  runs %d", stats.Commits, stats.Crashes, stats.Runs),
		fmt.Sprintf("generating %v  pending %v", stats.Generating, stats.Pending),
		fmt.Sprintf("candidates [%s]", strings.Join(stats.Candidates, " ")),
		fmt.Sprintf("segments %d/%d  obstacles %d/%d", stats.Segments, stats.SegmentCap, stats.Obstacles, stats.ObstacleCap),
		fmt.Sprintf("clouds %d  entities %d", stats.Clouds, stats.Entities),
	}

	width := 0.0
	for _, line := range lines {
		width = math.Max(width, text.Advance(line, s.face))
	}
	x := float64(config.GameWindowWidth) - config.HUDMargin - width
	y := config.HUDMargin
	vector.DrawFilledRect(screen, float32(x-6), float32(y-4), float32(width+12),
		float32(float64(len(lines))*config.HUDLineHeight+8), debugBgColor, false)
	for i, line := range lines {
		s.drawText(screen, line, x, y+float64(i)*config.HUDLineHeight, hudColor)
	}
}
