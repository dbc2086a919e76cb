package scenes

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/bitmapfont/v4"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/game"
	"github.com/decker502/cityflight/pkg/modules"
	"github.com/decker502/cityflight/pkg/systems"
	"github.com/decker502/cityflight/pkg/view"
)

// FlightScene 无尽飞行场景
//
// 场景只负责输入和渲染，世界推进全部交给 FlightModule：
//   - 菜单阶段按空格/回车或点击屏幕开局
//   - F3 切换调试信息
//   - 一局结束后显示本局距离和最远距离
type FlightScene struct {
	module    *modules.FlightModule
	gameState *game.GameState
	input     *KeyboardAxis

	face    *text.GoXFace
	printer *message.Printer

	summary    *systems.RunSummary
	summaryAge float64 // 结算文字已显示的秒数
	camera     view.Camera
}

// NewFlightScene 创建飞行场景
//
// 参数:
//   - cfg: 世界配置
//   - gs: 游戏状态（设置和最远距离记录），可为 nil
//   - seed: 随机种子
//
// 返回:
//   - *FlightScene: 新场景
//   - error: 世界初始化失败
func NewFlightScene(cfg *config.WorldConfig, gs *game.GameState, seed int64) (*FlightScene, error) {
	s := &FlightScene{
		gameState: gs,
		input:     NewKeyboardAxis(),
		face:      text.NewGoXFace(bitmapfont.Face),
		printer:   message.NewPrinter(language.English),
		camera:    view.NewCamera(cfg.Viewport, config.GameWindowWidth, config.GameWindowHeight, 1),
	}

	opts := modules.FlightOptions{
		Config: cfg,
		Seed:   seed,
		Input:  s.input,
		OnEnd:  s.onRunEnd,
	}
	if gs != nil && gs.Records != nil {
		opts.Records = gs.Records
	}

	module, err := modules.NewFlightModule(opts)
	if err != nil {
		return nil, fmt.Errorf("flight scene: %w", err)
	}
	s.module = module
	return s, nil
}

// Update 处理输入并推进一个固定步
func (s *FlightScene) Update(deltaTime float64) error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) && s.gameState != nil {
		show := s.gameState.Settings.ToggleDebug()
		log.Printf("[FlightScene] debug overlay: %v", show)
	}

	if s.module.Run().Phase() == systems.RunPhaseMenu && startRequested() {
		if err := s.module.StartRun(); err != nil {
			return err
		}
		s.summary = nil
	}
	if s.summary != nil {
		s.summaryAge += deltaTime
	}

	return s.module.Update(deltaTime)
}

func (s *FlightScene) onRunEnd(summary systems.RunSummary) {
	s.summary = &summary
	s.summaryAge = 0
}

// Draw 绘制世界和 HUD
func (s *FlightScene) Draw(screen *ebiten.Image) {
	screen.Fill(skyColor)
	s.drawWorld(screen)
	s.drawHUD(screen)
	if s.showDebug() {
		s.drawDebug(screen)
	}
}

func (s *FlightScene) showDebug() bool {
	return s.gameState != nil && s.gameState.Settings.GetSettings().ShowDebug
}

// SaveOnExit 退出时提交进行中的距离并保存设置
func (s *FlightScene) SaveOnExit() bool {
	ok := true
	if err := s.module.Run().FlushRecord(); err != nil {
		log.Printf("[FlightScene] Warning: failed to flush record: %v", err)
		ok = false
	}
	if s.gameState != nil {
		if err := s.gameState.Settings.Save(); err != nil {
			log.Printf("[FlightScene] Warning: failed to save settings: %v", err)
			ok = false
		}
	}
	return ok
}

// Module 返回飞行模块
func (s *FlightScene) Module() *modules.FlightModule { return s.module }
