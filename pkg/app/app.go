// Package app 提供游戏应用的核心包装器
//
// 该包将游戏初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/embedded"
	"github.com/decker502/cityflight/pkg/game"
	"github.com/decker502/cityflight/pkg/scenes"
)

// WorldConfigPath 内嵌世界配置的路径
const WorldConfigPath = "data/world.yaml"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// WorldConfigFile 外部世界配置文件，为空时使用内嵌的 data/world.yaml
	WorldConfigFile string
	// Seed 随机种子
	Seed int64
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	gameState                *game.GameState
	world                    *config.WorldConfig
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化游戏应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
//
// 参数:
//   - cfg: 启动配置
//   - gameState: 设置和记录（可为 nil）
func NewApp(cfg Config, gameState *game.GameState) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	world, err := LoadWorldConfig(cfg.WorldConfigFile)
	if err != nil {
		return nil, err
	}
	log.Printf("[Config] world config loaded: %d rows per lane, tick rate %d", world.Lane.RowCount, world.TickRate)

	flightScene, err := scenes.NewFlightScene(world, gameState, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("飞行场景初始化失败: %w", err)
	}

	sceneManager := game.NewSceneManager()
	sceneManager.SwitchTo(flightScene)

	if gameState != nil && gameState.Settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return &App{
		sceneManager: sceneManager,
		gameState:    gameState,
		world:        world,
		verbose:      cfg.Verbose,
	}, nil
}

// LoadWorldConfig 加载世界配置
// path 为空时读取内嵌的 data/world.yaml
func LoadWorldConfig(path string) (*config.WorldConfig, error) {
	if path != "" {
		world, err := config.LoadWorldConfig(path)
		if err != nil {
			return nil, fmt.Errorf("世界配置加载失败 (%s): %w", path, err)
		}
		return world, nil
	}

	data, err := embedded.ReadFile(WorldConfigPath)
	if err != nil {
		return nil, fmt.Errorf("世界配置读取失败: %w", err)
	}
	world, err := config.ParseWorldConfig(data)
	if err != nil {
		return nil, fmt.Errorf("世界配置加载失败 (%s): %w", WorldConfigPath, err)
	}
	return world, nil
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（频率由世界配置的 tickRate 决定）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", config.GameWindowWidth, config.GameWindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		isFullscreen := ebiten.IsFullscreen()
		if isFullscreen {
			// 退出全屏
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
		if a.gameState != nil {
			a.gameState.Settings.SetFullscreen(!isFullscreen)
		}
	}

	return a.sceneManager.Update(a.world.FixedDelta())
}

// Draw 绘制游戏画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	// 先填充黑色背景（全屏时左右两边为黑色）
	screen.Fill(color.Black)
	// 使用线性滤波绘制游戏画面，提高缩放质量
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GameWindowWidth, config.GameWindowHeight
}

// GetSceneManager 返回场景管理器
// 用于在游戏关闭时保存记录
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// World 返回世界配置
func (a *App) World() *config.WorldConfig {
	return a.world
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
