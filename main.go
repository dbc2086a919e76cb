package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/cityflight/pkg/app"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/embedded"
	"github.com/decker502/cityflight/pkg/game"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细日志")
	configFile = flag.String("config", "", "世界配置文件（默认使用内嵌的 data/world.yaml）")
	seed       = flag.Int64("seed", 0, "随机种子（0 表示使用当前时间）")
)

func main() {
	flag.Parse()

	embedded.Init(dataFS)

	runSeed := *seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	gameState := game.NewGameState(game.OpenStorage(game.AppName))

	gameApp, err := app.NewApp(app.Config{
		Verbose:         *verbose,
		WorldConfigFile: *configFile,
		Seed:            runSeed,
	}, gameState)
	if err != nil {
		fmt.Fprintf(os.Stderr, "游戏初始化失败: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle("City Flight")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(gameApp.World().TickRate)

	runErr := ebiten.RunGame(gameApp)

	// 窗口关闭后保存记录和设置
	if !gameApp.GetSceneManager().SaveOnExit() {
		log.Printf("[Main] Warning: failed to save on exit")
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "游戏异常退出: %v\n", runErr)
		os.Exit(1)
	}
}
