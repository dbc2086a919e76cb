// termview 在终端里运行飞行世界
//
// 方向键/WASD 转向，空格开局，a 切换自动驾驶，q 或 Esc 退出。
//
//	go run ./cmd/termview -seed 3 -sound
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/modules"
	"github.com/decker502/cityflight/pkg/systems"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细日志（写到 stderr 会破坏画面，建议重定向）")
	configFile = flag.String("config", "data/world.yaml", "世界配置文件")
	seed       = flag.Int64("seed", 0, "随机种子（0 使用当前时间）")
	sound      = flag.Bool("sound", false, "转弯成功和撞毁时播放提示音")
	autopilot  = flag.Bool("autopilot", false, "启动时打开自动驾驶")
)

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorldConfig(*configFile)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	v, err := newViewer(screen, cfg, *seed)
	if err != nil {
		screen.Fini()
		return err
	}
	if *autopilot {
		v.toggleAutopilot()
	}
	if *sound {
		if err := v.tones.init(); err != nil {
			// 没有声音也可以运行
			log.Printf("[TermView] audio initialization failed: %v", err)
		}
	}
	defer v.close()

	v.loop()
	return nil
}

// viewer 终端前端：tcell 屏幕 + 飞行模块
type viewer struct {
	screen tcell.Screen
	module *modules.FlightModule
	keys   *keyAxis
	pilot  *modules.Autopilot
	tones  *tonePlayer

	summary *systems.RunSummary
	commits int
	crashes int
}

func newViewer(screen tcell.Screen, cfg *config.WorldConfig, seed int64) (*viewer, error) {
	v := &viewer{
		screen: screen,
		keys:   &keyAxis{},
		tones:  &tonePlayer{},
	}
	m, err := modules.NewFlightModule(modules.FlightOptions{
		Config: cfg,
		Seed:   seed,
		Input:  v.keys,
		OnEnd:  func(s systems.RunSummary) { v.summary = &s },
	})
	if err != nil {
		return nil, err
	}
	v.module = m
	v.pilot = modules.NewAutopilot(m)
	return v, nil
}

// toggleAutopilot 在键盘和自动驾驶之间切换
func (v *viewer) toggleAutopilot() {
	if v.keys.pilot == nil {
		v.keys.pilot = v.pilot
	} else {
		v.keys.pilot = nil
	}
}

func (v *viewer) close() {
	v.tones.close()
	if err := v.module.Close(); err != nil {
		log.Printf("[TermView] close: %v", err)
	}
	v.screen.Fini()
}

// loop 固定步推进；事件在单独的 goroutine 中读取
func (v *viewer) loop() {
	ticker := time.NewTicker(time.Duration(float64(time.Second) * v.module.Config().FixedDelta()))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			if err := v.step(); err != nil {
				log.Printf("[TermView] update failed: %v", err)
				return
			}
			v.draw()
		}
	}
}

// step 推进一个固定步，并在转弯成功或撞毁时发声
func (v *viewer) step() error {
	if err := v.module.Update(v.module.Config().FixedDelta()); err != nil {
		return err
	}
	v.keys.decay()

	director := v.module.Director()
	if c := director.Commits(); c > v.commits {
		v.tones.commit()
		v.commits = c
	}
	if c := director.Crashes(); c > v.crashes {
		v.tones.crash()
		v.crashes = c
	}
	return nil
}

// handleEvent 返回 false 表示退出
func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			v.keys.press(-1, 0)
		case tcell.KeyRight:
			v.keys.press(1, 0)
		case tcell.KeyUp:
			v.keys.press(0, 1)
		case tcell.KeyDown:
			v.keys.press(0, -1)
		case tcell.KeyEnter:
			v.start()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case ' ':
				v.start()
			case 'a', 'A':
				v.toggleAutopilot()
			case 'h':
				v.keys.press(-1, 0)
			case 'l':
				v.keys.press(1, 0)
			case 'k', 'w':
				v.keys.press(0, 1)
			case 'j', 's':
				v.keys.press(0, -1)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) start() {
	if v.module.Run().Phase() != systems.RunPhaseMenu {
		return
	}
	if err := v.module.StartRun(); err != nil {
		log.Printf("[TermView] start run: %v", err)
		return
	}
	v.summary = nil
}
