// simulate 无界面运行飞行世界
//
// 用自动驾驶（或固定输入）推进指定步数，打印每局结算和最终统计。
// 指定 -telemetry 时按真实时间推进，并通过 WebSocket 推送统计。
//
//	go run ./cmd/simulate -ticks 36000 -seed 7
//	go run ./cmd/simulate -telemetry 127.0.0.1:8090
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/modules"
	"github.com/decker502/cityflight/pkg/systems"
	"github.com/decker502/cityflight/pkg/telemetry"
)

var (
	verbose      = flag.Bool("verbose", false, "显示详细日志")
	configFile   = flag.String("config", "data/world.yaml", "世界配置文件")
	seed         = flag.Int64("seed", 1, "随机种子")
	ticks        = flag.Int("ticks", 60*60*10, "推进的固定步数")
	noPilot      = flag.Bool("no-autopilot", false, "关闭自动驾驶（飞船保持居中）")
	restart      = flag.Bool("restart", true, "撞毁后自动开始下一局")
	telemetryAt  = flag.String("telemetry", "", "WebSocket 推送地址（如 127.0.0.1:8090），为空时不推送")
	publishEvery = flag.Int("publish-every", 6, "推送间隔（固定步）")
	jsonOut      = flag.Bool("json", false, "以 JSON 输出最终统计")
)

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorldConfig(*configFile)
	if err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	best := &bestDistance{}

	var hub *telemetry.Hub
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, err := modules.NewFlightModule(modules.FlightOptions{
		Config:  cfg,
		Seed:    *seed,
		Records: best,
		OnEnd: func(s systems.RunSummary) {
			printer.Printf("run finished: %d m (best %d m)\n", s.Distance, s.Best)
			if hub != nil {
				_ = hub.Publish("summary", s)
			}
		},
	})
	if err != nil {
		return err
	}
	if !*noPilot {
		m.SetInput(modules.NewAutopilot(m))
	}

	if *telemetryAt != "" {
		hub = telemetry.NewHub()
		go func() {
			if err := hub.Serve(ctx, *telemetryAt); err != nil {
				fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
				stop()
			}
		}()
	}

	if err := m.StartRun(); err != nil {
		return err
	}

	// 推送模式下按 tickRate 实时推进，方便观察
	var ticker *time.Ticker
	if hub != nil {
		ticker = time.NewTicker(time.Duration(float64(time.Second) * cfg.FixedDelta()))
		defer ticker.Stop()
	}

	dt := cfg.FixedDelta()
	started := time.Now()
	for i := 0; i < *ticks; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return report(printer, m, started)
			case <-ticker.C:
			}
		}

		if err := m.Update(dt); err != nil {
			return err
		}
		if *restart && m.Run().Phase() == systems.RunPhaseMenu {
			if err := m.StartRun(); err != nil {
				return err
			}
		}
		if hub != nil && *publishEvery > 0 && i%*publishEvery == 0 {
			if err := hub.Publish("stats", m.Stats()); err != nil {
				return err
			}
		}
	}

	return report(printer, m, started)
}

// report 打印最终统计
func report(printer *message.Printer, m *modules.FlightModule, started time.Time) error {
	stats := m.Stats()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printer.Printf("ticks:      %d (%v)\n", stats.Tick, time.Since(started).Round(time.Millisecond))
	printer.Printf("phase:      %s\n", stats.Phase)
	printer.Printf("runs:       %d\n", stats.Runs)
	printer.Printf("distance:   %d m (best %d m)\n", stats.Distance, stats.Best)
	printer.Printf("branches:   %d commits, %d crashes\n", stats.Commits, stats.Crashes)
	printer.Printf("segments:   %d / %d\n", stats.Segments, stats.SegmentCap)
	printer.Printf("obstacles:  %d / %d\n", stats.Obstacles, stats.ObstacleCap)
	printer.Printf("clouds:     %d\n", stats.Clouds)
	printer.Printf("entities:   %d\n", stats.Entities)
	return nil
}

// bestDistance 只保存在内存中的最远距离
type bestDistance struct {
	best int
}

func (b *bestDistance) BestDistance() int { return b.best }

func (b *bestDistance) SubmitDistance(distance int) (bool, error) {
	if distance > b.best {
		b.best = distance
		return true, nil
	}
	return false, nil
}
