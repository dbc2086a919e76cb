package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
)

// RunPhase 单局所处阶段
type RunPhase int

const (
	RunPhaseMenu     RunPhase = iota // 菜单，等待开始
	RunPhaseStarting                 // 飞船和锚点正在飞入
	RunPhaseRunning                  // 游戏中，距离累加
	RunPhaseEnding                   // 撞毁后飞船和锚点正在退场
)

// String 返回阶段名称（日志用）
func (p RunPhase) String() string {
	switch p {
	case RunPhaseMenu:
		return "menu"
	case RunPhaseStarting:
		return "starting"
	case RunPhaseRunning:
		return "running"
	case RunPhaseEnding:
		return "ending"
	default:
		return fmt.Sprintf("RunPhase(%d)", int(p))
	}
}

// RecordKeeper 最远距离记录
type RecordKeeper interface {
	BestDistance() int
	SubmitDistance(distance int) (newBest bool, err error)
}

// RunSummary 一局结束后的结算信息
type RunSummary struct {
	Distance  int  // 本局距离
	Best      int  // 提交后的最远距离
	NewRecord bool // 是否刷新记录
}

// RunOptions 单局管理器构造参数
type RunOptions struct {
	Config   config.RunConfig
	Ship     *ShipSystem
	Anchor   *TravelAnchor
	Director *CorridorDirector
	Clouds   *CloudSpawner // 可为 nil
	Records  RecordKeeper  // 可为 nil（不记录）
}

// RunManager 单局流程
//
// 开局时把飞船和锚点补间到原点，锚点到位后开启活动轨道滚动和分支生成；
// 撞毁后补间回菜单位置，锚点到位后重建轨道并提交距离。
type RunManager struct {
	cfg      config.RunConfig
	ship     *ShipSystem
	anchor   *TravelAnchor
	director *CorridorDirector
	clouds   *CloudSpawner
	records  RecordKeeper

	phase    RunPhase
	isActive bool
	distance int
	runs     int

	lastSummary *RunSummary
	onSummary   func(RunSummary)

	// 补间回调里产生的错误，留到下一次 Update 返回
	deferredErr error
}

// NewRunManager 创建单局管理器（初始处于菜单阶段）
func NewRunManager(opts RunOptions) (*RunManager, error) {
	if opts.Ship == nil || opts.Anchor == nil || opts.Director == nil {
		return nil, errors.New("run manager: ship, anchor and director are required")
	}
	return &RunManager{
		cfg:      opts.Config,
		ship:     opts.Ship,
		anchor:   opts.Anchor,
		director: opts.Director,
		clouds:   opts.Clouds,
		records:  opts.Records,
		phase:    RunPhaseMenu,
	}, nil
}

// StartRun 开始新的一局
//
// 返回:
//   - error: 不在菜单阶段，或重置云朵时对象池出错
func (r *RunManager) StartRun() error {
	if r.phase != RunPhaseMenu {
		return fmt.Errorf("run manager: cannot start from phase %s", r.phase)
	}

	if r.clouds != nil {
		if err := r.clouds.Reset(); err != nil {
			return fmt.Errorf("run manager: reset clouds: %w", err)
		}
	}

	r.distance = 0
	r.setPhase(RunPhaseStarting)

	shipTween := r.ship.Tween()
	anchorTween := r.anchor.Tween()
	shipTween.TargetPosition = mgl64.Vec3{}
	anchorTween.TargetPosition = mgl64.Vec3{}
	shipTween.IsAnimating = true
	anchorTween.IsAnimating = true

	// 飞船到位后停止补间，交给玩家控制
	shipTween.OnceComplete(components.TweenPosition, func() {
		shipTween.IsAnimating = false
		r.ship.SetMoving(true)
	})

	// 锚点到位后开始滚动和生成
	anchorTween.OnceComplete(components.TweenPosition, func() {
		r.director.ActiveLane().SetScrolling(true)
		r.director.StartGenerating()
		r.isActive = true
		r.setPhase(RunPhaseRunning)
	})
	return nil
}

// OnCrash 实现 CrashHandler，撞毁后结束本局
func (r *RunManager) OnCrash() {
	r.EndRun()
}

// EndRun 结束本局，飞船和锚点补间回菜单位置
// 不在开局或游戏阶段时忽略
func (r *RunManager) EndRun() {
	if r.phase != RunPhaseRunning && r.phase != RunPhaseStarting {
		log.Printf("[RunManager] EndRun ignored in phase %s", r.phase)
		return
	}

	runDistance := r.distance
	r.isActive = false
	r.distance = 0
	r.director.StopGenerating()
	r.ship.SetMoving(false)
	r.setPhase(RunPhaseEnding)

	shipTween := r.ship.Tween()
	anchorTween := r.anchor.Tween()
	shipTween.IsAnimating = true
	anchorTween.IsAnimating = true
	shipTween.TargetPosition = shipTween.StartPosition
	anchorTween.TargetPosition = anchorTween.StartPosition

	shipTween.OnceComplete(components.TweenPosition, func() {
		shipTween.IsAnimating = false
	})

	anchorTween.OnceComplete(components.TweenPosition, func() {
		shipTween.IsAnimating = false
		r.ship.SetPosition(shipTween.StartPosition)
		r.ship.SetRotation(mgl64.QuatIdent())
		r.anchor.SetInstantRotation(0, 0, 0)

		if err := r.director.InitializeTrails(); err != nil {
			r.deferredErr = fmt.Errorf("run manager: reinitialize trails: %w", err)
		}
		r.finish(runDistance)
	})
}

// finish 提交距离并回到菜单
func (r *RunManager) finish(runDistance int) {
	summary := RunSummary{Distance: runDistance}
	if r.records != nil {
		newBest, err := r.records.SubmitDistance(runDistance)
		if err != nil {
			log.Printf("[RunManager] Warning: failed to save record: %v", err)
		}
		summary.NewRecord = newBest
		summary.Best = r.records.BestDistance()
	} else {
		summary.Best = runDistance
	}

	r.runs++
	r.lastSummary = &summary
	r.setPhase(RunPhaseMenu)
	log.Printf("[RunManager] run %d finished: %d m (best %d m, new record=%v)",
		r.runs, summary.Distance, summary.Best, summary.NewRecord)

	if r.onSummary != nil {
		r.onSummary(summary)
	}
}

// Update 每个固定步调用一次，游戏阶段累加距离
//
// 返回:
//   - error: 结束动画回调中重建轨道失败
func (r *RunManager) Update() error {
	if r.isActive {
		r.distance += r.cfg.DistancePerTick
	}

	if r.deferredErr != nil {
		err := r.deferredErr
		r.deferredErr = nil
		return err
	}
	return nil
}

// FlushRecord 程序退出时提交进行中的距离
func (r *RunManager) FlushRecord() error {
	if r.records == nil || !r.isActive || r.distance == 0 {
		return nil
	}
	_, err := r.records.SubmitDistance(r.distance)
	return err
}

func (r *RunManager) setPhase(phase RunPhase) {
	if r.phase == phase {
		return
	}
	log.Printf("[RunManager] phase %s -> %s", r.phase, phase)
	r.phase = phase
}

// SetSummaryHandler 设置结算回调
func (r *RunManager) SetSummaryHandler(fn func(RunSummary)) { r.onSummary = fn }

// Phase 返回当前阶段
func (r *RunManager) Phase() RunPhase { return r.phase }

// IsActive 是否处于计分状态
func (r *RunManager) IsActive() bool { return r.isActive }

// Distance 返回本局已飞行的距离
func (r *RunManager) Distance() int { return r.distance }

// Runs 返回已结束的局数
func (r *RunManager) Runs() int { return r.runs }

// LastSummary 返回上一局结算（尚无时返回 nil）
func (r *RunManager) LastSummary() *RunSummary { return r.lastSummary }

// BestDistance 返回最远距离（无记录存储时为 0）
func (r *RunManager) BestDistance() int {
	if r.records == nil {
		return 0
	}
	return r.records.BestDistance()
}
