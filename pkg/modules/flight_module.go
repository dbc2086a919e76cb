package modules

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/entities"
	"github.com/decker502/cityflight/pkg/pool"
	"github.com/decker502/cityflight/pkg/systems"
	"github.com/decker502/cityflight/pkg/types"
)

// FlightOptions 飞行模块构造参数
type FlightOptions struct {
	Config  *config.WorldConfig      // 世界配置（必填，需已校验）
	Seed    int64                    // 随机种子，相同种子和输入得到相同的世界
	Input   systems.InputAxis        // 方向输入（可为 nil，之后用 SetInput 设置）
	Records systems.RecordKeeper     // 最远距离记录（可为 nil）
	OnEnd   func(systems.RunSummary) // 一局结束回调（可为 nil）
}

// FlightModule 飞行世界模块
// 封装一局无尽飞行所需的全部 ECS 系统，不依赖渲染：
//   - 三个实体池（建筑、障碍物、云朵）
//   - 计时调度器和补间系统
//   - 世界锚点、飞船、走廊导演、云朵和单局流程
//
// 场景负责输入和渲染，命令行模拟器直接驱动 Update。
type FlightModule struct {
	entityManager *ecs.EntityManager
	cfg           *config.WorldConfig
	rng           *rand.Rand

	segments  *pool.Pool[ecs.EntityID]
	obstacles *pool.Pool[ecs.EntityID]
	clouds    *pool.Pool[ecs.EntityID]

	scheduler *systems.Scheduler
	tweens    *systems.TweenSystem
	anchor    *systems.TravelAnchor
	ship      *systems.ShipSystem
	director  *systems.CorridorDirector
	cloudSys  *systems.CloudSpawner
	run       *systems.RunManager

	tick uint64
}

// NewFlightModule 创建飞行模块并生成初始走廊（处于菜单阶段）
//
// 参数:
//   - opts: 构造参数
//
// 返回:
//   - *FlightModule: 新模块
//   - error: 配置无效或对象池容量不足
func NewFlightModule(opts FlightOptions) (*FlightModule, error) {
	if opts.Config == nil {
		return nil, errors.New("flight module: config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	cfg := opts.Config
	em := ecs.NewEntityManager()
	rng := rand.New(rand.NewSource(opts.Seed))

	m := &FlightModule{
		entityManager: em,
		cfg:           cfg,
		rng:           rng,
		scheduler:     systems.NewScheduler(em),
		tweens:        systems.NewTweenSystem(em),
	}

	var err error
	if m.segments, _, err = entities.NewEntityPool(em, entities.PoolSegments, cfg.Pools.Segments, rng, entities.NewSegmentEntity); err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}
	if m.obstacles, _, err = entities.NewEntityPool(em, entities.PoolObstacles, cfg.Pools.Obstacles, rng, entities.NewObstacleEntity); err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}
	if m.clouds, _, err = entities.NewEntityPool(em, entities.PoolClouds, cfg.Pools.Clouds, rng, entities.NewCloudEntity); err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}

	rc := cfg.Run
	m.anchor = systems.NewTravelAnchor(em, cfg.Anchor, rc.AnchorStartPosition.Vec(), rc.TweenSpeed, rc.TweenThreshold)
	m.ship = systems.NewShipSystem(em, cfg.Ship, cfg.Viewport, rc.ShipStartPosition.Vec(), rc.TweenSpeed, rc.TweenThreshold, opts.Input, m.anchor)
	m.cloudSys = systems.NewCloudSpawner(em, m.clouds, cfg.Clouds, cfg.Viewport, rng, m.anchor.Entity())

	m.director, err = systems.NewCorridorDirector(em, systems.DirectorOptions{
		Config:    cfg,
		Segments:  m.segments,
		Obstacles: m.obstacles,
		Scheduler: m.scheduler,
		Random:    rng,
		Subject:   m.ship,
		Anchor:    m.anchor,
		Crash:     systems.CrashHandlerFunc(func() { m.run.OnCrash() }),
		Parent:    m.anchor.Entity(),
	})
	if err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}

	m.run, err = systems.NewRunManager(systems.RunOptions{
		Config:   rc,
		Ship:     m.ship,
		Anchor:   m.anchor,
		Director: m.director,
		Clouds:   m.cloudSys,
		Records:  opts.Records,
	})
	if err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}
	if opts.OnEnd != nil {
		m.run.SetSummaryHandler(opts.OnEnd)
	}

	// 菜单阶段也显示云朵
	if err := m.cloudSys.Reset(); err != nil {
		return nil, fmt.Errorf("flight module: %w", err)
	}

	log.Printf("[FlightModule] world ready: seed=%d, %d entities", opts.Seed, em.EntityCount())
	return m, nil
}

// Update 推进一个固定步
//
// 顺序：计时器 → 轨道滚动 → 分支判定 → 飞船 → 锚点 → 补间 → 云朵 → 单局计分，
// 最后统一清理本步标记删除的实体。
//
// 参数:
//   - deltaTime: 固定步时长（秒）
//
// 返回:
//   - error: 对象池耗尽等不可恢复的错误
func (m *FlightModule) Update(deltaTime float64) error {
	m.tick++

	if err := m.scheduler.Update(deltaTime); err != nil {
		return fmt.Errorf("tick %d: %w", m.tick, err)
	}
	if err := m.director.TickLanes(deltaTime); err != nil {
		return fmt.Errorf("tick %d: %w", m.tick, err)
	}
	if err := m.director.Tick(); err != nil {
		return fmt.Errorf("tick %d: %w", m.tick, err)
	}

	m.ship.Update()
	m.anchor.Update()
	m.tweens.Update()

	if err := m.cloudSys.Update(deltaTime); err != nil {
		return fmt.Errorf("tick %d: %w", m.tick, err)
	}
	if err := m.run.Update(); err != nil {
		return fmt.Errorf("tick %d: %w", m.tick, err)
	}

	m.entityManager.RemoveMarkedEntities()
	return nil
}

// StartRun 从菜单开始一局（其它阶段返回错误）
func (m *FlightModule) StartRun() error {
	return m.run.StartRun()
}

// SetInput 替换方向输入
func (m *FlightModule) SetInput(input systems.InputAxis) {
	m.ship.SetInput(input)
}

// Close 归还全部实例，再淘汰三个池中的空闲实体
func (m *FlightModule) Close() error {
	err := errors.Join(m.director.Close(), m.cloudSys.Clear())
	for _, p := range []*pool.Pool[ecs.EntityID]{m.segments, m.obstacles, m.clouds} {
		p.Clear()
	}
	m.entityManager.RemoveMarkedEntities()
	return err
}

// FlightStats 模块运行统计
type FlightStats struct {
	Tick        uint64   `json:"tick"`
	Phase       string   `json:"phase"`
	Distance    int      `json:"distance"`
	Best        int      `json:"best"`
	Runs        int      `json:"runs"`
	Commits     int      `json:"commits"`
	Crashes     int      `json:"crashes"`
	Generating  bool     `json:"generating"`
	Pending     bool     `json:"branchPending"`
	Candidates  []string `json:"candidates"`
	Segments    int      `json:"segments"`
	SegmentCap  int      `json:"segmentCap"`
	Obstacles   int      `json:"obstacles"`
	ObstacleCap int      `json:"obstacleCap"`
	Clouds      int      `json:"clouds"`
	Entities    int      `json:"entities"`
}

// Stats 返回当前统计
func (m *FlightModule) Stats() FlightStats {
	candidates := m.director.CandidateDirections()
	names := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		names = append(names, dir.String())
	}

	return FlightStats{
		Tick:        m.tick,
		Phase:       m.run.Phase().String(),
		Distance:    m.run.Distance(),
		Best:        m.run.BestDistance(),
		Runs:        m.run.Runs(),
		Commits:     m.director.Commits(),
		Crashes:     m.director.Crashes(),
		Generating:  m.director.IsGenerating(),
		Pending:     m.director.BranchPending(),
		Candidates:  names,
		Segments:    m.segments.Loaned(),
		SegmentCap:  m.segments.Cap(),
		Obstacles:   m.obstacles.Loaned(),
		ObstacleCap: m.obstacles.Cap(),
		Clouds:      m.cloudSys.Count(),
		Entities:    m.entityManager.EntityCount(),
	}
}

// BoxKind 可绘制长方体的类别
type BoxKind int

const (
	BoxSegment BoxKind = iota
	BoxClosing
	BoxObstacle
	BoxCloud
	BoxShip
)

// String 返回类别名称
func (k BoxKind) String() string {
	switch k {
	case BoxSegment:
		return "segment"
	case BoxClosing:
		return "closing"
	case BoxObstacle:
		return "obstacle"
	case BoxCloud:
		return "cloud"
	case BoxShip:
		return "ship"
	default:
		return "unknown"
	}
}

// Box 世界空间中的一个长方体（中心、朝向、尺寸）
type Box struct {
	Kind     BoxKind
	Variant  int
	Lane     types.Direction
	Center   mgl64.Vec3
	Rotation mgl64.Quat
	Size     mgl64.Vec3
}

// Boxes 收集当前所有可见实例的世界空间长方体
// 顺序：各轨道实例（按轨道槽位顺序）、云朵、飞船
func (m *FlightModule) Boxes() []Box {
	out := make([]Box, 0, m.segments.Loaned()+m.obstacles.Loaned()+m.cloudSys.Count()+1)

	for _, dir := range laneSlots {
		lane := m.director.Lane(dir)
		if lane == nil || !lane.IsActive() {
			continue
		}
		for _, id := range lane.Instances() {
			if box, ok := m.boxOf(id); ok {
				box.Lane = dir
				out = append(out, box)
			}
		}
	}
	for _, id := range m.cloudSys.Clouds() {
		if box, ok := m.boxOf(id); ok {
			box.Kind = BoxCloud
			out = append(out, box)
		}
	}

	pos, rot := m.worldTransform(m.ship.Entity())
	out = append(out, Box{Kind: BoxShip, Center: pos, Rotation: rot, Size: mgl64.Vec3{1, 0.3, 1.5}})
	return out
}

var laneSlots = [...]types.Direction{
	types.DirectionActive,
	types.DirectionLeft,
	types.DirectionRight,
	types.DirectionUp,
	types.DirectionDown,
}

func (m *FlightModule) boxOf(id ecs.EntityID) (Box, bool) {
	tr, ok := ecs.GetComponent[*components.TransformComponent](m.entityManager, id)
	if !ok {
		return Box{}, false
	}

	box := Box{Size: tr.Scale}
	if pooled, ok := ecs.GetComponent[*components.PooledComponent](m.entityManager, id); ok {
		if !pooled.Active {
			return Box{}, false
		}
		box.Variant = pooled.Variant
	}
	if seg, ok := ecs.GetComponent[*components.SegmentComponent](m.entityManager, id); ok && seg.Kind == components.SegmentClosing {
		box.Kind = BoxClosing
	} else if ecs.HasComponent[*components.ObstacleComponent](m.entityManager, id) {
		box.Kind = BoxObstacle
	}

	box.Center, box.Rotation = m.worldTransform(id)
	return box, true
}

func (m *FlightModule) worldTransform(id ecs.EntityID) (mgl64.Vec3, mgl64.Quat) {
	return entities.WorldTransform(m.entityManager, id)
}

// Config 返回世界配置
func (m *FlightModule) Config() *config.WorldConfig { return m.cfg }

// EntityManager 返回实体管理器
func (m *FlightModule) EntityManager() *ecs.EntityManager { return m.entityManager }

// Ship 返回飞船
func (m *FlightModule) Ship() *systems.ShipSystem { return m.ship }

// Anchor 返回世界锚点
func (m *FlightModule) Anchor() *systems.TravelAnchor { return m.anchor }

// Director 返回走廊导演
func (m *FlightModule) Director() *systems.CorridorDirector { return m.director }

// Run 返回单局流程
func (m *FlightModule) Run() *systems.RunManager { return m.run }

// Clouds 返回云朵生成器
func (m *FlightModule) Clouds() *systems.CloudSpawner { return m.cloudSys }

// TickCount 返回已推进的固定步数
func (m *FlightModule) TickCount() uint64 { return m.tick }
