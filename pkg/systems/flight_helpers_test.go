package systems

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/entities"
	"github.com/decker502/cityflight/pkg/pool"
)

// constRandom 总是返回同一个值的随机源
// 0.5 时：概率 100 的抽签总成功，概率 0 的抽签总失败
type constRandom struct {
	value float64
	draws int
}

func (r *constRandom) Float64() float64 {
	r.draws++
	return r.value
}

func (r *constRandom) Intn(n int) int {
	r.draws++
	return int(r.value*float64(n)) % n
}

// scriptedRandom 按脚本返回 Float64 值，用尽后返回 fallback
type scriptedRandom struct {
	floats   []float64
	next     int
	fallback float64
}

func (r *scriptedRandom) Float64() float64 {
	if r.next < len(r.floats) {
		v := r.floats[r.next]
		r.next++
		return v
	}
	return r.fallback
}

func (r *scriptedRandom) Intn(n int) int { return 0 }

// testWorld 测试用的最小世界：实体管理器、调度器和两个实体池
type testWorld struct {
	em        *ecs.EntityManager
	cfg       *config.WorldConfig
	scheduler *Scheduler
	segments  *pool.Pool[ecs.EntityID]
	obstacles *pool.Pool[ecs.EntityID]
	clouds    *pool.Pool[ecs.EntityID]
}

// smallWorldConfig 四排建筑的小走廊，便于手算
//
// RowStep = 8，回收距离 = 8，每步滚动 1/3
func smallWorldConfig() *config.WorldConfig {
	cfg := config.DefaultWorldConfig()
	cfg.Lane.RowCount = 4
	cfg.Lane.DespawnRowCount = 1
	cfg.Lane.SegmentScale = config.Vec3Config{X: 3, Y: 12, Z: 6}
	cfg.Lane.SegmentGap = 2
	cfg.Lane.ScrollSpeed = 20
	cfg.Lane.ObstacleSpawnChancePercent = 0
	cfg.Lane.MaxObstaclesPerRow = 2
	cfg.Clouds.Count = 4
	cfg.Pools.Segments = config.PoolConfig{DefaultSize: 0, MaxSize: cfg.SegmentDemand()}
	cfg.Pools.Obstacles = config.PoolConfig{DefaultSize: 0, MaxSize: cfg.ObstacleDemand()}
	cfg.Pools.Clouds = config.PoolConfig{DefaultSize: 0, MaxSize: 8}
	return cfg
}

func newTestWorld(t *testing.T, mutate func(cfg *config.WorldConfig)) *testWorld {
	t.Helper()
	cfg := smallWorldConfig()
	if mutate != nil {
		mutate(cfg)
	}

	em := ecs.NewEntityManager()
	segments, _, err := entities.NewEntityPool(em, entities.PoolSegments, cfg.Pools.Segments, nil, entities.NewSegmentEntity)
	if err != nil {
		t.Fatalf("segment pool: %v", err)
	}
	obstacles, _, err := entities.NewEntityPool(em, entities.PoolObstacles, cfg.Pools.Obstacles, nil, entities.NewObstacleEntity)
	if err != nil {
		t.Fatalf("obstacle pool: %v", err)
	}
	clouds, _, err := entities.NewEntityPool(em, entities.PoolClouds, cfg.Pools.Clouds, nil, entities.NewCloudEntity)
	if err != nil {
		t.Fatalf("cloud pool: %v", err)
	}

	return &testWorld{
		em:        em,
		cfg:       cfg,
		scheduler: NewScheduler(em),
		segments:  segments,
		obstacles: obstacles,
		clouds:    clouds,
	}
}

func (w *testWorld) newLane(t *testing.T, rng RandomSource) *ScrollingLane {
	t.Helper()
	lane, err := NewScrollingLane(w.em, LaneOptions{
		Name:      "test",
		Config:    w.cfg.Lane,
		Viewport:  w.cfg.Viewport,
		Segments:  w.segments,
		Obstacles: w.obstacles,
		Random:    rng,
	})
	if err != nil {
		t.Fatalf("NewScrollingLane failed: %v", err)
	}
	return lane
}

// fakeSubject 可手动控制的飞船
type fakeSubject struct {
	pos        mgl64.Vec3
	h, v       float64
	minH, minV float64
}

func (s *fakeSubject) Position() mgl64.Vec3 { return s.pos }
func (s *fakeSubject) HorizontalRatio() float64 { return s.h }
func (s *fakeSubject) VerticalRatio() float64 { return s.v }
func (s *fakeSubject) MinimumTurnRatios() (float64, float64) {
	return s.minH, s.minV
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func vecApproxEqual(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() < 1e-6
}
