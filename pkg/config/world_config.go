package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置校验失败
// 配置错误在启动时是致命的，调用方应直接退出而不是降级运行
var ErrInvalidConfig = errors.New("invalid world config")

// 固定走廊槽位数：活动轨道 + 左/右/上/下四条候选
const LaneSlotCount = 5

// 锚点旋转完成判定模式
const (
	CompletionModeExact     = "exact"     // 四元数逐位相等（旧版行为，浮点插值可能永远不满足）
	CompletionModeTolerance = "tolerance" // 夹角小于容差即视为完成
)

// Vec2Config 二维向量
type Vec2Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vec3Config 三维向量
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec 转换为 mgl64.Vec3
func (v Vec3Config) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// ViewportConfig 正交相机视口
// 屏幕半宽/半高决定了建筑列间距、障碍物区域和分支偏移量
type ViewportConfig struct {
	OrthographicSize float64 `yaml:"orthographicSize"` // 正交尺寸（屏幕半高）
	Aspect           float64 `yaml:"aspect"`           // 宽高比
}

// HalfHeight 屏幕中心到上边缘的距离
func (v ViewportConfig) HalfHeight() float64 { return v.OrthographicSize }

// HalfWidth 屏幕中心到右边缘的距离
func (v ViewportConfig) HalfWidth() float64 { return v.OrthographicSize * v.Aspect }

// LaneConfig 单条滚动轨道的配置
type LaneConfig struct {
	SegmentScale      Vec3Config `yaml:"segmentScale"`      // 建筑缩放（z 为沿前进方向的长度）
	SegmentOffset     Vec3Config `yaml:"segmentOffset"`     // 建筑相对轨道原点的偏移
	SegmentGap        float64    `yaml:"segmentGap"`        // 相邻两排建筑之间的间隙
	RowCount          int        `yaml:"rowCount"`          // 初始排数
	DespawnRowCount   int        `yaml:"despawnRowCount"`   // 建筑落后多少排后回收
	ScrollSpeed       float64    `yaml:"scrollSpeed"`       // 滚动速度（单位/秒）
	SeparationPercent float64    `yaml:"separationPercent"` // 左右两列离屏幕中心的距离（屏幕半宽的百分比）

	ObstacleSpawnChancePercent float64    `yaml:"obstacleSpawnChancePercent"` // 每次检查生成障碍物的概率
	ObstacleCheckSeconds       float64    `yaml:"obstacleCheckSeconds"`       // 障碍物检查间隔
	MaxObstaclesPerRow         int        `yaml:"maxObstaclesPerRow"`         // 单排最多障碍物数量
	ObstacleMinScale           Vec2Config `yaml:"obstacleMinScale"`           // 障碍物最小缩放
	ObstacleMaxScale           Vec2Config `yaml:"obstacleMaxScale"`           // 障碍物最大缩放
	ObstacleDepth              float64    `yaml:"obstacleDepth"`              // 障碍物 z 方向厚度
	ObstacleSpawnAreaPercent   Vec2Config `yaml:"obstacleSpawnAreaPercent"`   // 障碍物生成区域（屏幕半宽/半高的百分比）
}

// RowStep 相邻两排之间的 z 距离
func (lc LaneConfig) RowStep() float64 {
	return lc.SegmentGap + lc.SegmentScale.Z
}

// DespawnCutoff 回收距离，z 小于 -DespawnCutoff 的实例会被归还对象池
func (lc LaneConfig) DespawnCutoff() float64 {
	return float64(lc.DespawnRowCount) * lc.RowStep()
}

// BranchChances 各方向的分支概率（百分比）
type BranchChances struct {
	End   float64 `yaml:"end"`   // 当前轨道结束（触发分支）的概率
	Left  float64 `yaml:"left"`  // 生成左分支的概率
	Right float64 `yaml:"right"` // 生成右分支的概率
	Up    float64 `yaml:"up"`    // 生成上分支的概率
	Down  float64 `yaml:"down"`  // 生成下分支的概率
}

// CorridorConfig 走廊分支配置
type CorridorConfig struct {
	TickSeconds float64       `yaml:"tickSeconds"` // 分支检查间隔
	Chances     BranchChances `yaml:"chances"`
	TurnDegrees float64       `yaml:"turnDegrees"` // 转弯时锚点的瞬时偏转角度
}

// AnchorConfig 世界锚点配置
type AnchorConfig struct {
	RotationSpeed              float64 `yaml:"rotationSpeed"`              // 每个固定步的插值系数
	CompletionMode             string  `yaml:"completionMode"`             // exact | tolerance
	CompletionToleranceDegrees float64 `yaml:"completionToleranceDegrees"` // tolerance 模式的角度容差
}

// ShipConfig 飞船配置
type ShipConfig struct {
	MovementSpeed          Vec2Config `yaml:"movementSpeed"`          // 每个固定步的最大位移
	MovementAreaPercent    Vec2Config `yaml:"movementAreaPercent"`    // 可移动区域（屏幕半宽/半高的百分比）
	MinimumTurnPercent     Vec2Config `yaml:"minimumTurnPercent"`     // 判定转弯所需的最小偏移（百分比）
	DragFactor             float64    `yaml:"dragFactor"`             // 位置插值系数
	MaxRotationXDegrees    float64    `yaml:"maxRotationXDegrees"`    // 俯仰最大角度
	MaxRotationZDegrees    float64    `yaml:"maxRotationZDegrees"`    // 翻滚最大角度
	RotationParallaxFactor float64    `yaml:"rotationParallaxFactor"` // 翻滚对锚点的视差系数
	RotationSpeed          float64    `yaml:"rotationSpeed"`          // 姿态插值系数
}

// CloudConfig 云朵配置
type CloudConfig struct {
	Count              int        `yaml:"count"`
	MovementSpeed      float64    `yaml:"movementSpeed"`
	SpawnWidthPercent  Vec2Config `yaml:"spawnWidthPercent"`  // x=最小, y=最大（屏幕半宽百分比）
	SpawnHeightPercent Vec2Config `yaml:"spawnHeightPercent"` // x=最小, y=最大（屏幕半高百分比）
	SpawnDistanceZ     Vec2Config `yaml:"spawnDistanceZ"`     // x=最小, y=最大
	ScaleMin           Vec3Config `yaml:"scaleMin"`
	ScaleMax           Vec3Config `yaml:"scaleMax"`
	GrowSpeed          float64    `yaml:"growSpeed"` // 出现时缩放动画速度
}

// RunConfig 单局流程配置
type RunConfig struct {
	ShipStartPosition   Vec3Config `yaml:"shipStartPosition"`   // 菜单状态下飞船的位置
	AnchorStartPosition Vec3Config `yaml:"anchorStartPosition"` // 菜单状态下锚点的位置
	TweenSpeed          float64    `yaml:"tweenSpeed"`          // 开局/结束动画插值系数
	TweenThreshold      float64    `yaml:"tweenThreshold"`      // 动画完成阈值
	DistancePerTick     int        `yaml:"distancePerTick"`     // 每个固定步增加的距离
}

// PoolConfig 对象池容量
type PoolConfig struct {
	DefaultSize int `yaml:"defaultSize"` // 预热数量
	MaxSize     int `yaml:"maxSize"`     // 容量上限
	Variants    int `yaml:"variants"`    // 外观变体数量（0 视为 1）
}

// PoolsConfig 各对象池容量
type PoolsConfig struct {
	Segments  PoolConfig `yaml:"segments"`
	Obstacles PoolConfig `yaml:"obstacles"`
	Clouds    PoolConfig `yaml:"clouds"`
}

// WorldConfig 世界配置根节点
type WorldConfig struct {
	TickRate int            `yaml:"tickRate"` // 固定步频率（每秒）
	Viewport ViewportConfig `yaml:"viewport"`
	Lane     LaneConfig     `yaml:"lane"`
	Corridor CorridorConfig `yaml:"corridor"`
	Anchor   AnchorConfig   `yaml:"anchor"`
	Ship     ShipConfig     `yaml:"ship"`
	Clouds   CloudConfig    `yaml:"clouds"`
	Run      RunConfig      `yaml:"run"`
	Pools    PoolsConfig    `yaml:"pools"`
}

// FixedDelta 固定步时长（秒）
func (c *WorldConfig) FixedDelta() float64 {
	return 1.0 / float64(c.TickRate)
}

// DefaultWorldConfig 返回默认世界配置
//
// 注意：锚点完成判定默认为 exact（与旧版一致），data/world.yaml 中显式改为 tolerance。
func DefaultWorldConfig() *WorldConfig {
	return &WorldConfig{
		TickRate: 60,
		Viewport: ViewportConfig{
			OrthographicSize: 5,
			Aspect:           16.0 / 9.0,
		},
		Lane: LaneConfig{
			SegmentScale:               Vec3Config{X: 3, Y: 12, Z: 6},
			SegmentOffset:              Vec3Config{X: 0, Y: 0, Z: 0},
			SegmentGap:                 2,
			RowCount:                   12,
			DespawnRowCount:            2,
			ScrollSpeed:                20,
			SeparationPercent:          80,
			ObstacleSpawnChancePercent: 30,
			ObstacleCheckSeconds:       1.5,
			MaxObstaclesPerRow:         8,
			ObstacleMinScale:           Vec2Config{X: 0.5, Y: 0.5},
			ObstacleMaxScale:           Vec2Config{X: 2, Y: 2},
			ObstacleDepth:              10,
			ObstacleSpawnAreaPercent:   Vec2Config{X: 70, Y: 70},
		},
		Corridor: CorridorConfig{
			TickSeconds: 5,
			Chances:     BranchChances{End: 50, Left: 50, Right: 50, Up: 50, Down: 50},
			TurnDegrees: 60,
		},
		Anchor: AnchorConfig{
			RotationSpeed:              0.1,
			CompletionMode:             CompletionModeExact,
			CompletionToleranceDegrees: 0.01,
		},
		Ship: ShipConfig{
			MovementSpeed:          Vec2Config{X: 0.3, Y: 0.3},
			MovementAreaPercent:    Vec2Config{X: 90, Y: 90},
			MinimumTurnPercent:     Vec2Config{X: 30, Y: 30},
			DragFactor:             0.1,
			MaxRotationXDegrees:    10,
			MaxRotationZDegrees:    10,
			RotationParallaxFactor: 0.3,
			RotationSpeed:          0.1,
		},
		Clouds: CloudConfig{
			Count:              40,
			MovementSpeed:      0.5,
			SpawnWidthPercent:  Vec2Config{X: 110, Y: 150},
			SpawnHeightPercent: Vec2Config{X: 20, Y: 100},
			SpawnDistanceZ:     Vec2Config{X: 10, Y: 120},
			ScaleMin:           Vec3Config{X: 1, Y: 0.5, Z: 1},
			ScaleMax:           Vec3Config{X: 4, Y: 2, Z: 3},
			GrowSpeed:          0.05,
		},
		Run: RunConfig{
			ShipStartPosition:   Vec3Config{X: 0, Y: -8, Z: -10},
			AnchorStartPosition: Vec3Config{X: 0, Y: 0, Z: 30},
			TweenSpeed:          0.1,
			TweenThreshold:      0.01,
			DistancePerTick:     1,
		},
		Pools: PoolsConfig{
			Segments:  PoolConfig{DefaultSize: 120, MaxSize: 200, Variants: 4},
			Obstacles: PoolConfig{DefaultSize: 32, MaxSize: 128, Variants: 2},
			Clouds:    PoolConfig{DefaultSize: 40, MaxSize: 64, Variants: 3},
		},
	}
}

// ParseWorldConfig 从 YAML 数据解析世界配置
// 未出现的字段保留默认值
func ParseWorldConfig(data []byte) (*WorldConfig, error) {
	cfg := DefaultWorldConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse world config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorldConfig 从 YAML 文件加载世界配置
func LoadWorldConfig(filePath string) (*WorldConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read world config file: %w", err)
	}
	return ParseWorldConfig(data)
}

// SegmentDemand 稳定状态下建筑对象池的最大需求
// 五条轨道各持有 rowCount 对建筑，活动轨道的死路最多追加 5 个封口建筑
func (c *WorldConfig) SegmentDemand() int {
	return LaneSlotCount*2*c.Lane.RowCount + 5
}

// ObstacleDemand 稳定状态下障碍物对象池的最大需求
// 只有活动轨道生成障碍物，障碍物存活的排数不超过 rowCount + despawnRowCount
func (c *WorldConfig) ObstacleDemand() int {
	return c.Lane.MaxObstaclesPerRow * (c.Lane.RowCount + c.Lane.DespawnRowCount)
}

// Validate 验证配置的有效性
func (c *WorldConfig) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tickRate must be > 0, got %d", ErrInvalidConfig, c.TickRate)
	}

	// 视口
	if c.Viewport.OrthographicSize <= 0 || c.Viewport.Aspect <= 0 {
		return fmt.Errorf("%w: viewport orthographicSize and aspect must be > 0", ErrInvalidConfig)
	}

	// 轨道
	lane := c.Lane
	if lane.RowCount <= 0 {
		return fmt.Errorf("%w: lane.rowCount must be > 0, got %d", ErrInvalidConfig, lane.RowCount)
	}
	if lane.DespawnRowCount <= 0 || lane.DespawnRowCount >= lane.RowCount {
		return fmt.Errorf("%w: lane.despawnRowCount must be in [1, %d), got %d", ErrInvalidConfig, lane.RowCount, lane.DespawnRowCount)
	}
	if lane.RowStep() <= 0 {
		return fmt.Errorf("%w: lane.segmentGap + lane.segmentScale.z must be > 0", ErrInvalidConfig)
	}
	if lane.ScrollSpeed <= 0 {
		return fmt.Errorf("%w: lane.scrollSpeed must be > 0, got %.2f", ErrInvalidConfig, lane.ScrollSpeed)
	}
	if err := checkPercent("lane.obstacleSpawnChancePercent", lane.ObstacleSpawnChancePercent); err != nil {
		return err
	}
	if lane.ObstacleCheckSeconds <= 0 {
		return fmt.Errorf("%w: lane.obstacleCheckSeconds must be > 0", ErrInvalidConfig)
	}
	if lane.MaxObstaclesPerRow < 1 {
		return fmt.Errorf("%w: lane.maxObstaclesPerRow must be >= 1, got %d", ErrInvalidConfig, lane.MaxObstaclesPerRow)
	}
	if lane.ObstacleMinScale.X > lane.ObstacleMaxScale.X || lane.ObstacleMinScale.Y > lane.ObstacleMaxScale.Y {
		return fmt.Errorf("%w: lane obstacle min scale exceeds max scale", ErrInvalidConfig)
	}

	// 走廊
	if c.Corridor.TickSeconds <= 0 {
		return fmt.Errorf("%w: corridor.tickSeconds must be > 0", ErrInvalidConfig)
	}
	chances := c.Corridor.Chances
	for name, v := range map[string]float64{
		"corridor.chances.end":   chances.End,
		"corridor.chances.left":  chances.Left,
		"corridor.chances.right": chances.Right,
		"corridor.chances.up":    chances.Up,
		"corridor.chances.down":  chances.Down,
	} {
		if err := checkPercent(name, v); err != nil {
			return err
		}
	}

	// 锚点
	if c.Anchor.RotationSpeed <= 0 || c.Anchor.RotationSpeed > 1 {
		return fmt.Errorf("%w: anchor.rotationSpeed must be in (0, 1], got %.3f", ErrInvalidConfig, c.Anchor.RotationSpeed)
	}
	switch c.Anchor.CompletionMode {
	case CompletionModeExact, CompletionModeTolerance:
	default:
		return fmt.Errorf("%w: anchor.completionMode must be %q or %q, got %q",
			ErrInvalidConfig, CompletionModeExact, CompletionModeTolerance, c.Anchor.CompletionMode)
	}

	// 云朵
	if c.Clouds.Count < 0 {
		return fmt.Errorf("%w: clouds.count must be >= 0", ErrInvalidConfig)
	}

	// 对象池容量必须覆盖稳定状态需求
	if c.Pools.Segments.MaxSize < c.SegmentDemand() {
		return fmt.Errorf("%w: pools.segments.maxSize %d is below steady-state demand %d",
			ErrInvalidConfig, c.Pools.Segments.MaxSize, c.SegmentDemand())
	}
	if c.Pools.Obstacles.MaxSize < c.ObstacleDemand() {
		return fmt.Errorf("%w: pools.obstacles.maxSize %d is below steady-state demand %d",
			ErrInvalidConfig, c.Pools.Obstacles.MaxSize, c.ObstacleDemand())
	}
	if c.Pools.Clouds.MaxSize < c.Clouds.Count {
		return fmt.Errorf("%w: pools.clouds.maxSize %d is below cloud count %d",
			ErrInvalidConfig, c.Pools.Clouds.MaxSize, c.Clouds.Count)
	}

	return nil
}

// checkPercent 校验百分比在 [0, 100] 范围内
func checkPercent(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be in [0, 100], got %.2f", ErrInvalidConfig, name, v)
	}
	return nil
}
