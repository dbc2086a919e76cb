package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/entities"
)

// InstanceSource 池化实例来源
// *pool.Pool[ecs.EntityID] 满足该接口
type InstanceSource interface {
	Acquire() (ecs.EntityID, error)
	Release(id ecs.EntityID) error
}

// LaneOptions 轨道构造参数
type LaneOptions struct {
	Name      string                // 轨道名称（日志用）
	Config    config.LaneConfig     // 轨道参数
	Viewport  config.ViewportConfig // 视口尺寸
	Segments  InstanceSource        // 建筑池
	Obstacles InstanceSource        // 障碍物池
	Scheduler *Scheduler            // 障碍物检查计时器（nil 时不自动检查）
	Random    RandomSource          // 随机数来源
	Parent    ecs.EntityID          // 走廊根节点（通常是世界锚点）
}

// ScrollingLane 一条滚动走廊
//
// 轨道持有左右两列建筑、一组障碍物和死路封口建筑，它们的变换都相对于轨道根节点。
// 滚动时所有实例沿 -z 移动，落后 despawnCutoff 的实例归还对象池；
// 左右各回收一个后，在远端补生成一排（仅当 isSpawning 为 true）。
type ScrollingLane struct {
	name          string
	entityManager *ecs.EntityManager
	root          ecs.EntityID
	cfg           config.LaneConfig
	viewport      config.ViewportConfig
	segments      InstanceSource
	obstacles     InstanceSource
	scheduler     *Scheduler
	rng           RandomSource
	timer         TimerHandle

	isSpawning  bool
	isScrolling bool
	active      bool

	frontier    mgl64.Vec3
	hasFrontier bool

	left        []ecs.EntityID
	right       []ecs.EntityID
	closing     []ecs.EntityID
	obstacleIDs []ecs.EntityID

	pendingObstacle bool
	// 只回收了一侧时先记账，等另一侧也回收后再补生成一排
	unpairedLeft  int
	unpairedRight int
}

// NewScrollingLane 创建轨道并生成初始的 rowCount 排建筑
//
// 返回:
//   - *ScrollingLane: 新轨道（isSpawning=true, isScrolling=false）
//   - error: 缺少依赖或对象池耗尽
func NewScrollingLane(em *ecs.EntityManager, opts LaneOptions) (*ScrollingLane, error) {
	if em == nil {
		return nil, fmt.Errorf("lane %s: entity manager cannot be nil", opts.Name)
	}
	if opts.Segments == nil || opts.Obstacles == nil {
		return nil, fmt.Errorf("lane %s: segment and obstacle sources are required", opts.Name)
	}
	if opts.Random == nil {
		return nil, fmt.Errorf("lane %s: random source is required", opts.Name)
	}

	l := &ScrollingLane{
		name:          opts.Name,
		entityManager: em,
		root:          entities.NewLaneRootEntity(em, opts.Name),
		cfg:           opts.Config,
		viewport:      opts.Viewport,
		segments:      opts.Segments,
		obstacles:     opts.Obstacles,
		scheduler:     opts.Scheduler,
		rng:           opts.Random,
		active:        true,
	}

	l.rootTransform().Parent = opts.Parent

	if err := l.Reset(); err != nil {
		return nil, err
	}

	if l.scheduler != nil {
		l.timer = l.scheduler.Every("lane_obstacles:"+l.name, l.cfg.ObstacleCheckSeconds, l.CheckObstacles)
	}
	return l, nil
}

// Reset 归还所有实例并重新生成初始建筑
// 结果与刚创建时相同：isSpawning=true, isScrolling=false，没有障碍物和封口建筑
func (l *ScrollingLane) Reset() error {
	if err := l.releaseAll(); err != nil {
		return err
	}

	l.frontier = mgl64.Vec3{}
	l.hasFrontier = false
	l.pendingObstacle = false
	l.unpairedLeft, l.unpairedRight = 0, 0

	for row := 0; row < l.cfg.RowCount; row++ {
		if err := l.spawnPair(row); err != nil {
			return err
		}
	}

	l.isSpawning = true
	l.isScrolling = false
	return nil
}

// Close 取消计时器、归还所有实例并销毁根节点
func (l *ScrollingLane) Close() error {
	if l.scheduler != nil && l.timer != ecs.InvalidEntity {
		l.scheduler.Cancel(l.timer)
		l.timer = ecs.InvalidEntity
	}
	err := l.releaseAll()
	l.entityManager.DestroyEntity(l.root)
	l.isSpawning = false
	l.isScrolling = false
	return err
}

// releaseAll 归还所有持有的实例并清空序列
func (l *ScrollingLane) releaseAll() error {
	var errs []error
	for _, list := range [][]ecs.EntityID{l.left, l.right, l.closing} {
		for _, id := range list {
			if err := l.segments.Release(id); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, id := range l.obstacleIDs {
		if err := l.obstacles.Release(id); err != nil {
			errs = append(errs, err)
		}
	}

	l.left = l.left[:0]
	l.right = l.right[:0]
	l.closing = l.closing[:0]
	l.obstacleIDs = l.obstacleIDs[:0]

	if len(errs) > 0 {
		return fmt.Errorf("lane %s: release: %w", l.name, errors.Join(errs...))
	}
	return nil
}

// CheckObstacles 障碍物检查（由计时器周期调用）
// 只有在滚动且仍在生成时才抽签，命中后下一排建筑会带上障碍物
func (l *ScrollingLane) CheckObstacles() error {
	if l.isSpawning && l.isScrolling && rollPercent(l.rng, l.cfg.ObstacleSpawnChancePercent) {
		l.pendingObstacle = true
	}
	return nil
}

// Tick 推进一个固定步
func (l *ScrollingLane) Tick(deltaTime float64) error {
	if !l.isScrolling {
		return nil
	}

	cutoff := -l.cfg.DespawnCutoff()
	delta := mgl64.Vec3{0, 0, -l.cfg.ScrollSpeed * deltaTime}

	// 障碍物
	kept := l.obstacleIDs[:0]
	var released []ecs.EntityID
	for _, id := range l.obstacleIDs {
		if l.translate(id, delta) < cutoff {
			released = append(released, id)
			continue
		}
		kept = append(kept, id)
	}
	l.obstacleIDs = kept
	for _, id := range released {
		if err := l.obstacles.Release(id); err != nil {
			return fmt.Errorf("lane %s: release obstacle: %w", l.name, err)
		}
	}

	// 建筑：每侧每步最多回收一个
	var err error
	despawnedLeft, despawnedRight := false, false
	if l.left, despawnedLeft, err = l.advanceColumn(l.left, delta, cutoff); err != nil {
		return err
	}
	if l.right, despawnedRight, err = l.advanceColumn(l.right, delta, cutoff); err != nil {
		return err
	}
	if err := l.advanceClosing(delta, cutoff); err != nil {
		return err
	}

	l.frontier = l.frontier.Add(delta)

	if despawnedLeft {
		l.unpairedLeft++
	}
	if despawnedRight {
		l.unpairedRight++
	}
	if l.unpairedLeft > 0 && l.unpairedRight > 0 {
		l.unpairedLeft--
		l.unpairedRight--
		if l.isSpawning {
			if err := l.spawnPair(l.cfg.RowCount - l.cfg.DespawnRowCount); err != nil {
				return err
			}
		}
	}
	return nil
}

// advanceColumn 移动一列建筑，并回收最靠后的一个越界建筑
func (l *ScrollingLane) advanceColumn(column []ecs.EntityID, delta mgl64.Vec3, cutoff float64) ([]ecs.EntityID, bool, error) {
	despawnIndex := -1
	for i, id := range column {
		if l.translate(id, delta) < cutoff && despawnIndex < 0 {
			despawnIndex = i
		}
	}
	if despawnIndex < 0 {
		return column, false, nil
	}

	id := column[despawnIndex]
	column = append(column[:despawnIndex], column[despawnIndex+1:]...)
	if err := l.segments.Release(id); err != nil {
		return column, false, fmt.Errorf("lane %s: release segment: %w", l.name, err)
	}
	return column, true, nil
}

// advanceClosing 移动封口建筑并回收全部越界者
func (l *ScrollingLane) advanceClosing(delta mgl64.Vec3, cutoff float64) error {
	kept := l.closing[:0]
	var released []ecs.EntityID
	for _, id := range l.closing {
		if l.translate(id, delta) < cutoff {
			released = append(released, id)
			continue
		}
		kept = append(kept, id)
	}
	l.closing = kept
	for _, id := range released {
		if err := l.segments.Release(id); err != nil {
			return fmt.Errorf("lane %s: release closing segment: %w", l.name, err)
		}
	}
	return nil
}

// translate 平移实例并返回新的 z
func (l *ScrollingLane) translate(id ecs.EntityID, delta mgl64.Vec3) float64 {
	tr, ok := ecs.GetComponent[*components.TransformComponent](l.entityManager, id)
	if !ok {
		return 0
	}
	tr.Position = tr.Position.Add(delta)
	return tr.Position.Z()
}

// SpawnDeadEnd 在轨道末端生成死路封口并停止生成新排
//
// 参数:
//   - blockLeft: 在最后一个左侧建筑后方追加一个封口
//   - blockRight: 在最后一个右侧建筑后方追加一个封口
//
// 远端左、右、中三个封口总是生成。封口不计入左右列，也不改变前沿位置。
func (l *ScrollingLane) SpawnDeadEnd(blockLeft, blockRight bool) error {
	if !l.isSpawning {
		log.Printf("[ScrollingLane] %s: dead end already issued, ignoring", l.name)
		return nil
	}
	if len(l.left) == 0 || len(l.right) == 0 {
		return fmt.Errorf("lane %s: cannot cap an empty corridor", l.name)
	}

	lastLeft := l.positionOf(l.left[len(l.left)-1])
	lastRight := l.positionOf(l.right[len(l.right)-1])
	step := l.cfg.RowStep()
	ahead := mgl64.Vec3{0, 0, step}
	farAhead := mgl64.Vec3{0, 0, 2 * step}

	pieces := make([]mgl64.Vec3, 0, 5)
	if blockLeft {
		pieces = append(pieces, lastLeft.Add(ahead))
	}
	if blockRight {
		pieces = append(pieces, lastRight.Add(ahead))
	}
	pieces = append(pieces,
		lastLeft.Add(farAhead),
		lastRight.Add(farAhead),
		mgl64.Vec3{0, lastLeft.Y(), lastLeft.Z() + 2*step},
	)

	for _, pos := range pieces {
		id, err := l.spawnSegment(components.SegmentClosing, -1, pos)
		if err != nil {
			return err
		}
		l.closing = append(l.closing, id)
	}

	l.isSpawning = false
	log.Printf("[ScrollingLane] %s: dead end spawned (blockLeft=%v, blockRight=%v, pieces=%d)",
		l.name, blockLeft, blockRight, len(pieces))
	return nil
}

// spawnPair 在指定排生成左右两个建筑，并更新前沿位置
func (l *ScrollingLane) spawnPair(row int) error {
	z := float64(row) * l.cfg.RowStep()
	columnX := l.viewport.HalfWidth() * (l.cfg.SeparationPercent / 100)
	offset := l.cfg.SegmentOffset.Vec()

	if l.pendingObstacle {
		if err := l.spawnObstacles(row); err != nil {
			return err
		}
		l.pendingObstacle = false
	}

	leftPos := mgl64.Vec3{-columnX, 0, z}.Add(offset)
	leftID, err := l.spawnSegment(components.SegmentLeft, row, leftPos)
	if err != nil {
		return err
	}
	l.left = append(l.left, leftID)
	l.trackFrontier(leftPos)

	rightPos := mgl64.Vec3{columnX, 0, z}.Add(offset)
	rightID, err := l.spawnSegment(components.SegmentRight, row, rightPos)
	if err != nil {
		return err
	}
	l.right = append(l.right, rightID)
	l.trackFrontier(rightPos)
	return nil
}

// trackFrontier 前沿保持在最远建筑处（x 固定为走廊中心）
func (l *ScrollingLane) trackFrontier(pos mgl64.Vec3) {
	if !l.hasFrontier || pos.Z() > l.frontier.Z() {
		l.frontier = mgl64.Vec3{0, pos.Y(), pos.Z()}
		l.hasFrontier = true
	}
}

// spawnSegment 从建筑池借出一个建筑并放置到轨道局部坐标
func (l *ScrollingLane) spawnSegment(kind components.SegmentKind, row int, pos mgl64.Vec3) (ecs.EntityID, error) {
	id, err := l.segments.Acquire()
	if err != nil {
		return ecs.InvalidEntity, fmt.Errorf("lane %s: acquire %s segment: %w", l.name, kind, err)
	}

	tr := l.transformOf(id)
	tr.Parent = l.root
	tr.Position = pos
	tr.Rotation = mgl64.QuatIdent()
	tr.Scale = l.cfg.SegmentScale.Vec()

	if seg, ok := ecs.GetComponent[*components.SegmentComponent](l.entityManager, id); ok {
		seg.Kind = kind
		seg.Row = row
	}
	return id, nil
}

// spawnObstacles 为一排生成障碍物
// 第一个必定生成，其余每个按障碍物概率独立抽签
func (l *ScrollingLane) spawnObstacles(row int) error {
	rangeX := l.viewport.HalfWidth() * (l.cfg.ObstacleSpawnAreaPercent.X / 100)
	rangeY := l.viewport.HalfHeight() * (l.cfg.ObstacleSpawnAreaPercent.Y / 100)
	z := float64(row) * l.cfg.RowStep()

	for i := 0; i < l.cfg.MaxObstaclesPerRow; i++ {
		if i > 0 && !rollPercent(l.rng, l.cfg.ObstacleSpawnChancePercent) {
			continue
		}

		id, err := l.obstacles.Acquire()
		if err != nil {
			return fmt.Errorf("lane %s: acquire obstacle: %w", l.name, err)
		}

		tr := l.transformOf(id)
		tr.Parent = l.root
		tr.Rotation = mgl64.QuatIdent()
		tr.Position = mgl64.Vec3{
			randomRange(l.rng, -rangeX, rangeX),
			randomRange(l.rng, -rangeY, rangeY),
			z,
		}
		tr.Scale = mgl64.Vec3{
			randomRange(l.rng, l.cfg.ObstacleMinScale.X, l.cfg.ObstacleMaxScale.X),
			randomRange(l.rng, l.cfg.ObstacleMinScale.Y, l.cfg.ObstacleMaxScale.Y),
			l.cfg.ObstacleDepth,
		}
		if obs, ok := ecs.GetComponent[*components.ObstacleComponent](l.entityManager, id); ok {
			obs.Row = row
		}

		l.obstacleIDs = append(l.obstacleIDs, id)
	}
	return nil
}

func (l *ScrollingLane) transformOf(id ecs.EntityID) *components.TransformComponent {
	tr, ok := ecs.GetComponent[*components.TransformComponent](l.entityManager, id)
	if !ok {
		tr = components.NewTransform()
		ecs.AddComponent(l.entityManager, id, tr)
	}
	return tr
}

func (l *ScrollingLane) positionOf(id ecs.EntityID) mgl64.Vec3 {
	if tr, ok := ecs.GetComponent[*components.TransformComponent](l.entityManager, id); ok {
		return tr.Position
	}
	return mgl64.Vec3{}
}

// Name 返回轨道名称
func (l *ScrollingLane) Name() string { return l.name }

// SetName 设置轨道名称（日志用）
func (l *ScrollingLane) SetName(name string) {
	l.name = name
	if rootComp, ok := ecs.GetComponent[*components.LaneRootComponent](l.entityManager, l.root); ok {
		rootComp.Name = name
	}
}

// Root 返回轨道根节点实体
func (l *ScrollingLane) Root() ecs.EntityID { return l.root }

// IsSpawning 是否仍在补生成新排
func (l *ScrollingLane) IsSpawning() bool { return l.isSpawning }

// IsScrolling 是否正在滚动
func (l *ScrollingLane) IsScrolling() bool { return l.isScrolling }

// SetScrolling 开始或停止滚动
func (l *ScrollingLane) SetScrolling(scrolling bool) { l.isScrolling = scrolling }

// IsActive 轨道是否处于激活（可见、参与分支）状态
func (l *ScrollingLane) IsActive() bool { return l.active }

// SetActive 激活或停用轨道
func (l *ScrollingLane) SetActive(active bool) { l.active = active }

// Frontier 返回轨道局部坐标中的前沿位置
func (l *ScrollingLane) Frontier() mgl64.Vec3 { return l.frontier }

// CorridorFrontier 返回前沿在走廊空间（轨道父节点空间）中的位置
func (l *ScrollingLane) CorridorFrontier() mgl64.Vec3 {
	return l.rootTransform().Apply(l.frontier)
}

// Transform 返回轨道根节点的位置和朝向
func (l *ScrollingLane) Transform() (mgl64.Vec3, mgl64.Quat) {
	tr := l.rootTransform()
	return tr.Position, tr.Rotation
}

// SetTransform 设置轨道根节点的位置和朝向
func (l *ScrollingLane) SetTransform(position mgl64.Vec3, rotation mgl64.Quat) {
	tr := l.rootTransform()
	tr.Position = position
	tr.Rotation = rotation
}

func (l *ScrollingLane) rootTransform() *components.TransformComponent {
	return l.transformOf(l.root)
}

// LeftCount 左列建筑数量
func (l *ScrollingLane) LeftCount() int { return len(l.left) }

// RightCount 右列建筑数量
func (l *ScrollingLane) RightCount() int { return len(l.right) }

// ClosingCount 死路封口建筑数量
func (l *ScrollingLane) ClosingCount() int { return len(l.closing) }

// ObstacleCount 障碍物数量
func (l *ScrollingLane) ObstacleCount() int { return len(l.obstacleIDs) }

// ObstaclePending 下一排是否会生成障碍物
func (l *ScrollingLane) ObstaclePending() bool { return l.pendingObstacle }

// Instances 返回轨道持有的全部实例（建筑、封口、障碍物）
func (l *ScrollingLane) Instances() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(l.left)+len(l.right)+len(l.closing)+len(l.obstacleIDs))
	out = append(out, l.left...)
	out = append(out, l.right...)
	out = append(out, l.closing...)
	out = append(out, l.obstacleIDs...)
	return out
}

// MaxSegmentZ 返回左右列建筑中最大的局部 z（没有建筑时返回 false）
func (l *ScrollingLane) MaxSegmentZ() (float64, bool) {
	found := false
	max := 0.0
	for _, column := range [][]ecs.EntityID{l.left, l.right} {
		for _, id := range column {
			z := l.positionOf(id).Z()
			if !found || z > max {
				max = z
				found = true
			}
		}
	}
	return max, found
}
