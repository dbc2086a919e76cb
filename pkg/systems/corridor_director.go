package systems

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/types"
	"github.com/decker502/cityflight/pkg/utils"
)

// CrashHandler 飞船撞上死路时的回调
type CrashHandler interface {
	OnCrash()
}

// CrashHandlerFunc 把普通函数适配为 CrashHandler
type CrashHandlerFunc func()

// OnCrash 调用 f()
func (f CrashHandlerFunc) OnCrash() { f() }

// SubjectProvider 提供飞船的位置和偏离屏幕中心的比例
type SubjectProvider interface {
	Position() mgl64.Vec3
	HorizontalRatio() float64
	VerticalRatio() float64
	MinimumTurnRatios() (horizontal, vertical float64)
}

// DirectorOptions 走廊导演构造参数
type DirectorOptions struct {
	Config    *config.WorldConfig
	Segments  InstanceSource
	Obstacles InstanceSource
	Scheduler *Scheduler
	Random    RandomSource
	Subject   SubjectProvider
	Anchor    AnchorRotator
	Crash     CrashHandler
	Parent    ecs.EntityID // 轨道父节点（世界锚点实体）
}

// CorridorDirector 走廊导演
//
// 持有五条轨道：一条活动轨道和左/右/上/下四条候选分支。
// 空闲时按固定间隔抽签决定是否结束当前轨道；结束时为抽中的方向放置候选分支，
// 并在活动轨道末端生成死路。飞船到达前沿时根据飞船的偏离方向提交分支，
// 没有对应分支则判定撞毁。
type CorridorDirector struct {
	entityManager *ecs.EntityManager
	cfg           *config.WorldConfig
	opts          DirectorOptions
	timer         TimerHandle

	lanes         map[types.Direction]*ScrollingLane
	branchPending bool
	isGenerating  bool

	commits int
	crashes int
}

// NewCorridorDirector 创建走廊导演并生成五条轨道
//
// 返回:
//   - *CorridorDirector: 导演（生成默认关闭，调用 StartGenerating 开启）
//   - error: 缺少依赖或对象池耗尽
func NewCorridorDirector(em *ecs.EntityManager, opts DirectorOptions) (*CorridorDirector, error) {
	if em == nil || opts.Config == nil {
		return nil, errors.New("corridor director: entity manager and config are required")
	}
	if opts.Subject == nil || opts.Anchor == nil || opts.Crash == nil {
		return nil, errors.New("corridor director: subject, anchor and crash handler are required")
	}
	if opts.Random == nil {
		return nil, errors.New("corridor director: random source is required")
	}

	d := &CorridorDirector{
		entityManager: em,
		cfg:           opts.Config,
		opts:          opts,
		lanes:         make(map[types.Direction]*ScrollingLane, 5),
	}

	if err := d.InitializeTrails(); err != nil {
		return nil, err
	}

	if opts.Scheduler != nil {
		d.timer = opts.Scheduler.Every("corridor_branch", d.cfg.Corridor.TickSeconds, d.EvaluateBranchChance)
	}
	return d, nil
}

// InitializeTrails 销毁现有轨道并重新生成五条轨道（新的一局）
// 活动轨道位于原点，候选轨道全部停用
func (d *CorridorDirector) InitializeTrails() error {
	var errs []error
	for _, dir := range laneOrder {
		if lane, ok := d.lanes[dir]; ok {
			if err := lane.Close(); err != nil {
				errs = append(errs, err)
			}
			delete(d.lanes, dir)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("corridor director: close lanes: %w", errors.Join(errs...))
	}

	for _, dir := range laneOrder {
		lane, err := NewScrollingLane(d.entityManager, LaneOptions{
			Name:      dir.String(),
			Config:    d.cfg.Lane,
			Viewport:  d.cfg.Viewport,
			Segments:  d.opts.Segments,
			Obstacles: d.opts.Obstacles,
			Scheduler: d.opts.Scheduler,
			Random:    d.opts.Random,
			Parent:    d.opts.Parent,
		})
		if err != nil {
			return fmt.Errorf("corridor director: create %s lane: %w", dir, err)
		}
		lane.SetActive(dir == types.DirectionActive)
		d.lanes[dir] = lane
	}

	d.branchPending = false
	log.Printf("[CorridorDirector] trails initialized (%d lanes, %d rows each)", len(d.lanes), d.cfg.Lane.RowCount)
	return nil
}

// laneOrder 固定的轨道遍历顺序
var laneOrder = [...]types.Direction{
	types.DirectionActive,
	types.DirectionLeft,
	types.DirectionRight,
	types.DirectionUp,
	types.DirectionDown,
}

// StartGenerating 开启分支生成
func (d *CorridorDirector) StartGenerating() { d.isGenerating = true }

// StopGenerating 关闭分支生成
func (d *CorridorDirector) StopGenerating() { d.isGenerating = false }

// IsGenerating 分支生成是否开启
func (d *CorridorDirector) IsGenerating() bool { return d.isGenerating }

// BranchPending 是否已生成死路、正在等待飞船到达前沿
func (d *CorridorDirector) BranchPending() bool { return d.branchPending }

// Lane 返回指定槽位的轨道
func (d *CorridorDirector) Lane(dir types.Direction) *ScrollingLane { return d.lanes[dir] }

// ActiveLane 返回活动轨道
func (d *CorridorDirector) ActiveLane() *ScrollingLane { return d.lanes[types.DirectionActive] }

// CandidateDirections 返回当前已放置的候选分支方向
func (d *CorridorDirector) CandidateDirections() []types.Direction {
	out := make([]types.Direction, 0, len(types.BranchDirections))
	for _, dir := range types.BranchDirections {
		if lane := d.lanes[dir]; lane != nil && lane.IsActive() {
			out = append(out, dir)
		}
	}
	return out
}

// Commits 返回成功转弯次数
func (d *CorridorDirector) Commits() int { return d.commits }

// Crashes 返回撞毁次数
func (d *CorridorDirector) Crashes() int { return d.crashes }

// TickLanes 按固定顺序推进全部轨道
func (d *CorridorDirector) TickLanes(deltaTime float64) error {
	for _, dir := range laneOrder {
		if err := d.lanes[dir].Tick(deltaTime); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateBranchChance 分支检查（由计时器周期调用）
// 抽中结束概率后尝试放置候选分支；一个都没放置成功时本次抽签作废
func (d *CorridorDirector) EvaluateBranchChance() error {
	if !d.isGenerating || !rollPercent(d.opts.Random, d.cfg.Corridor.Chances.End) {
		return nil
	}
	if d.branchPending {
		return nil
	}

	active := d.ActiveLane()
	frontier := active.CorridorFrontier()
	chances := d.cfg.Corridor.Chances

	spawned := false
	for _, candidate := range []struct {
		dir    types.Direction
		chance float64
	}{
		{types.DirectionLeft, chances.Left},
		{types.DirectionRight, chances.Right},
		{types.DirectionUp, chances.Up},
		{types.DirectionDown, chances.Down},
	} {
		if rollPercent(d.opts.Random, candidate.chance) {
			d.trackPath(frontier, candidate.dir)
			spawned = true
		}
	}
	if !spawned {
		return nil
	}

	blockLeft := !d.lanes[types.DirectionLeft].IsActive()
	blockRight := !d.lanes[types.DirectionRight].IsActive()
	if err := active.SpawnDeadEnd(blockLeft, blockRight); err != nil {
		return fmt.Errorf("corridor director: %w", err)
	}

	d.branchPending = true
	log.Printf("[CorridorDirector] branch scheduled at z=%.2f, candidates=%v", frontier.Z(), d.CandidateDirections())
	return nil
}

// Tick 每个固定步调用（在 TickLanes 之后）
// 等待分支期间让候选分支跟随前沿，并在飞船到达前沿时提交分支
func (d *CorridorDirector) Tick() error {
	if !d.isGenerating || !d.branchPending {
		return nil
	}

	active := d.ActiveLane()
	if d.opts.Subject.Position().Z() >= active.CorridorFrontier().Z() {
		active.SetScrolling(false)
		if err := d.commit(); err != nil {
			return err
		}
	}

	frontier := d.ActiveLane().CorridorFrontier()
	for _, dir := range types.BranchDirections {
		if d.lanes[dir].IsActive() {
			d.trackPath(frontier, dir)
		}
	}
	return nil
}

// chooseDirection 根据飞船的偏离比例选择转弯方向
// 水平方向在绝对值不小于垂直方向时优先；都未达到阈值时返回 false
func (d *CorridorDirector) chooseDirection() (types.Direction, bool) {
	h := d.opts.Subject.HorizontalRatio()
	v := d.opts.Subject.VerticalRatio()
	minH, minV := d.opts.Subject.MinimumTurnRatios()

	if math.Abs(h) >= math.Abs(v) && math.Abs(h) >= minH {
		if h < 0 {
			return types.DirectionLeft, true
		}
		return types.DirectionRight, true
	}
	if math.Abs(v) >= minV {
		if v > 0 {
			return types.DirectionUp, true
		}
		return types.DirectionDown, true
	}
	return types.DirectionActive, false
}

// commit 提交分支：交换活动轨道与选中的候选轨道
func (d *CorridorDirector) commit() error {
	dir, ok := d.chooseDirection()
	if !ok || !d.lanes[dir].IsActive() {
		d.isGenerating = false
		d.branchPending = false
		d.crashes++
		log.Printf("[CorridorDirector] crash: no branch toward %v (h=%.2f, v=%.2f)",
			dir, d.opts.Subject.HorizontalRatio(), d.opts.Subject.VerticalRatio())
		d.opts.Crash.OnCrash()
		return nil
	}

	oldLane := d.lanes[types.DirectionActive]
	newLane := d.lanes[dir]
	d.lanes[types.DirectionActive] = newLane
	d.lanes[dir] = oldLane

	// 新活动轨道接管旧活动轨道的位置和朝向（原点）
	oldPos, oldRot := oldLane.Transform()
	newLane.SetTransform(oldPos, oldRot)
	newLane.SetName(types.DirectionActive.String())

	// 旧轨道回到原点重置，再放到空出的候选槽位并停用
	oldLane.SetTransform(mgl64.Vec3{}, mgl64.QuatIdent())
	if err := oldLane.Reset(); err != nil {
		return fmt.Errorf("corridor director: reset former active lane: %w", err)
	}
	d.trackPath(oldLane.CorridorFrontier(), dir)
	oldLane.SetActive(false)

	newLane.SetActive(true)
	newLane.SetScrolling(true)

	for _, candidate := range types.BranchDirections {
		d.lanes[candidate].SetActive(false)
	}

	d.rotateAnchor(dir)
	d.branchPending = false
	d.commits++
	log.Printf("[CorridorDirector] committed %s branch (commits=%d)", dir, d.commits)
	return nil
}

// trackPath 把候选轨道放到前沿旁边并激活
func (d *CorridorDirector) trackPath(frontier mgl64.Vec3, dir types.Direction) {
	lane := d.lanes[dir]
	lc := d.cfg.Lane

	horizontal := d.cfg.Viewport.HalfWidth() * (lc.SeparationPercent / 100)
	vertical := d.cfg.Viewport.HalfHeight() * (lc.SeparationPercent / 100)
	scrollStep := -lc.ScrollSpeed * d.cfg.FixedDelta()

	pos := frontier
	var rot mgl64.Quat
	switch dir {
	case types.DirectionLeft:
		rot = utils.EulerDegrees(0, -90, 0)
		pos[0] -= horizontal
	case types.DirectionRight:
		rot = utils.EulerDegrees(0, 90, 0)
		pos[0] += horizontal
	case types.DirectionUp:
		rot = utils.EulerDegrees(-90, 0, 0)
		pos[1] += vertical * 2
	case types.DirectionDown:
		rot = utils.EulerDegrees(90, 0, 0)
		pos[1] -= vertical * 2
	default:
		return
	}
	pos[2] += horizontal + scrollStep

	lane.SetTransform(pos, rot)
	lane.SetName(dir.String())
	lane.SetActive(true)
}

// rotateAnchor 锚点瞬间偏转到新航向，然后插值回零
func (d *CorridorDirector) rotateAnchor(dir types.Direction) {
	turn := d.cfg.Corridor.TurnDegrees
	switch dir {
	case types.DirectionLeft:
		d.opts.Anchor.SetInstantRotation(0, turn, 0)
	case types.DirectionRight:
		d.opts.Anchor.SetInstantRotation(0, -turn, 0)
	case types.DirectionUp:
		d.opts.Anchor.SetInstantRotation(turn, 0, 0)
	case types.DirectionDown:
		d.opts.Anchor.SetInstantRotation(-turn, 0, 0)
	}
	d.opts.Anchor.SetTargetRotation(0, 0, 0)
}

// Close 取消分支计时器并归还全部轨道的实例
func (d *CorridorDirector) Close() error {
	if d.opts.Scheduler != nil && d.timer != ecs.InvalidEntity {
		d.opts.Scheduler.Cancel(d.timer)
		d.timer = ecs.InvalidEntity
	}
	var errs []error
	for _, dir := range laneOrder {
		if lane, ok := d.lanes[dir]; ok {
			if err := lane.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	d.lanes = make(map[types.Direction]*ScrollingLane, 5)
	return errors.Join(errs...)
}
