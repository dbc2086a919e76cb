package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/utils"
)

// InputAxis 方向输入，返回值范围 [-1, 1]
type InputAxis interface {
	Axis() (x, y float64)
}

// InputAxisFunc 把普通函数适配为 InputAxis
type InputAxisFunc func() (x, y float64)

// Axis 调用 f()
func (f InputAxisFunc) Axis() (float64, float64) { return f() }

// RollTarget 接收飞船翻滚视差
type RollTarget interface {
	SetRollTarget(z float64)
}

// ShipSystem 飞船
//
// 飞船在屏幕平面内移动，位置被限制在可移动区域内并带有拖拽插值；
// 姿态随输入倾斜，翻滚角按视差系数传递给世界锚点。
// 实现 SubjectProvider，供走廊导演判断转弯方向。
type ShipSystem struct {
	entityManager *ecs.EntityManager
	entity        ecs.EntityID
	cfg           config.ShipConfig
	boundsX       float64 // 屏幕半宽
	boundsY       float64 // 屏幕半高
	input         InputAxis
	roll          RollTarget
	isMoving      bool
}

// NewShipSystem 创建飞船实体
//
// 参数:
//   - em: 实体管理器
//   - cfg: 飞船配置
//   - viewport: 视口（决定可移动范围）
//   - startPosition: 菜单状态下的位置
//   - tweenSpeed/tweenThreshold: 开局和结束时的位置补间参数
//   - input: 方向输入（可为 nil）
//   - roll: 翻滚视差接收方（可为 nil）
func NewShipSystem(
	em *ecs.EntityManager,
	cfg config.ShipConfig,
	viewport config.ViewportConfig,
	startPosition mgl64.Vec3,
	tweenSpeed, tweenThreshold float64,
	input InputAxis,
	roll RollTarget,
) *ShipSystem {
	id := em.CreateEntity()
	tr := components.NewTransform()
	tr.Position = startPosition
	ecs.AddComponent(em, id, tr)

	tween := components.NewTweenComponent(tr, tweenSpeed, tweenThreshold)
	tween.AnimatesScale = false
	ecs.AddComponent(em, id, tween)

	return &ShipSystem{
		entityManager: em,
		entity:        id,
		cfg:           cfg,
		boundsX:       viewport.HalfWidth(),
		boundsY:       viewport.HalfHeight(),
		input:         input,
		roll:          roll,
	}
}

// Update 按输入移动飞船（仅在 isMoving 时）
func (s *ShipSystem) Update() {
	if !s.isMoving {
		return
	}

	var inputX, inputY float64
	if s.input != nil {
		inputX, inputY = s.input.Axis()
		inputX = utils.Clamp(inputX, -1, 1)
		inputY = utils.Clamp(inputY, -1, 1)
	}

	tr := s.transform()
	limitX := s.cfg.MovementAreaPercent.X / 100 * s.boundsX
	limitY := s.cfg.MovementAreaPercent.Y / 100 * s.boundsY

	target := tr.Position
	target[0] = utils.Clamp(target[0]+inputX*s.cfg.MovementSpeed.X, -limitX, limitX)
	target[1] = utils.Clamp(target[1]+inputY*s.cfg.MovementSpeed.Y, -limitY, limitY)
	tr.Position = utils.LerpVec3(tr.Position, target, s.cfg.DragFactor)

	rotX := -(inputY * s.cfg.MaxRotationXDegrees)
	rotZ := -(inputX * s.cfg.MaxRotationZDegrees)
	tr.Rotation = utils.NlerpQuat(tr.Rotation, utils.EulerDegrees(rotX, 0, rotZ), s.cfg.RotationSpeed)

	if s.roll != nil {
		s.roll.SetRollTarget(-(rotZ * s.cfg.RotationParallaxFactor))
	}
}

// Position 返回飞船位置
func (s *ShipSystem) Position() mgl64.Vec3 { return s.transform().Position }

// SetPosition 立即设置飞船位置
func (s *ShipSystem) SetPosition(pos mgl64.Vec3) { s.transform().Position = pos }

// SetRotation 直接设置飞船姿态
func (s *ShipSystem) SetRotation(rot mgl64.Quat) { s.transform().Rotation = rot }

// Rotation 返回飞船姿态
func (s *ShipSystem) Rotation() mgl64.Quat { return s.transform().Rotation }

// HorizontalRatio 水平方向偏离屏幕中心的比例（屏幕边缘为 ±1）
func (s *ShipSystem) HorizontalRatio() float64 {
	return s.transform().Position.X() / s.boundsX
}

// VerticalRatio 垂直方向偏离屏幕中心的比例（屏幕边缘为 ±1）
func (s *ShipSystem) VerticalRatio() float64 {
	return s.transform().Position.Y() / s.boundsY
}

// MinimumTurnRatios 判定转弯所需的最小偏离比例
func (s *ShipSystem) MinimumTurnRatios() (float64, float64) {
	return s.cfg.MinimumTurnPercent.X / 100, s.cfg.MinimumTurnPercent.Y / 100
}

// SetMoving 开启或关闭输入移动
func (s *ShipSystem) SetMoving(moving bool) { s.isMoving = moving }

// IsMoving 是否响应输入
func (s *ShipSystem) IsMoving() bool { return s.isMoving }

// SetInput 替换方向输入
func (s *ShipSystem) SetInput(input InputAxis) { s.input = input }

// Entity 返回飞船实体
func (s *ShipSystem) Entity() ecs.EntityID { return s.entity }

// Tween 返回飞船的补间组件
func (s *ShipSystem) Tween() *components.TweenComponent {
	tween, _ := ecs.GetComponent[*components.TweenComponent](s.entityManager, s.entity)
	return tween
}

func (s *ShipSystem) transform() *components.TransformComponent {
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.entity)
	if !ok {
		tr = components.NewTransform()
		ecs.AddComponent(s.entityManager, s.entity, tr)
	}
	return tr
}
