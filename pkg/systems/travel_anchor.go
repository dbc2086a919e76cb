package systems

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/utils"
)

// AnchorRotator 接收转弯时的锚点旋转指令
type AnchorRotator interface {
	SetInstantRotation(x, y, z float64)
	SetTargetRotation(x, y, z float64)
}

// TravelAnchor 世界锚点
//
// 走廊的所有轨道都挂在锚点下。转弯时锚点先瞬间偏转到新航向，再逐步插值回零，
// 形成视觉上的转向效果。锚点只负责视觉对齐，不参与玩法判定。
type TravelAnchor struct {
	entityManager *ecs.EntityManager
	entity        ecs.EntityID

	target         mgl64.Vec3 // 目标欧拉角（度）
	rotationSpeed  float64
	completionMode string
	toleranceDeg   float64

	onceComplete []func()
}

// NewTravelAnchor 创建世界锚点实体
//
// 参数:
//   - em: 实体管理器
//   - cfg: 锚点配置
//   - startPosition: 初始位置（菜单状态下的位置）
//   - tweenSpeed/tweenThreshold: 位置补间参数，开局和结束时锚点会被补间到目标位置
func NewTravelAnchor(em *ecs.EntityManager, cfg config.AnchorConfig, startPosition mgl64.Vec3, tweenSpeed, tweenThreshold float64) *TravelAnchor {
	id := em.CreateEntity()
	tr := components.NewTransform()
	tr.Position = startPosition
	ecs.AddComponent(em, id, tr)

	// 锚点的旋转由自身驱动，补间只负责位置
	tween := components.NewTweenComponent(tr, tweenSpeed, tweenThreshold)
	tween.AnimatesRotation = false
	tween.AnimatesScale = false
	ecs.AddComponent(em, id, tween)

	mode := cfg.CompletionMode
	if mode == "" {
		mode = config.CompletionModeExact
	}

	log.Printf("[TravelAnchor] created (entity=%d, speed=%.2f, completion=%s)", id, cfg.RotationSpeed, mode)
	return &TravelAnchor{
		entityManager:  em,
		entity:         id,
		rotationSpeed:  cfg.RotationSpeed,
		completionMode: mode,
		toleranceDeg:   cfg.CompletionToleranceDegrees,
	}
}

// Entity 返回锚点实体
func (a *TravelAnchor) Entity() ecs.EntityID { return a.entity }

// Update 把当前朝向向目标朝向插值一步
// 插值前的朝向已经与目标一致时，执行并清空一次性完成回调
func (a *TravelAnchor) Update() {
	tr := a.transform()
	current := tr.Rotation
	target := utils.EulerVec(a.target)
	tr.Rotation = utils.NlerpQuat(current, target, a.rotationSpeed)

	if len(a.onceComplete) > 0 && a.reached(current, target) {
		callbacks := a.onceComplete
		a.onceComplete = nil
		for _, fn := range callbacks {
			fn()
		}
	}
}

// reached 按完成模式判断朝向是否已到达目标
//
// exact 模式要求四元数逐位相等，浮点插值可能永远满足不了这个条件；
// tolerance 模式在夹角不超过容差时即视为完成。
func (a *TravelAnchor) reached(current, target mgl64.Quat) bool {
	if a.completionMode == config.CompletionModeTolerance {
		return utils.AngleDegrees(current, target) <= a.toleranceDeg
	}
	return current == target
}

// SetInstantRotation 立即设置朝向，并把目标设为同一朝向
func (a *TravelAnchor) SetInstantRotation(x, y, z float64) {
	a.target = mgl64.Vec3{x, y, z}
	a.transform().Rotation = utils.EulerVec(a.target)
}

// SetTargetRotation 设置目标朝向（欧拉角，度）
func (a *TravelAnchor) SetTargetRotation(x, y, z float64) {
	a.target = mgl64.Vec3{x, y, z}
}

// SetRollTarget 只修改目标翻滚角（飞船视差）
func (a *TravelAnchor) SetRollTarget(z float64) {
	a.target[2] = z
}

// TargetRotation 返回目标欧拉角（度）
func (a *TravelAnchor) TargetRotation() mgl64.Vec3 { return a.target }

// Rotation 返回当前朝向
func (a *TravelAnchor) Rotation() mgl64.Quat { return a.transform().Rotation }

// OnceRotationComplete 登记一次性完成回调
func (a *TravelAnchor) OnceRotationComplete(fn func()) {
	a.onceComplete = append(a.onceComplete, fn)
}

// PendingCallbacks 返回尚未触发的完成回调数量
func (a *TravelAnchor) PendingCallbacks() int { return len(a.onceComplete) }

// Tween 返回锚点的位置补间组件
func (a *TravelAnchor) Tween() *components.TweenComponent {
	tween, _ := ecs.GetComponent[*components.TweenComponent](a.entityManager, a.entity)
	return tween
}

func (a *TravelAnchor) transform() *components.TransformComponent {
	tr, ok := ecs.GetComponent[*components.TransformComponent](a.entityManager, a.entity)
	if !ok {
		tr = components.NewTransform()
		ecs.AddComponent(a.entityManager, a.entity, tr)
	}
	return tr
}
