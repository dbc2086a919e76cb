package systems

import (
	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/utils"
)

// TweenSystem 驱动 TweenComponent 的变换补间
//
// 每个固定步按插值系数把变换拉向目标，然后检查各属性是否进入完成阈值，
// 进入阈值时同步执行该属性上的一次性回调。
type TweenSystem struct {
	entityManager *ecs.EntityManager
}

// NewTweenSystem 创建补间系统
func NewTweenSystem(em *ecs.EntityManager) *TweenSystem {
	return &TweenSystem{entityManager: em}
}

// Update 推进所有正在播放的补间
// 插值系数按固定步计，与 deltaTime 无关
func (s *TweenSystem) Update() {
	entities := ecs.GetEntitiesWith2[*components.TransformComponent, *components.TweenComponent](s.entityManager)
	for _, id := range entities {
		tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		if !ok {
			continue
		}
		tween, ok := ecs.GetComponent[*components.TweenComponent](s.entityManager, id)
		if !ok {
			continue
		}
		s.step(tr, tween)
	}
}

func (s *TweenSystem) step(tr *components.TransformComponent, tween *components.TweenComponent) {
	if !tween.IsAnimating || !(tween.AnimatesPosition || tween.AnimatesRotation || tween.AnimatesScale) {
		return
	}

	if tween.AnimatesPosition {
		tr.Position = utils.LerpVec3(tr.Position, tween.TargetPosition, tween.Speed)
	}
	if tween.AnimatesRotation {
		tr.Rotation = utils.NlerpQuat(tr.Rotation, tween.TargetRotation, tween.Speed)
	}
	if tween.AnimatesScale {
		tr.Scale = utils.LerpVec3(tr.Scale, tween.TargetScale, tween.Speed)
	}

	if tween.AnimatesPosition {
		distance := tr.Position.Sub(tween.TargetPosition).Len()
		if distance <= tween.CompletionThreshold {
			tween.Trigger(components.TweenPosition)

			if distance <= tween.AutoDisableThreshold {
				if tween.AutoDisable {
					tween.IsAnimating = false
				}
				tr.Position = tween.TargetPosition
			}
		}
	}

	if tween.AnimatesRotation && utils.AngleDegrees(tr.Rotation, tween.TargetRotation) <= tween.CompletionThreshold {
		tween.Trigger(components.TweenRotation)
	}

	if tween.AnimatesScale && tr.Scale.Sub(tween.TargetScale).Len() <= tween.CompletionThreshold {
		tween.Trigger(components.TweenScale)
	}
}

