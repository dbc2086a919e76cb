package entities

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/pool"
)

// 对象池名称
const (
	PoolSegments  = "segments"
	PoolObstacles = "obstacles"
	PoolClouds    = "clouds"
)

// VariantPicker 随机选择外观变体
// *rand.Rand 满足该接口
type VariantPicker interface {
	Intn(n int) int
}

// EntityCreator 创建一个池化实体
type EntityCreator func(em *ecs.EntityManager, variant int) ecs.EntityID

// NewSegmentEntity 创建建筑实体
//
// 参数:
//   - em: 实体管理器
//   - variant: 外观变体
//
// 返回:
//   - ecs.EntityID: 创建的建筑实体ID
func NewSegmentEntity(em *ecs.EntityManager, variant int) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, components.NewTransform())
	ecs.AddComponent(em, id, &components.PooledComponent{Pool: PoolSegments, Variant: variant})
	ecs.AddComponent(em, id, &components.SegmentComponent{})
	return id
}

// NewObstacleEntity 创建障碍物实体
func NewObstacleEntity(em *ecs.EntityManager, variant int) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, components.NewTransform())
	ecs.AddComponent(em, id, &components.PooledComponent{Pool: PoolObstacles, Variant: variant})
	ecs.AddComponent(em, id, &components.ObstacleComponent{})
	return id
}

// NewCloudEntity 创建云朵实体
// 云朵出现时从零缩放到目标缩放，因此附带一个只驱动缩放的补间组件
func NewCloudEntity(em *ecs.EntityManager, variant int) ecs.EntityID {
	id := em.CreateEntity()
	tr := components.NewTransform()
	ecs.AddComponent(em, id, tr)
	ecs.AddComponent(em, id, &components.PooledComponent{Pool: PoolClouds, Variant: variant})
	ecs.AddComponent(em, id, &components.CloudComponent{Direction: 1})

	tween := components.NewTweenComponent(tr, 0.05, 0.01)
	tween.AnimatesPosition = false
	tween.AnimatesRotation = false
	tween.AutoDisable = false
	ecs.AddComponent(em, id, tween)
	return id
}

// NewLaneRootEntity 创建轨道根节点实体
func NewLaneRootEntity(em *ecs.EntityManager, name string) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, components.NewTransform())
	ecs.AddComponent(em, id, &components.LaneRootComponent{Name: name})
	return id
}

// NewEntityPool 创建以实体为元素的对象池
//
// 池会创建一个根节点实体；空闲实例停用并挂在根节点下，
// 借出时激活，归还时重置变换并重新挂回根节点，淘汰时销毁实体。
//
// 参数:
//   - em: 实体管理器
//   - name: 池名称
//   - cfg: 容量配置
//   - picker: 外观变体选择（nil 时总是使用变体 0）
//   - create: 实例创建函数
//
// 返回:
//   - *pool.Pool[ecs.EntityID]: 对象池
//   - ecs.EntityID: 池根节点
//   - error: 容量配置无效或预热失败
func NewEntityPool(
	em *ecs.EntityManager,
	name string,
	cfg config.PoolConfig,
	picker VariantPicker,
	create EntityCreator,
) (*pool.Pool[ecs.EntityID], ecs.EntityID, error) {
	if em == nil {
		return nil, ecs.InvalidEntity, fmt.Errorf("entity manager cannot be nil")
	}
	if create == nil {
		return nil, ecs.InvalidEntity, fmt.Errorf("pool %q: create function cannot be nil", name)
	}

	root := em.CreateEntity()
	ecs.AddComponent(em, root, components.NewTransform())
	ecs.AddComponent(em, root, &components.PoolRootComponent{Name: name})

	variants := cfg.Variants
	if variants < 1 {
		variants = 1
	}

	p, err := pool.New(pool.Options[ecs.EntityID]{
		Name:        name,
		DefaultSize: cfg.DefaultSize,
		MaxSize:     cfg.MaxSize,
		Create: func() (ecs.EntityID, error) {
			variant := 0
			if picker != nil && variants > 1 {
				variant = picker.Intn(variants)
			}
			id := create(em, variant)
			if id == ecs.InvalidEntity {
				return id, fmt.Errorf("pool %q: creator returned an invalid entity", name)
			}
			return id, nil
		},
		OnGet: func(id ecs.EntityID) {
			if pooled, ok := ecs.GetComponent[*components.PooledComponent](em, id); ok {
				pooled.Active = true
			}
		},
		OnRelease: func(id ecs.EntityID) {
			if pooled, ok := ecs.GetComponent[*components.PooledComponent](em, id); ok {
				pooled.Active = false
			}
			if tr, ok := ecs.GetComponent[*components.TransformComponent](em, id); ok {
				tr.ResetLocal()
				tr.Parent = root
			}
		},
		OnDestroy: func(id ecs.EntityID) {
			em.DestroyEntity(id)
		},
	})
	if err != nil {
		em.DestroyEntity(root)
		return nil, ecs.InvalidEntity, err
	}

	log.Printf("[EntityPool] %s root=%d variants=%d", name, root, variants)
	return p, root, nil
}

// WorldTransform 沿 Parent 链合成实体的世界位置和朝向
func WorldTransform(em *ecs.EntityManager, id ecs.EntityID) (mgl64.Vec3, mgl64.Quat) {
	pos := mgl64.Vec3{}
	rot := mgl64.QuatIdent()
	first := true
	for depth := 0; id != ecs.InvalidEntity && depth < 8; depth++ {
		tr, ok := ecs.GetComponent[*components.TransformComponent](em, id)
		if !ok {
			break
		}
		if first {
			pos, rot = tr.Position, tr.Rotation
			first = false
		} else {
			pos = tr.Apply(pos)
			rot = tr.Rotation.Mul(rot)
		}
		id = tr.Parent
	}
	return pos, rot
}
