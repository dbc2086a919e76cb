package systems

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/ecs"
	"github.com/decker502/cityflight/pkg/utils"
)

// CloudSpawner 背景云朵
//
// 云朵在屏幕两侧横向漂移，越过最大生成宽度后归还对象池并立即补生成一朵，
// 因此场上云朵数量保持不变。新云朵从零缩放逐渐长大。
type CloudSpawner struct {
	entityManager *ecs.EntityManager
	pool          InstanceSource
	cfg           config.CloudConfig
	halfWidth     float64
	halfHeight    float64
	rng           RandomSource
	parent        ecs.EntityID

	active []ecs.EntityID
}

// NewCloudSpawner 创建云朵生成器（不立即生成，调用 Reset 填充）
func NewCloudSpawner(
	em *ecs.EntityManager,
	clouds InstanceSource,
	cfg config.CloudConfig,
	viewport config.ViewportConfig,
	rng RandomSource,
	parent ecs.EntityID,
) *CloudSpawner {
	return &CloudSpawner{
		entityManager: em,
		pool:          clouds,
		cfg:           cfg,
		halfWidth:     viewport.HalfWidth(),
		halfHeight:    viewport.HalfHeight(),
		rng:           rng,
		parent:        parent,
	}
}

// Reset 归还全部云朵并生成初始的一批
func (c *CloudSpawner) Reset() error {
	if err := c.Clear(); err != nil {
		return err
	}
	for i := 0; i < c.cfg.Count; i++ {
		if err := c.spawn(true); err != nil {
			return err
		}
	}
	return nil
}

// Update 移动云朵并替换越界的云朵
func (c *CloudSpawner) Update(deltaTime float64) error {
	if len(c.active) == 0 {
		return nil
	}

	despawnX := c.halfWidth * (c.cfg.SpawnWidthPercent.Y / 100)
	var expired []ecs.EntityID
	for _, id := range c.active {
		tr, ok := ecs.GetComponent[*components.TransformComponent](c.entityManager, id)
		if !ok {
			continue
		}
		direction := 1.0
		if cloud, ok := ecs.GetComponent[*components.CloudComponent](c.entityManager, id); ok {
			direction = cloud.Direction
		}
		tr.Position[0] += direction * c.cfg.MovementSpeed * deltaTime
		if math.Abs(tr.Position.X()) > despawnX {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		if err := c.despawn(id); err != nil {
			return err
		}
		if err := c.spawn(false); err != nil {
			return err
		}
	}
	return nil
}

// Clear 归还全部云朵
func (c *CloudSpawner) Clear() error {
	for _, id := range c.active {
		if err := c.pool.Release(id); err != nil {
			return fmt.Errorf("cloud spawner: release: %w", err)
		}
	}
	c.active = c.active[:0]
	return nil
}

func (c *CloudSpawner) despawn(id ecs.EntityID) error {
	for i, active := range c.active {
		if active == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			break
		}
	}
	if err := c.pool.Release(id); err != nil {
		return fmt.Errorf("cloud spawner: release: %w", err)
	}
	return nil
}

// spawn 借出一朵云并随机放置
// 初始批次散布在整个宽度内、朝向随机；补生成的云朵出现在屏幕外侧并朝屏幕中心漂移
func (c *CloudSpawner) spawn(initial bool) error {
	id, err := c.pool.Acquire()
	if err != nil {
		return fmt.Errorf("cloud spawner: acquire: %w", err)
	}

	side := 1.0
	if c.rng.Intn(2) != 0 {
		side = -1
	}

	maxX := c.halfWidth * (c.cfg.SpawnWidthPercent.Y / 100)
	var x float64
	if initial {
		x = side * randomRange(c.rng, -maxX, maxX)
	} else {
		x = side * randomRange(c.rng, c.halfWidth*(c.cfg.SpawnWidthPercent.X/100), maxX)
	}
	y := side * randomRange(c.rng, c.halfHeight*(c.cfg.SpawnHeightPercent.X/100), c.halfHeight*(c.cfg.SpawnHeightPercent.Y/100))
	z := randomRange(c.rng, c.cfg.SpawnDistanceZ.X, c.cfg.SpawnDistanceZ.Y)

	tr, ok := ecs.GetComponent[*components.TransformComponent](c.entityManager, id)
	if !ok {
		tr = components.NewTransform()
		ecs.AddComponent(c.entityManager, id, tr)
	}
	tr.Parent = c.parent
	tr.Position = mgl64.Vec3{x, y, z}

	targetScale := mgl64.Vec3{
		randomRange(c.rng, c.cfg.ScaleMin.X, c.cfg.ScaleMax.X),
		randomRange(c.rng, c.cfg.ScaleMin.Y, c.cfg.ScaleMax.Y),
		randomRange(c.rng, c.cfg.ScaleMin.Z, c.cfg.ScaleMax.Z),
	}
	tr.Scale = mgl64.Vec3{}
	if tween, ok := ecs.GetComponent[*components.TweenComponent](c.entityManager, id); ok {
		tween.TargetScale = targetScale
		tween.Speed = c.cfg.GrowSpeed
		tween.IsAnimating = true
	} else {
		tr.Scale = targetScale
	}

	// 位于右侧的云朵朝左漂移，反之朝右
	var facingLeft bool
	if initial {
		facingLeft = c.rng.Float64() > 0.5
	} else {
		facingLeft = x > 0
	}
	direction, yaw := 1.0, 0.0
	if facingLeft {
		direction, yaw = -1, -180
	}
	tr.Rotation = utils.EulerDegrees(0, yaw, 0)
	if cloud, ok := ecs.GetComponent[*components.CloudComponent](c.entityManager, id); ok {
		cloud.Direction = direction
	}

	c.active = append(c.active, id)
	return nil
}

// Count 返回当前云朵数量
func (c *CloudSpawner) Count() int { return len(c.active) }

// Clouds 返回当前云朵实体
func (c *CloudSpawner) Clouds() []ecs.EntityID { return c.active }
