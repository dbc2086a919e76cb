package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/ecs"
)

// TransformComponent 实体的空间变换
// Position/Rotation/Scale 均相对于 Parent 实体；Parent 为 InvalidEntity 时即为世界坐标
type TransformComponent struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Parent   ecs.EntityID
}

// NewTransform 创建位于原点、无旋转、单位缩放的变换
func NewTransform() *TransformComponent {
	return &TransformComponent{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// ResetLocal 回到原点、无旋转、单位缩放（保留父节点）
func (t *TransformComponent) ResetLocal() {
	t.Position = mgl64.Vec3{}
	t.Rotation = mgl64.QuatIdent()
	t.Scale = mgl64.Vec3{1, 1, 1}
}

// Apply 把局部坐标点变换到父空间
func (t *TransformComponent) Apply(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}
