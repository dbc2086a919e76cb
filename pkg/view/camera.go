// Package view 把世界空间的长方体投影到屏幕（像素或终端字符格）
package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/modules"
)

// Camera 固定在 z=-Distance 处朝 +z 看的透视相机
// z=0 平面上每个世界单位对应 PixelsPerUnit 个屏幕单位，与正交视口一致
type Camera struct {
	PixelsPerUnit float64
	Distance      float64
	NearPlane     float64
	CenterX       float64
	CenterY       float64
	AspectY       float64 // 纵向缩放（终端字符格约为 0.5）
}

// NewCamera 为给定屏幕尺寸创建相机
//
// 参数:
//   - viewport: 视口（屏幕半高对应 orthographicSize 个单位）
//   - width, height: 屏幕尺寸
//   - aspectY: 纵向缩放，像素屏幕为 1
func NewCamera(viewport config.ViewportConfig, width, height int, aspectY float64) Camera {
	ppu := 1.0
	if viewport.OrthographicSize > 0 && aspectY > 0 {
		ppu = float64(height) / 2 / viewport.OrthographicSize / aspectY
	}
	return Camera{
		PixelsPerUnit: ppu,
		Distance:      config.CameraDistance,
		NearPlane:     config.CameraNearPlane,
		CenterX:       float64(width) / 2,
		CenterY:       float64(height) / 2,
		AspectY:       aspectY,
	}
}

// Project 把世界坐标投影到屏幕，点在近裁剪面之前时返回 false
func (c Camera) Project(p mgl64.Vec3) (float64, float64, bool) {
	depth := p.Z() + c.Distance
	if depth < c.NearPlane {
		return 0, 0, false
	}
	scale := c.PixelsPerUnit * c.Distance / depth
	return c.CenterX + p.X()*scale, c.CenterY - p.Y()*scale*c.AspectY, true
}

// BoxRect 长方体八个角点投影后的包围矩形
func (c Camera) BoxRect(box modules.Box) (x0, y0, x1, y1 float64, ok bool) {
	half := box.Size.Mul(0.5)
	x0, y0 = math.Inf(1), math.Inf(1)
	x1, y1 = math.Inf(-1), math.Inf(-1)
	for i := 0; i < 8; i++ {
		corner := half
		if i&1 != 0 {
			corner[0] = -corner[0]
		}
		if i&2 != 0 {
			corner[1] = -corner[1]
		}
		if i&4 != 0 {
			corner[2] = -corner[2]
		}
		sx, sy, visible := c.Project(box.Center.Add(box.Rotation.Rotate(corner)))
		if !visible {
			return 0, 0, 0, 0, false
		}
		x0, y0 = math.Min(x0, sx), math.Min(y0, sy)
		x1, y1 = math.Max(x1, sx), math.Max(y1, sy)
	}
	return x0, y0, x1, y1, true
}

// Fog 按深度返回雾的混合比例 [0, 1]
func Fog(depth float64) float64 {
	return math.Max(0, math.Min(1, depth/config.FogDistance))
}
