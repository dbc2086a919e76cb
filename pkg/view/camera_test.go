package view

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/modules"
)

func pixelCamera() Camera {
	return NewCamera(config.DefaultWorldConfig().Viewport, config.GameWindowWidth, config.GameWindowHeight, 1)
}

func TestCameraProjectMatchesViewportAtOrigin(t *testing.T) {
	cam := pixelCamera()
	if cam.PixelsPerUnit != config.PixelsPerUnit(config.DefaultWorldConfig().Viewport) {
		t.Fatalf("pixel camera scale = %v", cam.PixelsPerUnit)
	}

	x, y, ok := cam.Project(mgl64.Vec3{0, 0, 0})
	if !ok || x != float64(config.GameWindowWidth)/2 || y != float64(config.GameWindowHeight)/2 {
		t.Fatalf("origin should project to the screen center, got (%v, %v, %v)", x, y, ok)
	}

	// z=0 平面上屏幕半高对应 orthographicSize 个单位
	_, top, _ := cam.Project(mgl64.Vec3{0, 5, 0})
	if math.Abs(top) > 1e-9 {
		t.Errorf("y=orthographicSize should reach the top edge, got %v", top)
	}

	// 更远的点更靠近屏幕中心
	xNear, _, _ := cam.Project(mgl64.Vec3{2, 0, 0})
	xFar, _, _ := cam.Project(mgl64.Vec3{2, 0, 50})
	if !(xFar < xNear && xFar > cam.CenterX) {
		t.Errorf("perspective should shrink with depth: near=%v far=%v", xNear, xFar)
	}

	if _, _, ok := cam.Project(mgl64.Vec3{0, 0, -config.CameraDistance}); ok {
		t.Error("points behind the near plane should be rejected")
	}
}

func TestTerminalCameraKeepsViewportHeight(t *testing.T) {
	cam := NewCamera(config.DefaultWorldConfig().Viewport, 160, 40, 0.5)
	_, top, ok := cam.Project(mgl64.Vec3{0, 5, 0})
	if !ok || math.Abs(top) > 1e-9 {
		t.Errorf("top of the viewport should map to row 0, got %v", top)
	}
}

func TestCameraBoxRect(t *testing.T) {
	cam := pixelCamera()
	box := modules.Box{Center: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent(), Size: mgl64.Vec3{2, 2, 0}}

	x0, y0, x1, y1, ok := cam.BoxRect(box)
	if !ok {
		t.Fatal("box at the origin should be visible")
	}
	if math.Abs((x1-x0)-2*cam.PixelsPerUnit) > 1e-6 || math.Abs((y1-y0)-2*cam.PixelsPerUnit) > 1e-6 {
		t.Errorf("flat box should span 2 units in both axes, got %vx%v px", x1-x0, y1-y0)
	}

	behind := modules.Box{Center: mgl64.Vec3{0, 0, -config.CameraDistance}, Rotation: mgl64.QuatIdent(), Size: mgl64.Vec3{1, 1, 1}}
	if _, _, _, _, ok := cam.BoxRect(behind); ok {
		t.Error("box crossing the near plane should be skipped")
	}
}

func TestFog(t *testing.T) {
	tests := []struct {
		depth, want float64
	}{
		{-5, 0},
		{0, 0},
		{config.FogDistance / 2, 0.5},
		{config.FogDistance * 3, 1},
	}
	for _, tt := range tests {
		if got := Fog(tt.depth); got != tt.want {
			t.Errorf("Fog(%v) = %v, want %v", tt.depth, got, tt.want)
		}
	}
}
