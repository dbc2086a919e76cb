package utils

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEulerDegreesHeadings(t *testing.T) {
	forward := mgl64.Vec3{0, 0, 1}

	tests := []struct {
		name    string
		x, y, z float64
		want    mgl64.Vec3
	}{
		{"偏航 +90 指向右", 0, 90, 0, mgl64.Vec3{1, 0, 0}},
		{"偏航 -90 指向左", 0, -90, 0, mgl64.Vec3{-1, 0, 0}},
		{"俯仰 -90 指向上", -90, 0, 0, mgl64.Vec3{0, 1, 0}},
		{"俯仰 +90 指向下", 90, 0, 0, mgl64.Vec3{0, -1, 0}},
		{"无旋转", 0, 0, 0, forward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EulerDegrees(tt.x, tt.y, tt.z).Rotate(forward)
			if got.Sub(tt.want).Len() > 1e-9 {
				t.Errorf("EulerDegrees(%v, %v, %v) * forward = %v, 期望 %v", tt.x, tt.y, tt.z, got, tt.want)
			}
		})
	}
}

func TestNlerpQuatConverges(t *testing.T) {
	current := EulerDegrees(0, 60, 0)
	target := mgl64.QuatIdent()

	start := AngleDegrees(current, target)
	for i := 0; i < 200; i++ {
		current = NlerpQuat(current, target, 0.1)
	}
	end := AngleDegrees(current, target)

	if math.Abs(start-60) > 1e-6 {
		t.Errorf("initial angle should be 60°, got %v", start)
	}
	if end > 0.01 {
		t.Errorf("angle should converge below 0.01°, got %v", end)
	}
}

func TestNlerpQuatTakesShortestPath(t *testing.T) {
	a := mgl64.QuatIdent()
	b := mgl64.QuatIdent().Scale(-1) // 同一个旋转的另一种表示

	mid := NlerpQuat(a, b, 0.5)
	if AngleDegrees(mid, a) > 1e-9 {
		t.Errorf("interpolating between equivalent rotations should not move, got angle %v", AngleDegrees(mid, a))
	}
}
