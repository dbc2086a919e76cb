package utils

import (
	"math"
	"testing"
)

// TestEaseOutCubic 测试三次方缓出函数
func TestEaseOutCubic(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"起点", 0.0, 0.0},
		{"终点", 1.0, 1.0},
		{"中点", 0.5, 0.875}, // 1 - (1-0.5)^3 = 1 - 0.125 = 0.875
		{"超出终点", 1.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EaseOutCubic(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("EaseOutCubic(%v) = %v, 期望 %v", tt.input, result, tt.expected)
			}
		})
	}
}

// TestLerp 测试线性插值
func TestLerp(t *testing.T) {
	tests := []struct {
		name     string
		a, b, t  float64
		expected float64
	}{
		{"起点", 0, 10, 0, 0},
		{"终点", 0, 10, 1, 10},
		{"中点", -4, 4, 0.5, 0},
		{"拖拽系数", 0, 2.7, 0.1, 0.27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lerp(tt.a, tt.b, tt.t); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Lerp(%v, %v, %v) = %v, 期望 %v", tt.a, tt.b, tt.t, got, tt.expected)
			}
		})
	}
}

// TestClamp 测试范围限制
func TestClamp(t *testing.T) {
	if got := Clamp(5, -1, 1); got != 1 {
		t.Errorf("Clamp(5, -1, 1) = %v, 期望 1", got)
	}
	if got := Clamp(-5, -1, 1); got != -1 {
		t.Errorf("Clamp(-5, -1, 1) = %v, 期望 -1", got)
	}
	if got := Clamp(0.5, -1, 1); got != 0.5 {
		t.Errorf("Clamp(0.5, -1, 1) = %v, 期望 0.5", got)
	}
}
