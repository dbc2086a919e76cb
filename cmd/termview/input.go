package main

import "github.com/decker502/cityflight/pkg/systems"

// keyHoldTicks 终端只有按键事件没有抬起事件，一次按键保持的步数
const keyHoldTicks = 8

// keyAxis 把离散的按键事件变成持续一小段时间的转向输入
type keyAxis struct {
	x, y  float64
	holdX int
	holdY int
	pilot systems.InputAxis // 非 nil 时由自动驾驶接管
}

func (k *keyAxis) press(x, y float64) {
	if x != 0 {
		k.x, k.holdX = x, keyHoldTicks
	}
	if y != 0 {
		k.y, k.holdY = y, keyHoldTicks
	}
}

// decay 每步调用一次
func (k *keyAxis) decay() {
	if k.holdX > 0 {
		k.holdX--
		if k.holdX == 0 {
			k.x = 0
		}
	}
	if k.holdY > 0 {
		k.holdY--
		if k.holdY == 0 {
			k.y = 0
		}
	}
}

// Axis 实现 systems.InputAxis
func (k *keyAxis) Axis() (float64, float64) {
	if k.pilot != nil {
		return k.pilot.Axis()
	}
	return k.x, k.y
}
