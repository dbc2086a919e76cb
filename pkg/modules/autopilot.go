package modules

import (
	"github.com/decker502/cityflight/pkg/types"
	"github.com/decker502/cityflight/pkg/utils"
)

// centeringGain 回中时偏离比例到输入的放大系数
const centeringGain = 3.0

// Autopilot 自动驾驶输入
// 有候选分支时满舵转向第一个候选方向（左、右、上、下的顺序），否则回到屏幕中心。
// 用于命令行模拟和演示模式。
type Autopilot struct {
	module *FlightModule
	target types.Direction
}

// NewAutopilot 创建自动驾驶
func NewAutopilot(m *FlightModule) *Autopilot {
	return &Autopilot{module: m}
}

// Target 返回当前转向的方向（DirectionActive 表示回中）
func (a *Autopilot) Target() types.Direction {
	return a.target
}

// Axis 实现 systems.InputAxis
func (a *Autopilot) Axis() (float64, float64) {
	ship := a.module.Ship()
	h, v := ship.HorizontalRatio(), ship.VerticalRatio()
	centerX := utils.Clamp(-h*centeringGain, -1, 1)
	centerY := utils.Clamp(-v*centeringGain, -1, 1)

	a.target = types.DirectionActive
	director := a.module.Director()
	if director.BranchPending() {
		if candidates := director.CandidateDirections(); len(candidates) > 0 {
			a.target = candidates[0]
		}
	}

	switch a.target {
	case types.DirectionLeft:
		return -1, centerY
	case types.DirectionRight:
		return 1, centerY
	case types.DirectionUp:
		return centerX, 1
	case types.DirectionDown:
		return centerX, -1
	default:
		return centerX, centerY
	}
}
