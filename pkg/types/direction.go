// Package types 定义共享的基础类型
package types

// Direction 走廊槽位方向
//
// 走廊始终持有五条轨道：一条活动轨道和四条候选分支。
// 分支提交时活动轨道与选中方向的候选轨道交换槽位。
type Direction int

const (
	DirectionActive Direction = iota // 活动轨道（飞船当前所在）
	DirectionLeft                    // 左转分支
	DirectionRight                   // 右转分支
	DirectionUp                      // 上升分支
	DirectionDown                    // 下降分支
)

// BranchDirections 按抽签顺序排列的四个候选方向
var BranchDirections = [...]Direction{DirectionLeft, DirectionRight, DirectionUp, DirectionDown}

// String 返回方向名称（同时用作轨道名称）
func (d Direction) String() string {
	switch d {
	case DirectionActive:
		return "Primary"
	case DirectionLeft:
		return "Left"
	case DirectionRight:
		return "Right"
	case DirectionUp:
		return "Up"
	case DirectionDown:
		return "Down"
	default:
		return "Unknown"
	}
}

// IsBranch 是否为候选分支方向
func (d Direction) IsBranch() bool {
	return d >= DirectionLeft && d <= DirectionDown
}
