// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// IsJustTouchedOrClicked 检查是否刚刚发生点击或触摸
// 返回是否点击以及点击位置
func IsJustTouchedOrClicked() (bool, int, int) {
	// 检查触摸
	touchIDs := inpututil.AppendJustPressedTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return true, x, y
	}

	// 检查鼠标
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return true, x, y
	}

	return false, 0, 0
}

// GetPointerState 获取指针的完整状态
// 返回：是否按下、X坐标、Y坐标
func GetPointerState() (pressed bool, x, y int) {
	// 检查触摸
	touchIDs := ebiten.AppendTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y = ebiten.TouchPosition(touchIDs[0])
		return true, x, y
	}

	// 检查鼠标
	x, y = ebiten.CursorPosition()
	pressed = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	return pressed, x, y
}

// PointerAxis 把指针位置换算为以屏幕中心为原点的方向输入
//
// 参数:
//   - x, y: 指针的屏幕坐标
//   - width, height: 逻辑屏幕尺寸
//
// 返回:
//   - ax, ay: [-1, 1] 范围内的方向，ay 向上为正
func PointerAxis(x, y, width, height int) (ax, ay float64) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	halfW := float64(width) / 2
	halfH := float64(height) / 2
	ax = Clamp((float64(x)-halfW)/halfW, -1, 1)
	ay = Clamp((halfH-float64(y))/halfH, -1, 1)
	return ax, ay
}
