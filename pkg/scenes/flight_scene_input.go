package scenes

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/utils"
)

// KeyboardAxis 方向键/WASD 和指针（触摸或按住鼠标）组成的方向输入
// 键盘优先；没有按键时按指针相对屏幕中心的位置转向
type KeyboardAxis struct{}

// NewKeyboardAxis 创建方向输入
func NewKeyboardAxis() *KeyboardAxis {
	return &KeyboardAxis{}
}

// Axis 实现 systems.InputAxis（y 向上为正）
func (k *KeyboardAxis) Axis() (float64, float64) {
	var x, y float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		x--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		x++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		y++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		y--
	}
	if x != 0 || y != 0 {
		return x, y
	}

	pressed, px, py := utils.GetPointerState()
	if !pressed {
		return 0, 0
	}
	return utils.PointerAxis(px, py, config.GameWindowWidth, config.GameWindowHeight)
}

// startRequested 空格、回车、点击或新的触摸
func startRequested() bool {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		return true
	}
	clicked, _, _ := utils.IsJustTouchedOrClicked()
	return clicked
}
