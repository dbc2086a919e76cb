package components

import "github.com/go-gl/mathgl/mgl64"

// TweenProperty 补间动画跟踪的属性
type TweenProperty int

const (
	TweenPosition TweenProperty = iota
	TweenRotation
	TweenScale
)

// TweenComponent 变换补间动画
//
// 每个固定步把 TransformComponent 的位置/旋转/缩放按 Speed 向目标插值。
// 某个属性与目标的距离进入 CompletionThreshold 时，该属性上登记的一次性回调
// 会在同一步内被同步执行并清空。
type TweenComponent struct {
	IsAnimating bool // 是否正在播放
	AutoDisable bool // 位置到达 AutoDisableThreshold 时自动停止

	AnimatesPosition bool
	AnimatesRotation bool
	AnimatesScale    bool

	Speed                float64 // 每个固定步的插值系数 (0, 1]
	CompletionThreshold  float64 // 完成判定距离（旋转为角度）
	AutoDisableThreshold float64 // 自动停止距离

	TargetPosition mgl64.Vec3
	TargetRotation mgl64.Quat
	TargetScale    mgl64.Vec3

	// 创建时的初始变换，结束一局时飞船和锚点会动画回到这里
	StartPosition mgl64.Vec3
	StartRotation mgl64.Quat
	StartScale    mgl64.Vec3

	pending map[TweenProperty][]func()
}

// NewTweenComponent 以当前变换为起点和目标创建补间组件（初始不播放）
func NewTweenComponent(tr *TransformComponent, speed, threshold float64) *TweenComponent {
	return &TweenComponent{
		AutoDisable:          true,
		AnimatesPosition:     true,
		AnimatesRotation:     true,
		AnimatesScale:        true,
		Speed:                speed,
		CompletionThreshold:  threshold,
		AutoDisableThreshold: threshold,
		TargetPosition:       tr.Position,
		TargetRotation:       tr.Rotation,
		TargetScale:          tr.Scale,
		StartPosition:        tr.Position,
		StartRotation:        tr.Rotation,
		StartScale:           tr.Scale,
	}
}

// OnceComplete 登记一次性完成回调
func (t *TweenComponent) OnceComplete(property TweenProperty, fn func()) {
	if t.pending == nil {
		t.pending = make(map[TweenProperty][]func())
	}
	t.pending[property] = append(t.pending[property], fn)
}

// PendingCount 返回某属性上尚未触发的回调数量
func (t *TweenComponent) PendingCount(property TweenProperty) int {
	return len(t.pending[property])
}

// Trigger 执行并清空某属性上的全部回调
// 回调中新登记的回调留到下一次触发
func (t *TweenComponent) Trigger(property TweenProperty) {
	callbacks := t.pending[property]
	if len(callbacks) == 0 {
		return
	}
	t.pending[property] = nil
	for _, fn := range callbacks {
		fn()
	}
}
