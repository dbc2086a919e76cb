package config

// 窗口和渲染布局常量
const (
	// GameWindowWidth 逻辑屏幕宽度（像素），与默认 16:9 视口一致
	GameWindowWidth = 960

	// GameWindowHeight 逻辑屏幕高度（像素）
	GameWindowHeight = 540

	// CameraDistance 透视相机到世界原点的距离（世界单位）
	// z=0 平面上的缩放与正交视口相同
	CameraDistance = 12.0

	// CameraNearPlane 近裁剪面，任一角点比它更近的长方体不绘制
	CameraNearPlane = 0.5

	// FogDistance 超过该深度的实例完全融入天空颜色
	FogDistance = 140.0

	// HUDMargin HUD 文字离屏幕边缘的距离
	HUDMargin = 16.0

	// HUDLineHeight HUD 文字行高
	HUDLineHeight = 18.0
)

// PixelsPerUnit 正交视口下每个世界单位对应的像素数
// 屏幕半高对应 orthographicSize 个单位
func PixelsPerUnit(v ViewportConfig) float64 {
	if v.OrthographicSize <= 0 {
		return 1
	}
	return float64(GameWindowHeight) / 2 / v.OrthographicSize
}
