package components

// TimerComponent 通用计时器组件
// 用于固定间隔的周期性检查（如分支检查、障碍物检查）和一次性延迟
type TimerComponent struct {
	Name        string       // 计时器名称，如 "corridor_branch"
	TargetTime  float64      // 目标时间（秒）
	CurrentTime float64      // 当前已过时间（秒）
	IsReady     bool         // 计时器是否已完成（一次性计时器触发后保持为 true）
	Repeat      bool         // 触发后立即重新计时
	Cancelled   bool         // 已取消，调度器会在下一步销毁该实体
	OnFire      func() error // 触发回调，返回的错误由调度器向上传递
}
