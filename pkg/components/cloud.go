package components

// CloudComponent 横向漂移的云朵
type CloudComponent struct {
	Direction float64 // +1 向右, -1 向左
}
