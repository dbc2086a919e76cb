package systems

// RandomSource 随机数来源
// *rand.Rand 满足该接口；测试中可以用脚本化的序列替代
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// rollPercent 按百分比抽签
// 0% 永不成功，100% 总是成功
func rollPercent(rng RandomSource, percent float64) bool {
	return rng.Float64()*100 < percent
}

// randomRange 返回 [min, max) 范围内的随机数
func randomRange(rng RandomSource, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}
