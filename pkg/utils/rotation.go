package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisRight   = mgl64.Vec3{1, 0, 0}
	axisUp      = mgl64.Vec3{0, 1, 0}
	axisForward = mgl64.Vec3{0, 0, 1}
)

// EulerDegrees 把欧拉角（度）转换为四元数
// 旋转顺序为先 z（翻滚）、再 x（俯仰）、最后 y（偏航）
func EulerDegrees(x, y, z float64) mgl64.Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), axisUp)
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), axisRight)
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), axisForward)
	return qy.Mul(qx).Mul(qz)
}

// EulerVec 同 EulerDegrees，参数为向量
func EulerVec(v mgl64.Vec3) mgl64.Quat {
	return EulerDegrees(v[0], v[1], v[2])
}

// LerpVec3 向量线性插值
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// NlerpQuat 四元数归一化线性插值（沿最短路径）
func NlerpQuat(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatNlerp(a, b, t)
}

// AngleDegrees 返回两个旋转之间的夹角（度）
func AngleDegrees(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Dot(b))
	if d > 1 {
		d = 1
	}
	return mgl64.RadToDeg(2 * math.Acos(d))
}
