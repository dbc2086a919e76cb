package components

// SegmentKind 建筑所在的列
type SegmentKind int

const (
	SegmentLeft    SegmentKind = iota // 左列
	SegmentRight                      // 右列
	SegmentClosing                    // 死路封口
)

// String 返回列名称（日志用）
func (k SegmentKind) String() string {
	switch k {
	case SegmentLeft:
		return "left"
	case SegmentRight:
		return "right"
	case SegmentClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// SegmentComponent 走廊建筑
type SegmentComponent struct {
	Kind SegmentKind
	Row  int // 生成时的排号
}

// ObstacleComponent 走廊中的障碍物
type ObstacleComponent struct {
	Row int // 所属排号
}

// LaneRootComponent 轨道根节点
// 建筑和障碍物的 TransformComponent.Parent 指向它
type LaneRootComponent struct {
	Name string
}
