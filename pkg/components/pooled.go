package components

// PooledComponent 标记实体归属于某个对象池
// Active=false 表示实体处于池中空闲状态，渲染和碰撞都应忽略它
type PooledComponent struct {
	Pool    string // 所属对象池名称
	Active  bool   // 是否已借出
	Variant int    // 外观变体（创建时随机选择，复用时保持不变）
}

// PoolRootComponent 对象池根节点
// 空闲实例的 TransformComponent.Parent 指向它
type PoolRootComponent struct {
	Name string
}
