// Package pool 提供有界对象池
//
// 走廊中的建筑、障碍物和云朵会被频繁地生成与回收，对象池负责复用这些实例：
//   - Acquire 借出实例（空闲列表为空时新建，直到达到容量上限）
//   - Release 归还实例并放回空闲列表
//   - Shrink / Clear 通过销毁回调淘汰空闲实例
//
// 容量上限是硬上限：池耗尽说明配置错误，Acquire 返回 ErrPoolExhausted，
// 调用方不应重试，而应把错误向上传递。
package pool

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrPoolExhausted 在借出数量达到容量上限时返回
	ErrPoolExhausted = errors.New("pool exhausted")
	// ErrNotLoaned 在归还一个并未借出的实例时返回
	ErrNotLoaned = errors.New("instance is not on loan")
)

// Options 对象池配置
type Options[T comparable] struct {
	Name        string // 池名称，用于日志和错误信息
	DefaultSize int    // 预热数量，创建池时立即生成的空闲实例数
	MaxSize     int    // 容量上限（借出 + 空闲）

	Create    func() (T, error) // 新建实例（必需）
	OnGet     func(T)           // 借出时调用（激活实例）
	OnRelease func(T)           // 归还时调用（停用实例）
	OnDestroy func(T)           // 淘汰时调用（销毁实例）
}

// Pool 有界对象池
//
// 空闲列表按后进先出复用，刚归还的实例会被下一次 Acquire 优先取出。
type Pool[T comparable] struct {
	opts   Options[T]
	free   []T
	loaned map[T]struct{}
	live   int
}

// New 创建对象池并预热 DefaultSize 个实例
//
// 返回：
//   - *Pool[T]: 对象池
//   - error: 配置无效或预热失败
func New[T comparable](opts Options[T]) (*Pool[T], error) {
	if opts.Create == nil {
		return nil, fmt.Errorf("pool %q: create function is required", opts.Name)
	}
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("pool %q: max size must be > 0, got %d", opts.Name, opts.MaxSize)
	}
	if opts.DefaultSize < 0 || opts.DefaultSize > opts.MaxSize {
		return nil, fmt.Errorf("pool %q: default size must be in [0, %d], got %d", opts.Name, opts.MaxSize, opts.DefaultSize)
	}

	p := &Pool[T]{
		opts:   opts,
		free:   make([]T, 0, opts.DefaultSize),
		loaned: make(map[T]struct{}),
	}

	for i := 0; i < opts.DefaultSize; i++ {
		item, err := opts.Create()
		if err != nil {
			return nil, fmt.Errorf("pool %q: prewarm failed: %w", opts.Name, err)
		}
		p.live++
		if opts.OnRelease != nil {
			opts.OnRelease(item)
		}
		p.free = append(p.free, item)
	}

	log.Printf("[Pool] %s initialized (prewarm=%d, max=%d)", opts.Name, opts.DefaultSize, opts.MaxSize)
	return p, nil
}

// Acquire 借出一个实例
//
// 返回：
//   - T: 借出的实例
//   - error: 达到容量上限时返回包装了 ErrPoolExhausted 的错误
func (p *Pool[T]) Acquire() (T, error) {
	var item T

	if n := len(p.free); n > 0 {
		item = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if p.live >= p.opts.MaxSize {
			return item, fmt.Errorf("pool %q (max=%d): %w", p.opts.Name, p.opts.MaxSize, ErrPoolExhausted)
		}
		created, err := p.opts.Create()
		if err != nil {
			return item, fmt.Errorf("pool %q: create failed: %w", p.opts.Name, err)
		}
		item = created
		p.live++
	}

	p.loaned[item] = struct{}{}
	if p.opts.OnGet != nil {
		p.opts.OnGet(item)
	}
	return item, nil
}

// Release 归还一个实例
//
// 归还未借出的实例（包括重复归还）返回 ErrNotLoaned，这是调用方的逻辑错误。
func (p *Pool[T]) Release(item T) error {
	if _, ok := p.loaned[item]; !ok {
		return fmt.Errorf("pool %q: release %v: %w", p.opts.Name, item, ErrNotLoaned)
	}
	delete(p.loaned, item)

	if p.opts.OnRelease != nil {
		p.opts.OnRelease(item)
	}
	p.free = append(p.free, item)
	return nil
}

// Shrink 淘汰空闲实例，直到空闲数量不超过 keep
// 被淘汰的实例会交给 OnDestroy 处理
func (p *Pool[T]) Shrink(keep int) int {
	if keep < 0 {
		keep = 0
	}
	evicted := 0
	for len(p.free) > keep {
		n := len(p.free)
		item := p.free[n-1]
		p.free = p.free[:n-1]
		p.live--
		evicted++
		if p.opts.OnDestroy != nil {
			p.opts.OnDestroy(item)
		}
	}
	if evicted > 0 {
		log.Printf("[Pool] %s evicted %d idle instances", p.opts.Name, evicted)
	}
	return evicted
}

// Clear 淘汰所有空闲实例（借出中的实例不受影响）
func (p *Pool[T]) Clear() {
	p.Shrink(0)
}

// IsLoaned 检查实例是否处于借出状态
func (p *Pool[T]) IsLoaned(item T) bool {
	_, ok := p.loaned[item]
	return ok
}

// Name 返回池名称
func (p *Pool[T]) Name() string { return p.opts.Name }

// Loaned 返回借出中的实例数量
func (p *Pool[T]) Loaned() int { return len(p.loaned) }

// Idle 返回空闲实例数量
func (p *Pool[T]) Idle() int { return len(p.free) }

// Live 返回池管理的实例总数（借出 + 空闲）
func (p *Pool[T]) Live() int { return p.live }

// Cap 返回容量上限
func (p *Pool[T]) Cap() int { return p.opts.MaxSize }
