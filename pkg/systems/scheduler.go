package systems

import (
	"fmt"
	"log"

	"github.com/decker502/cityflight/pkg/components"
	"github.com/decker502/cityflight/pkg/ecs"
)

// TimerHandle 计时器句柄（计时器实体ID）
type TimerHandle = ecs.EntityID

// Scheduler 固定步倒计时调度器
//
// 每个计时器是一个带 TimerComponent 的实体。Update 每个固定步推进所有计时器，
// 到期时同步执行回调；周期计时器立即重新计时，一次性计时器触发后销毁。
type Scheduler struct {
	entityManager *ecs.EntityManager
}

// NewScheduler 创建调度器
func NewScheduler(em *ecs.EntityManager) *Scheduler {
	return &Scheduler{entityManager: em}
}

// Every 登记周期计时器
//
// 参数:
//   - name: 计时器名称（日志用）
//   - interval: 间隔（秒）
//   - fn: 到期回调
//
// 返回:
//   - TimerHandle: 用于 Cancel 的句柄
func (s *Scheduler) Every(name string, interval float64, fn func() error) TimerHandle {
	return s.add(name, interval, true, fn)
}

// After 登记一次性计时器
func (s *Scheduler) After(name string, delay float64, fn func() error) TimerHandle {
	return s.add(name, delay, false, fn)
}

func (s *Scheduler) add(name string, interval float64, repeat bool, fn func() error) TimerHandle {
	id := s.entityManager.CreateEntity()
	ecs.AddComponent(s.entityManager, id, &components.TimerComponent{
		Name:       name,
		TargetTime: interval,
		Repeat:     repeat,
		OnFire:     fn,
	})
	log.Printf("[Scheduler] timer %q armed (interval=%.2fs, repeat=%v)", name, interval, repeat)
	return id
}

// Cancel 取消计时器（之后不会再触发）
func (s *Scheduler) Cancel(handle TimerHandle) {
	timer, ok := ecs.GetComponent[*components.TimerComponent](s.entityManager, handle)
	if !ok || timer.Cancelled {
		return
	}
	timer.Cancelled = true
	s.entityManager.DestroyEntity(handle)
}

// Update 推进所有计时器
// 回调返回错误时立即停止本步并返回该错误
func (s *Scheduler) Update(deltaTime float64) error {
	for _, id := range ecs.GetEntitiesWith1[*components.TimerComponent](s.entityManager) {
		timer, ok := ecs.GetComponent[*components.TimerComponent](s.entityManager, id)
		if !ok || timer.Cancelled || (timer.IsReady && !timer.Repeat) {
			continue
		}

		timer.CurrentTime += deltaTime
		if timer.CurrentTime < timer.TargetTime {
			continue
		}

		// 到期：周期计时器保留超出部分，避免长期漂移
		if timer.Repeat {
			timer.CurrentTime -= timer.TargetTime
			if timer.CurrentTime < 0 || timer.TargetTime <= 0 {
				timer.CurrentTime = 0
			}
		} else {
			timer.IsReady = true
			s.entityManager.DestroyEntity(id)
		}

		if timer.OnFire != nil {
			if err := timer.OnFire(); err != nil {
				return fmt.Errorf("timer %q: %w", timer.Name, err)
			}
		}
	}
	return nil
}
