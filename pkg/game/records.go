package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// RunRecord 持久化的飞行记录
type RunRecord struct {
	BestDistance int `yaml:"bestDistance"` // 历史最远距离（米）
	TotalRuns    int `yaml:"totalRuns"`    // 已完成的局数
	LastDistance int `yaml:"lastDistance"` // 上一局距离
}

// RecordStore 飞行记录存储
// 负责最远距离的加载、比较和保存
type RecordStore struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，仅内存记录）
	record       RunRecord
}

// 存储路径常量
const (
	recordsObject   = "records"
	recordsProperty = "best_distance"
)

// NewRecordStore 创建记录存储并尝试加载已保存的记录
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式）
//
// 返回：
//   - *RecordStore: 记录存储实例（加载失败时从零开始）
func NewRecordStore(gdataManager *gdata.Manager) *RecordStore {
	rs := &RecordStore{gdataManager: gdataManager}
	if err := rs.Load(); err != nil {
		log.Printf("[RecordStore] Warning: Failed to load records: %v (starting fresh)", err)
	}
	return rs
}

// Load 从 gdata 加载记录
//
// 返回：
//   - error: 如果读取或反序列化失败返回错误（记录被重置为零值）
func (rs *RecordStore) Load() error {
	rs.record = RunRecord{}
	if rs.gdataManager == nil {
		return nil
	}
	if !rs.gdataManager.ObjectPropExists(recordsObject, recordsProperty) {
		return nil
	}

	data, err := rs.gdataManager.LoadObjectProp(recordsObject, recordsProperty)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	var loaded RunRecord
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal records: %w", err)
	}
	if loaded.BestDistance < 0 {
		loaded.BestDistance = 0
	}

	rs.record = loaded
	log.Printf("[RecordStore] Records loaded (best=%d, runs=%d)", loaded.BestDistance, loaded.TotalRuns)
	return nil
}

// Save 保存记录到 gdata（降级模式下直接返回 nil）
func (rs *RecordStore) Save() error {
	if rs.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(&rs.record)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := rs.gdataManager.SaveObjectProp(recordsObject, recordsProperty, data); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// BestDistance 返回历史最远距离
func (rs *RecordStore) BestDistance() int {
	return rs.record.BestDistance
}

// Record 返回当前记录的副本
func (rs *RecordStore) Record() RunRecord {
	return rs.record
}

// SubmitDistance 提交一局的距离并保存
//
// 参数：
//   - distance: 本局距离（米）
//
// 返回：
//   - bool: 是否刷新了最远距离
//   - error: 保存失败时返回错误（内存中的记录已更新）
func (rs *RecordStore) SubmitDistance(distance int) (bool, error) {
	rs.record.TotalRuns++
	rs.record.LastDistance = distance

	newBest := distance > rs.record.BestDistance
	if newBest {
		rs.record.BestDistance = distance
	}

	if err := rs.Save(); err != nil {
		return newBest, err
	}
	return newBest, nil
}
