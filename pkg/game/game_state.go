package game

import (
	"log"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/cityflight/pkg/utils"
)

// AppName gdata 存储使用的应用名
const AppName = "cityflight"

// GameState 跨场景共享的游戏状态
// 由 main 创建并注入到场景中
type GameState struct {
	gdataManager *gdata.Manager

	Settings *SettingsManager
	Records  *RecordStore
}

// NewGameState 创建游戏状态
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，设置和记录只保存在内存中）
func NewGameState(gdataManager *gdata.Manager) *GameState {
	if gdataManager == nil {
		log.Printf("[GameState] Warning: gdata manager unavailable, records will not persist")
	}

	settings, err := NewSettingsManager(gdataManager)
	if err != nil {
		log.Printf("[GameState] Warning: settings manager: %v", err)
	}

	return &GameState{
		gdataManager: gdataManager,
		Settings:     settings,
		Records:      NewRecordStore(gdataManager),
	}
}

// GetGdataManager 返回 gdata 存储管理器（可能为 nil）
func (gs *GameState) GetGdataManager() *gdata.Manager {
	return gs.gdataManager
}

// OpenStorage 打开跨平台存储
// 失败时记录警告并返回 nil，游戏以降级模式运行（记录不持久化）
func OpenStorage(appName string) *gdata.Manager {
	if dir, err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[GameState] Warning: storage directory: %v", err)
	} else if dir != "" {
		log.Printf("[GameState] storage directory: %s", dir)
	}

	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[GameState] Warning: failed to open storage: %v", err)
		return nil
	}
	return manager
}
