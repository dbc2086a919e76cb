package game

import (
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// newTestGdataManager 在临时 HOME 下创建 gdata Manager
// 无法创建时跳过测试（受限环境）
func newTestGdataManager(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)

	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Skipf("Cannot create gdata manager for testing: %v", err)
	}
	return manager
}
