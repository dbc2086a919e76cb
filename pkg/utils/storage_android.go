//go:build android

package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStorageDir 在 gdata 打开之前创建 Android 存储目录
// gdata 在 Android 上写入 /data/data/{package}/saves，但不会自己创建该目录
//
// 返回:
//   - string: 准备好的目录
//   - error: 无法识别包名、创建失败或目录不可写
func EnsureStorageDir() (string, error) {
	pkg, err := androidPackage()
	if err != nil {
		return "", fmt.Errorf("detect android package: %w", err)
	}

	dir := filepath.Join("/data/data", pkg, "saves")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return "", fmt.Errorf("%s is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return dir, nil
}

// androidPackage 从 /proc/self/cmdline 读取进程名（即应用包名）
func androidPackage() (string, error) {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	name := string(bytes.TrimSpace(data))
	if name == "" {
		return "", fmt.Errorf("empty /proc/self/cmdline")
	}
	return name, nil
}
