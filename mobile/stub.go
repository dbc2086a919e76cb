//go:build !mobile

// Package mobile 的普通构建占位
//
// 真正的绑定入口在 mobile.go 和 embed.go 中，只在 -tags mobile 时编译，
// 这里保证 go build ./... 和 go vet ./... 在桌面端也能通过。
package mobile

// Dummy 空导出函数，让包在非移动端构建时也有内容
func Dummy() {}
