//go:build mobile

package utils

// IsMobile 移动端构建（-tags mobile）总是使用触摸提示和指针转向
func IsMobile() bool {
	return true
}
