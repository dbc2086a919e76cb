//go:build !mobile

package utils

import "testing"

func TestIsMobileEmulation(t *testing.T) {
	t.Setenv("CITYFLIGHT_MOBILE_EMULATE", "")
	if IsMobile() {
		t.Error("desktop build should not report mobile")
	}

	t.Setenv("CITYFLIGHT_MOBILE_EMULATE", "1")
	if !IsMobile() {
		t.Error("CITYFLIGHT_MOBILE_EMULATE=1 should switch to the touch prompt")
	}
}
