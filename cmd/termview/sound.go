package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// tonePlayer 转弯成功和撞毁的提示音
// 未初始化时所有播放调用都是空操作
type tonePlayer struct {
	ready bool
}

func (t *tonePlayer) init() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	t.ready = true
	return nil
}

func (t *tonePlayer) close() {
	if t.ready {
		speaker.Close()
		t.ready = false
	}
}

// tone 播放一段正弦音
func (t *tonePlayer) tone(freq int, d time.Duration) {
	if !t.ready {
		return
	}
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (t *tonePlayer) commit() {
	t.tone(880, 60*time.Millisecond)
}

// crash 两段下降的音
func (t *tonePlayer) crash() {
	if !t.ready {
		return
	}
	low, err := generators.SineTone(sampleRate, 220)
	if err != nil {
		return
	}
	lower, err := generators.SineTone(sampleRate, 110)
	if err != nil {
		return
	}
	speaker.Play(beep.Seq(
		beep.Take(sampleRate.N(120*time.Millisecond), low),
		beep.Take(sampleRate.N(240*time.Millisecond), lower),
	))
}
