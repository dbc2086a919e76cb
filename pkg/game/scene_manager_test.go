package game

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

type stubScene struct {
	updates int
	err     error
	saved   bool
}

func (s *stubScene) Update(deltaTime float64) error {
	s.updates++
	return s.err
}

func (s *stubScene) Draw(screen *ebiten.Image) {}

type saveableScene struct {
	stubScene
}

func (s *saveableScene) SaveOnExit() bool {
	s.saved = true
	return true
}

func TestSceneManagerUpdate(t *testing.T) {
	sm := NewSceneManager()
	if err := sm.Update(1.0 / 60); err != nil {
		t.Fatalf("empty manager should not fail: %v", err)
	}

	scene := &stubScene{}
	sm.SwitchTo(scene)
	if sm.GetCurrentScene() != scene {
		t.Fatal("SwitchTo did not change the current scene")
	}
	if err := sm.Update(1.0 / 60); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if scene.updates != 1 {
		t.Errorf("expected 1 update, got %d", scene.updates)
	}

	boom := errors.New("boom")
	scene.err = boom
	if err := sm.Update(1.0 / 60); !errors.Is(err, boom) {
		t.Errorf("scene error should propagate, got %v", err)
	}
}

func TestSceneManagerSaveOnExit(t *testing.T) {
	sm := NewSceneManager()
	if !sm.SaveOnExit() {
		t.Error("no scene should report success")
	}

	plain := &stubScene{}
	sm.SwitchTo(plain)
	if !sm.SaveOnExit() {
		t.Error("non-saveable scene should report success")
	}

	saveable := &saveableScene{}
	sm.SwitchTo(saveable)
	if !sm.SaveOnExit() || !saveable.saved {
		t.Error("saveable scene should be asked to save")
	}
}
