package systems

import (
	"errors"
	"testing"

	"github.com/decker502/cityflight/pkg/config"
)

// memoryRecords 内存中的最远距离记录
type memoryRecords struct {
	best      int
	submitted []int
	err       error
}

func (m *memoryRecords) BestDistance() int { return m.best }

func (m *memoryRecords) SubmitDistance(distance int) (bool, error) {
	m.submitted = append(m.submitted, distance)
	if distance > m.best {
		m.best = distance
		return true, m.err
	}
	return false, m.err
}

type runFixture struct {
	world    *testWorld
	ship     *ShipSystem
	anchor   *TravelAnchor
	director *CorridorDirector
	clouds   *CloudSpawner
	tweens   *TweenSystem
	records  *memoryRecords
	run      *RunManager
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()
	w := newTestWorld(t, func(cfg *config.WorldConfig) {
		cfg.Corridor.Chances = config.BranchChances{}
	})
	rc := w.cfg.Run

	f := &runFixture{world: w, tweens: NewTweenSystem(w.em), records: &memoryRecords{best: 50}}
	f.anchor = NewTravelAnchor(w.em, w.cfg.Anchor, rc.AnchorStartPosition.Vec(), rc.TweenSpeed, rc.TweenThreshold)
	f.ship = NewShipSystem(w.em, w.cfg.Ship, w.cfg.Viewport, rc.ShipStartPosition.Vec(), rc.TweenSpeed, rc.TweenThreshold, nil, f.anchor)
	f.clouds = NewCloudSpawner(w.em, w.clouds, w.cfg.Clouds, w.cfg.Viewport, &constRandom{value: 0.5}, f.anchor.Entity())

	director, err := NewCorridorDirector(w.em, DirectorOptions{
		Config:    w.cfg,
		Segments:  w.segments,
		Obstacles: w.obstacles,
		Random:    &constRandom{value: 0.5},
		Subject:   f.ship,
		Anchor:    f.anchor,
		Crash:     CrashHandlerFunc(func() { f.run.OnCrash() }),
		Parent:    f.anchor.Entity(),
	})
	if err != nil {
		t.Fatalf("NewCorridorDirector failed: %v", err)
	}
	f.director = director

	f.run, err = NewRunManager(RunOptions{
		Config:   rc,
		Ship:     f.ship,
		Anchor:   f.anchor,
		Director: director,
		Clouds:   f.clouds,
		Records:  f.records,
	})
	if err != nil {
		t.Fatalf("NewRunManager failed: %v", err)
	}
	return f
}

// step 推进一个固定步（只包含单局流程相关的系统）
func (f *runFixture) step(t *testing.T) {
	t.Helper()
	f.ship.Update()
	f.anchor.Update()
	f.tweens.Update()
	if err := f.run.Update(); err != nil {
		t.Fatalf("run update failed: %v", err)
	}
	f.world.em.RemoveMarkedEntities()
}

func (f *runFixture) stepUntil(t *testing.T, phase RunPhase, limit int) int {
	t.Helper()
	for i := 0; i < limit; i++ {
		if f.run.Phase() == phase {
			return i
		}
		f.step(t)
	}
	t.Fatalf("phase %s not reached within %d ticks (still %s)", phase, limit, f.run.Phase())
	return limit
}

func TestRunManagerFullRun(t *testing.T) {
	f := newRunFixture(t)

	if f.run.Phase() != RunPhaseMenu {
		t.Fatalf("initial phase = %s", f.run.Phase())
	}
	if err := f.run.StartRun(); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if f.clouds.Count() != f.world.cfg.Clouds.Count {
		t.Errorf("StartRun should reset the clouds, got %d", f.clouds.Count())
	}

	ticks := f.stepUntil(t, RunPhaseRunning, 1000)
	t.Logf("✓ run started after %d ticks", ticks)

	if !f.ship.IsMoving() || !f.director.IsGenerating() || !f.director.ActiveLane().IsScrolling() || !f.run.IsActive() {
		t.Fatal("running phase should enable movement, generation and scrolling")
	}
	if f.ship.Tween().IsAnimating {
		t.Error("ship tween should stop once the ship is in place")
	}

	start := f.run.Distance()
	for i := 0; i < 120; i++ {
		f.step(t)
	}
	travelled := f.run.Distance()
	if travelled != start+120*f.world.cfg.Run.DistancePerTick {
		t.Errorf("distance = %d, want %d", travelled, start+120*f.world.cfg.Run.DistancePerTick)
	}

	f.run.OnCrash()
	if f.run.Phase() != RunPhaseEnding || f.run.IsActive() || f.ship.IsMoving() {
		t.Fatal("crash should end the run")
	}

	var summary RunSummary
	f.run.SetSummaryHandler(func(s RunSummary) { summary = s })
	f.stepUntil(t, RunPhaseMenu, 1000)

	if summary.Distance != travelled || summary.Best != travelled || !summary.NewRecord {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(f.records.submitted) != 1 || f.records.submitted[0] != travelled {
		t.Errorf("distance should be submitted once, got %v", f.records.submitted)
	}
	if f.ship.Position() != f.ship.Tween().StartPosition {
		t.Errorf("ship should snap back to its start position, got %v", f.ship.Position())
	}
	if f.director.IsGenerating() || f.director.ActiveLane().IsScrolling() {
		t.Error("trails should be rebuilt idle")
	}
	if f.run.Runs() != 1 || f.run.LastSummary() == nil {
		t.Error("run should be recorded")
	}

	// 可以开始下一局
	if err := f.run.StartRun(); err != nil {
		t.Fatalf("second StartRun failed: %v", err)
	}
}

func TestRunManagerRejectsOutOfOrderCalls(t *testing.T) {
	f := newRunFixture(t)

	// 菜单阶段的 EndRun 被忽略
	f.run.EndRun()
	if f.run.Phase() != RunPhaseMenu {
		t.Fatalf("EndRun from the menu should be ignored, phase=%s", f.run.Phase())
	}

	if err := f.run.StartRun(); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := f.run.StartRun(); err == nil {
		t.Error("StartRun during a run should fail")
	}
}

func TestRunManagerRecordSaveFailureIsNotFatal(t *testing.T) {
	f := newRunFixture(t)
	f.records.err = errors.New("disk full")

	if err := f.run.StartRun(); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	f.stepUntil(t, RunPhaseRunning, 1000)
	f.step(t)
	f.run.EndRun()
	f.stepUntil(t, RunPhaseMenu, 1000)

	if f.run.LastSummary() == nil {
		t.Fatal("summary expected even when saving fails")
	}
}

func TestRunManagerFlushRecord(t *testing.T) {
	f := newRunFixture(t)

	if err := f.run.FlushRecord(); err != nil || len(f.records.submitted) != 0 {
		t.Fatal("nothing to flush from the menu")
	}

	if err := f.run.StartRun(); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	f.stepUntil(t, RunPhaseRunning, 1000)
	for i := 0; i < 10; i++ {
		f.step(t)
	}
	want := f.run.Distance()
	if err := f.run.FlushRecord(); err != nil {
		t.Fatalf("FlushRecord failed: %v", err)
	}
	if len(f.records.submitted) != 1 || f.records.submitted[0] != want {
		t.Errorf("in-progress distance should be flushed, got %v", f.records.submitted)
	}
}

func TestNewRunManagerValidation(t *testing.T) {
	if _, err := NewRunManager(RunOptions{}); err == nil {
		t.Error("expected an error without ship, anchor and director")
	}
}
