package systems

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/cityflight/pkg/config"
	"github.com/decker502/cityflight/pkg/types"
	"github.com/decker502/cityflight/pkg/utils"
)

type directorFixture struct {
	world    *testWorld
	director *CorridorDirector
	anchor   *TravelAnchor
	subject  *fakeSubject
	crashes  int
}

func newDirectorFixture(t *testing.T, chances config.BranchChances) *directorFixture {
	t.Helper()
	w := newTestWorld(t, func(cfg *config.WorldConfig) {
		cfg.Corridor.Chances = chances
	})

	f := &directorFixture{
		world:   w,
		anchor:  NewTravelAnchor(w.em, w.cfg.Anchor, mgl64.Vec3{}, 0.1, 0.01),
		subject: &fakeSubject{minH: 0.3, minV: 0.3},
	}

	director, err := NewCorridorDirector(w.em, DirectorOptions{
		Config:    w.cfg,
		Segments:  w.segments,
		Obstacles: w.obstacles,
		Random:    &constRandom{value: 0.5},
		Subject:   f.subject,
		Anchor:    f.anchor,
		Crash:     CrashHandlerFunc(func() { f.crashes++ }),
		Parent:    f.anchor.Entity(),
	})
	if err != nil {
		t.Fatalf("NewCorridorDirector failed: %v", err)
	}
	f.director = director
	return f
}

func TestCorridorDirectorInitialTrails(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{})
	d := f.director

	for _, dir := range laneOrder {
		lane := d.Lane(dir)
		if lane == nil {
			t.Fatalf("missing %s lane", dir)
		}
		if lane.IsActive() != (dir == types.DirectionActive) {
			t.Errorf("%s lane active=%v", dir, lane.IsActive())
		}
		if lane.IsScrolling() {
			t.Errorf("%s lane should not scroll before the run starts", dir)
		}
	}
	if len(d.CandidateDirections()) != 0 {
		t.Errorf("no candidates expected, got %v", d.CandidateDirections())
	}
	if d.IsGenerating() || d.BranchPending() {
		t.Error("generation starts disabled")
	}

	want := config.LaneSlotCount * 2 * f.world.cfg.Lane.RowCount
	if f.world.segments.Loaned() != want {
		t.Errorf("expected %d loaned segments, got %d", want, f.world.segments.Loaned())
	}
}

func TestCorridorDirectorIgnoresChanceWhileIdle(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Left: 100, Right: 100, Up: 100, Down: 100})

	rng := &constRandom{value: 0.5}
	f.director.opts.Random = rng
	if err := f.director.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	if f.director.BranchPending() {
		t.Error("no branch while generation is off")
	}
	if rng.draws != 0 {
		t.Errorf("idle evaluation must not consume random draws, got %d", rng.draws)
	}
}

func TestCorridorDirectorNoCandidatesKeepsSpawning(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100})
	f.director.StartGenerating()

	if err := f.director.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}

	active := f.director.ActiveLane()
	if f.director.BranchPending() {
		t.Error("no candidate spawned, so nothing should be pending")
	}
	if !active.IsSpawning() || active.ClosingCount() != 0 {
		t.Error("active lane should keep spawning without a dead end")
	}
}

func TestCorridorDirectorLeftBranchCommit(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Left: 100})
	d := f.director
	d.StartGenerating()
	d.ActiveLane().SetScrolling(true)

	formerActive := d.ActiveLane()
	leftLane := d.Lane(types.DirectionLeft)

	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	if !d.BranchPending() {
		t.Fatal("branch should be pending")
	}
	if got := d.CandidateDirections(); len(got) != 1 || got[0] != types.DirectionLeft {
		t.Fatalf("expected only the left candidate, got %v", got)
	}
	// 右侧没有分支，需要额外的封口：1 + 远端 3 个
	if formerActive.ClosingCount() != 4 || formerActive.IsSpawning() {
		t.Errorf("dead end expected, closing=%d spawning=%v", formerActive.ClosingCount(), formerActive.IsSpawning())
	}

	// 候选分支放在前沿左侧，朝向左转
	pos, rot := leftLane.Transform()
	horizontal := f.world.cfg.Viewport.HalfWidth() * f.world.cfg.Lane.SeparationPercent / 100
	if !approxEqual(pos.X(), formerActive.CorridorFrontier().X()-horizontal) {
		t.Errorf("left candidate x = %.3f", pos.X())
	}
	if utils.AngleDegrees(rot, utils.EulerDegrees(0, -90, 0)) > 1e-4 {
		t.Error("left candidate should face left")
	}

	// 飞船还没到前沿：不提交
	f.subject.h = -0.5
	f.subject.pos = mgl64.Vec3{0, 0, -100}
	if err := d.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if d.Commits() != 0 || !d.BranchPending() {
		t.Fatal("commit must wait for the subject to reach the frontier")
	}

	f.subject.pos = mgl64.Vec3{0, 0, 1000}
	if err := d.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if d.Commits() != 1 || d.Crashes() != 0 || f.crashes != 0 {
		t.Fatalf("expected a clean commit, commits=%d crashes=%d", d.Commits(), d.Crashes())
	}
	if d.BranchPending() {
		t.Error("branch should be resolved")
	}
	if d.ActiveLane() != leftLane {
		t.Fatal("left lane should become the active lane")
	}
	if d.Lane(types.DirectionLeft) != formerActive {
		t.Fatal("former active lane should move into the left slot")
	}

	newPos, newRot := leftLane.Transform()
	if newPos != (mgl64.Vec3{}) || utils.AngleDegrees(newRot, mgl64.QuatIdent()) > 1e-9 {
		t.Errorf("new active lane should sit at the corridor origin, got %v", newPos)
	}
	if !leftLane.IsActive() || !leftLane.IsScrolling() || leftLane.Name() != types.DirectionActive.String() {
		t.Error("new active lane should be active, scrolling and renamed")
	}
	if formerActive.IsActive() || formerActive.IsScrolling() || !formerActive.IsSpawning() {
		t.Error("former active lane should be reset and parked")
	}
	if formerActive.ClosingCount() != 0 || formerActive.LeftCount() != f.world.cfg.Lane.RowCount {
		t.Error("former active lane should be rebuilt by Reset")
	}
	if len(d.CandidateDirections()) != 0 {
		t.Errorf("all candidates should be cleared, got %v", d.CandidateDirections())
	}

	// 锚点瞬间偏转到新航向，目标回零
	turn := f.world.cfg.Corridor.TurnDegrees
	if utils.AngleDegrees(f.anchor.Rotation(), utils.EulerDegrees(0, turn, 0)) > 1e-4 {
		t.Error("anchor should snap to the new heading")
	}
	if f.anchor.TargetRotation() != (mgl64.Vec3{}) {
		t.Errorf("anchor target should be zero, got %v", f.anchor.TargetRotation())
	}
	t.Logf("✓ left branch committed, anchor turning back from %.0f°", turn)
}

func TestCorridorDirectorCrashWithoutMatchingBranch(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Left: 100})
	d := f.director
	d.StartGenerating()
	d.ActiveLane().SetScrolling(true)

	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}

	// 飞船偏右，但只有左侧分支
	f.subject.h = 0.6
	f.subject.pos = mgl64.Vec3{0, 0, 1000}
	if err := d.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if f.crashes != 1 || d.Crashes() != 1 {
		t.Fatalf("expected one crash, handler=%d director=%d", f.crashes, d.Crashes())
	}
	if d.IsGenerating() || d.BranchPending() {
		t.Error("crash should stop generation and clear the pending branch")
	}
	if d.ActiveLane().IsScrolling() {
		t.Error("active lane should stop at the frontier")
	}
	if d.Commits() != 0 {
		t.Error("a crash is not a commit")
	}

	// 之后的 Tick 不再处理
	if err := d.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if f.crashes != 1 {
		t.Error("crash handler must fire once")
	}
}

func TestCorridorDirectorCrashBelowTurnThreshold(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Left: 100, Right: 100, Up: 100, Down: 100})
	d := f.director
	d.StartGenerating()

	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	if len(d.CandidateDirections()) != 4 {
		t.Fatalf("expected four candidates, got %v", d.CandidateDirections())
	}
	if d.ActiveLane().ClosingCount() != 3 {
		t.Errorf("both sides open, expected 3 closing pieces, got %d", d.ActiveLane().ClosingCount())
	}

	// 飞船居中，没有选择方向
	f.subject.pos = mgl64.Vec3{0, 0, 1000}
	if err := d.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if f.crashes != 1 {
		t.Errorf("centred subject should crash into the dead end, crashes=%d", f.crashes)
	}
}

func TestCorridorDirectorChooseDirection(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{})

	tests := []struct {
		name string
		h, v float64
		want types.Direction
		ok   bool
	}{
		{name: "left", h: -0.5, want: types.DirectionLeft, ok: true},
		{name: "right", h: 0.5, want: types.DirectionRight, ok: true},
		{name: "up", h: 0.1, v: 0.6, want: types.DirectionUp, ok: true},
		{name: "down", h: 0.1, v: -0.6, want: types.DirectionDown, ok: true},
		{name: "vertical dominates", h: 0.5, v: -0.6, want: types.DirectionDown, ok: true},
		{name: "tie goes horizontal", h: 0.5, v: 0.5, want: types.DirectionRight, ok: true},
		{name: "horizontal below threshold falls to vertical", h: 0.2, v: 0.1, ok: false},
		{name: "centred", want: types.DirectionActive, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.subject.h, f.subject.v = tt.h, tt.v
			got, ok := f.director.chooseDirection()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("direction = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCorridorDirectorPendingBlocksNewBranch(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Left: 100})
	d := f.director
	d.StartGenerating()

	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	closing := d.ActiveLane().ClosingCount()

	f.world.cfg.Corridor.Chances.Right = 100
	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	if d.Lane(types.DirectionRight).IsActive() {
		t.Error("a pending branch must block new candidates")
	}
	if d.ActiveLane().ClosingCount() != closing {
		t.Error("a pending branch must not spawn a second dead end")
	}
}

func TestCorridorDirectorCandidatesFollowFrontier(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Up: 100})
	d := f.director
	d.StartGenerating()
	d.ActiveLane().SetScrolling(true)

	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}
	f.subject.pos = mgl64.Vec3{0, 0, -1000}

	up := d.Lane(types.DirectionUp)
	before, _ := up.Transform()
	for i := 0; i < 30; i++ {
		if err := d.TickLanes(fixedDelta); err != nil {
			t.Fatalf("TickLanes failed: %v", err)
		}
		if err := d.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}
	after, _ := up.Transform()

	moved := before.Z() - after.Z()
	want := 30 * f.world.cfg.Lane.ScrollSpeed * fixedDelta
	if math.Abs(moved-want) > 1e-6 {
		t.Errorf("candidate should track the frontier, moved %.4f want %.4f", moved, want)
	}
	if up.IsScrolling() {
		t.Error("candidate lanes do not scroll themselves")
	}
}

func TestCorridorDirectorReinitialize(t *testing.T) {
	f := newDirectorFixture(t, config.BranchChances{End: 100, Right: 100})
	d := f.director
	d.StartGenerating()
	if err := d.EvaluateBranchChance(); err != nil {
		t.Fatalf("EvaluateBranchChance failed: %v", err)
	}

	if err := d.InitializeTrails(); err != nil {
		t.Fatalf("InitializeTrails failed: %v", err)
	}
	if d.BranchPending() || len(d.CandidateDirections()) != 0 {
		t.Error("fresh trails have no pending branch")
	}
	want := config.LaneSlotCount * 2 * f.world.cfg.Lane.RowCount
	if f.world.segments.Loaned() != want {
		t.Errorf("pool should hold exactly the fresh trails, loaned=%d want %d", f.world.segments.Loaned(), want)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if f.world.segments.Loaned() != 0 {
		t.Errorf("Close should release everything, %d loaned", f.world.segments.Loaned())
	}
}
