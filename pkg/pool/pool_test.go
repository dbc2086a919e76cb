package pool

import (
	"errors"
	"testing"
)

// testInstance 模拟一个可被激活/停用的场景对象
type testInstance struct {
	id        int
	active    bool
	parent    string
	destroyed bool
}

func newTestPool(t *testing.T, defaultSize, maxSize int) (*Pool[*testInstance], *[]*testInstance) {
	t.Helper()
	created := make([]*testInstance, 0)
	p, err := New(Options[*testInstance]{
		Name:        "test",
		DefaultSize: defaultSize,
		MaxSize:     maxSize,
		Create: func() (*testInstance, error) {
			inst := &testInstance{id: len(created) + 1, active: true, parent: "pool"}
			created = append(created, inst)
			return inst, nil
		},
		OnGet: func(inst *testInstance) {
			inst.active = true
		},
		OnRelease: func(inst *testInstance) {
			inst.active = false
			inst.parent = "pool"
		},
		OnDestroy: func(inst *testInstance) {
			inst.destroyed = true
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, &created
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options[int]
	}{
		{name: "missing create", opts: Options[int]{MaxSize: 1}},
		{name: "zero max size", opts: Options[int]{MaxSize: 0, Create: func() (int, error) { return 1, nil }}},
		{name: "prewarm above max", opts: Options[int]{DefaultSize: 3, MaxSize: 2, Create: func() (int, error) { return 1, nil }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestPrewarmCreatesInactiveInstances(t *testing.T) {
	p, created := newTestPool(t, 3, 10)

	if p.Idle() != 3 || p.Live() != 3 || p.Loaned() != 0 {
		t.Fatalf("unexpected counts idle=%d live=%d loaned=%d", p.Idle(), p.Live(), p.Loaned())
	}
	for _, inst := range *created {
		if inst.active {
			t.Errorf("prewarmed instance %d should be inactive", inst.id)
		}
	}
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p, _ := newTestPool(t, 0, 4)

	inst, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !inst.active {
		t.Error("acquired instance should be active")
	}
	inst.parent = "lane"

	if err := p.Release(inst); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// 归还后与从未借出时不可区分
	if inst.active || inst.parent != "pool" {
		t.Errorf("released instance should be inactive and parented to the pool, got active=%v parent=%s", inst.active, inst.parent)
	}

	again, err := p.Acquire()
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if again != inst {
		t.Error("the most recently released instance should be reused first")
	}
	if p.Live() != 1 {
		t.Errorf("expected 1 live instance, got %d", p.Live())
	}
}

func TestAcquireFailsWhenExhausted(t *testing.T) {
	p, _ := newTestPool(t, 0, 2)

	for i := 0; i < 2; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}

	_, err := p.Acquire()
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if p.Loaned() != 2 {
		t.Errorf("exhaustion must not change the loan count, got %d", p.Loaned())
	}
}

func TestReleaseRejectsUnknownInstance(t *testing.T) {
	p, _ := newTestPool(t, 0, 2)

	inst, _ := p.Acquire()
	if err := p.Release(inst); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := p.Release(inst); !errors.Is(err, ErrNotLoaned) {
		t.Errorf("double release should return ErrNotLoaned, got %v", err)
	}
	if err := p.Release(&testInstance{}); !errors.Is(err, ErrNotLoaned) {
		t.Errorf("foreign instance should return ErrNotLoaned, got %v", err)
	}
}

func TestShrinkEvictsThroughDestroyCallback(t *testing.T) {
	p, created := newTestPool(t, 5, 5)

	loaned, _ := p.Acquire()

	evicted := p.Shrink(1)
	if evicted != 3 {
		t.Fatalf("expected 3 evictions, got %d", evicted)
	}
	if p.Idle() != 1 || p.Live() != 2 {
		t.Errorf("unexpected counts after shrink idle=%d live=%d", p.Idle(), p.Live())
	}

	destroyed := 0
	for _, inst := range *created {
		if inst.destroyed {
			destroyed++
			if inst == loaned {
				t.Error("a loaned instance must never be evicted")
			}
		}
	}
	if destroyed != 3 {
		t.Errorf("expected 3 destroy callbacks, got %d", destroyed)
	}

	// 淘汰释放了容量，可以重新创建
	for i := 0; i < 4; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatalf("Acquire after shrink failed: %v", err)
		}
	}

	p.Clear()
	if p.Idle() != 0 {
		t.Errorf("Clear should drop every idle instance, got %d", p.Idle())
	}
}
