package embedded

import (
	"errors"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/world.yaml":      {Data: []byte("tickRate: 60\n")},
		"data/extra/a.yaml":    {Data: []byte("a: 1\n")},
		"data/extra/b.yaml":    {Data: []byte("b: 2\n")},
		"data/extra/notes.txt": {Data: []byte("skip")},
	}
}

// TestNotInitialized 测试未初始化时的行为
func TestNotInitialized(t *testing.T) {
	Init(nil)
	t.Cleanup(func() { Init(nil) })

	if IsInitialized() {
		t.Fatal("Expected IsInitialized() to return false before Init()")
	}
	if _, err := ReadFile("data/world.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from ReadFile, got %v", err)
	}
	if _, err := Glob("data/*.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from Glob, got %v", err)
	}
	if Exists("data/world.yaml") {
		t.Error("Expected Exists() to return false before Init()")
	}
}

// TestReadFile 测试路径标准化和读取
func TestReadFile(t *testing.T) {
	Init(testFS())
	t.Cleanup(func() { Init(nil) })

	for _, path := range []string{"data/world.yaml", "./data/world.yaml"} {
		data, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%q) failed: %v", path, err)
		}
		if string(data) != "tickRate: 60\n" {
			t.Errorf("ReadFile(%q) = %q", path, data)
		}
	}

	if _, err := ReadFile("assets/world.yaml"); err == nil {
		t.Error("Expected error for a path outside data/")
	}
	if _, err := ReadFile("data/missing.yaml"); err == nil {
		t.Error("Expected error for a missing file")
	}
}

// TestExistsAndGlob 测试存在性检查和模式匹配
func TestExistsAndGlob(t *testing.T) {
	Init(testFS())
	t.Cleanup(func() { Init(nil) })

	if !Exists("data/world.yaml") || Exists("data/nope.yaml") {
		t.Error("Exists() returned an unexpected result")
	}

	matches, err := Glob("data/extra/*.yaml")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 yaml files, got %v", matches)
	}
}
