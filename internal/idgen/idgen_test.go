package idgen

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerate(t *testing.T) {
	g := New()

	id, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !ValidFormat(id) {
		t.Errorf("generated id %q is malformed", id)
	}
	if g.PoolSize() != 1 {
		t.Errorf("expected pool size 1, got %d", g.PoolSize())
	}
}

func TestGenerate_Unique(t *testing.T) {
	g := New()
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		id, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateBatch(t *testing.T) {
	g := New()

	ids, err := g.GenerateBatch(5)
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(ids) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(ids))
	}
	for _, id := range ids {
		if !ValidFormat(id) {
			t.Errorf("malformed id %q", id)
		}
	}
	if g.PoolSize() != 5 {
		t.Errorf("expected pool size 5, got %d", g.PoolSize())
	}
}

func TestValidFormat(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc123", true},
		{"zzzzzz", true},
		{"000000", true},
		{"abc12", false},
		{"abc1234", false},
		{"ABC123", false},
		{"abc-12", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidFormat(tt.id); got != tt.want {
			t.Errorf("ValidFormat(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	g := New()

	if err := g.Register("abc123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if g.PoolSize() != 1 {
		t.Errorf("expected pool size 1, got %d", g.PoolSize())
	}

	// Registering again is harmless.
	if err := g.Register("abc123"); err != nil {
		t.Fatalf("Register twice: %v", err)
	}
	if g.PoolSize() != 1 {
		t.Errorf("expected pool size still 1, got %d", g.PoolSize())
	}
}

func TestRegister_Malformed(t *testing.T) {
	g := New()

	for _, id := range []string{"UPPER1", "short", "toolong1", "has-a!"} {
		if err := g.Register(id); err == nil {
			t.Errorf("expected Register(%q) to fail", id)
		}
	}
	if g.PoolSize() != 0 {
		t.Errorf("malformed ids must not enter the pool, got size %d", g.PoolSize())
	}
}

func TestScanWorkspace(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"agent-abc123", "agent-def456", "agent-BAD", "misc"} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "agent-zzz999"), []byte("a file, not a dir"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	g := New()
	count, err := g.ScanWorkspace(dir)
	if err != nil {
		t.Fatalf("ScanWorkspace: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 registered ids, got %d", count)
	}
	if g.PoolSize() != 2 {
		t.Errorf("expected pool size 2, got %d", g.PoolSize())
	}

	// A second scan finds nothing new.
	count, err = g.ScanWorkspace(dir)
	if err != nil {
		t.Fatalf("ScanWorkspace: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 new ids on rescan, got %d", count)
	}
}

func TestScanWorkspace_Missing(t *testing.T) {
	g := New()

	count, err := g.ScanWorkspace(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("ScanWorkspace: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 ids from missing workspace, got %d", count)
	}
}
