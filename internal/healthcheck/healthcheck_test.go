package healthcheck

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/pkg/cache"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckMissingCache(t *testing.T) {
	c := config.DefaultConfig()
	c.CachePath = filepath.Join(t.TempDir(), "cache.msgpack")

	result, err := Check(c, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Cache.Status != "missing" {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, "missing")
	}
	if !result.OK() {
		t.Error("a missing cache should not fail the check")
	}
}

func TestCheckReadyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.msgpack")

	mc := cache.New(cache.Options{})
	m := cfg.NewMethod("f", 0, nil, nil, nil)
	idx, err := m.AddBlock("entry", nil)
	if err != nil {
		t.Fatal(err)
	}
	m.SetSuccessor(idx, cfg.Return{})
	if err := mc.Put(m); err != nil {
		t.Fatal(err)
	}
	if err := cache.PersistToFile(mc, path); err != nil {
		t.Fatal(err)
	}

	c := config.DefaultConfig()
	c.CachePath = path

	result, err := Check(c, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != "ready" || result.Cache.Entries != 1 {
		t.Errorf("Cache = %+v, want ready with 1 entry", result.Cache)
	}
	if len(result.Cache.Corrupt) != 0 {
		t.Errorf("Cache.Corrupt = %v, want none", result.Cache.Corrupt)
	}
}

func TestCheckUnreadableCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.msgpack")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	c := config.DefaultConfig()
	c.CachePath = path

	result, err := Check(c, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != "error" || result.Cache.Error == "" {
		t.Errorf("Cache = %+v, want an error status", result.Cache)
	}
	if result.OK() {
		t.Error("an unreadable cache should fail the check")
	}
}

func TestCheckInvalidReservedLabels(t *testing.T) {
	c := config.DefaultConfig()
	c.CachePath = filepath.Join(t.TempDir(), "cache.msgpack")
	c.ReservedLabels = []string{"pre", "9bad", cfg.ReturnLabel, "with space"}

	result, err := Check(c, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	want := []string{"9bad", cfg.ReturnLabel, "with space"}
	if !reflect.DeepEqual(result.InvalidLabels, want) {
		t.Errorf("InvalidLabels = %v, want %v", result.InvalidLabels, want)
	}
	if result.OK() {
		t.Error("invalid reserved labels should fail the check")
	}
}

func TestScopeFromPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	globalPath := ""
	if home != "" {
		globalPath = filepath.Join(home, ".vcfg", "config.yaml")
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty path", "", ""},
		{"global path", globalPath, "global"},
		{"project path", "/project/.vcfg/config.yaml", "project"},
		{"relative project path", ".vcfg/config.yaml", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == "" && tt.name == "global path" {
				t.Skip("no home directory")
			}
			result := scopeFromPath(tt.path)
			if result != tt.expected {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}
