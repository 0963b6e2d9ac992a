package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(files []FileInfo) []string {
	res := make([]string, 0, len(files))
	for _, f := range files {
		res = append(res, f.Path)
	}
	return res
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"abs.yaml":                "name: abs",
		"loops/count.yml":         "name: count",
		"loops/count.msgpack":     "\x80",
		"README.md":               "# Methods",
		"config.yaml":             "log_level: debug",
		".hidden/secret.yaml":     "name: secret",
		"node_modules/pkg/x.yaml": "name: x",
		"testdata/fixture.yaml":   "name: fixture",
		"deep/nested/dir/m.yaml":  "name: m",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"abs.yaml", "deep/nested/dir/m.yaml", "loops/count.msgpack", "loops/count.yml"}
	if got := paths(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}

	for _, f := range results {
		wantKind := KindDescription
		if filepath.Ext(f.Path) == ".msgpack" {
			wantKind = KindSnapshot
		}
		if f.Kind != wantKind {
			t.Errorf("%s has kind %q, want %q", f.Path, f.Kind, wantKind)
		}
		if !filepath.IsAbs(f.FullPath) {
			t.Errorf("%s: FullPath %q is not absolute", f.Path, f.FullPath)
		}
	}
}

func TestScannerKindsFilter(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a.yaml":    "name: a",
		"a.msgpack": "\x80",
	})

	opts := DefaultOptions()
	opts.Kinds = []Kind{KindSnapshot}
	results, err := New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := paths(results); !reflect.DeepEqual(got, []string{"a.msgpack"}) {
		t.Errorf("Scan() = %v, want only the snapshot", got)
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".vcfgignore":          "# drafts are work in progress\n*.draft.yaml\nbuild/\n/generated/*.yaml\n!generated/keep.yaml\n",
		"main.yaml":            "",
		"main.draft.yaml":      "",
		"build/out.yaml":       "",
		"generated/a.yaml":     "",
		"generated/keep.yaml":  "",
		"sub/generated/b.yaml": "",
		"sub/.vcfgignore":      "local.yaml\n",
		"sub/local.yaml":       "",
		"local.yaml":           "",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"generated/keep.yaml", "local.yaml", "main.yaml", "sub/generated/b.yaml"}
	if got := paths(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"visible.yaml":     "",
		".hidden.yaml":     "",
		".drafts/old.yaml": "",
	})

	opts := DefaultOptions()
	results, _ := New(opts).Scan(tmpDir)
	if got := paths(results); !reflect.DeepEqual(got, []string{"visible.yaml"}) {
		t.Errorf("Scan() = %v, hidden entries should be skipped", got)
	}

	opts.SkipHidden = false
	results, _ = New(opts).Scan(tmpDir)
	if len(results) != 3 {
		t.Errorf("Scan() = %v, want all 3 files with SkipHidden=false", paths(results))
	}
}

func TestScanNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	writeTree(t, filepath.Dir(path), map[string]string{"m.yaml": ""})

	if _, err := Scan(path); err == nil {
		t.Error("Scan() on a file should fail")
	}
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Scan() on a missing directory should fail")
	}
}

func TestExpand(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"methods/b.yaml":    "",
		"methods/a.yaml":    "",
		"methods/a.msgpack": "",
	})
	single := filepath.Join(tmpDir, "elsewhere.yaml")

	got, err := Expand([]string{single, filepath.Join(tmpDir, "methods")}, KindDescription)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	want := []string{
		single,
		filepath.Join(tmpDir, "methods", "a.yaml"),
		filepath.Join(tmpDir, "methods", "b.yaml"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand() = %v, want %v", got, want)
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		expected Kind
	}{
		{"abs.yaml", KindDescription},
		{"ABS.YML", KindDescription},
		{"dir/abs.yaml", KindDescription},
		{"abs.msgpack", KindSnapshot},
		{"abs.mpk", KindSnapshot},
		{"config.yaml", KindUnknown},
		{"abs.json", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if result := DetectKind(tt.name); result != tt.expected {
			t.Errorf("DetectKind(%q) = %q, want %q", tt.name, result, tt.expected)
		}
	}
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		isDir   bool
		match   bool
	}{
		// Unanchored patterns match the name at any depth
		{"*.yaml", "m.yaml", false, true},
		{"*.yaml", "dir/m.yaml", false, true},
		{"*.yaml", "m.yml", false, false},
		{"draft?.yaml", "draft1.yaml", false, true},
		{"draft?.yaml", "draft12.yaml", false, false},
		{"[ab].yaml", "b.yaml", false, true},

		// Directory-only patterns
		{"build/", "build", true, true},
		{"build/", "src/build", true, true},
		{"build/", "build", false, false},

		// Anchored patterns
		{"/build/", "build", true, true},
		{"/build/", "src/build", true, false},
		{"src/*.yaml", "src/m.yaml", false, true},
		{"src/*.yaml", "src/deep/m.yaml", false, false},

		// Double asterisk
		{"**/gen/*.yaml", "gen/m.yaml", false, true},
		{"**/gen/*.yaml", "a/b/gen/m.yaml", false, true},
		{"src/**", "src/a/b.yaml", false, true},
		{"src/**/m.yaml", "src/m.yaml", false, true},

		// Negation patterns still report a match
		{"!*.yaml", "m.yaml", false, true},
	}

	for _, tt := range tests {
		pattern := ParseIgnorePattern(tt.pattern)
		result := pattern.Match(tt.path, tt.isDir)
		if result != tt.match {
			t.Errorf("Pattern %q matching %q (dir=%v): got %v, want %v", tt.pattern, tt.path, tt.isDir, result, tt.match)
		}
	}

	if !ParseIgnorePattern("!keep.yaml").IsNegation() {
		t.Error("IsNegation() = false for a negated pattern")
	}
}
