package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindCreaseTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := filepath.Join(root, "crease.toml")
	if err := os.WriteFile(manifest, []byte("[fold]\nflavor = \"gfm\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	found, ok, err := findCreaseToml(nested)
	if err != nil {
		t.Fatalf("findCreaseToml: %v", err)
	}
	if !ok || found != manifest {
		t.Fatalf("expected %s, got %s (ok=%v)", manifest, found, ok)
	}
}

func TestLoadProjectConfigRejectsUnknownFlavor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crease.toml")
	if err := os.WriteFile(path, []byte("[fold]\nflavor = \"asciidoc\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadProjectConfig(path); err == nil {
		t.Fatalf("unknown flavor must be rejected")
	}
}

func TestLoadProjectConfigRejectsUnknownCollapseKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crease.toml")
	if err := os.WriteFile(path, []byte("[fold]\ncollapse = [\"banner\"]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadProjectConfig(path); err == nil {
		t.Fatalf("unknown collapse kind must be rejected")
	}
}

func TestCacheEnabledDefaultsOn(t *testing.T) {
	var cfg projectConfig
	if !cfg.cacheEnabled() {
		t.Fatalf("cache must default to enabled")
	}
	off := false
	cfg.Cache.Enabled = &off
	if cfg.cacheEnabled() {
		t.Fatalf("explicit false must win")
	}
}

func TestParseFlavor(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "gfm", false},
		{"gfm", "gfm", false},
		{"CommonMark", "commonmark", false},
		{"asciidoc", "", true},
	}
	for _, tc := range cases {
		got, err := parseFlavor(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseFlavor(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || string(got) != tc.want {
			t.Fatalf("parseFlavor(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestExpandPathsMixesFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "docs")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	inner := filepath.Join(sub, "guide.md")
	loose := filepath.Join(dir, "readme.md")
	for _, p := range []string{inner, loose} {
		if err := os.WriteFile(p, []byte("# x\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	paths, err := expandPaths([]string{sub, loose, loose})
	if err != nil {
		t.Fatalf("expandPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 unique paths, got %v", paths)
	}
}
