package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"crease/internal/markdown"
	"crease/internal/syntax"
)

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Fold  foldConfig  `toml:"fold"`
	Cache cacheConfig `toml:"cache"`
}

type foldConfig struct {
	Flavor          string   `toml:"flavor"`
	Collapse        []string `toml:"collapse"`
	InitialCollapse bool     `toml:"initial_collapse"`
	Jobs            int      `toml:"jobs"`
}

type cacheConfig struct {
	Enabled *bool `toml:"enabled"`
}

func findCreaseToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "crease.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findCreaseToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if cfg.Fold.Flavor != "" {
		if _, err := parseFlavor(cfg.Fold.Flavor); err != nil {
			return projectConfig{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, name := range cfg.Fold.Collapse {
		if _, err := markdown.KindByName(name); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [fold].collapse: %w", path, err)
		}
	}
	return cfg, nil
}

func parseFlavor(name string) (markdown.Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gfm":
		return markdown.FlavorGFM, nil
	case "commonmark":
		return markdown.FlavorCommonMark, nil
	default:
		return "", fmt.Errorf("unknown flavor %q (must be gfm or commonmark)", name)
	}
}

func collapseKinds(names []string) ([]syntax.Kind, error) {
	kinds := make([]syntax.Kind, 0, len(names))
	for _, name := range names {
		kind, err := markdown.KindByName(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// cacheEnabled defaults to on; the manifest can switch it off.
func (cfg projectConfig) cacheEnabled() bool {
	if cfg.Cache.Enabled == nil {
		return true
	}
	return *cfg.Cache.Enabled
}
