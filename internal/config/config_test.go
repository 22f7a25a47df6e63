// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.RequestTimeoutSecs != 60 {
		t.Errorf("RequestTimeoutSecs = %d", cfg.RequestTimeoutSecs)
	}
	if cfg.MaxPersonalityLen != 1000 {
		t.Errorf("MaxPersonalityLen = %d", cfg.MaxPersonalityLen)
	}
	if cfg.RequestTimeout() != 60*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_DATA_DIR", "/tmp/parley-test")
	t.Setenv("PARLEY_MODEL", "gpt-4o-mini")
	t.Setenv("PARLEY_TIMEOUT_SECS", "15")
	t.Setenv("PARLEY_BASE_URL", "http://localhost:8080/v1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.DataDir != "/tmp/parley-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.RequestTimeoutSecs != 15 {
		t.Errorf("RequestTimeoutSecs = %d", cfg.RequestTimeoutSecs)
	}
	if cfg.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestEnvOverrideBadTimeoutIgnored(t *testing.T) {
	t.Setenv("PARLEY_TIMEOUT_SECS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.RequestTimeoutSecs != 60 {
		t.Errorf("RequestTimeoutSecs = %d, want default 60", cfg.RequestTimeoutSecs)
	}
}

func TestFillDefaultsOnPartialConfig(t *testing.T) {
	cfg := &Config{DataDir: "/somewhere"}
	cfg.fillDefaults()

	if cfg.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.RequestTimeoutSecs != 60 {
		t.Errorf("RequestTimeoutSecs = %d", cfg.RequestTimeoutSecs)
	}
	if cfg.DataDir != "/somewhere" {
		t.Errorf("DataDir = %q, explicit value overwritten", cfg.DataDir)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.DefaultModel = ""
	cfg.RequestTimeoutSecs = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if len(errs) != 2 {
		t.Errorf("got %d validation errors, want 2", len(errs))
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DataDir = "/data/parley"
	cfg.DefaultModel = "gpt-4o-mini"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	var loaded Config
	if _, err := toml.DecodeFile(path, &loaded); err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if loaded.DataDir != "/data/parley" || loaded.DefaultModel != "gpt-4o-mini" {
		t.Errorf("reloaded config = %+v", loaded)
	}
}

func TestResolveDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/explicit"
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/explicit" {
		t.Errorf("ResolveDataDir = %q", dir)
	}

	cfg.DataDir = ""
	dir, err = cfg.ResolveDataDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != ".parley" {
		t.Errorf("fallback dir = %q, want ~/.parley", dir)
	}
}
