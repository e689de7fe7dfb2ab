// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	def := Default()
	if cfg.API.URL != def.API.URL || cfg.API.ChatPath != "/api/chat" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.UI.Theme != "auto" || !cfg.UI.ShowThoughts {
		t.Errorf("UI = %+v", cfg.UI)
	}
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[api]
url = "https://chat.example.test/"

[ui]
theme = "Dark"
show_thoughts = false
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.URL != "https://chat.example.test" {
		t.Errorf("API.URL = %q, want trailing slash trimmed", cfg.API.URL)
	}
	if cfg.API.ChatPath != "/api/chat" {
		t.Errorf("API.ChatPath = %q, want default kept", cfg.API.ChatPath)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q, want lowercased", cfg.UI.Theme)
	}
	if cfg.UI.ShowThoughts {
		t.Error("UI.ShowThoughts should be false from file")
	}
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[api]\nurll = \"http://x\"\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "api.urll") {
		t.Errorf("LoadFromPath() error = %v, want unknown key api.urll", err)
	}
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[api\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath() should fail on malformed TOML")
	}
}

func TestLoadFromPath_ExpandsHomeInLogFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[logging]\nfile = \"~/logs/x.log\"\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Logging.File != filepath.Join(home, "logs", "x.log") {
		t.Errorf("Logging.File = %q", cfg.Logging.File)
	}
}

// =============================================================================
// ENVIRONMENT TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("JELLYCAT_API_URL", "http://10.0.0.2:9000")
	t.Setenv("JELLYCAT_CHAT_PATH", "/v2/chat")
	t.Setenv("JELLYCAT_THEME", "light")
	t.Setenv("JELLYCAT_LOG_LEVEL", "debug")
	t.Setenv("JELLYCAT_LOG_FILE", "/tmp/jc.log")
	t.Setenv("JELLYCAT_SERVE_ADDR", ":9999")

	cfg := Default()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}

	checks := map[string][2]string{
		"api.url":       {cfg.API.URL, "http://10.0.0.2:9000"},
		"api.chat_path": {cfg.API.ChatPath, "/v2/chat"},
		"ui.theme":      {cfg.UI.Theme, "light"},
		"logging.level": {cfg.Logging.Level, "debug"},
		"logging.file":  {cfg.Logging.File, "/tmp/jc.log"},
		"server.addr":   {cfg.Server.Addr, ":9999"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
}

func TestApplyEnvOverrides_UnsetKeepsFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q, want file value", cfg.UI.Theme)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")
	t.Setenv("JELLYCAT_THEME", "light")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q, want env value", cfg.UI.Theme)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate_Default(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	cfg := Default()
	cfg.API.URL = "ftp://nowhere"
	cfg.API.ChatPath = "api/chat"
	cfg.UI.Theme = "neon"
	cfg.Logging.Level = "loud"
	cfg.Server.Addr = "nonsense"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *multierror.Error", err)
	}
	if len(merr.Errors) != 5 {
		t.Errorf("got %d errors, want 5: %v", len(merr.Errors), err)
	}

	var verr ValidationError
	if !errors.As(merr.Errors[0], &verr) || verr.Field != "api.url" {
		t.Errorf("first error = %v, want api.url", merr.Errors[0])
	}
	for _, field := range []string{"api.chat_path", "ui.theme", "logging.level", "server.addr"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveTOML_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.UI.Theme = "light"
	cfg.Server.FramesPerSecond = 5

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("permissions = %o, want 600", info.Mode().Perm())
		}
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.UI.Theme != "light" || loaded.Server.FramesPerSecond != 5 {
		t.Errorf("round trip lost values: %+v %+v", loaded.UI, loaded.Server)
	}
}

func TestString_IsTOML(t *testing.T) {
	s := Default().String()
	if !strings.Contains(s, "[api]") || !strings.Contains(s, "chat_path = \"/api/chat\"") {
		t.Errorf("String() = %q", s)
	}
}

// =============================================================================
// WATCH TESTS
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, path, func(cfg *Config, err error) {
			if err == nil {
				changes <- cfg
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	select {
	case cfg := <-changes:
		if cfg.UI.Theme != "light" {
			t.Errorf("reloaded theme = %q, want light", cfg.UI.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := make(chan struct{}, 1)
	go func() {
		_ = Watch(ctx, path, func(*Config, error) { called <- struct{}{} })
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1\n")

	select {
	case <-called:
		t.Error("onChange called for an unrelated file")
	case <-time.After(2*DefaultWatchDebounce + 200*time.Millisecond):
	}
}

// =============================================================================
// GLOBAL TESTS
// =============================================================================

// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.UI.Theme = "dark"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_ConcurrentReload(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestGlobal_LoadsFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	dir := filepath.Join(home, ".jellycat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "config.toml"), "[server]\naddr = \"127.0.0.1:7070\"\n")

	if got := Global().Server.Addr; got != "127.0.0.1:7070" {
		t.Errorf("Global().Server.Addr = %q", got)
	}
}
