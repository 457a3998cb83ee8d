package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.WindowBytes != 24*1024 {
		t.Errorf("WindowBytes = %d", cfg.WindowBytes)
	}
	if cfg.Oracle.Model != "gpt-4o-mini" {
		t.Errorf("Oracle.Model = %q", cfg.Oracle.Model)
	}
	if cfg.Oracle.MaxRetries != 3 {
		t.Errorf("Oracle.MaxRetries = %d", cfg.Oracle.MaxRetries)
	}
}

func TestNewManager_DefaultsWithoutFile(t *testing.T) {
	resetViper(t)

	cm, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := cm.Get()
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
	if cfg.Oracle.TimeoutSeconds != 120 {
		t.Errorf("Oracle.TimeoutSeconds = %d", cfg.Oracle.TimeoutSeconds)
	}
}

func TestNewManager_FileOverridesDefaults(t *testing.T) {
	resetViper(t)

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	content := "workers: 8\noracle:\n  model: gpt-4o\n  max_retries: 5\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cm, err := NewManager(cfgFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := cm.Get()
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Oracle.Model = %q", cfg.Oracle.Model)
	}
	if cfg.Oracle.MaxRetries != 5 {
		t.Errorf("Oracle.MaxRetries = %d", cfg.Oracle.MaxRetries)
	}
	// Unset keys keep defaults.
	if cfg.WindowBytes != 24*1024 {
		t.Errorf("WindowBytes = %d, want default", cfg.WindowBytes)
	}
}

func TestNewManager_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("DOCTRINE_WORKERS", "6")
	t.Setenv("DOCTRINE_ORACLE_API_KEY", "sk-from-env")

	cm, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := cm.Get()
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want 6", cfg.Workers)
	}
	if cfg.Oracle.APIKey != "sk-from-env" {
		t.Errorf("Oracle.APIKey = %q, want sk-from-env", cfg.Oracle.APIKey)
	}
}

func TestManager_WatchConfig(t *testing.T) {
	resetViper(t)

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cm, err := NewManager(cfgFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if got := cm.Get().Workers; got != 2 {
		t.Fatalf("initial Workers = %d, want 2", got)
	}

	var callbackCount atomic.Int32
	var lastWorkers atomic.Int32
	cm.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastWorkers.Store(int32(cfg.Workers))
	})
	cm.WatchConfig()

	// Give fsnotify time to set up the watcher.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(cfgFile, []byte("workers: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The watcher delivers asynchronously; poll until it fires.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := lastWorkers.Load(); got != 9 {
		t.Errorf("callback saw Workers = %d, want 9", got)
	}
	if got := cm.Get().Workers; got != 9 {
		t.Errorf("Get().Workers after reload = %d, want 9", got)
	}
}

func TestOracleConfigDurations(t *testing.T) {
	o := OracleConfig{TimeoutSeconds: 30, RetryDelaySeconds: 2}
	if o.Timeout().Seconds() != 30 {
		t.Errorf("Timeout() = %v", o.Timeout())
	}
	if o.RetryDelay().Seconds() != 2 {
		t.Errorf("RetryDelay() = %v", o.RetryDelay())
	}
}
