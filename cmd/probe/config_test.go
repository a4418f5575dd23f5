package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ADDRESS", "TARGETS", "POLL_INTERVAL", "REPORT_INTERVAL", "BATCH", "KEY",
		"RATE_LIMIT", "PROBE_TIMEOUT", "LOG_LEVEL", "CONFIG",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadConfigRequiresTargets(t *testing.T) {
	isolateEnv(t)

	if _, err := loadConfig([]string{"-env-file", ""}); err == nil {
		t.Error("expected error without targets")
	}
}

func TestLoadConfigSources(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "probe.json")
	body := `{"targets":["http://shop.local/","http://shop.local/api/products"],"poll_interval":"5s","rate_limit":4}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPORT_INTERVAL", "30")

	cfg, err := loadConfig([]string{"-c", path, "-env-file", "", "-p", "7"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	want := []string{"http://shop.local/", "http://shop.local/api/products"}
	if got := cfg.TargetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("targets = %v, want %v", got, want)
	}
	if cfg.PollInterval != 7 {
		t.Errorf("poll interval = %d, want flag value 7", cfg.PollInterval)
	}
	if cfg.ReportInterval != 30 {
		t.Errorf("report interval = %d, want env value 30", cfg.ReportInterval)
	}
	if cfg.RateLimit != 4 {
		t.Errorf("rate limit = %d, want JSON value 4", cfg.RateLimit)
	}
	if !cfg.UseBatch {
		t.Error("batch reporting should default to true")
	}
}

func TestTargetList(t *testing.T) {
	cfg := Config{Targets: " http://a/ ,, http://b/x "}
	want := []string{"http://a/", "http://b/x"}
	if got := cfg.TargetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("TargetList() = %v, want %v", got, want)
	}
}
