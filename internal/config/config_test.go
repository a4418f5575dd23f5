package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "10", want: 10},
		{in: "10s", want: 10},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-5s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"address":"0.0.0.0:9090","window_size":50}`), 0o600); err != nil {
		t.Fatal(err)
	}

	var cfg struct {
		Address    string `json:"address"`
		WindowSize int    `json:"window_size"`
	}
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Address != "0.0.0.0:9090" || cfg.WindowSize != 50 {
		t.Errorf("cfg = %+v", cfg)
	}

	if err := LoadConfigFile(filepath.Join(dir, "missing.json"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfigFile(bad, &cfg); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STOREFRONT_TEST_FROM_FILE=file\nSTOREFRONT_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOREFRONT_TEST_PRESET", "env")
	t.Setenv("STOREFRONT_TEST_FROM_FILE", "")
	os.Unsetenv("STOREFRONT_TEST_FROM_FILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("STOREFRONT_TEST_FROM_FILE"); got != "file" {
		t.Errorf("STOREFRONT_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("STOREFRONT_TEST_PRESET"); got != "env" {
		t.Errorf("STOREFRONT_TEST_PRESET = %q, want env", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing env file: %v", err)
	}
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("empty path: %v", err)
	}
}

func TestApplyIfDefault(t *testing.T) {
	addr := "localhost:8080"
	ApplyStringIfDefault(&addr, "localhost:8080", "0.0.0.0:80")
	if addr != "0.0.0.0:80" {
		t.Errorf("addr = %q", addr)
	}
	ApplyStringIfDefault(&addr, "localhost:8080", "ignored:1")
	if addr != "0.0.0.0:80" {
		t.Errorf("non-default value overwritten: %q", addr)
	}

	size := 1000
	ApplyIntIfDefault(&size, 1000, 0)
	if size != 1000 {
		t.Errorf("zero JSON value applied: %d", size)
	}
	ApplyIntIfDefault(&size, 1000, 200)
	if size != 200 {
		t.Errorf("size = %d, want 200", size)
	}

	interval := 2
	ApplyDurationIfDefault(&interval, 2, "5s")
	if interval != 5 {
		t.Errorf("interval = %d, want 5", interval)
	}

	var batch bool
	ApplyBoolIfDefault(&batch, true)
	if !batch {
		t.Error("bool not applied")
	}
}

func TestExplicitFlags(t *testing.T) {
	var addr string
	var size int
	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	fset.StringVar(&addr, "a", "localhost:8080", "")
	fset.IntVar(&size, "w", 1000, "")
	if err := fset.Parse([]string{"-a", ":9000"}); err != nil {
		t.Fatal(err)
	}

	explicit := ExplicitFlags(fset)
	if len(explicit) != 1 || explicit["a"] != ":9000" {
		t.Fatalf("explicit = %v", explicit)
	}

	addr, size = "from-env", 42
	if err := ReapplyFlags(fset, explicit); err != nil {
		t.Fatal(err)
	}
	if addr != ":9000" {
		t.Errorf("addr = %q, want :9000", addr)
	}
	if size != 42 {
		t.Errorf("size = %d, unset flag must not be reapplied", size)
	}
}
