package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

func TestGetDefaultBootstrapConfig(t *testing.T) {
	cfg := GetDefaultBootstrapConfig()

	if cfg.Version != "1.0.0" {
		t.Errorf("bootstrap:loader_test - expected version 1.0.0, got %s", cfg.Version)
	}
	if cfg.DefaultDialect != "default" {
		t.Errorf("bootstrap:loader_test - expected default dialect, got %s", cfg.DefaultDialect)
	}
	for _, name := range []string{"default", "extjsform", "extjsstore", "extjsdirect"} {
		if _, ok := cfg.Dialects[name]; !ok {
			t.Errorf("bootstrap:loader_test - missing dialect %s", name)
		}
	}
	if cfg.Aliases["direct"] != "extjsdirect" {
		t.Errorf("bootstrap:loader_test - direct alias = %q", cfg.Aliases["direct"])
	}
}

func TestLoadBootstrapConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`{"name":"custom","version":"2.0.0","defaultDialect":"extjsdirect","dialects":{"extjsdirect":{"version":"2.1.0"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBootstrapConfig(filepath.Join(dir, "missing.json"), bad, good)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - unexpected error: %v", err)
	}
	if cfg.Name != "custom" || cfg.Dialects["extjsdirect"].Version != "2.1.0" {
		t.Errorf("bootstrap:loader_test - loaded %+v", cfg)
	}
}

func TestLoadBootstrapConfig_EnvPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "env.json")
	if err := os.WriteFile(p, []byte(`{"name":"from-env","version":"1.0.0","dialects":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOTSTRAP_FILE", p)

	cfg, err := LoadBootstrapConfig()
	if err != nil {
		t.Fatalf("bootstrap:loader_test - unexpected error: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("bootstrap:loader_test - Name = %q, want from-env", cfg.Name)
	}
}

func TestMergeBootstrapConfigs(t *testing.T) {
	base := GetDefaultBootstrapConfig()
	override := &BootstrapConfig{
		DefaultDialect: "extjsdirect",
		Dialects:       map[string]DialectSpec{"extjsdirect": {Version: "3.0.0"}},
		Aliases:        map[string]string{"rpc": "extjsdirect"},
	}

	merged := MergeBootstrapConfigs(base, override)

	if merged.DefaultDialect != "extjsdirect" {
		t.Errorf("bootstrap:loader_test - DefaultDialect = %q", merged.DefaultDialect)
	}
	if merged.Dialects["extjsdirect"].Version != "3.0.0" {
		t.Error("bootstrap:loader_test - expected override dialect version")
	}
	if _, ok := merged.Dialects["default"]; !ok {
		t.Error("bootstrap:loader_test - expected base dialect to remain")
	}
	if merged.Aliases["rpc"] != "extjsdirect" || merged.Aliases["form"] != "extjsform" {
		t.Errorf("bootstrap:loader_test - aliases = %v", merged.Aliases)
	}
	if base.Dialects["extjsdirect"].Version != "1.0.0" {
		t.Error("bootstrap:loader_test - merge mutated the base config")
	}
}

func TestApply(t *testing.T) {
	reg, err := wrapper.NewDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	cfg := GetDefaultBootstrapConfig()
	cfg.Dialects[wrapper.DialectExtJSDirect] = DialectSpec{Version: "2.3.0"}

	if err := Apply(reg, cfg); err != nil {
		t.Fatalf("bootstrap:loader_test - Apply failed: %v", err)
	}

	e, err := reg.Select("extjsdirect@^2")
	if err != nil {
		t.Fatalf("bootstrap:loader_test - pinned version not selectable: %v", err)
	}
	if e.Version != "2.3.0" || e.Description == "" {
		t.Errorf("bootstrap:loader_test - entry = %+v", e)
	}

	alias, err := reg.Select("direct@2")
	if err != nil {
		t.Fatalf("bootstrap:loader_test - alias not registered: %v", err)
	}
	rc := &wrapper.RequestContext{}
	if _, ok := alias.Constructor(rc).(*wrapper.DirectWrapper); !ok {
		t.Error("bootstrap:loader_test - alias does not build a Direct wrapper")
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *BootstrapConfig
	}{
		{"unknown dialect", &BootstrapConfig{Dialects: map[string]DialectSpec{"soap": {}}}},
		{"alias to unknown", &BootstrapConfig{Aliases: map[string]string{"x": "soap"}}},
		{"alias shadows dialect", &BootstrapConfig{Aliases: map[string]string{"default": "extjsform"}}},
		{"unknown default", &BootstrapConfig{DefaultDialect: "soap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := wrapper.NewDefaultRegistry()
			err := Apply(reg, tt.cfg)
			if err == nil {
				t.Fatal("bootstrap:loader_test - expected error")
			}
			if !errors.Is(err, wrapper.ErrUnknownDialect) && !errors.Is(err, wrapper.ErrDuplicateName) {
				t.Errorf("bootstrap:loader_test - unexpected error kind: %v", err)
			}
		})
	}
}
