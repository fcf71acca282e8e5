package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const logPrefix = "bootstrap:loader"

// LoadBootstrapConfig loads bootstrap config from file paths or environment.
// It tries paths in order: first any paths passed in, then BOOTSTRAP_FILE env, then defaults.
// Unreadable or unparsable files are skipped; the embedded default is the last resort.
func LoadBootstrapConfig(paths ...string) (*BootstrapConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/bootstrap.json", "bootstrap.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg BootstrapConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap config from %s", logPrefix, p))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap config", logPrefix))
	return GetDefaultBootstrapConfig(), nil
}

// GetDefaultBootstrapConfig returns the embedded fallback bootstrap configuration.
func GetDefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Name:           "dialect-gateway-bootstrap",
		Version:        "1.0.0",
		Description:    "Built-in wire dialects",
		DefaultDialect: wrapper.DialectDefault,
		Dialects: map[string]DialectSpec{
			wrapper.DialectDefault:     {Version: "1.0.0", Description: "Plain {success, result | error} envelope"},
			wrapper.DialectExtJSForm:   {Version: "1.0.0", Description: "ExtJS form submit and load"},
			wrapper.DialectExtJSStore:  {Version: "1.0.0", Description: "ExtJS data store reader"},
			wrapper.DialectExtJSDirect: {Version: "1.0.0", Description: "ExtJS Direct remoting with batching"},
		},
		Aliases: map[string]string{
			"json":   wrapper.DialectDefault,
			"direct": wrapper.DialectExtJSDirect,
			"form":   wrapper.DialectExtJSForm,
			"store":  wrapper.DialectExtJSStore,
		},
	}
}

// MergeBootstrapConfigs merges an override config into a base config.
func MergeBootstrapConfigs(base, override *BootstrapConfig) *BootstrapConfig {
	merged := *base

	merged.Dialects = make(map[string]DialectSpec, len(base.Dialects)+len(override.Dialects))
	for name, d := range base.Dialects {
		merged.Dialects[name] = d
	}
	for name, d := range override.Dialects {
		merged.Dialects[name] = d
	}

	merged.Aliases = make(map[string]string, len(base.Aliases)+len(override.Aliases))
	for alias, target := range base.Aliases {
		merged.Aliases[alias] = target
	}
	for alias, target := range override.Aliases {
		merged.Aliases[alias] = target
	}

	if override.DefaultDialect != "" {
		merged.DefaultDialect = override.DefaultDialect
	}
	return &merged
}

// Apply pins the versions and descriptions of the configured dialects and
// registers every alias against its target's constructor. Every dialect the
// config names must already be registered.
func Apply(reg *wrapper.Registry, cfg *BootstrapConfig) error {
	for _, name := range sortedKeys(cfg.Dialects) {
		spec := cfg.Dialects[name]
		entry, err := reg.Select(name)
		if err != nil {
			return fmt.Errorf("%s - bootstrap dialect %s: %w", logPrefix, name, err)
		}
		version, desc := spec.Version, spec.Description
		if version == "" {
			version = entry.Version
		}
		if desc == "" {
			desc = entry.Description
		}
		err = reg.Register(name, entry.Constructor,
			wrapper.WithOverride(), wrapper.WithVersion(version), wrapper.WithDescription(desc))
		if err != nil {
			return fmt.Errorf("%s - bootstrap dialect %s: %w", logPrefix, name, err)
		}
	}

	for _, alias := range sortedKeys(cfg.Aliases) {
		target := cfg.Aliases[alias]
		entry, err := reg.Select(target)
		if err != nil {
			return fmt.Errorf("%s - alias %s: %w", logPrefix, alias, err)
		}
		err = reg.Register(alias, entry.Constructor,
			wrapper.WithVersion(entry.Version),
			wrapper.WithDescription(fmt.Sprintf("alias of %s", entry.Name)))
		if err != nil {
			return fmt.Errorf("%s - alias %s: %w", logPrefix, alias, err)
		}
	}

	if cfg.DefaultDialect != "" {
		if _, err := reg.Select(cfg.DefaultDialect); err != nil {
			return fmt.Errorf("%s - default dialect: %w", logPrefix, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Applied bootstrap %s@%s: %d dialects, %d aliases",
		logPrefix, cfg.Name, cfg.Version, len(cfg.Dialects), len(cfg.Aliases)))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
