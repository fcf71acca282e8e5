// Package bootstrap loads the dialect bootstrap configuration and applies it
// to a wrapper registry.
package bootstrap

// DialectSpec pins the advertised version and description of a registered
// dialect.
type DialectSpec struct {
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// BootstrapConfig is the root bootstrap configuration.
type BootstrapConfig struct {
	Name           string                 `json:"name"`
	Version        string                 `json:"version"`
	Description    string                 `json:"description,omitempty"`
	DefaultDialect string                 `json:"defaultDialect,omitempty"`
	Dialects       map[string]DialectSpec `json:"dialects"`
	// Aliases maps an extra dialect name onto a registered one, e.g.
	// "direct" -> "extjsdirect".
	Aliases map[string]string `json:"aliases,omitempty"`
}
