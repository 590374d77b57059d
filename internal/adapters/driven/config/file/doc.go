// Package file provides the TOML-backed configuration for the
// Paperbase CLI. Configuration lives in a single config.toml inside the
// paperbase config directory and is written with restricted
// permissions.
package file
