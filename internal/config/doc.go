// Package config handles configuration loading, parsing, and validation
// from environment variables (GALLERY_ prefix) and an optional YAML file.
// It selects the item store backend, its key-value or database resource,
// the blob relocation target, and the identity token settings.
package config
