// Package registry provides per-kind instance caches for domain entities.
//
// Each registry maps a composite identity key to a single shared instance,
// guaranteeing at most one construction per key for the registry's lifetime.
// Registries are owned by a session object rather than package globals so
// tests can tear them down cleanly.
package registry
