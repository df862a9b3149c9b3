// Package moex models the Moscow Exchange entity hierarchy on top of the ISS
// API: Exchange at the root, then Engine, Market, Board, SecurityGroup,
// Collection, Security and Issuer.
//
// Entities load lazily. A Session owns one registry per entity kind, so equal
// identity keys always resolve to the same instance and a loaded entity stays
// loaded for the session lifetime. Concurrent first lookups of the same key
// construct once; a single entity instance is otherwise meant to be driven
// from one goroutine at a time.
//
// Property access mirrors the wire: every loaded field is stored under its
// lower-cased name, and Security additionally resolves virtual properties
// through per-market behavior tables (field remaps and computed getters over
// the market-data snapshot).
package moex
