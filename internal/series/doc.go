// Package series stores per-date records accumulated from incremental
// fetches: exchange turnovers, trade counts and historical candles.
//
// Every calendar day is in one of three states: unknown (never fetched),
// known-empty (fetched, no trading that day) or holding a value. Known-empty
// markers let repeat queries over a fetched range be answered without
// another network call, and are never allowed to overwrite real values.
package series
