// Package store provides the SQLite-backed lowering cache.
//
// The cache holds:
//   - Lowerings: IR keyed by (source_hash, dialect, ir_version)
//   - Runs: batch invocations with per-file outcomes
//
// # Logical Time
//
// All ordering uses seq INTEGER columns stamped by the store's Clock, never
// timestamps. Open resumes the clock after the highest stored seq, so seq
// keeps increasing across processes that open the same file in turn.
//
// # Deterministic Query Results
//
// Every listing includes an ORDER BY on seq with a binary-collated tiebreak.
//
// # Content Addressing
//
// ir_json is the canonical JSON of the IR and ir_hash its domain-separated
// SHA-256 (see ir.IRHash). Verify recomputes the hash from ir_json, so a
// corrupted row is detectable without the source.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
