// Package hakoniwa implements a high-performance, archetype-based
// Entity Component System for Go.
//
// Features:
// - Archetype-based columnar storage with max 64 component types.
// - One-word bitmask for fast archetype lookup and query matching.
// - Type-erased byte columns for zero-GC overhead on migrations.
// - Entity IDs recycled with generation counters against stale handles.
// - Per-entity, per-chunk, and parallel iteration; the Query iterators
//   add exclude filters.
// - A single coarse World mutex; parallel passes snapshot the matching
//   archetypes under the lock and fan out after releasing it.
//
// Components must be plain value data. Component structs containing Go
// pointers are not kept alive by the column storage.
package hakoniwa
