// Package repositories implements SQLite persistence for projects and everything they own.
//
// Key Implementations:
//   - [ProjectRepository] : Draft persistence with soft deletes and sequence ordering
//   - [SceneRepository] : Per-project scene lists, replaced wholesale on save
//   - [RenderJobRepository] : Render submissions and their last known status
//
// Sequence numbers provide stable, human-readable ordering (e.g., project #7) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
