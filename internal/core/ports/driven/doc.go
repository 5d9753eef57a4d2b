// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - PassageStore: document and passage persistence
//   - SnapshotStore: extraction snapshot persistence for change detection
//   - CorpusStats: corpus-wide statistics for IDF/BM25
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - EmbeddingService: generates vector embeddings. Without it,
//     retrieval runs keyword-only.
//   - VectorIndex: stores and searches vectors. Only enabled when
//     EmbeddingService is configured.
//   - ConfigStore: application configuration.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
