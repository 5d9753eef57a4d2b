// Package services implements the core retrieval pipeline: chunking
// and embedding ingestion, change detection, query feature extraction,
// filter building, relevance scoring and the retrieval orchestrator.
//
// Services implement the driving ports and depend only on domain types
// and driven ports. All external calls (embedding API, stores) go
// through driven interfaces so the services stay testable with mocks.
package services
