// Package domain contains the core business entities for the legal
// retrieval pipeline: documents, passages, snapshots, filters, query
// features and scoring types.
//
// Domain types have no dependencies on adapters or infrastructure.
// They are pure data with small helper methods.
package domain
