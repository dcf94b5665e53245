// Package core defines the shared language of the crickflat system.
//
// This package contains:
//   - Row types produced by the flatteners (MatchRecord, DeliveryRecord)
//   - The fixed table schemas handed to sink adapters (MatchesTable, DeliveriesTable)
//   - Adapter configuration and metadata types
//   - Run history entities (IngestRun, DocumentFailure)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
