// Package simpleasset provides a reusable library for ingesting
// directly-uploaded objects into a media asset catalog.
//
// Clients upload binary files straight to an object store using a
// time-limited presigned-post credential, then register the uploaded objects
// as assets. The Service interface orchestrates the pipeline: collision-free
// key resolution, MIME classification, preview generation, dimension probing,
// and transactional persistence with tag and channel assignment.
// Implementations of the collaborators (blob stores, catalogs, credential
// issuers, preview generators, naming strategies) live in subpackages.
//
// # Ordering
//
// Batch ingestion is strictly sequential in input order. Asset identifiers
// are assigned by the catalog at save time, and downstream consumers snapshot
// results by position, so identifier assignment must stay order-stable across
// repeated runs with the same input. Per-item parallelism is deliberately not
// offered.
package simpleasset
