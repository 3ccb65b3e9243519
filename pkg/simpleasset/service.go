package simpleasset

import "context"

// Service is the boundary the ingestion core exposes to callers. Transport
// encoding (HTTP, GraphQL, RPC) is out of scope for this package; see the api
// subpackage for a chi-based surface.
type Service interface {
	// IssueUploadCredential resolves a collision-free source key for the
	// desired filename and returns a scoped, time-limited credential for a
	// direct client upload to that exact key.
	IssueUploadCredential(ctx context.Context, req IssueUploadCredentialRequest) (*PresignedCredential, error)

	// IngestBatch materializes each previously-uploaded object into an Asset,
	// strictly sequentially in input order. The result list is index-aligned
	// with the input: a MIME-type rejection is embedded as a per-item result,
	// any other fault aborts the whole call with no assets persisted.
	IngestBatch(ctx context.Context, req IngestBatchRequest) ([]IngestionResult, error)
}
