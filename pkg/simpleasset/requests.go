package simpleasset

// Request DTOs

// IssueUploadCredentialRequest contains parameters for issuing a direct-upload
// credential. One credential is issued per file the client intends to upload.
type IssueUploadCredentialRequest struct {
	Filename string
}

// IngestBatchRequest contains an ordered list of ingestion requests, one per
// previously-uploaded object. Results mirror the input order exactly.
type IngestBatchRequest struct {
	Inputs []IngestionRequest
}
