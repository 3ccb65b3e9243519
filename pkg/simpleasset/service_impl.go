package simpleasset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-asset/pkg/simpleasset/naming"
)

// service implements the Service interface
type service struct {
	blobStore        BlobStore
	catalog          Catalog
	previewer        PreviewGenerator
	issuer           CredentialIssuer
	naming           naming.Strategy
	eventSink        EventSink
	permitted        PermittedTypes
	validateMimeType bool
	logger           *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the blob store holding source and preview objects
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithCatalog sets the catalog that persists assets and tags
func WithCatalog(catalog Catalog) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithPreviewGenerator sets the preview strategy
func WithPreviewGenerator(previewer PreviewGenerator) Option {
	return func(s *service) {
		s.previewer = previewer
	}
}

// WithCredentialIssuer sets the presigned-post credential issuer. Without one,
// IssueUploadCredential returns ErrNoCredentialIssuer.
func WithCredentialIssuer(issuer CredentialIssuer) Option {
	return func(s *service) {
		s.issuer = issuer
	}
}

// WithNamingStrategy overrides the default conflict-naming strategy
func WithNamingStrategy(strategy naming.Strategy) Option {
	return func(s *service) {
		s.naming = strategy
	}
}

// WithEventSink sets the sink receiving asset lifecycle events
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithPermittedTypes enables the MIME-type guard: ingestion requests whose
// derived MIME type is outside the allow-list are rejected with a
// MimeTypeError instead of ingesting as BINARY.
func WithPermittedTypes(permitted PermittedTypes) Option {
	return func(s *service) {
		s.permitted = permitted
		s.validateMimeType = true
	}
}

// WithLogger sets the logger used for degraded and fatal-path reporting
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		naming:    naming.NewDefaultStrategy(),
		eventSink: NewNoopEventSink(),
	}

	for _, option := range options {
		option(s)
	}

	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if s.previewer == nil {
		return nil, fmt.Errorf("preview generator is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// IssueUploadCredential resolves a collision-free source key and returns a
// presigned-post credential scoped to that exact key.
func (s *service) IssueUploadCredential(ctx context.Context, req IssueUploadCredentialRequest) (*PresignedCredential, error) {
	if s.issuer == nil {
		return nil, ErrNoCredentialIssuer
	}

	desired := naming.SanitizeFilename(req.Filename)
	key, err := ResolveUniqueName(ctx, s.blobStore, s.naming.GenerateSourceFileName, desired)
	if err != nil {
		return nil, err
	}

	cred, err := s.issuer.CreatePresignedPost(ctx, key)
	if err != nil {
		return nil, &AssetError{Filename: req.Filename, Op: "presign", Err: err}
	}
	return cred, nil
}

// IngestBatch materializes every input strictly sequentially, in input order.
// Identifier assignment by the catalog must stay deterministic and
// order-stable across repeated runs with the same input, so per-item work is
// never parallelized.
//
// The whole batch runs inside one catalog transaction: a fatal fault on any
// item rolls back all previously materialized items. Only MIME-type
// rejections are recoverable per-item outcomes. Preview objects already
// written to the blob store are not rolled back.
func (s *service) IngestBatch(ctx context.Context, req IngestBatchRequest) ([]IngestionResult, error) {
	tx, err := s.catalog.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := make([]IngestionResult, 0, len(req.Inputs))

	for _, input := range req.Inputs {
		asset, err := s.createAsset(ctx, tx, input)
		if err != nil {
			var mimeErr *MimeTypeError
			if errors.As(err, &mimeErr) {
				results = append(results, IngestionResult{Err: mimeErr})
				continue
			}
			return nil, err
		}
		results = append(results, IngestionResult{Asset: asset})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit catalog transaction: %w", err)
	}

	// Events fire only after enrichment and commit, so consumers always see
	// the enriched, durable state. Publishing is fire-and-forget.
	for i, input := range req.Inputs {
		asset := results[i].Asset
		if asset == nil {
			continue
		}
		if err := s.eventSink.AssetCreated(ctx, asset, input); err != nil {
			s.logger.Error("asset created event sink failed", "asset_id", asset.ID, "error", err)
		}
	}

	return results, nil
}

// createAsset materializes one asset and applies post-persistence enrichment:
// custom-field attachment and tag value-to-reference resolution with a
// re-save.
func (s *service) createAsset(ctx context.Context, cat CatalogWriter, input IngestionRequest) (*Asset, error) {
	asset, err := s.materialize(ctx, cat, input.ChannelID, input.Filename, input.CustomFields)
	if err != nil {
		return nil, err
	}

	if input.CustomFields != nil {
		if err := cat.UpdateCustomFields(ctx, asset.ID, input.CustomFields); err != nil {
			return nil, &AssetError{Filename: input.Filename, Op: "custom-fields", Err: err}
		}
	}

	if len(input.Tags) > 0 {
		tags, err := cat.TagsForValues(ctx, input.Tags)
		if err != nil {
			return nil, &AssetError{Filename: input.Filename, Op: "resolve-tags", Err: err}
		}
		asset.Tags = tags
		asset, err = cat.SaveAsset(ctx, asset)
		if err != nil {
			return nil, &AssetError{Filename: input.Filename, Op: "save-tags", Err: err}
		}
	}

	return asset, nil
}

// materialize turns a previously-uploaded object into a persisted Asset: it
// derives the MIME type from the filename, generates and stores a preview,
// classifies the asset, probes dimensions and saves the record. Identity is
// assigned by the catalog on first save.
func (s *service) materialize(ctx context.Context, cat CatalogWriter, channelID uuid.UUID, filename string, customFields map[string]interface{}) (*Asset, error) {
	sourceFileName := filename
	mimeType := MimeTypeForFilename(sourceFileName)

	if s.validateMimeType && !s.permitted.IsPermitted(mimeType) {
		return nil, NewMimeTypeError(filename, mimeType)
	}

	previewFileName, err := ResolveUniqueName(ctx, s.blobStore, s.naming.GeneratePreviewFileName, sourceFileName)
	if err != nil {
		return nil, err
	}

	source, err := s.blobStore.ReadFileToBuffer(ctx, sourceFileName)
	if err != nil {
		return nil, &StorageError{Key: sourceFileName, Op: "read", Err: err}
	}

	preview, err := s.previewer.GeneratePreviewImage(ctx, mimeType, source)
	if err != nil {
		s.logger.Error("could not create asset preview image",
			"filename", sourceFileName, "mime_type", mimeType, "error", err)
		return nil, &AssetError{Filename: filename, Op: "preview", Err: err}
	}

	previewKey, err := s.blobStore.WriteFileFromBuffer(ctx, previewFileName, preview)
	if err != nil {
		return nil, &StorageError{Key: previewFileName, Op: "write", Err: err}
	}

	assetType := AssetTypeForMimeType(mimeType)

	probe := preview
	if assetType == AssetTypeImage {
		probe = source
	}
	dims := s.dimensions(probe)

	now := time.Now().UTC()
	asset := &Asset{
		ChannelID:    channelID,
		Type:         assetType,
		MimeType:     mimeType,
		Name:         path.Base(sourceFileName),
		FileSize:     int64(len(source)),
		Source:       sourceFileName,
		Preview:      previewKey,
		Width:        dims.Width,
		Height:       dims.Height,
		FocalPoint:   nil,
		CustomFields: customFields,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := cat.SaveAsset(ctx, asset)
	if err != nil {
		return nil, &AssetError{Filename: filename, Op: "save", Err: err}
	}
	return saved, nil
}

// dimensions probes width/height and degrades failures to zero values.
func (s *service) dimensions(data []byte) Dimensions {
	dims, err := ProbeDimensions(data)
	if err != nil {
		s.logger.Error("could not determine asset dimensions", "error", err)
		return Dimensions{}
	}
	return dims
}
