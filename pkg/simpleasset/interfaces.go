package simpleasset

import (
	"context"

	"github.com/google/uuid"
)

// BlobStore is the boundary contract to the object store holding source and
// preview bytes. FileExists must be strongly consistent with prior writes from
// the same process, otherwise the naming resolver's loop cannot terminate
// correctly.
type BlobStore interface {
	// ReadFileToBuffer reads the full object under key into memory
	ReadFileToBuffer(ctx context.Context, key string) ([]byte, error)

	// WriteFileFromBuffer writes data under key and returns the stored key
	WriteFileFromBuffer(ctx context.Context, key string, data []byte) (string, error)

	// FileExists reports whether an object exists under key
	FileExists(ctx context.Context, key string) (bool, error)
}

// CredentialIssuer issues scoped, time-limited direct-upload credentials for
// an exact storage key.
type CredentialIssuer interface {
	CreatePresignedPost(ctx context.Context, key string) (*PresignedCredential, error)
}

// PreviewGenerator produces a preview-sized image buffer from source bytes.
// A failure here is fatal to the ingestion of that item.
type PreviewGenerator interface {
	GeneratePreviewImage(ctx context.Context, mimeType string, data []byte) ([]byte, error)
}

// CatalogWriter persists assets and resolves tag values to references. The
// catalog assigns the asset identity on first save.
type CatalogWriter interface {
	// SaveAsset persists the asset, assigning ID on first save, and returns
	// the persisted record
	SaveAsset(ctx context.Context, asset *Asset) (*Asset, error)

	// TagsForValues resolves tag values to Tag references, creating new tags
	// for unseen values
	TagsForValues(ctx context.Context, values []string) ([]Tag, error)

	// UpdateCustomFields attaches caller-supplied custom fields to an asset
	UpdateCustomFields(ctx context.Context, assetID uuid.UUID, fields map[string]interface{}) error
}

// Catalog is a CatalogWriter that can open transactional scopes. A batch
// ingestion runs inside one transaction so a mid-batch fault leaves no
// partially persisted assets behind.
type Catalog interface {
	CatalogWriter

	// BeginTx opens a transactional catalog scope
	BeginTx(ctx context.Context) (CatalogTx, error)
}

// CatalogTx is a transactional catalog scope. Rollback after Commit is a
// no-op, so `defer tx.Rollback(ctx)` is always safe.
type CatalogTx interface {
	CatalogWriter

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// EventSink receives domain events. Publishing is fire-and-forget from the
// service's point of view: sink errors are logged and never fail the
// operation.
type EventSink interface {
	// AssetCreated is fired after an asset is persisted and fully enriched,
	// carrying the enriched asset and the original request payload
	AssetCreated(ctx context.Context, asset *Asset, payload IngestionRequest) error
}
