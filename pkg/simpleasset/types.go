package simpleasset

import (
	"time"

	"github.com/google/uuid"
)

// AssetType is the coarse classification of an asset, derived from its MIME
// type at creation time and never recomputed.
type AssetType string

// Asset type constants (typed).
const (
	AssetTypeImage  AssetType = "IMAGE"
	AssetTypeVideo  AssetType = "VIDEO"
	AssetTypeBinary AssetType = "BINARY"
)

// IsValid returns true if the asset type is one of the defined constants.
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeImage, AssetTypeVideo, AssetTypeBinary:
		return true
	}
	return false
}

// FocalPoint is a point of interest within an image. The ingestion pipeline
// never sets it; it exists so downstream editors can attach one later.
type FocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Asset is a persisted media record representing one uploaded object plus its
// derived preview and metadata.
//
// Source and Preview are storage keys that are unique across all assets at the
// moment of assignment; uniqueness is guaranteed up front by the naming
// resolver, not checked after the fact.
type Asset struct {
	ID           uuid.UUID              `json:"id"`
	ChannelID    uuid.UUID              `json:"channel_id"`
	Type         AssetType              `json:"type"`
	MimeType     string                 `json:"mime_type"`
	Name         string                 `json:"name"`
	FileSize     int64                  `json:"file_size"`
	Source       string                 `json:"source"`
	Preview      string                 `json:"preview"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	FocalPoint   *FocalPoint            `json:"focal_point,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
	Tags         []Tag                  `json:"tags,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Tag is a value object identified by its string value. Tags are created on
// demand when an ingestion request references a value that does not exist yet.
type Tag struct {
	ID    uuid.UUID `json:"id"`
	Value string    `json:"value"`
}

// IngestionRequest describes one previously-uploaded object to materialize
// into an Asset. It is consumed once and never persisted.
type IngestionRequest struct {
	ChannelID    uuid.UUID              `json:"channel_id"`
	Filename     string                 `json:"filename"`
	Tags         []string               `json:"tags,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
}

// IngestionResult is the per-item outcome of a batch ingestion: either a
// materialized asset or a recoverable MIME-type rejection. Exactly one of the
// two fields is set.
type IngestionResult struct {
	Asset *Asset         `json:"asset,omitempty"`
	Err   *MimeTypeError `json:"error,omitempty"`
}

// PresignedCredential is a time-limited, scope-restricted credential
// permitting a direct client upload to the object store. The payload is
// returned to the client verbatim.
type PresignedCredential struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Dimensions holds the probed width and height of an image buffer. Zero
// values mean extraction failed or was inapplicable.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
