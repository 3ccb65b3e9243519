package simpleasset

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrAssetNotFound indicates an asset was not found
	ErrAssetNotFound = errors.New("asset not found")

	// ErrObjectNotFound indicates a storage object was not found
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoCredentialIssuer indicates no credential issuer is configured
	ErrNoCredentialIssuer = errors.New("no credential issuer configured")

	// ErrUnsupportedImageFormat indicates an image buffer could not be decoded
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
)

// MimeTypeError is the recoverable, per-item rejection produced when an
// ingestion request carries a MIME type outside the permitted set. It is
// embedded in batch results and never aborts sibling items.
type MimeTypeError struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Message  string `json:"message"`
}

func NewMimeTypeError(filename, mimeType string) *MimeTypeError {
	return &MimeTypeError{
		Filename: filename,
		MimeType: mimeType,
		Message:  fmt.Sprintf("the MIME type %q is not permitted", mimeType),
	}
}

func (e *MimeTypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filename, e.Message)
}

// AssetError represents a fatal error in an asset operation
type AssetError struct {
	Filename string
	Op       string
	Err      error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset operation %s failed for %q: %v", e.Op, e.Filename, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob store operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
