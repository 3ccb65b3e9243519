package simpleasset

import (
	"mime"
	"path/filepath"
	"strings"
)

// FallbackMimeType is assigned when a filename's extension cannot be resolved
// to a MIME type.
const FallbackMimeType = "application/octet-stream"

// extraMimeTypes supplements the platform mime database with media extensions
// that are not in Go's builtin table.
var extraMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".zip":  "application/zip",
	".csv":  "text/csv",
	".txt":  "text/plain",
}

// MimeTypeForFilename derives a MIME type from the filename's extension,
// falling back to FallbackMimeType when the extension is unknown.
func MimeTypeForFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return FallbackMimeType
	}
	if t, ok := extraMimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters such as "; charset=utf-8"
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	return FallbackMimeType
}

// AssetTypeForMimeType maps a MIME major type to an AssetType. The mapping is
// total: unrecognized majors classify as BINARY.
func AssetTypeForMimeType(mimeType string) AssetType {
	major, _, _ := strings.Cut(mimeType, "/")
	switch major {
	case "image":
		return AssetTypeImage
	case "video":
		return AssetTypeVideo
	default:
		return AssetTypeBinary
	}
}

// mimePattern is one permitted type/subtype pair. A "*" subtype matches any
// subtype of the given type.
type mimePattern struct {
	Type    string
	Subtype string
}

// PermittedTypes is an allow-list of MIME type patterns, built once from
// configuration.
type PermittedTypes []mimePattern

// NewPermittedTypes builds an allow-list from configuration entries. Each
// entry is either an explicit "type/subtype" pair (subtype may be "*") or a
// file extension such as ".jpg", resolved to a MIME type at load time.
// Unresolvable extensions are dropped silently.
func NewPermittedTypes(entries []string) PermittedTypes {
	var permitted PermittedTypes
	for _, entry := range entries {
		val := entry
		if !strings.Contains(val, "/") {
			if !strings.HasPrefix(val, ".") {
				val = "." + val
			}
			val = MimeTypeForFilename("f" + val)
			if val == FallbackMimeType {
				continue
			}
		}
		typ, subtype, ok := strings.Cut(val, "/")
		if !ok || typ == "" || subtype == "" {
			continue
		}
		permitted = append(permitted, mimePattern{Type: typ, Subtype: subtype})
	}
	return permitted
}

// IsPermitted reports whether the MIME type matches an allow-list entry: type
// exactly, subtype exactly or via a "*" wildcard.
func (p PermittedTypes) IsPermitted(mimeType string) bool {
	typ, subtype, _ := strings.Cut(mimeType, "/")
	for _, pattern := range p {
		if pattern.Type != typ {
			continue
		}
		if pattern.Subtype == subtype || pattern.Subtype == "*" {
			return true
		}
	}
	return false
}
