// Package filetype classifies uploads into the closed set of supported
// formats and verifies raw bytes against the claimed format before any
// parser touches them.
package filetype

import (
	"path/filepath"
	"strings"

	"github.com/markdave123-py/Archiva/internal/models"
)

// mimeTypes maps exact MIME types to file types. Checked first.
var mimeTypes = map[string]models.FileType{
	"application/pdf":    models.FileTypePDF,
	"application/msword": models.FileTypeDoc,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   models.FileTypeDocx,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": models.FileTypePptx,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         models.FileTypeXlsx,
	"application/vnd.ms-excel": models.FileTypeXlsx,
	"text/plain":               models.FileTypeText,
	"text/markdown":            models.FileTypeMd,
	"text/csv":                 models.FileTypeCSV,
	"application/csv":          models.FileTypeCSV,
	"application/json":         models.FileTypeJSON,
	"image/png":                models.FileTypeImage,
	"image/jpeg":               models.FileTypeImage,
	"image/gif":                models.FileTypeImage,
	"image/webp":               models.FileTypeImage,
	"image/svg+xml":            models.FileTypeImage,
}

// codeExtensions is the set of source-file extensions mapped to the code
// type, checked before the general extension table.
var codeExtensions = map[string]struct{}{
	".go": {}, ".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
	".java": {}, ".c": {}, ".h": {}, ".cpp": {}, ".cc": {}, ".hpp": {},
	".cs": {}, ".rb": {}, ".rs": {}, ".php": {}, ".swift": {}, ".kt": {},
	".scala": {}, ".sh": {}, ".bash": {}, ".sql": {}, ".r": {}, ".pl": {},
	".lua": {}, ".dart": {}, ".m": {}, ".ex": {}, ".exs": {}, ".clj": {},
	".html": {}, ".css": {}, ".xml": {}, ".yaml": {}, ".yml": {}, ".toml": {},
}

// extensions maps remaining known extensions to file types.
var extensions = map[string]models.FileType{
	".pdf":      models.FileTypePDF,
	".docx":     models.FileTypeDocx,
	".doc":      models.FileTypeDoc,
	".txt":      models.FileTypeText,
	".text":     models.FileTypeText,
	".log":      models.FileTypeText,
	".md":       models.FileTypeMd,
	".markdown": models.FileTypeMd,
	".csv":      models.FileTypeCSV,
	".tsv":      models.FileTypeCSV,
	".json":     models.FileTypeJSON,
	".pptx":     models.FileTypePptx,
	".xlsx":     models.FileTypeXlsx,
	".xls":      models.FileTypeXlsx,
	".png":      models.FileTypeImage,
	".jpg":      models.FileTypeImage,
	".jpeg":     models.FileTypeImage,
	".gif":      models.FileTypeImage,
	".webp":     models.FileTypeImage,
	".svg":      models.FileTypeImage,
}

// Detect classifies a file from its MIME type and name. It is total: any
// input degrades to FileTypeOther, which callers treat as unsupported.
// Priority: exact MIME match, then the code-extension set, then the
// extension table.
func Detect(mimeType, fileName string) models.FileType {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	// Strip parameters like "; charset=utf-8".
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if ft, ok := mimeTypes[mime]; ok {
		return ft
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := codeExtensions[ext]; ok {
		return models.FileTypeCode
	}
	if ft, ok := extensions[ext]; ok {
		return ft
	}
	return models.FileTypeOther
}
