package localtree

import (
	"maps"
	"path/filepath"
	"strings"
)

const DefaultContentType = "application/octet-stream"

var defaultMimeTypes = map[string]string{
	".7z":    "application/x-7z-compressed",
	".aac":   "audio/aac",
	".avi":   "video/x-msvideo",
	".avif":  "image/avif",
	".bmp":   "image/bmp",
	".bz2":   "application/x-bzip2",
	".css":   "text/css",
	".csv":   "text/csv",
	".doc":   "application/msword",
	".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".epub":  "application/epub+zip",
	".flac":  "audio/flac",
	".gif":   "image/gif",
	".gz":    "application/gzip",
	".heic":  "image/heic",
	".htm":   "text/html",
	".html":  "text/html",
	".ico":   "image/vnd.microsoft.icon",
	".ics":   "text/calendar",
	".jar":   "application/java-archive",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".js":    "application/javascript",
	".json":  "application/json",
	".jsonl": "application/jsonl",
	".m4a":   "audio/mp4",
	".md":    "text/markdown",
	".mid":   "audio/midi",
	".midi":  "audio/midi",
	".mjs":   "application/javascript",
	".mkv":   "video/x-matroska",
	".mov":   "video/quicktime",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".mpeg":  "video/mpeg",
	".odp":   "application/vnd.oasis.opendocument.presentation",
	".ods":   "application/vnd.oasis.opendocument.spreadsheet",
	".odt":   "application/vnd.oasis.opendocument.text",
	".oga":   "audio/ogg",
	".ogg":   "audio/ogg",
	".ogv":   "video/ogg",
	".otf":   "font/otf",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".ppt":   "application/vnd.ms-powerpoint",
	".pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".py":    "text/x-python",
	".rar":   "application/vnd.rar",
	".rtf":   "application/rtf",
	".sh":    "application/x-sh",
	".svg":   "image/svg+xml",
	".tar":   "application/x-tar",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
	".toml":  "application/toml",
	".ts":    "video/mp2t",
	".ttf":   "font/ttf",
	".txt":   "text/plain",
	".wasm":  "application/wasm",
	".wav":   "audio/wav",
	".weba":  "audio/webm",
	".webm":  "video/webm",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".xhtml": "application/xhtml+xml",
	".xls":   "application/vnd.ms-excel",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":   "application/xml",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".zip":   "application/zip",
}

// MimeTable maps lower-cased filename extensions to content types. It is not
// modified after construction and is safe for concurrent use.
type MimeTable struct {
	types    map[string]string
	fallback string
}

// NewMimeTable returns the built-in table extended with extra. Keys in extra
// may be given with or without the leading dot.
func NewMimeTable(extra map[string]string) *MimeTable {
	types := maps.Clone(defaultMimeTypes)
	for ext, contentType := range extra {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		types[ext] = contentType
	}
	return &MimeTable{types: types, fallback: DefaultContentType}
}

// ContentType returns the content type for name based on its extension.
func (m *MimeTable) ContentType(name string) string {
	if contentType, ok := m.types[strings.ToLower(filepath.Ext(name))]; ok {
		return contentType
	}
	return m.fallback
}

var defaultMimeTable = NewMimeTable(nil)

// ContentTypeOf looks up name in the built-in table.
func ContentTypeOf(name string) string {
	return defaultMimeTable.ContentType(name)
}
