// Package classify derives intent from a path: what kind of file it names,
// whether a change to it should trigger a rebuild, and which content type
// it is served with.
package classify

import (
	"path"
	"path/filepath"
	"strings"
)

// Kind is the logical file kind derived from a path's extension.
type Kind int

const (
	KindOther Kind = iota
	KindPage
	KindScript
	KindStyle
	KindData
	KindIcon
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindScript:
		return "script"
	case KindStyle:
		return "style"
	case KindData:
		return "data"
	case KindIcon:
		return "icon"
	default:
		return "other"
	}
}

// DefaultContentType is served for extensions missing from the table.
const DefaultContentType = "text/plain"

type extInfo struct {
	kind        Kind
	contentType string
}

var extensionTable = map[string]extInfo{
	".html": {KindPage, "text/html"},
	".htm":  {KindPage, "text/html"},
	".js":   {KindScript, "text/javascript"},
	".mjs":  {KindScript, "text/javascript"},
	".map":  {KindScript, "application/json"},
	".css":  {KindStyle, "text/css"},
	".json": {KindData, "application/json"},
	".svg":  {KindOther, "image/svg+xml"},
	".ico":  {KindIcon, "image/x-icon"},
}

// KindOf returns the file kind for p.
func KindOf(p string) Kind {
	return extensionTable[ext(p)].kind
}

// ContentType returns the content type for p from the static extension table.
func ContentType(p string) string {
	if info, ok := extensionTable[ext(p)]; ok {
		return info.contentType
	}

	return DefaultContentType
}

func ext(p string) string {
	return strings.ToLower(path.Ext(filepath.ToSlash(p)))
}

// Policy decides which change paths qualify for a rebuild.
type Policy struct {
	// Extensions are recognized source suffixes, including the dot.
	Extensions []string
	// BackupMarkers are substrings that mark editor backup or temp files.
	BackupMarkers []string
}

// DefaultPolicy matches script sources and skips common editor artifacts.
func DefaultPolicy() Policy {
	return Policy{
		Extensions:    []string{".js", ".mjs", ".ts", ".jsx", ".tsx"},
		BackupMarkers: []string{"~", ".swp", ".tmp", ".bak"},
	}
}

// ShouldTriggerBuild reports whether a change to p should schedule a build.
// The base name must end in a recognized extension and must not be hidden
// or look like a backup file.
func (p Policy) ShouldTriggerBuild(changed string) bool {
	name := filepath.Base(filepath.Clean(changed))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return false
	}

	if IsHidden(name) || p.isBackup(name) {
		return false
	}

	lower := strings.ToLower(name)
	for _, suffix := range p.Extensions {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}

	return false
}

func (p Policy) isBackup(name string) bool {
	for _, marker := range p.BackupMarkers {
		if marker != "" && strings.Contains(name, marker) {
			return true
		}
	}

	return false
}

// IsHidden reports whether a base name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Intent is everything the pipeline needs to know about a single path.
type Intent struct {
	Path          string
	Kind          Kind
	ContentType   string
	TriggersBuild bool
}

// Classify derives the full intent for p.
func (p Policy) Classify(changed string) Intent {
	return Intent{
		Path:          changed,
		Kind:          KindOf(changed),
		ContentType:   ContentType(changed),
		TriggersBuild: p.ShouldTriggerBuild(changed),
	}
}
