package extract

import (
	"path/filepath"
	"strings"
)

// Format names a backend. The values double as log fields and metric labels.
type Format string

const (
	FormatZip      Format = "zip"
	FormatSevenZip Format = "7z"
	FormatRar      Format = "rar"
	FormatTar      Format = "tar"
	FormatCab      Format = "cab"
	// FormatUnknown is reported for paths no backend claims.
	FormatUnknown Format = "unknown"
)

// archiveSuffixes is the set of names the watcher reacts to. Compound
// suffixes are listed alongside their final suffix on purpose: the watcher
// matches the full set while routing only ever looks at the last suffix.
var archiveSuffixes = []string{
	".zip", ".zipx", ".7z", ".rar", ".tar", ".gz", ".bz2",
	".tgz", ".tbz", ".tar.gz", ".tar.bz2", ".cab",
}

var routes = map[string]Format{
	".zip":  FormatZip,
	".zipx": FormatZip,
	".7z":   FormatSevenZip,
	".rar":  FormatRar,
	".tar":  FormatTar,
	".gz":   FormatTar,
	".bz2":  FormatTar,
	".tgz":  FormatTar,
	".tbz":  FormatTar,
	".cab":  FormatCab,
}

// ArchiveSuffixes returns the recognized archive suffixes.
func ArchiveSuffixes() []string {
	return append([]string(nil), archiveSuffixes...)
}

// IsArchive reports whether name ends in a recognized archive suffix,
// compared case-insensitively.
func IsArchive(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			return true
		}
	}
	return false
}

// Route returns the backend for path based on its final suffix only, so
// "a.tar.gz" routes through ".gz".
func Route(path string) (Format, bool) {
	format, ok := routes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return FormatUnknown, false
	}
	return format, true
}

// ArchiveName returns the base file name of path, extension included.
func ArchiveName(path string) string {
	return filepath.Base(path)
}

// TargetDir returns the sibling directory an archive extracts into: the
// archive's name with its final extension stripped. "/w/photos.zip" maps to
// "/w/photos" and "/w/a.tar.gz" to "/w/a.tar".
func TargetDir(path string) string {
	return filepath.Join(filepath.Dir(path), stripFinalExt(filepath.Base(path)))
}

func stripFinalExt(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// ".zip" on its own has no stem; keep something usable.
		return name + ".d"
	}
	return stem
}
