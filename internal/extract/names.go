package extract

import (
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/charmap"
)

// zipMemberName returns the member name as UTF-8. Writers that do not set the
// UTF-8 flag store names in the DOS code page (CP437). Names that are already
// valid UTF-8 are kept as-is since many tools write UTF-8 without the flag.
func zipMemberName(f *zip.File) string {
	if !f.NonUTF8 || utf8.ValidString(f.Name) {
		return f.Name
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name
	}
	return decoded
}
