package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"autounzip/internal/extract"
)

func TestIsArchive(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photos.zip", true},
		{"PHOTOS.ZIP", true},
		{"bundle.zipx", true},
		{"backup.7z", true},
		{"movie.RAR", true},
		{"src.tar", true},
		{"src.tar.gz", true},
		{"src.TAR.BZ2", true},
		{"src.tgz", true},
		{"src.tbz", true},
		{"notes.txt.gz", true},
		{"dump.bz2", true},
		{"driver.cab", true},
		{"z.unknownext", false},
		{"readme.txt", false},
		{"archive.zip.part", false},
		{"zip", false},
		{".zip", false},
		{"archive.tar.xz", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, extract.IsArchive(tc.name))
		})
	}
}

func TestRouteUsesFinalSuffix(t *testing.T) {
	tests := []struct {
		path   string
		format extract.Format
		ok     bool
	}{
		{"/w/a.zip", extract.FormatZip, true},
		{"/w/a.ZIPX", extract.FormatZip, true},
		{"/w/a.7z", extract.FormatSevenZip, true},
		{"/w/a.rar", extract.FormatRar, true},
		{"/w/a.tar", extract.FormatTar, true},
		{"/w/a.tar.gz", extract.FormatTar, true},
		{"/w/a.tar.bz2", extract.FormatTar, true},
		{"/w/a.tgz", extract.FormatTar, true},
		{"/w/a.tbz", extract.FormatTar, true},
		{"/w/a.cab", extract.FormatCab, true},
		{"/w/a.tar.xz", extract.FormatUnknown, false},
		{"/w/a", extract.FormatUnknown, false},
	}
	for _, tc := range tests {
		format, ok := extract.Route(tc.path)
		require.Equal(t, tc.ok, ok, tc.path)
		require.Equal(t, tc.format, format, tc.path)
	}
}

func TestTargetDirStripsFinalExtension(t *testing.T) {
	require.Equal(t, "/watch/reports", extract.TargetDir("/watch/reports.zip"))
	require.Equal(t, "/w/x", extract.TargetDir("/w/x.zip"))
	require.Equal(t, "/w/a.tar", extract.TargetDir("/w/a.tar.gz"))
	require.Equal(t, "/w/My.Photos", extract.TargetDir("/w/My.Photos.7z"))
	require.Equal(t, "reports.zip", extract.ArchiveName("/watch/reports.zip"))
}
