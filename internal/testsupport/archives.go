package testsupport

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/pgzip"
)

// Entry describes one member of a generated archive. Names ending in "/" are
// directories.
type Entry struct {
	Name string
	Body []byte
}

// Dir returns a directory entry.
func Dir(name string) Entry {
	return Entry{Name: strings.TrimSuffix(name, "/") + "/"}
}

// File returns a file entry of size bytes of filler content.
func File(name string, size int) Entry {
	return Entry{Name: name, Body: bytes.Repeat([]byte{'a'}, size)}
}

func (e Entry) isDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

var fixtureTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// WriteZip builds a deflate-compressed zip at path.
func WriteZip(t testing.TB, path string, entries ...Entry) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		hdr := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate, Modified: fixtureTime}
		if entry.isDir() {
			hdr.Method = zip.Store
		}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("zip header %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Body); err != nil {
			t.Fatalf("zip write %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteTar builds an uncompressed tar at path.
func WriteTar(t testing.TB, path string, entries ...Entry) {
	t.Helper()
	writeBytes(t, path, tarBytes(t, entries))
}

// WriteTarGz builds a gzip-compressed tar at path.
func WriteTarGz(t testing.TB, path string, entries ...Entry) {
	t.Helper()
	WriteGzip(t, path, tarBytes(t, entries))
}

// WriteTarBz2 builds a bzip2-compressed tar at path.
func WriteTarBz2(t testing.TB, path string, entries ...Entry) {
	t.Helper()
	WriteBzip2(t, path, tarBytes(t, entries))
}

// WriteGzip gzips body into path.
func WriteGzip(t testing.TB, path string, body []byte) {
	t.Helper()
	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteBzip2 compresses body into path.
func WriteBzip2(t testing.TB, path string, body []byte) {
	t.Helper()
	var buf bytes.Buffer
	bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	if err != nil {
		t.Fatalf("bzip2 writer: %v", err)
	}
	if _, err := bw.Write(body); err != nil {
		t.Fatalf("bzip2 write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("bzip2 close: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// Truncate cuts path down to keep bytes, producing a corrupt archive.
func Truncate(t testing.TB, path string, keep int64) {
	t.Helper()
	if err := os.Truncate(path, keep); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
}

func tarBytes(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, entry := range entries {
		hdr := &tar.Header{Name: entry.Name, Mode: 0o644, ModTime: fixtureTime, Typeflag: tar.TypeReg, Size: int64(len(entry.Body))}
		if entry.isDir() {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", entry.Name, err)
		}
		if _, err := io.Copy(tw, bytes.NewReader(entry.Body)); err != nil {
			t.Fatalf("tar write %s: %v", entry.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
