package extract_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"autounzip/internal/extract"
	"autounzip/internal/services"
	"autounzip/internal/testsupport"
)

type recorder struct {
	values []float64
}

func (r *recorder) sink(pct float64) {
	r.values = append(r.values, pct)
}

func requireMonotonicEndingAt100(t *testing.T, values []float64) {
	t.Helper()
	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		require.GreaterOrEqual(t, values[i], values[i-1], "progress went backwards: %v", values)
	}
	for _, v := range values {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 100.0)
	}
	require.Equal(t, 100.0, values[len(values)-1])
}

func run(t *testing.T, archive string) (extract.Result, *recorder) {
	t.Helper()
	rec := &recorder{}
	d := extract.NewDispatcher()
	res := d.Run(context.Background(), archive, extract.TargetDir(archive), rec.sink)
	return res, rec
}

func TestZipSizeWeightedProgress(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "x.zip")
	testsupport.WriteZip(t, archive,
		testsupport.File("a.txt", 100),
		testsupport.Dir("sub"),
		testsupport.File("sub/b.txt", 50),
		testsupport.File("sub/c.txt", 150),
	)

	res, rec := run(t, archive)
	require.NoError(t, res.Err)
	require.Equal(t, extract.FormatZip, res.Format)
	require.Equal(t, 3, res.Files)
	require.EqualValues(t, 300, res.Bytes)

	requireMonotonicEndingAt100(t, rec.values)
	require.Contains(t, rec.values, 50.0)

	target := filepath.Join(dir, "x")
	require.FileExists(t, filepath.Join(target, "a.txt"))
	require.FileExists(t, filepath.Join(target, "sub", "c.txt"))
	data, err := os.ReadFile(filepath.Join(target, "sub", "b.txt"))
	require.NoError(t, err)
	require.Len(t, data, 50)
}

func TestZipxZstdMember(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zipx")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "data.bin", Method: zstd.ZipMethodWinZip})
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("zipx"), 1024)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o644))

	res, rec := run(t, archive)
	require.NoError(t, res.Err)
	requireMonotonicEndingAt100(t, rec.values)

	got, err := os.ReadFile(filepath.Join(dir, "bundle", "data.bin"))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestZipCP437NamesAreDecoded(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "legacy.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "caf\x82.txt", NonUTF8: true, Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("menu"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o644))

	res, _ := run(t, archive)
	require.NoError(t, res.Err)
	require.FileExists(t, filepath.Join(dir, "legacy", "café.txt"))
}

func TestZipWithoutBytesFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "empty.zip")
	testsupport.WriteZip(t, archive, testsupport.Dir("only-dir"))

	res, rec := run(t, archive)
	require.ErrorIs(t, res.Err, services.ErrEmptyArchive)
	require.Equal(t, "empty", res.Kind())
	require.NotContains(t, rec.values, 100.0)
}

func TestCorruptZipFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "y.zip")
	testsupport.WriteZip(t, archive, testsupport.File("a.txt", 4096), testsupport.File("b.txt", 4096))
	testsupport.Truncate(t, archive, 100)

	d := extract.NewDispatcher()
	rec := &recorder{}
	ok := d.Extract(context.Background(), archive, filepath.Join(dir, "y"), rec.sink)
	require.False(t, ok)
	require.NotContains(t, rec.values, 100.0)
	require.FileExists(t, archive)
}

func TestZipTraversalMemberIsSkipped(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	testsupport.WriteZip(t, archive,
		testsupport.File("../escaped.txt", 10),
		testsupport.File("safe.txt", 10),
	)

	res, rec := run(t, archive)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Skipped)
	require.NoFileExists(t, filepath.Join(dir, "escaped.txt"))
	require.FileExists(t, filepath.Join(dir, "evil", "safe.txt"))
	requireMonotonicEndingAt100(t, rec.values)
}

func TestTarFamilyCountBasedProgress(t *testing.T) {
	entries := []testsupport.Entry{
		testsupport.Dir("docs"),
		testsupport.File("docs/a.md", 10),
		testsupport.File("docs/b.md", 20),
		testsupport.File("c.bin", 0),
	}
	builders := map[string]func(testing.TB, string, ...testsupport.Entry){
		"src.tar":     testsupport.WriteTar,
		"src.tar.gz":  testsupport.WriteTarGz,
		"src.tgz":     testsupport.WriteTarGz,
		"src.tar.bz2": testsupport.WriteTarBz2,
		"src.tbz":     testsupport.WriteTarBz2,
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, name)
			build(t, archive, entries...)

			res, rec := run(t, archive)
			require.NoError(t, res.Err)
			require.Equal(t, []float64{25, 50, 75, 100}, rec.values)
			target := extract.TargetDir(archive)
			require.FileExists(t, filepath.Join(target, "docs", "b.md"))
			require.FileExists(t, filepath.Join(target, "c.bin"))
		})
	}
}

func TestSingleStreamGzipAndBzip2(t *testing.T) {
	dir := t.TempDir()
	body := []byte("plain text payload\n")

	gz := filepath.Join(dir, "notes.txt.gz")
	testsupport.WriteGzip(t, gz, body)
	res, rec := run(t, gz)
	require.NoError(t, res.Err)
	require.Equal(t, []float64{100}, rec.values)
	got, err := os.ReadFile(filepath.Join(dir, "notes.txt", "notes.txt"))
	require.NoError(t, err)
	require.Equal(t, body, got)

	bz := filepath.Join(dir, "dump.sql.bz2")
	testsupport.WriteBzip2(t, bz, body)
	res, rec = run(t, bz)
	require.NoError(t, res.Err)
	require.Equal(t, []float64{100}, rec.values)
	require.FileExists(t, filepath.Join(dir, "dump.sql", "dump.sql"))
}

func TestTarSuffixWithoutTarContentFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "fake.tar")
	require.NoError(t, os.WriteFile(archive, []byte("not a tar file"), 0o644))

	res, rec := run(t, archive)
	require.ErrorIs(t, res.Err, services.ErrCorrupt)
	require.Empty(t, rec.values)

	tgz := filepath.Join(dir, "fake.tgz")
	testsupport.WriteGzip(t, tgz, []byte("gzip but no tar"))
	res, _ = run(t, tgz)
	require.ErrorIs(t, res.Err, services.ErrCorrupt)
}

func TestUnsupportedExtensionFailsWithoutSideEffects(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "z.unknownext")
	require.NoError(t, os.WriteFile(archive, []byte("whatever"), 0o644))

	res, rec := run(t, archive)
	require.ErrorIs(t, res.Err, services.ErrUnsupported)
	require.Empty(t, rec.values)
	require.NoDirExists(t, filepath.Join(dir, "z"))
}

func TestMissingArchiveIsNotFound(t *testing.T) {
	res, _ := run(t, filepath.Join(t.TempDir(), "gone.zip"))
	require.ErrorIs(t, res.Err, services.ErrNotFound)
}

// copyFixture places a testdata archive in a temp dir so extraction writes
// its sibling target there.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(archive, data, 0o644))
	return archive
}

func requireDocsLayout(t *testing.T, target string) {
	t.Helper()
	a, err := os.ReadFile(filepath.Join(target, "docs", "a.md"))
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("A"), 10), a)
	b, err := os.ReadFile(filepath.Join(target, "docs", "b.md"))
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("B"), 30), b)
	c, err := os.ReadFile(filepath.Join(target, "c.bin"))
	require.NoError(t, err)
	require.Len(t, c, 60)
	require.Equal(t, byte(59), c[59])
}

func TestSevenZipCountBasedProgress(t *testing.T) {
	archive := copyFixture(t, "docs.7z")

	res, rec := run(t, archive)
	require.NoError(t, res.Err)
	require.Equal(t, extract.FormatSevenZip, res.Format)
	require.Equal(t, 3, res.Files)
	require.EqualValues(t, 100, res.Bytes)
	// four members (three files and the docs directory) counted equally
	require.Equal(t, []float64{25, 50, 75, 100}, rec.values)
	requireDocsLayout(t, extract.TargetDir(archive))
}

func TestRarSizeWeightedProgress(t *testing.T) {
	archive := copyFixture(t, "docs.rar")

	res, rec := run(t, archive)
	require.NoError(t, res.Err)
	require.Equal(t, extract.FormatRar, res.Format)
	require.Equal(t, 3, res.Files)
	require.EqualValues(t, 100, res.Bytes)
	// docs/ carries no bytes, then 10, 30 and 60 of 100 unpacked bytes
	require.Equal(t, []float64{0, 10, 40, 100}, rec.values)
	requireMonotonicEndingAt100(t, rec.values)
	requireDocsLayout(t, extract.TargetDir(archive))
}

func TestCorrupt7zAndRarFail(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"broken.7z", "broken.rar"} {
		archive := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(archive, bytes.Repeat([]byte{0x00, 0x42}, 64), 0o644))

		res, rec := run(t, archive)
		require.Error(t, res.Err, name)
		require.False(t, res.OK())
		require.Equal(t, "corrupt", res.Kind(), name)
		require.Empty(t, rec.values)
	}
}

func TestCanceledContextFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.zip")
	testsupport.WriteZip(t, archive, testsupport.File("a.txt", 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := extract.NewDispatcher().Run(ctx, archive, filepath.Join(dir, "a"), nil)
	require.ErrorIs(t, res.Err, services.ErrCanceled)
	require.Equal(t, "canceled", res.Kind())
}

func TestCabDelegatesToHelper(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell stub")
	}
	dir := t.TempDir()
	helper := filepath.Join(dir, "bin", "cabextract")
	// cabextract -q -d <target> <archive>
	script := "#!/bin/sh\nmkdir -p \"$3\" && printf 'hello' > \"$3/readme.txt\"\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(helper), 0o755))
	require.NoError(t, os.WriteFile(helper, []byte(script), 0o755))

	archive := filepath.Join(dir, "driver.cab")
	require.NoError(t, os.WriteFile(archive, []byte("MSCF"), 0o644))

	rec := &recorder{}
	res := extract.NewDispatcher(extract.WithCabHelper(helper)).Run(context.Background(), archive, extract.TargetDir(archive), rec.sink)
	require.NoError(t, res.Err)
	require.Equal(t, []float64{100}, rec.values)
	require.Equal(t, 1, res.Files)
	require.FileExists(t, filepath.Join(dir, "driver", "readme.txt"))
}

func TestCabHelperFailureAndAbsence(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell stub")
	}
	dir := t.TempDir()
	archive := filepath.Join(dir, "driver.cab")
	require.NoError(t, os.WriteFile(archive, []byte("MSCF"), 0o644))

	res := extract.NewDispatcher(extract.WithCabHelper(filepath.Join(dir, "missing-helper"))).
		Run(context.Background(), archive, extract.TargetDir(archive), nil)
	require.ErrorIs(t, res.Err, services.ErrCapabilityMissing)
	require.Equal(t, "capability_missing", res.Kind())

	failing := filepath.Join(dir, "failing")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho 'bad cabinet' >&2\nexit 3\n"), 0o755))
	rec := &recorder{}
	res = extract.NewDispatcher(extract.WithCabHelper(failing)).
		Run(context.Background(), archive, extract.TargetDir(archive), rec.sink)
	require.ErrorIs(t, res.Err, services.ErrCorrupt)
	require.Contains(t, res.Err.Error(), "bad cabinet")
	require.Empty(t, rec.values)
}
