package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autounzip/internal/logging"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestMemberWriterResolveRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	w, err := newMemberWriter(root, logging.NewNop())
	require.NoError(t, err)

	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "..", "/", "", "/etc/passwd"} {
		_, err := w.resolve(name)
		require.ErrorIs(t, err, errUnsafePath, name)
	}

	got, err := w.resolve(`docs\readme.txt`)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "docs", "readme.txt"), got)
}

func TestMemberWriterSkipsSymlinksAndEscapes(t *testing.T) {
	root := t.TempDir()
	w, err := newMemberWriter(filepath.Join(root, "out"), logging.NewNop())
	require.NoError(t, err)

	n, err := w.file(context.Background(), "link", strings.NewReader("target"), os.ModeSymlink|0o777, fixedTime)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = w.file(context.Background(), "../escape.txt", strings.NewReader("x"), 0o644, fixedTime)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoFileExists(t, filepath.Join(root, "escape.txt"))
	require.Equal(t, 2, w.skipped)
	require.Zero(t, w.files)
}

func TestMemberWriterWritesFileWithMtime(t *testing.T) {
	root := t.TempDir()
	w, err := newMemberWriter(root, logging.NewNop())
	require.NoError(t, err)

	n, err := w.file(context.Background(), "nested/dir/a.txt", strings.NewReader("hello"), 0, fixedTime)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	info, err := os.Stat(filepath.Join(root, "nested", "dir", "a.txt"))
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(fixedTime))
	require.Equal(t, 1, w.files)
	require.EqualValues(t, 5, w.bytes)
}

func TestMemberWriterHonoursCancellation(t *testing.T) {
	w, err := newMemberWriter(t.TempDir(), logging.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.file(ctx, "a.txt", strings.NewReader("x"), 0o644, fixedTime)
	require.Error(t, err)
}
