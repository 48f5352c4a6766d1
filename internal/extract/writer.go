package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"autounzip/internal/logging"
	"autounzip/internal/services"
)

const copyBufferSize = 256 * 1024

var copyBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, copyBufferSize)
		return &buf
	},
}

var errUnsafePath = errors.New("unsafe member path")

// memberWriter writes archive members below root and keeps the counters that
// end up in the Result.
type memberWriter struct {
	root    string
	logger  *slog.Logger
	files   int
	dirs    int
	skipped int
	bytes   int64
}

func newMemberWriter(root string, logger *slog.Logger) (*memberWriter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrDestination, "extract", "resolve target", root, err)
	}
	return &memberWriter{root: filepath.Clean(abs), logger: logger}, nil
}

// resolve maps an in-archive name to a path under root. Absolute names and
// names that climb out of root are rejected.
func (w *memberWriter) resolve(name string) (string, error) {
	normalized := strings.ReplaceAll(name, "\\", "/")
	normalized = strings.TrimLeft(normalized, "/")
	if normalized == "" || filepath.IsAbs(name) || filepath.VolumeName(normalized) != "" {
		return "", fmt.Errorf("%w: %q", errUnsafePath, name)
	}
	target := filepath.Clean(filepath.Join(w.root, filepath.FromSlash(normalized)))
	if target == w.root {
		return "", fmt.Errorf("%w: %q", errUnsafePath, name)
	}
	prefix := w.root + string(os.PathSeparator)
	if !strings.HasPrefix(target+string(os.PathSeparator), prefix) {
		return "", fmt.Errorf("%w: %q", errUnsafePath, name)
	}
	return target, nil
}

// skip logs a member that is deliberately not written.
func (w *memberWriter) skip(name, reason string) {
	w.skipped++
	if w.logger != nil {
		w.logger.Warn("archive member skipped",
			logging.String("member", name),
			logging.String("reason", reason),
			logging.String(logging.FieldEventType, "member_skipped"),
			logging.String(logging.FieldErrorHint, "inspect the archive contents manually"),
			logging.String(logging.FieldImpact, "member not extracted"),
		)
	}
}

// dir creates a directory member.
func (w *memberWriter) dir(name string) error {
	target, err := w.resolve(name)
	if err != nil {
		if errors.Is(err, errUnsafePath) && strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/.") == "" {
			// "./" style root entries are harmless.
			return nil
		}
		w.skip(name, err.Error())
		return nil
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return services.Wrap(services.ErrDestination, "extract", "create directory", name, err)
	}
	w.dirs++
	return nil
}

// file streams r into the member's target path. A symlink mode skips the
// member; the archive stays usable and nothing is written outside root.
func (w *memberWriter) file(ctx context.Context, name string, r io.Reader, mode fs.FileMode, mtime time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, services.Wrap(services.ErrCanceled, "extract", "write member", name, err)
	}
	if mode&fs.ModeSymlink != 0 {
		w.skip(name, "symlink")
		return 0, nil
	}
	target, err := w.resolve(name)
	if err != nil {
		w.skip(name, err.Error())
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, services.Wrap(services.ErrDestination, "extract", "create parent", name, err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, services.Wrap(services.ErrDestination, "extract", "create file", name, err)
	}

	dst := &trackingWriter{w: out}
	bufPtr := copyBuffers.Get().(*[]byte)
	written, copyErr := io.CopyBuffer(dst, r, *bufPtr)
	copyBuffers.Put(bufPtr)
	closeErr := out.Close()

	if copyErr != nil {
		_ = os.Remove(target)
		if dst.err != nil {
			return written, services.Wrap(services.ErrDestination, "extract", "write file", name, copyErr)
		}
		return written, services.Wrap(services.ErrCorrupt, "extract", "read member", name, copyErr)
	}
	if closeErr != nil {
		return written, services.Wrap(services.ErrDestination, "extract", "close file", name, closeErr)
	}
	if !mtime.IsZero() {
		_ = os.Chtimes(target, time.Now(), mtime)
	}
	w.files++
	w.bytes += written
	return written, nil
}

// trackingWriter remembers write-side failures so a failed copy can be
// blamed on the destination rather than the archive.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// ensureRoot creates the target directory itself.
func (w *memberWriter) ensureRoot() error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return services.Wrap(services.ErrDestination, "extract", "create target", w.root, err)
	}
	return nil
}
