package extract

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/pgzip"

	"autounzip/internal/services"
)

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionBzip2
)

const tarBlockSize = 512

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

// extractTarFamily handles .tar, .gz, .bz2, .tgz and .tbz. The compression
// layer and the presence of a tar container are sniffed from content rather
// than trusted from the suffix. A tar container reports count-based progress;
// a plain gzip or bzip2 stream becomes one file and a single jump to 100.
func extractTarFamily(ctx context.Context, j *job) error {
	comp, isTar, err := sniffTar(j.archive)
	if err != nil {
		return err
	}
	if isTar {
		return extractTar(ctx, j)
	}

	ext := strings.ToLower(filepath.Ext(j.archive))
	switch {
	case ext == ".gz" && comp == compressionGzip, ext == ".bz2" && comp == compressionBzip2:
		return extractSingleStream(ctx, j)
	case ext == ".gz" || ext == ".bz2":
		return services.Wrap(services.ErrCorrupt, "tar", "sniff", fmt.Sprintf("%s file is not %s compressed", ext, strings.TrimPrefix(ext, ".")), nil)
	default:
		return services.Wrap(services.ErrCorrupt, "tar", "sniff", "no tar container found", nil)
	}
}

// openStream opens the archive with its decompression layer applied.
func openStream(path string) (io.ReadCloser, compression, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, compressionNone, services.Wrap(services.ErrCorrupt, "tar", "open", "", err)
	}
	buffered := bufio.NewReader(file)
	head, _ := buffered.Peek(3)

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := pgzip.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, compressionGzip, services.Wrap(services.ErrCorrupt, "tar", "gzip header", "", err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, file}}, compressionGzip, nil
	case bytes.HasPrefix(head, bzip2Magic):
		br, err := bzip2.NewReader(buffered, nil)
		if err != nil {
			_ = file.Close()
			return nil, compressionBzip2, services.Wrap(services.ErrCorrupt, "tar", "bzip2 header", "", err)
		}
		return &stackedCloser{Reader: br, closers: []io.Closer{br, file}}, compressionBzip2, nil
	default:
		return &stackedCloser{Reader: buffered, closers: []io.Closer{file}}, compressionNone, nil
	}
}

func sniffTar(path string) (compression, bool, error) {
	stream, comp, err := openStream(path)
	if err != nil {
		return comp, false, err
	}
	defer stream.Close()

	block := make([]byte, tarBlockSize)
	n, err := io.ReadFull(stream, block)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return comp, false, services.Wrap(services.ErrCorrupt, "tar", "read", "", err)
	}
	return comp, n == tarBlockSize && isTarHeader(block), nil
}

// isTarHeader validates the header checksum, which every tar dialect
// (v7, ustar, gnu, pax) carries at offset 148.
func isTarHeader(block []byte) bool {
	if len(block) < tarBlockSize {
		return false
	}
	field := strings.TrimRight(strings.TrimSpace(string(block[148:156])), "\x00 ")
	if field == "" {
		return false
	}
	want, err := strconv.ParseInt(field, 8, 64)
	if err != nil {
		return false
	}
	var sum int64
	for i, b := range block {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += int64(b)
	}
	return sum == want
}

func extractTar(ctx context.Context, j *job) error {
	count, err := countTarMembers(j.archive)
	if err != nil {
		return err
	}
	if count == 0 {
		return services.Wrap(services.ErrEmptyArchive, "tar", "scan", "no members", nil)
	}
	j.progress.setTotal(float64(count))

	stream, _, err := openStream(j.archive)
	if err != nil {
		return err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	for {
		if err := canceled(ctx, "tar"); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return services.Wrap(services.ErrCorrupt, "tar", "read header", "", err)
		}
		if err := writeTarMember(ctx, j, tr, hdr); err != nil {
			return err
		}
		j.progress.advance(1)
	}
}

func writeTarMember(ctx context.Context, j *job, tr *tar.Reader, hdr *tar.Header) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return j.out.dir(hdr.Name)
	case tar.TypeReg, tar.TypeGNUSparse:
		_, err := j.out.file(ctx, hdr.Name, tr, fs.FileMode(hdr.Mode).Perm(), hdr.ModTime)
		return err
	case tar.TypeSymlink, tar.TypeLink:
		j.out.skip(hdr.Name, "link")
		return nil
	default:
		j.out.skip(hdr.Name, fmt.Sprintf("unsupported entry type %q", hdr.Typeflag))
		return nil
	}
}

func countTarMembers(path string) (int, error) {
	stream, _, err := openStream(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	count := 0
	for {
		_, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, services.Wrap(services.ErrCorrupt, "tar", "scan", "", err)
		}
		count++
	}
}

// extractSingleStream decompresses a lone .gz or .bz2 file into the target
// directory under the archive's name without its final suffix.
func extractSingleStream(ctx context.Context, j *job) error {
	stream, _, err := openStream(j.archive)
	if err != nil {
		return err
	}
	defer stream.Close()

	name := stripFinalExt(filepath.Base(j.archive))
	mode := fs.FileMode(0o644)
	var mtime time.Time
	if info, statErr := os.Stat(j.archive); statErr == nil {
		mode = info.Mode().Perm()
		mtime = info.ModTime()
	}
	if _, err := j.out.file(ctx, name, stream, mode, mtime); err != nil {
		return err
	}
	j.progress.setTotal(1)
	j.progress.advance(1)
	return nil
}

// stackedCloser closes a decompressor and then the file beneath it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
