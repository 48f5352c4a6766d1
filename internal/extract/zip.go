package extract

import (
	"context"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"autounzip/internal/services"
)

// Compression methods zipx writers use beyond store/deflate.
const (
	zipMethodBzip2 uint16 = 12
	zipMethodXZ    uint16 = 95
)

func registerZipxMethods(r *zip.Reader) {
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	r.RegisterDecompressor(zstd.ZipMethodPKWare, zstd.ZipDecompressor())
	r.RegisterDecompressor(zipMethodXZ, func(in io.Reader) io.ReadCloser {
		dec, err := xz.NewReader(in)
		if err != nil {
			return errReadCloser{err: err}
		}
		return io.NopCloser(dec)
	})
	r.RegisterDecompressor(zipMethodBzip2, func(in io.Reader) io.ReadCloser {
		dec, err := bzip2.NewReader(in, nil)
		if err != nil {
			return errReadCloser{err: err}
		}
		return dec
	})
}

// extractZip handles .zip and .zipx. Progress is weighted by uncompressed
// size, and an archive whose members add up to zero bytes is rejected.
func extractZip(ctx context.Context, j *job) error {
	rc, err := zip.OpenReader(j.archive)
	if err != nil {
		return services.Wrap(services.ErrCorrupt, "zip", "open", "", err)
	}
	defer rc.Close()
	registerZipxMethods(&rc.Reader)

	var total uint64
	for _, f := range rc.File {
		total += f.UncompressedSize64
	}
	if total == 0 {
		return services.Wrap(services.ErrEmptyArchive, "zip", "scan", fmt.Sprintf("%d members, 0 bytes", len(rc.File)), nil)
	}
	j.progress.setTotal(float64(total))

	for _, f := range rc.File {
		if err := canceled(ctx, "zip"); err != nil {
			return err
		}
		name := zipMemberName(f)
		if f.FileInfo().IsDir() {
			if err := j.out.dir(name); err != nil {
				return err
			}
			j.progress.advance(0)
			continue
		}
		if err := extractZipMember(ctx, j, f, name); err != nil {
			return err
		}
		j.progress.advance(float64(f.UncompressedSize64))
	}
	return nil
}

func extractZipMember(ctx context.Context, j *job, f *zip.File, name string) error {
	src, err := f.Open()
	if err != nil {
		return services.Wrap(services.ErrCorrupt, "zip", "open member", name, err)
	}
	defer src.Close()
	_, err = j.out.file(ctx, name, src, f.Mode(), f.Modified)
	return err
}

type errReadCloser struct{ err error }

func (e errReadCloser) Read([]byte) (int, error) { return 0, e.err }

func (e errReadCloser) Close() error { return nil }
