package extract

import (
	"context"

	"github.com/bodgit/sevenzip"

	"autounzip/internal/services"
)

// extractSevenZip handles .7z. Sizes of solid blocks are not reliable before
// decoding, so progress counts members.
func extractSevenZip(ctx context.Context, j *job) error {
	rc, err := sevenzip.OpenReader(j.archive)
	if err != nil {
		return services.Wrap(services.ErrCorrupt, "7z", "open", "", err)
	}
	defer rc.Close()

	if len(rc.File) == 0 {
		return services.Wrap(services.ErrEmptyArchive, "7z", "scan", "no members", nil)
	}
	j.progress.setTotal(float64(len(rc.File)))

	for _, f := range rc.File {
		if err := canceled(ctx, "7z"); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := j.out.dir(f.Name); err != nil {
				return err
			}
		} else if err := extractSevenZipMember(ctx, j, f); err != nil {
			return err
		}
		j.progress.advance(1)
	}
	return nil
}

func extractSevenZipMember(ctx context.Context, j *job, f *sevenzip.File) error {
	src, err := f.Open()
	if err != nil {
		return services.Wrap(services.ErrCorrupt, "7z", "open member", f.Name, err)
	}
	defer src.Close()
	_, err = j.out.file(ctx, f.Name, src, f.Mode(), f.Modified)
	return err
}
