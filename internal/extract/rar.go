package extract

import (
	"context"
	"errors"
	"io"

	"github.com/nwaples/rardecode"

	"autounzip/internal/services"
)

// extractRar handles .rar with the in-process decoder. Progress is weighted by
// unpacked size; the total is gathered with a header-only pass first.
func extractRar(ctx context.Context, j *job) error {
	total, members, err := scanRar(j.archive)
	if err != nil {
		return err
	}
	if members == 0 {
		return services.Wrap(services.ErrEmptyArchive, "rar", "scan", "no members", nil)
	}
	j.progress.setTotal(float64(total))

	rc, err := rardecode.OpenReader(j.archive, "")
	if err != nil {
		return services.Wrap(services.ErrCorrupt, "rar", "open", "", err)
	}
	defer rc.Close()

	for {
		if err := canceled(ctx, "rar"); err != nil {
			return err
		}
		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return services.Wrap(services.ErrCorrupt, "rar", "read header", "", err)
		}
		if hdr.IsDir {
			if err := j.out.dir(hdr.Name); err != nil {
				return err
			}
			j.progress.advance(0)
			continue
		}
		if _, err := j.out.file(ctx, hdr.Name, rc, hdr.Mode(), hdr.ModificationTime); err != nil {
			return err
		}
		j.progress.advance(float64(max(hdr.UnPackedSize, 0)))
	}
}

func scanRar(path string) (int64, int, error) {
	rc, err := rardecode.OpenReader(path, "")
	if err != nil {
		return 0, 0, services.Wrap(services.ErrCorrupt, "rar", "open", "", err)
	}
	defer rc.Close()

	var (
		total   int64
		members int
	)
	for {
		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			return total, members, nil
		}
		if err != nil {
			return 0, 0, services.Wrap(services.ErrCorrupt, "rar", "scan", "", err)
		}
		members++
		if !hdr.IsDir && hdr.UnPackedSize > 0 {
			total += hdr.UnPackedSize
		}
	}
}
