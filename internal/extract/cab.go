package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"autounzip/internal/deps"
	"autounzip/internal/logging"
	"autounzip/internal/services"
)

func defaultCabHelper() string {
	if runtime.GOOS == "windows" {
		return "expand"
	}
	return "cabextract"
}

// cabArgs builds the helper command line. cabextract and Windows expand take
// their arguments in different orders.
func cabArgs(helper, archive, target string) []string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(helper), filepath.Ext(helper)))
	if base == "expand" {
		return []string{archive, "-F:*", target}
	}
	return []string{"-q", "-d", target, archive}
}

// extractCab delegates to the host helper. The helper gives no per-member
// feedback, so the only progress value is the final 100 the dispatcher emits
// on success.
func (d *Dispatcher) extractCab(ctx context.Context, j *job) error {
	helper, err := deps.ResolveHelper(d.cabHelper)
	if err != nil {
		return services.Wrap(services.ErrCapabilityMissing, "cab", "resolve helper", d.cabHelper, err)
	}
	if err := canceled(ctx, "cab"); err != nil {
		return err
	}
	if err := j.out.ensureRoot(); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, helper, cabArgs(helper, j.archive, j.out.root)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrCanceled, "cab", "run helper", "", ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[:512]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return services.Wrap(services.ErrCorrupt, "cab", "run helper", fmt.Sprintf("exit %d: %s", exitErr.ExitCode(), detail), err)
		}
		return services.Wrap(services.ErrCapabilityMissing, "cab", "run helper", detail, err)
	}

	files, size := tallyTree(j.out.root)
	j.out.files += files
	j.out.bytes += size
	j.logger.Debug("cab helper finished",
		logging.String("helper", helper),
		logging.Int("files", files),
	)
	return nil
}

// tallyTree counts regular files under root. The helper does not report what
// it wrote, so this is what the target holds after the run.
func tallyTree(root string) (int, int64) {
	var (
		files int
		size  int64
	)
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}
