package transaction

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/opkgd/pkgbrokerd/internal/apperrors"
	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// stageFiles validates every path in files (§4.5 "file lists": every
// path resolves to a real, existing absolute path) and copies any path
// living on a filesystem other than the process temp area's into a
// staging directory there before dispatch, so the backend always sees
// a stable native path (Testable Property #10). Copy failures abort
// with a no-such-file error, matching §4.5's "copy failures abort with
// an invalid-file error".
func stageFiles(files []string) ([]string, *apperrors.Error) {
	nativeInfo, _ := os.Stat(os.TempDir())
	nativeDev, haveDev := deviceOf(nativeInfo)

	out := make([]string, 0, len(files))
	for _, f := range files {
		if !filepath.IsAbs(f) {
			return nil, apperrors.New(enums.ErrCodeNoSuchFile, fmt.Sprintf("%q is not an absolute path", f))
		}
		info, err := os.Stat(f)
		if err != nil {
			return nil, apperrors.New(enums.ErrCodeNoSuchFile, fmt.Sprintf("%q does not exist", f))
		}
		if info.IsDir() {
			return nil, apperrors.New(enums.ErrCodeNoSuchFile, fmt.Sprintf("%q is a directory, not a file", f))
		}

		dev, ok := deviceOf(info)
		if haveDev && ok && dev != nativeDev {
			staged, err := copyToStaging(f)
			if err != nil {
				return nil, apperrors.New(enums.ErrCodeNoSuchFile, fmt.Sprintf("staging copy of %q failed: %v", f, err))
			}
			f = staged
		}
		out = append(out, f)
	}
	return out, nil
}

// deviceOf resolves the filesystem device id info's file lives on, so
// stageFiles can tell a native path from one under a FUSE/remote mount.
// info may be nil (os.Stat having failed), in which case ok is false
// and the caller skips the native-device comparison.
func deviceOf(info os.FileInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

// copyToStaging copies src into a fresh directory under the process
// temp area and returns the copy's path.
func copyToStaging(src string) (string, error) {
	dir, err := os.MkdirTemp("", "pkgbrokerd-stage-")
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return dst, nil
}
