package sweep

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// SystemTrash moves files to the desktop's own trash: the Finder trash on
// macOS, the Recycle Bin on Windows and the FreeDesktop home trash elsewhere.
type SystemTrash struct{}

// Trash moves path to the system trash. The system does not report where the
// file went, so the returned location is empty.
func (SystemTrash) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", err
	}
	if err := wastebasket.Trash(abs); err != nil {
		return "", fmt.Errorf("move %s to trash: %w", abs, err)
	}
	return "", nil
}

// NewTrash returns the system trash when dir is empty and a DirTrash rooted
// at dir otherwise.
func NewTrash(dir string) (Trasher, error) {
	if dir == "" {
		return SystemTrash{}, nil
	}
	return NewDirTrash(dir)
}

// DirTrash is a FreeDesktop.org style trash can in a directory of its own.
// Trashed items live in files/ and each has a matching info/<name>.trashinfo
// recording where it came from.
type DirTrash struct {
	Dir string
	now func() time.Time
}

// NewDirTrash returns a trash rooted at dir.
func NewDirTrash(dir string) (*DirTrash, error) {
	if dir == "" {
		return nil, errors.New("trash directory not set")
	}
	return &DirTrash{Dir: dir, now: time.Now}, nil
}

// Trash moves path into the trash and returns its new location. A name
// already in the trash gets a numeric suffix.
func (t *DirTrash) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", err
	}

	filesDir := filepath.Join(t.Dir, "files")
	infoDir := filepath.Join(t.Dir, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return "", fmt.Errorf("create trash: %w", err)
		}
	}

	name, info, err := t.reserve(filesDir, infoDir, abs)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(filesDir, name)
	if err := move(abs, dest); err != nil {
		os.Remove(info)
		return "", fmt.Errorf("move %s: %w", abs, err)
	}
	return dest, nil
}

// reserve claims a name free in both files/ and info/ by exclusively
// creating its .trashinfo file.
func (t *DirTrash) reserve(filesDir, infoDir, abs string) (string, string, error) {
	base := filepath.Base(abs)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(),
		t.now().Format("2006-01-02T15:04:05"))

	for n := 1; n < 10000; n++ {
		name := base
		if n > 1 {
			name = stem + " " + strconv.Itoa(n) + ext
		}
		if _, err := os.Lstat(filepath.Join(filesDir, name)); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("check trash: %w", err)
		}

		info := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(info, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("write trash info: %w", err)
		}
		_, werr := f.WriteString(content)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			os.Remove(info)
			return "", "", fmt.Errorf("write trash info: %w", werr)
		}
		return name, info, nil
	}
	return "", "", fmt.Errorf("no free trash name for %s", base)
}

// move renames src to dst, copying across filesystems when needed.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyTree(src, dst); err != nil {
		os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(p, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
