// Package storage keeps uploaded files on the local disk under a single root
// directory. Each stored file gets a fresh time-ordered KSUID name, so
// concurrent uploads never collide and never overwrite each other.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/segmentio/ksuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrOutsideRoot is returned for paths that escape the storage root.
	ErrOutsideRoot = errors.New("path outside upload directory")
)

// File describes a stored upload.
type File struct {
	Name         string `json:"file_name"`
	OriginalName string `json:"original_name"`
	Path         string `json:"file_path"`
	URL          string `json:"url"`
	ContentType  string `json:"file_type"`
	Size         int64  `json:"file_size"`
}

// Local stores files in Dir and exposes them under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// NewLocal creates dir if needed.
func NewLocal(dir, urlPrefix string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/"), MaxBytes: maxBytes}, nil
}

// Save writes r to a new uniquely named file keeping the extension of
// originalName. The file is created exclusively; a partial file is removed
// when the copy fails or the size limit is hit.
func (l *Local) Save(originalName string, r io.Reader) (File, error) {
	name := ksuid.New().String() + cleanExt(originalName)
	full := filepath.Join(l.Dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return File{}, fmt.Errorf("create upload: %w", err)
	}

	src := r
	if l.MaxBytes > 0 {
		src = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	cerr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(full)
		return File{}, fmt.Errorf("write upload: %w", err)
	case cerr != nil:
		_ = os.Remove(full)
		return File{}, fmt.Errorf("close upload: %w", cerr)
	case l.MaxBytes > 0 && n > l.MaxBytes:
		_ = os.Remove(full)
		return File{}, ErrTooLarge
	}

	ctype := "application/octet-stream"
	if mt, err := mimetype.DetectFile(full); err == nil {
		ctype = mt.String()
	}

	return File{
		Name:         name,
		OriginalName: filepath.Base(originalName),
		Path:         full,
		URL:          l.URLPrefix + "/" + name,
		ContentType:  ctype,
		Size:         n,
	}, nil
}

// Remove deletes a previously stored file. Missing files are not an error.
func (l *Local) Remove(path string) error {
	root, err := filepath.Abs(l.Dir)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// allowedExt lists the extensions kept on stored names. Anything else is
// dropped so uploads served from /uploads never render as active content.
var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".txt": true, ".csv": true, ".dwg": true, ".dxf": true, ".zip": true,
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if !allowedExt[ext] {
		return ""
	}
	return ext
}
