package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/paygate/pkg/config"
)

var (
	ErrInvalidName = errors.New("invalid stored file name")
	ErrExists      = errors.New("stored file already exists")
)

// Area is the flat directory of normalized images. Names are never reused, so
// concurrent writers never target the same file.
type Area struct {
	fs  afero.Fs
	dir string
}

// NewArea creates dir on fs when missing.
func NewArea(fsys afero.Fs, dir string) (*Area, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Area{fs: fsys, dir: dir}, nil
}

func newOSArea(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*Area, error) {
	a, err := NewArea(afero.NewOsFs(), cfg.Upload.Dir)
	if err != nil {
		l.Errorw("storage area unavailable", "error", err)
		return nil, err
	}
	return a, nil
}

var Module = fx.Options(
	fx.Provide(newOSArea),
)

func (a *Area) path(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(a.dir, name), nil
}

// Save writes data to a hidden temp file and renames it into place, so Count
// and readers never observe a partial image.
func (a *Area) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := a.path(name)
	if err != nil {
		return err
	}
	if ok, err := afero.Exists(a.fs, dst); err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	} else if ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	tmp, err := afero.TempFile(a.fs, a.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = a.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = a.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = a.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := a.fs.Rename(tmpName, dst); err != nil {
		_ = a.fs.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (a *Area) Remove(_ context.Context, name string) error {
	p, err := a.path(name)
	if err != nil {
		return err
	}
	if err := a.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

func (a *Area) Exists(_ context.Context, name string) (bool, error) {
	p, err := a.path(name)
	if err != nil {
		return false, err
	}
	return afero.Exists(a.fs, p)
}

// Count returns the number of stored images, ignoring hidden temp files and
// subdirectories.
func (a *Area) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list storage dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Mode().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			n++
		}
	}
	return n, nil
}

// ReadFile returns a stored file's bytes.
func (a *Area) ReadFile(_ context.Context, name string) ([]byte, error) {
	p, err := a.path(name)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(a.fs, p)
}
