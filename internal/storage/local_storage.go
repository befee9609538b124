package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "go-image-compressor/internal/errors"

	"github.com/disintegration/imaging"
)

// LocalImageStore keeps images as files in a single directory. The file
// extension selects the encoding; names without one are written as PNG.
type LocalImageStore struct {
	dir string
}

// NewLocalImageStore creates dir if needed
func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to create storage directory", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

// Dir returns the storage directory
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) SaveImage(ctx context.Context, name string, img image.Image) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := imaging.Save(img, path); err != nil {
		return "", apperrors.NewInternalError("failed to save image", err).WithDetails("path %s", path)
	}
	return path, nil
}

func (s *LocalImageStore) LoadImage(ctx context.Context, name string) (image.Image, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("image not found", err).WithDetails("path %s", path)
		}
		return nil, apperrors.NewInvalidInputError("failed to open image", err)
	}
	return img, nil
}

func (s *LocalImageStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid image name %q", name), nil)
	}
	if filepath.Ext(name) == "" {
		name += ".png"
	}
	return filepath.Join(s.dir, name), nil
}
