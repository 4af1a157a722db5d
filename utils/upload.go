package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"

	"github.com/google/uuid"
)

const (
	MaxImageSize   = 5 << 20
	MaxImagesCount = 5
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Upload validation failures. All of them match apperrors.ErrUpload.
var (
	ErrNotAnImage     = apperrors.WithMessage(apperrors.ErrUpload, "Only image files are allowed")
	ErrImageFormat    = apperrors.WithMessage(apperrors.ErrUpload, "Invalid image format")
	ErrImageTooLarge  = apperrors.WithMessage(apperrors.ErrUpload, "Image exceeds 5MB")
	ErrTooManyImages  = apperrors.WithMessage(apperrors.ErrUpload, "At most 5 images can be uploaded")
	ErrNoImagesPosted = apperrors.WithMessage(apperrors.ErrUpload, "No images uploaded")
)

// ImageStore keeps uploaded images on local disk and returns the stored file
// names as opaque references.
type ImageStore struct {
	dir string
}

// NewImageStore creates dir if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir is the directory served under /uploads.
func (s *ImageStore) Dir() string { return s.dir }

// Validate checks every file before anything is written.
func (s *ImageStore) Validate(files []*multipart.FileHeader) error {
	if len(files) > MaxImagesCount {
		return ErrTooManyImages
	}
	for _, fh := range files {
		if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
			return ErrNotAnImage
		}
		if !allowedImageExt[strings.ToLower(filepath.Ext(fh.Filename))] {
			return ErrImageFormat
		}
		if fh.Size > MaxImageSize {
			return ErrImageTooLarge
		}
	}
	return nil
}

// Save validates and writes files, returning their stored names. On failure
// nothing written by this call is left behind.
func (s *ImageStore) Save(files []*multipart.FileHeader) ([]string, error) {
	if err := s.Validate(files); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], strings.ToLower(filepath.Ext(fh.Filename)))
		if err := s.write(fh, name); err != nil {
			s.Remove(names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *ImageStore) write(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	return finishWrite(dst, io.LimitReader(src, MaxImageSize+1))
}

// finishWrite copies src into dst and closes it. A failed close removes the
// partial file.
func finishWrite(dst *os.File, src io.Reader) error {
	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst.Name())
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}

// Remove deletes stored images, ignoring missing files.
func (s *ImageStore) Remove(names []string) {
	for _, name := range names {
		_ = os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	}
}
