package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// DefaultUploadSuffix is used when the client filename carries no usable extension.
const DefaultUploadSuffix = ".webm"

// UploadSuffix infers the temp file extension from a client-supplied
// filename. The filename is advisory only: nothing else about it is used.
func UploadSuffix(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	// "", ".", and dotfiles like ".env" carry no extension.
	if ext == "" || ext == "." || ext == base || !validSuffix(ext) {
		return DefaultUploadSuffix
	}
	return ext
}

func validSuffix(ext string) bool {
	if len(ext) > 16 {
		return false
	}
	for _, r := range ext[1:] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// saveUpload copies an uploaded file into a uniquely named temp file and
// returns its path. The caller owns the file.
func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dest, err := os.CreateTemp(dir, "swaraj-*"+UploadSuffix(fh.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	_, copyErr := io.Copy(dest, src)
	closeErr := dest.Close()
	if err := multierr.Combine(copyErr, closeErr); err != nil {
		_ = os.Remove(dest.Name())
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return dest.Name(), nil
}

// removeTemp deletes every path, ignoring ones that are already gone.
func removeTemp(paths ...string) error {
	var err error
	for _, p := range paths {
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
	}
	return err
}
