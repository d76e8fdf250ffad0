package modelhub

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"swaraj/internal/download"
	"swaraj/internal/logging"

	"go.uber.org/zap"
)

// PullOptions controls fetching of missing models.
type PullOptions struct {
	AutoDownload bool
	NoProgress   bool
	Logger       *zap.Logger
}

// Ensure resolves ref and, when it is missing and auto-download is on,
// fetches it. It returns the local path.
func Ensure(ctx context.Context, ref, modelDir string, opts PullOptions) (string, error) {
	resolved, err := Resolve(ref, modelDir)
	if err != nil {
		return "", err
	}
	if !resolved.NeedsDownload {
		return resolved.Path, nil
	}
	if !opts.AutoDownload || resolved.URL == "" {
		return "", missingError(resolved, opts.AutoDownload)
	}
	if err := Pull(ctx, resolved, opts); err != nil {
		return "", err
	}
	return resolved.Path, nil
}

func missingError(r Resolved, autoDownload bool) error {
	switch {
	case r.URL == "":
		return fmt.Errorf("model %q is missing at %s: %s", r.Name, r.Path, r.Hint)
	case !autoDownload:
		return fmt.Errorf("model %q is missing at %s; run `server pull-model %s` or set AUTO_DOWNLOAD=true", r.Name, r.Path, r.Name)
	default:
		return fmt.Errorf("model %q is missing at %s", r.Name, r.Path)
	}
}

// Pull downloads a registered model into place.
func Pull(ctx context.Context, r Resolved, opts PullOptions) error {
	if r.URL == "" {
		return missingError(r, true)
	}
	logger := logging.OrNop(opts.Logger)
	logger.Info("downloading model", zap.String("model", r.Name), zap.String("destination", r.Path))

	if !r.Archive {
		return download.File(ctx, download.Options{
			URL:         r.URL,
			Destination: r.Path,
			NoProgress:  opts.NoProgress,
			Logger:      logger,
		})
	}

	archive := r.Path + ".tar.bz2"
	defer os.Remove(archive)

	if err := download.File(ctx, download.Options{
		URL:         r.URL,
		Destination: archive,
		NoProgress:  opts.NoProgress,
		Logger:      logger,
	}); err != nil {
		return fmt.Errorf("download model %q: %w", r.Name, err)
	}

	if err := extractTarBz2(archive, filepath.Dir(r.Path)); err != nil {
		return fmt.Errorf("extract model %q: %w", r.Name, err)
	}
	if _, err := os.Stat(r.Path); err != nil {
		return fmt.Errorf("archive for %q did not contain %s", r.Name, filepath.Base(r.Path))
	}

	logger.Info("model ready", zap.String("model", r.Name), zap.String("path", r.Path))
	return nil
}

func extractTarBz2(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return extractTar(bzip2.NewReader(f), dest)
}

// extractTar unpacks regular files and directories into dest, refusing
// entries that would land outside it.
func extractTar(r io.Reader, dest string) error {
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		}
	}
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
