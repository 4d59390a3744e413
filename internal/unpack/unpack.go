// Package unpack post-processes archives retrieved from DACE: extracting the
// tar.gz bundle, flattening extracted subfolders, and checking for files that
// were already downloaded in an earlier run.
package unpack

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrAmbiguousArchive reports that the destination did not contain exactly
// one archive to extract.
var ErrAmbiguousArchive = errors.New("expected exactly one archive")

// Extract locates the single *.tar.gz file inside dir and extracts it in
// place. Zero or more than one archive present is fatal: guessing which
// bundle belongs to the current download would mix observation batches.
func Extract(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.tar.gz"))
	if err != nil {
		return fmt.Errorf("scan %s for archives: %w", dir, err)
	}
	if len(matches) != 1 {
		return fmt.Errorf("%w in %s, found %d", ErrAmbiguousArchive, dir, len(matches))
	}

	return extractTarGz(matches[0], dir)
}

func extractTarGz(archivePath, dir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := securePath(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent of %s: %w", target, err)
			}
			if err := writeFile(target, reader); err != nil {
				return err
			}
		default:
			// Symlinks and specials never appear in DACE bundles; skip.
		}
	}
}

func writeFile(target string, r io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

func securePath(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(dir, filepath.FromSlash(name)))
	if cleaned != dir && !strings.HasPrefix(cleaned, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, dir)
	}
	return cleaned, nil
}

// Flatten moves files with the given extension from first-level
// subdirectories of dir up into dir itself, then removes subdirectories left
// empty. Files with other extensions stay where they are.
func Flatten(dir, ext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sub := filepath.Join(dir, entry.Name())
		matches, err := filepath.Glob(filepath.Join(sub, "*"+ext))
		if err != nil {
			return fmt.Errorf("scan %s: %w", sub, err)
		}

		for _, match := range matches {
			dest := filepath.Join(dir, filepath.Base(match))
			if err := os.Rename(match, dest); err != nil {
				return fmt.Errorf("move %s to %s: %w", match, dest, err)
			}
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sub := filepath.Join(dir, entry.Name())
		leftovers, err := os.ReadDir(sub)
		if err != nil {
			return fmt.Errorf("read %s: %w", sub, err)
		}
		if len(leftovers) > 0 {
			continue
		}
		if err := os.Remove(sub); err != nil {
			return fmt.Errorf("remove %s: %w", sub, err)
		}
	}

	return nil
}

// HasFileWithStem reports whether any file under dir (recursively) starts
// with the given stem. A missing dir means no collision.
func HasFileWithStem(dir, stem string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return fs.SkipAll
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), stem) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// Stem strips everything from the ".fits" suffix on, mirroring how the
// archive decorates file names with extension noise.
func Stem(name string) string {
	if idx := strings.Index(name, ".fits"); idx >= 0 {
		return name[:idx]
	}
	return name
}
