package star

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SpectraDL/internal/domain"
	"SpectraDL/internal/unpack"
)

// archiveName is the deterministic name of the bundle DACE writes per batch.
const archiveName = "result.tar.gz"

// dataFileExt is the extension of the science files inside the bundles.
const dataFileExt = ".fits"

// DownloadOptions steer one bulk download pass.
type DownloadOptions struct {
	// OutputDir is the root under which files are stored.
	OutputDir string
	// Force re-downloads files whose stem already exists on disk.
	Force bool
	// Instrument, Mode, and Pipeline filter leaves by substring containment;
	// empty values accept everything.
	Instrument string
	Mode       string
	Pipeline   string
	// FileType is forwarded to the archive ("all" when empty).
	FileType string
	// Unzip extracts each retrieved bundle into its destination directory.
	Unzip bool
	// CommonRootFolder moves extracted data files up into the destination
	// root and drops the emptied subdirectories. Only applies with Unzip.
	CommonRootFolder bool
	// AllowSubfolders splits destinations by instrument and pipeline name.
	AllowSubfolders bool
}

// DefaultDownloadOptions mirrors the knobs a researcher usually wants:
// unzip, flatten, and per-instrument subfolders all on.
func DefaultDownloadOptions(outputDir string) DownloadOptions {
	return DownloadOptions{
		OutputDir:        outputDir,
		FileType:         "all",
		Unzip:            true,
		CommonRootFolder: true,
		AllowSubfolders:  true,
	}
}

// Download walks the matching leaves, groups their raw files by destination
// directory, skips files already on disk unless forced, and retrieves each
// group as one compressed bundle, optionally extracting and flattening it.
// It returns the number of leaves that matched the filters.
func (s *Star) Download(ctx context.Context, opts DownloadOptions) (int, error) {
	if opts.FileType == "" {
		opts.FileType = "all"
	}

	instrument := opts.Instrument
	if canonical, ok := domain.InstrumentAliases[strings.ToUpper(instrument)]; ok {
		s.logger.Warn("instrument is stored under a different name on the archive",
			"requested", instrument, "using", canonical)
		instrument = canonical
	}

	leaves, err := s.Leaves(ctx, domain.Filter{
		Instrument: instrument,
		Pipeline:   opts.Pipeline,
		Mode:       opts.Mode,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	batches := map[string][]string{}
	var order []string

	for leaf := range leaves {
		count++
		files, err := leaf.Metrics.RawFiles()
		if err != nil {
			return 0, fmt.Errorf("raw files of %s/%s/%s: %w", leaf.Instrument, leaf.Pipeline, leaf.Mode, err)
		}

		for _, remote := range files {
			parts := strings.Split(remote, "/")

			dest := opts.OutputDir
			if opts.AllowSubfolders && len(parts) >= 2 {
				dest = filepath.Join(opts.OutputDir, parts[0], parts[1])
			}
			if _, ok := batches[dest]; !ok {
				batches[dest] = nil
				order = append(order, dest)
			}

			stem := unpack.Stem(parts[len(parts)-1])
			if !opts.Force && unpack.HasFileWithStem(dest, stem) {
				continue
			}
			batches[dest] = append(batches[dest], remote)
		}
	}

	if !opts.Force {
		s.dropLedgerDuplicates(ctx, batches)
	}

	s.logger.Info("launching downloads", "destinations", len(order))
	for _, dest := range order {
		files := batches[dest]
		if len(files) == 0 {
			s.logger.Warn("all files already exist in the destination", "dir", dest)
			continue
		}
		s.logger.Info("triggering download", "files", len(files), "dir", dest)

		if err := os.MkdirAll(dest, 0o755); err != nil {
			return 0, fmt.Errorf("create %s: %w", dest, err)
		}
		if err := s.archive.DownloadFiles(ctx, files, dest, opts.FileType, archiveName); err != nil {
			return 0, fmt.Errorf("download into %s: %w", dest, err)
		}

		if opts.Unzip {
			if err := unpack.Extract(dest); err != nil {
				return 0, fmt.Errorf("unpack %s: %w", dest, err)
			}
			if opts.CommonRootFolder {
				if err := unpack.Flatten(dest, dataFileExt); err != nil {
					return 0, fmt.Errorf("flatten %s: %w", dest, err)
				}
			}
		}

		s.recordDownloads(ctx, dest, files)
	}

	s.logger.Info("download pass complete", "matched", count)
	return count, nil
}

// dropLedgerDuplicates removes files the ledger already knows about. The
// ledger is advisory: failures only warn and keep the batch intact.
func (s *Star) dropLedgerDuplicates(ctx context.Context, batches map[string][]string) {
	if s.ledger == nil {
		return
	}

	var all []string
	for _, files := range batches {
		all = append(all, files...)
	}
	if len(all) == 0 {
		return
	}

	seen, err := s.ledger.AlreadyDownloaded(ctx, all)
	if err != nil {
		s.logger.Warn("download ledger lookup failed", "error", err)
		return
	}

	for dest, files := range batches {
		kept := files[:0]
		for _, remote := range files {
			if seen[remote] {
				continue
			}
			kept = append(kept, remote)
		}
		batches[dest] = kept
	}
}

func (s *Star) recordDownloads(ctx context.Context, dest string, files []string) {
	if s.ledger == nil {
		return
	}
	for _, remote := range files {
		rec := domain.DownloadRecord{
			Target:       s.name,
			RemotePath:   remote,
			LocalDir:     dest,
			DownloadedAt: time.Now(),
		}
		if err := s.ledger.SaveDownloaded(ctx, rec); err != nil {
			s.logger.Warn("recording download failed", "file", remote, "error", err)
		}
	}
}
