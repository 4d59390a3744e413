package ports

import (
	"context"

	"SpectraDL/internal/domain"
)

// ArchiveClient talks to the spectroscopy archive (DACE).
type ArchiveClient interface {
	// Timeseries fetches the full time-series tree for a target, grouped by
	// instrument.
	Timeseries(ctx context.Context, target string) (domain.TimeSeries, error)

	// DownloadFiles asks the archive to bundle the given remote files into a
	// compressed archive written to outputDir/outputName.
	DownloadFiles(ctx context.Context, files []string, outputDir, fileType, outputName string) error

	// SwitchProfile swaps the active API key to the one stored under the
	// named profile before any metadata call is made.
	SwitchProfile(profile string) error
}

// CatalogClient resolves object properties against a catalog (SIMBAD).
type CatalogClient interface {
	// SpectralType returns the raw spectral-type field for an object name.
	SpectralType(ctx context.Context, name string) (string, error)

	// ObjectIDs returns the cross-identifiers known for an object name.
	ObjectIDs(ctx context.Context, name string) ([]string, error)
}

// DownloadLedger persists transferred files for dedup hints and audit.
type DownloadLedger interface {
	AlreadyDownloaded(ctx context.Context, remotePaths []string) (map[string]bool, error)
	SaveDownloaded(ctx context.Context, rec domain.DownloadRecord) error
}
