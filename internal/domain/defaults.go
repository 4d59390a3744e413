package domain

import "time"

// InstrumentAliases maps instrument names a researcher uses to the name the
// archive stores them under. HARPS-N was renamed to HARPN on DACE.
var InstrumentAliases = map[string]string{
	"HARPSN": "HARPN",
}

// DefaultPipelineVersions is the fallback pipeline identifier per instrument
// family, matched by substring, used when neither a single pipeline nor a
// user hint settles the choice. The versions are archive-side facts; keep
// them overridable but do not edit without an authoritative source.
var DefaultPipelineVersions = map[string]string{
	"ESPRESSO": "3.0.0",
	"HARPN":    "2.3.5",
}

// DownloadRecord is one transferred remote file, persisted for dedup hints
// and audit.
type DownloadRecord struct {
	Target       string
	RemotePath   string
	LocalDir     string
	DownloadedAt time.Time
}
