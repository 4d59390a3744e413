// Package star models a single target on the DACE archive: a lazily fetched,
// cached time-series tree plus filtered views, metric extraction, and bulk
// download of the raw files behind it.
package star

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"SpectraDL/internal/domain"
	"SpectraDL/internal/ports"
)

// ErrNotFound marks lookups of instruments, pipelines, modes, or metrics that
// are absent from the cached tree.
var ErrNotFound = errors.New("not found")

// Params identify the target and how to interpret it.
type Params struct {
	// Name is the catalog name of the target.
	Name string
	// PipelineHints picks a pipeline identifier per instrument when the
	// archive offers more than one.
	PipelineHints map[string]string
	// Profile, when set, selects an alternate API credential before the
	// metadata fetch.
	Profile string
}

// Deps wires the driven adapters into a Star.
type Deps struct {
	Archive ports.ArchiveClient
	Catalog ports.CatalogClient
	Ledger  ports.DownloadLedger
	Logger  *slog.Logger
}

// Star wraps the archive's view of one target. The time-series tree is
// fetched at most once per instance; discard and recreate the Star to see
// new archive data.
type Star struct {
	name    string
	hints   map[string]string
	profile string

	archive ports.ArchiveClient
	catalog ports.CatalogClient
	ledger  ports.DownloadLedger
	logger  *slog.Logger

	fetched  bool
	data     domain.TimeSeries
	fetchErr error
}

// New builds a Star for the named target.
func New(p Params, deps Deps) *Star {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Star{
		name:    p.Name,
		hints:   p.PipelineHints,
		profile: p.Profile,
		archive: deps.Archive,
		catalog: deps.Catalog,
		ledger:  deps.Ledger,
		logger:  logger,
	}
}

// Name returns the catalog name the Star was built with.
func (s *Star) Name() string { return s.name }

func (s *Star) String() string { return s.name }

// timeseries is the fetch-once, memoize accessor over the archive metadata
// call. Both the tree and a fetch failure stick for the Star's lifetime.
func (s *Star) timeseries(ctx context.Context) (domain.TimeSeries, error) {
	if s.fetched {
		return s.data, s.fetchErr
	}
	s.fetched = true

	if s.profile != "" {
		if err := s.archive.SwitchProfile(s.profile); err != nil {
			s.fetchErr = fmt.Errorf("switch to credential profile %q: %w", s.profile, err)
			return nil, s.fetchErr
		}
	}

	data, err := s.archive.Timeseries(ctx, s.name)
	if err != nil {
		s.fetchErr = fmt.Errorf("fetch time series of %s: %w", s.name, err)
		return nil, s.fetchErr
	}

	s.data = data
	return s.data, nil
}

// AvailableInstruments lists the instruments with data for this target.
func (s *Star) AvailableInstruments(ctx context.Context) ([]string, error) {
	data, err := s.timeseries(ctx)
	if err != nil {
		return nil, err
	}
	return data.Instruments(), nil
}

// PipelinesOfInstrument lists the pipeline identifiers under one instrument.
func (s *Star) PipelinesOfInstrument(ctx context.Context, instrument string) ([]string, error) {
	data, err := s.timeseries(ctx)
	if err != nil {
		return nil, err
	}
	pipes, ok := data.Pipelines(instrument)
	if !ok {
		return nil, fmt.Errorf("instrument %q: %w", instrument, ErrNotFound)
	}
	return pipes, nil
}

// ObservationModes lists the observation modes under an instrument+pipeline
// pair. Both names are validated against the key lists before indexing.
func (s *Star) ObservationModes(ctx context.Context, instrument, pipeline string) ([]string, error) {
	instruments, err := s.AvailableInstruments(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(instruments, instrument) {
		return nil, fmt.Errorf("instrument %q: %w", instrument, ErrNotFound)
	}

	pipes, err := s.PipelinesOfInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(pipes, pipeline) {
		return nil, fmt.Errorf("pipeline %q of instrument %q: %w", pipeline, instrument, ErrNotFound)
	}

	modes, _ := s.data.Modes(instrument, pipeline)
	return modes, nil
}

// Leaves returns the traversal primitive over the cached tree; every read
// operation is built on it.
func (s *Star) Leaves(ctx context.Context, f domain.Filter) (iter.Seq[domain.Leaf], error) {
	data, err := s.timeseries(ctx)
	if err != nil {
		return nil, err
	}
	return data.Walk(f), nil
}

// HeaderInfo is the extraction result, keyed instrument → observation mode →
// pipeline → metric name.
type HeaderInfo map[string]map[string]map[string]map[string]any

// HeaderInfo collects the requested metric values out of every leaf matched
// by the filter. Insertion is merge-on-insert at every level so an
// instrument's earlier modes survive later ones. A requested metric missing
// from a leaf is fatal.
func (s *Star) HeaderInfo(ctx context.Context, keys []string, f domain.Filter) (HeaderInfo, error) {
	leaves, err := s.Leaves(ctx, f)
	if err != nil {
		return nil, err
	}

	out := HeaderInfo{}
	for leaf := range leaves {
		values := make(map[string]any, len(keys))
		for _, key := range keys {
			v, ok := leaf.Metrics[key]
			if !ok {
				return nil, fmt.Errorf("metric %q under %s/%s/%s: %w",
					key, leaf.Instrument, leaf.Pipeline, leaf.Mode, ErrNotFound)
			}
			values[key] = v
		}

		byMode, ok := out[leaf.Instrument]
		if !ok {
			byMode = map[string]map[string]map[string]any{}
			out[leaf.Instrument] = byMode
		}
		byPipe, ok := byMode[leaf.Mode]
		if !ok {
			byPipe = map[string]map[string]any{}
			byMode[leaf.Mode] = byPipe
		}
		if _, ok := byPipe[leaf.Pipeline]; !ok {
			byPipe[leaf.Pipeline] = values
		}
	}

	return out, nil
}

// RadialVelocities extracts the timestamp, radial velocity, and its error
// from every matched leaf.
func (s *Star) RadialVelocities(ctx context.Context, f domain.Filter) (HeaderInfo, error) {
	return s.HeaderInfo(ctx, []string{"rjd", "rv", "rv_err"}, f)
}

// MetricsOfInstrument resolves which pipeline to read for an instrument,
// then accumulates the requested metrics across all observation modes of the
// matching pipelines into one flat list per metric.
func (s *Star) MetricsOfInstrument(ctx context.Context, instrument string, metrics ...string) (map[string][]any, error) {
	data, err := s.timeseries(ctx)
	if err != nil {
		return nil, err
	}

	pipeID, err := s.ResolvePipeline(ctx, instrument)
	if err != nil {
		return nil, err
	}

	pipes, ok := data.Pipelines(instrument)
	if !ok {
		return nil, fmt.Errorf("instrument %q: %w", instrument, ErrNotFound)
	}

	collected := make(map[string][]any, len(metrics))
	for _, metric := range metrics {
		collected[metric] = []any{}
	}

	for _, pipe := range pipes {
		// Containment, not equality: ESPRESSO pipeline names carry the mode
		// string as well, so only the version token is matched.
		if !strings.Contains(pipe, pipeID) {
			continue
		}
		modes, _ := data.Modes(instrument, pipe)
		for _, mode := range modes {
			leaf := data[instrument][pipe][mode]
			for _, metric := range metrics {
				v, ok := leaf[metric]
				if !ok {
					return nil, fmt.Errorf("metric %q under %s/%s/%s: %w",
						metric, instrument, pipe, mode, ErrNotFound)
				}
				collected[metric] = append(collected[metric], flattenValue(v)...)
			}
		}
	}

	return collected, nil
}

func flattenValue(v any) []any {
	switch vec := v.(type) {
	case []any:
		return vec
	case []float64:
		out := make([]any, len(vec))
		for i, f := range vec {
			out[i] = f
		}
		return out
	case []string:
		out := make([]any, len(vec))
		for i, s := range vec {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// ResolvePipeline decides which pipeline identifier to use for an
// instrument: a lone pipeline wins, then the user hint, then the family
// default table. No match is an explicit failure.
func (s *Star) ResolvePipeline(ctx context.Context, instrument string) (string, error) {
	pipes, err := s.PipelinesOfInstrument(ctx, instrument)
	if err != nil {
		return "", err
	}
	if len(pipes) == 1 {
		return pipes[0], nil
	}

	if s.hints != nil {
		if hinted, ok := s.hints[instrument]; ok {
			return hinted, nil
		}
		s.logger.Warn("pipeline hints were provided but do not cover this instrument",
			"instrument", instrument)
	}

	for family, version := range domain.DefaultPipelineVersions {
		if strings.Contains(instrument, family) {
			return version, nil
		}
	}

	return "", fmt.Errorf("no pipeline identifier resolvable for instrument %q: %w", instrument, ErrNotFound)
}

// SpectralType resolves the object's spectral type via the catalog and trims
// it to the two-character class, dropping the dwarf marker.
func (s *Star) SpectralType(ctx context.Context) (string, error) {
	raw, err := s.catalog.SpectralType(ctx, s.name)
	if err != nil {
		return "", fmt.Errorf("spectral type of %s: %w", s.name, err)
	}
	if len(raw) > 2 {
		raw = raw[:2]
	}
	return strings.ReplaceAll(raw, "d", ""), nil
}

// Aliases resolves the cross-identifiers the catalog knows for this target.
func (s *Star) Aliases(ctx context.Context) ([]string, error) {
	ids, err := s.catalog.ObjectIDs(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("aliases of %s: %w", s.name, err)
	}
	return ids, nil
}

// Summary renders the cached tree one key per line, indented per level.
func (s *Star) Summary(ctx context.Context) (string, error) {
	leaves, err := s.Leaves(ctx, domain.Filter{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintln(&b, s.name)
	seenInst := ""
	seenPipe := ""
	for leaf := range leaves {
		if leaf.Instrument != seenInst {
			fmt.Fprintf(&b, "  %s\n", leaf.Instrument)
			seenInst = leaf.Instrument
			seenPipe = ""
		}
		if leaf.Pipeline != seenPipe {
			fmt.Fprintf(&b, "    %s\n", leaf.Pipeline)
			seenPipe = leaf.Pipeline
		}
		fmt.Fprintf(&b, "      %s\n", leaf.Mode)
	}
	return b.String(), nil
}
