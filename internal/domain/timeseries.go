package domain

import (
	"fmt"
	"iter"
	"sort"
	"strings"
)

// Metrics is the leaf of the time-series tree: per-observation vectors keyed
// by metric name (rjd, rv, rv_err, raw_file, ...). Values come straight from
// the archive's JSON payload.
type Metrics map[string]any

// TimeSeries is the nested mapping DACE returns for a target when grouped by
// instrument: instrument name → pipeline identifier → observation mode →
// metric vectors. It is fetched once per Star and never refreshed.
type TimeSeries map[string]map[string]map[string]Metrics

// Leaf is one (instrument, pipeline, mode) entry visited during traversal.
type Leaf struct {
	Instrument string
	Pipeline   string
	Mode       string
	Metrics    Metrics
}

// Filter restricts traversal per level. A non-empty token accepts a key when
// the key equals or contains the token; an empty token accepts everything.
type Filter struct {
	Instrument string
	Pipeline   string
	Mode       string
}

func accepts(token, key string) bool {
	return token == "" || strings.Contains(key, token)
}

// Walk returns a lazy depth-first traversal over the tree, instrument first,
// then pipeline, then observation mode. Non-matching keys are rejected before
// descending. The sequence is finite and restartable; keys are visited in
// sorted order so runs are deterministic.
func (ts TimeSeries) Walk(f Filter) iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		for _, inst := range sortedKeys(ts) {
			if !accepts(f.Instrument, inst) {
				continue
			}
			pipes := ts[inst]
			for _, pipe := range sortedKeys(pipes) {
				if !accepts(f.Pipeline, pipe) {
					continue
				}
				modes := pipes[pipe]
				for _, mode := range sortedKeys(modes) {
					if !accepts(f.Mode, mode) {
						continue
					}
					if !yield(Leaf{Instrument: inst, Pipeline: pipe, Mode: mode, Metrics: modes[mode]}) {
						return
					}
				}
			}
		}
	}
}

// Instruments lists the instrument keys in sorted order.
func (ts TimeSeries) Instruments() []string {
	return sortedKeys(ts)
}

// Pipelines lists the pipeline keys of one instrument in sorted order.
func (ts TimeSeries) Pipelines(instrument string) ([]string, bool) {
	pipes, ok := ts[instrument]
	if !ok {
		return nil, false
	}
	return sortedKeys(pipes), true
}

// Modes lists the observation-mode keys of one instrument+pipeline pair.
func (ts TimeSeries) Modes(instrument, pipeline string) ([]string, bool) {
	pipes, ok := ts[instrument]
	if !ok {
		return nil, false
	}
	modes, ok := pipes[pipeline]
	if !ok {
		return nil, false
	}
	return sortedKeys(modes), true
}

// RawFiles extracts the remote file paths attached to a leaf.
func (m Metrics) RawFiles() ([]string, error) {
	return m.Strings("raw_file")
}

// Strings reads a metric vector as strings.
func (m Metrics) Strings(name string) ([]string, error) {
	raw, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("metric %q is not present", name)
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("metric %q holds %T, not strings", name, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("metric %q holds %T, not a string vector", name, raw)
	}
}

// Floats reads a metric vector as float64 values.
func (m Metrics) Floats(name string) ([]float64, error) {
	raw, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("metric %q is not present", name)
	}
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil, fmt.Errorf("metric %q holds %T, not floats", name, item)
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("metric %q holds %T, not a float vector", name, raw)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
