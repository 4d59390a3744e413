package domain

import (
	"reflect"
	"testing"
)

func sampleTree() TimeSeries {
	return TimeSeries{
		"ESPRESSO19": {
			"3.0.0 HR": {
				"HR11": Metrics{"rv": []any{1.0, 2.0}, "rjd": []any{100.0, 101.0}},
				"HR21": Metrics{"rv": []any{3.0}, "rjd": []any{102.0}},
			},
		},
		"HARPN": {
			"2.3.5": {
				"HR": Metrics{"rv": []any{4.0}, "rjd": []any{103.0}},
			},
			"3.7": {
				"HR": Metrics{"rv": []any{5.0}, "rjd": []any{104.0}},
			},
		},
	}
}

func TestWalkVisitsEveryLeafOnce(t *testing.T) {
	t.Parallel()

	ts := sampleTree()
	visited := map[string]int{}
	for leaf := range ts.Walk(Filter{}) {
		visited[leaf.Instrument+"/"+leaf.Pipeline+"/"+leaf.Mode]++

		want := ts[leaf.Instrument][leaf.Pipeline][leaf.Mode]
		if !reflect.DeepEqual(leaf.Metrics["rv"], want["rv"]) {
			t.Fatalf("leaf %s/%s/%s: rv mismatch", leaf.Instrument, leaf.Pipeline, leaf.Mode)
		}
	}

	if len(visited) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(visited))
	}
	for key, n := range visited {
		if n != 1 {
			t.Fatalf("leaf %s visited %d times", key, n)
		}
	}
}

func TestWalkInstrumentFilter(t *testing.T) {
	t.Parallel()

	ts := sampleTree()

	var none int
	for range ts.Walk(Filter{Instrument: "CORALIE"}) {
		none++
	}
	if none != 0 {
		t.Fatalf("expected empty sequence for unmatched filter, got %d leaves", none)
	}

	for leaf := range ts.Walk(Filter{Instrument: "HARPN"}) {
		if leaf.Instrument != "HARPN" {
			t.Fatalf("filter leaked instrument %s", leaf.Instrument)
		}
	}
}

func TestWalkSubstringContainment(t *testing.T) {
	t.Parallel()

	ts := sampleTree()

	var matched []string
	for leaf := range ts.Walk(Filter{Instrument: "ESPRESSO"}) {
		matched = append(matched, leaf.Instrument)
	}
	if len(matched) != 2 {
		t.Fatalf("expected the ESPRESSO19 subtree (2 leaves), got %d", len(matched))
	}
	for _, inst := range matched {
		if inst != "ESPRESSO19" {
			t.Fatalf("unexpected instrument %s", inst)
		}
	}
}

func TestWalkPipelineAndModeFilters(t *testing.T) {
	t.Parallel()

	ts := sampleTree()

	var leaves []Leaf
	for leaf := range ts.Walk(Filter{Pipeline: "2.3.5", Mode: "HR"}) {
		leaves = append(leaves, leaf)
	}

	if len(leaves) != 1 {
		t.Fatalf("expected 1 leaf, got %d", len(leaves))
	}
	if leaves[0].Instrument != "HARPN" || leaves[0].Pipeline != "2.3.5" {
		t.Fatalf("unexpected leaf %+v", leaves[0])
	}
}

func TestWalkIsRestartable(t *testing.T) {
	t.Parallel()

	ts := sampleTree()
	seq := ts.Walk(Filter{})

	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}

	if first != second || first == 0 {
		t.Fatalf("expected identical restartable passes, got %d and %d", first, second)
	}
}

func TestInstrumentsSorted(t *testing.T) {
	t.Parallel()

	got := sampleTree().Instruments()
	want := []string{"ESPRESSO19", "HARPN"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMetricsAccessors(t *testing.T) {
	t.Parallel()

	m := Metrics{
		"rv":       []any{1.5, 2.5},
		"raw_file": []any{"HARPN/2.3.5/HR/a.fits", "HARPN/2.3.5/HR/b.fits"},
	}

	floats, err := m.Floats("rv")
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	if !reflect.DeepEqual(floats, []float64{1.5, 2.5}) {
		t.Fatalf("unexpected floats %v", floats)
	}

	files, err := m.RawFiles()
	if err != nil {
		t.Fatalf("RawFiles: %v", err)
	}
	if len(files) != 2 || files[0] != "HARPN/2.3.5/HR/a.fits" {
		t.Fatalf("unexpected raw files %v", files)
	}

	if _, err := m.Strings("missing"); err == nil {
		t.Fatal("expected error for missing metric")
	}
	if _, err := m.Floats("raw_file"); err == nil {
		t.Fatal("expected error for wrongly typed metric")
	}
}
