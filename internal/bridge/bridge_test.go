package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/derpledex/databridge/internal/sources"
	"github.com/derpledex/databridge/internal/table"
	"github.com/derpledex/databridge/pkg/source"
)

// fakeSource records the params it was fetched with and returns canned records.
type fakeSource struct {
	records    []source.Record
	fetchErr   error
	gotParams  map[string]interface{}
	fetchCalls int
	closed     bool
}

func (f *fakeSource) Fetch(_ context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	f.fetchCalls++
	f.gotParams = params
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &source.FetchResult{Records: f.records}, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// fakeRegistry hands out a fixed source and records the config it saw.
type fakeRegistry struct {
	src       *fakeSource
	createErr error
	gotConfig *source.Config
}

func (f *fakeRegistry) CreateSource(cfg *source.Config) (source.Source, error) {
	f.gotConfig = cfg
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.src, nil
}

func TestFetchWithConfig_EmptyRecordsYieldsEmptyTable(t *testing.T) {
	reg := &fakeRegistry{src: &fakeSource{}}
	b := New(reg)

	tbl, err := b.FetchWithConfig(context.Background(), "empty_src", source.KindMacroSeries,
		map[string]interface{}{"series": []string{"GDP"}}, []string{"series_id", "date"}, true, nil)

	if err != nil {
		t.Fatalf("expected nil error for empty result, got %v", err)
	}
	if !tbl.Empty() {
		t.Errorf("expected empty table, got %d rows", tbl.Len())
	}
}

func TestFetchWithConfig_AppendsProvenanceColumns(t *testing.T) {
	reg := &fakeRegistry{src: &fakeSource{records: []source.Record{
		{Data: map[string]interface{}{"symbol": "^GSPC", "close": 5000.0}},
		{Data: map[string]interface{}{"symbol": "^DJI", "close": 39000.0, "volume": int64(10)}},
	}}}
	b := New(reg)

	tbl, err := b.FetchWithConfig(context.Background(), "us_indices", source.KindPriceHistory,
		map[string]interface{}{}, []string{"symbol"}, false, nil)
	if err != nil {
		t.Fatalf("FetchWithConfig failed: %v", err)
	}

	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}

	// Union of input fields is {symbol, close, volume}; output adds exactly 2
	cols := tbl.Columns()
	if len(cols) != 5 {
		t.Errorf("expected 5 columns (3 data + 2 provenance), got %d: %v", len(cols), cols)
	}

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		if row[table.SourceIDColumn] != "us_indices" {
			t.Errorf("row %d: expected source id 'us_indices', got %v", i, row[table.SourceIDColumn])
		}
		ts, ok := row[table.FetchedAtColumn].(string)
		if !ok {
			t.Fatalf("row %d: fetched_at is not a string: %v", i, row[table.FetchedAtColumn])
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			t.Errorf("row %d: fetched_at %q is not RFC 3339: %v", i, ts, err)
		}
		if parsed.Location() != time.UTC {
			t.Errorf("row %d: fetched_at %q is not UTC", i, ts)
		}
	}
}

func TestFetchWithConfig_DoesNotMutateSourceRecords(t *testing.T) {
	original := map[string]interface{}{"symbol": "^GSPC"}
	reg := &fakeRegistry{src: &fakeSource{records: []source.Record{{Data: original}}}}
	b := New(reg)

	if _, err := b.FetchWithConfig(context.Background(), "x", source.KindPriceHistory,
		nil, nil, false, nil); err != nil {
		t.Fatalf("FetchWithConfig failed: %v", err)
	}

	if _, found := original[table.SourceIDColumn]; found {
		t.Error("expected record data to be copied, not mutated in place")
	}
}

func TestFetchWithConfig_ExtraParamsOverrideConfig(t *testing.T) {
	src := &fakeSource{}
	reg := &fakeRegistry{src: src}
	b := New(reg)

	_, err := b.FetchWithConfig(context.Background(), "s", source.KindPriceHistory,
		map[string]interface{}{"period": "1y", "interval": "1d"},
		nil, false,
		map[string]interface{}{"period": "5y"})
	if err != nil {
		t.Fatalf("FetchWithConfig failed: %v", err)
	}

	if src.gotParams["period"] != "5y" {
		t.Errorf("expected per-call period '5y' to win, got %v", src.gotParams["period"])
	}
	if src.gotParams["interval"] != "1d" {
		t.Errorf("expected config interval '1d' to survive, got %v", src.gotParams["interval"])
	}
}

func TestFetchWithConfig_BuildsSourceConfig(t *testing.T) {
	reg := &fakeRegistry{src: &fakeSource{}}
	b := New(reg)

	_, err := b.FetchWithConfig(context.Background(), "fed_stress", source.KindStressScenario,
		map[string]interface{}{"years": []int{2024}},
		[]string{"year", "table", "date"}, false, nil)
	if err != nil {
		t.Fatalf("FetchWithConfig failed: %v", err)
	}

	cfg := reg.gotConfig
	if cfg.ID != "fed_stress" || cfg.Name != "fed_stress" {
		t.Errorf("expected config id/name 'fed_stress', got %q/%q", cfg.ID, cfg.Name)
	}
	if cfg.Kind != source.KindStressScenario {
		t.Errorf("expected kind fedstress, got %q", cfg.Kind)
	}
	if len(cfg.PrimaryKeys) != 3 {
		t.Errorf("expected 3 primary keys, got %v", cfg.PrimaryKeys)
	}
	if cfg.Incremental {
		t.Error("expected incremental false")
	}
}

func TestFetchWithConfig_SourceErrorPropagatesUnmodified(t *testing.T) {
	fetchErr := errors.New("connection refused")
	reg := &fakeRegistry{src: &fakeSource{fetchErr: fetchErr}}
	b := New(reg)

	_, err := b.FetchWithConfig(context.Background(), "s", source.KindFeed, nil, nil, false, nil)
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected source error to propagate unmodified, got %v", err)
	}
}

func TestFetchWithConfig_RegistryErrorPropagates(t *testing.T) {
	createErr := errors.New("unknown kind")
	reg := &fakeRegistry{createErr: createErr}
	b := New(reg)

	_, err := b.FetchWithConfig(context.Background(), "s", source.KindFeed, nil, nil, false, nil)
	if !errors.Is(err, createErr) {
		t.Errorf("expected registry error to propagate, got %v", err)
	}
}

func TestFetchWithConfig_ClosesSource(t *testing.T) {
	src := &fakeSource{}
	reg := &fakeRegistry{src: src}
	b := New(reg)

	if _, err := b.FetchWithConfig(context.Background(), "s", source.KindFeed, nil, nil, false, nil); err != nil {
		t.Fatalf("FetchWithConfig failed: %v", err)
	}
	if !src.closed {
		t.Error("expected source to be closed after fetch")
	}
}

// wrapperEquivalence fetches through a wrapper and through the generic path
// with the equivalent arguments, and compares the resulting data rows.
func wrapperEquivalence(t *testing.T, records []source.Record,
	viaWrapper func(*Bridge) (*table.Table, error),
	kind source.Kind, config map[string]interface{}, primaryKeys []string, incremental bool) {
	t.Helper()

	wrapperReg := &fakeRegistry{src: &fakeSource{records: records}}
	got, err := viaWrapper(New(wrapperReg))
	if err != nil {
		t.Fatalf("wrapper fetch failed: %v", err)
	}

	genericReg := &fakeRegistry{src: &fakeSource{records: records}}
	want, err := New(genericReg).FetchWithConfig(context.Background(), "src", kind,
		config, primaryKeys, incremental, nil)
	if err != nil {
		t.Fatalf("generic fetch failed: %v", err)
	}

	if wrapperReg.gotConfig.Kind != kind {
		t.Errorf("wrapper used kind %q, want %q", wrapperReg.gotConfig.Kind, kind)
	}
	if len(wrapperReg.gotConfig.PrimaryKeys) != len(primaryKeys) {
		t.Errorf("wrapper primary keys %v, want %v", wrapperReg.gotConfig.PrimaryKeys, primaryKeys)
	}
	if wrapperReg.gotConfig.Incremental != incremental {
		t.Errorf("wrapper incremental %v, want %v", wrapperReg.gotConfig.Incremental, incremental)
	}

	if got.Len() != want.Len() {
		t.Fatalf("wrapper produced %d rows, generic produced %d", got.Len(), want.Len())
	}
	for i := 0; i < got.Len(); i++ {
		gotRow, wantRow := got.Row(i), want.Row(i)
		for k, v := range wantRow {
			if k == table.FetchedAtColumn {
				continue // timestamps are read per call
			}
			if gotRow[k] != v {
				t.Errorf("row %d field %q: wrapper %v, generic %v", i, k, gotRow[k], v)
			}
		}
	}
}

func TestFetchPriceHistoryMatchesGenericPath(t *testing.T) {
	records := []source.Record{{Data: map[string]interface{}{"symbol": "^GSPC", "close": 5000.0}}}
	wrapperEquivalence(t, records,
		func(b *Bridge) (*table.Table, error) {
			return b.FetchPriceHistory(context.Background(), "src", []string{"^GSPC"}, "1y", "1d")
		},
		source.KindPriceHistory,
		map[string]interface{}{"symbols": []string{"^GSPC"}, "period": "1y", "interval": "1d"},
		[]string{"symbol", "date"}, true)
}

func TestFetchFeedsMatchesGenericPath(t *testing.T) {
	records := []source.Record{{Data: map[string]interface{}{"id": "a", "title": "t"}}}
	feeds := []sources.FeedSpec{{Name: "fed", URL: "https://example.org/rss"}}
	wrapperEquivalence(t, records,
		func(b *Bridge) (*table.Table, error) {
			return b.FetchFeeds(context.Background(), "src", feeds)
		},
		source.KindFeed,
		map[string]interface{}{"feeds": []interface{}{
			map[string]interface{}{"name": "fed", "url": "https://example.org/rss"},
		}},
		[]string{"id"}, false)
}

func TestFetchMacroSeriesMatchesGenericPath(t *testing.T) {
	records := []source.Record{{Data: map[string]interface{}{"series_id": "GDP", "value": 1.0}}}
	wrapperEquivalence(t, records,
		func(b *Bridge) (*table.Table, error) {
			return b.FetchMacroSeries(context.Background(), "src", []string{"GDP"})
		},
		source.KindMacroSeries,
		map[string]interface{}{"series": []string{"GDP"}},
		[]string{"series_id", "date"}, true)
}

func TestFetchLaborSeriesMatchesGenericPath(t *testing.T) {
	records := []source.Record{{Data: map[string]interface{}{"series_id": "CUSR0000SA0", "value": 313.0}}}
	wrapperEquivalence(t, records,
		func(b *Bridge) (*table.Table, error) {
			return b.FetchLaborSeries(context.Background(), "src", []string{"CUSR0000SA0"})
		},
		source.KindLaborSeries,
		map[string]interface{}{"series": []string{"CUSR0000SA0"}},
		[]string{"series_id", "date"}, true)
}

func TestFetchStressScenariosMatchesGenericPath(t *testing.T) {
	records := []source.Record{{Data: map[string]interface{}{"year": 2024, "variable": "Unemployment rate"}}}
	wrapperEquivalence(t, records,
		func(b *Bridge) (*table.Table, error) {
			return b.FetchStressScenarios(context.Background(), "src", []int{2024}, []string{"baseline"})
		},
		source.KindStressScenario,
		map[string]interface{}{"years": []int{2024}, "scenarios": []string{"baseline"}},
		[]string{"year", "table", "date"}, false)
}

func TestFetchPriceHistoryDefaults(t *testing.T) {
	src := &fakeSource{}
	reg := &fakeRegistry{src: src}
	b := New(reg)

	if _, err := b.FetchPriceHistory(context.Background(), "src", []string{"^GSPC"}, "", ""); err != nil {
		t.Fatalf("FetchPriceHistory failed: %v", err)
	}
	if src.gotParams["period"] != DefaultPeriod {
		t.Errorf("expected default period %q, got %v", DefaultPeriod, src.gotParams["period"])
	}
	if src.gotParams["interval"] != DefaultInterval {
		t.Errorf("expected default interval %q, got %v", DefaultInterval, src.gotParams["interval"])
	}
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	first := Default()
	second := Default()
	if first != second {
		t.Error("expected Default() to return the same instance across calls")
	}
	if first == nil {
		t.Fatal("expected non-nil default bridge")
	}
}
