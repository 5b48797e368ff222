package sources

import (
	"context"
	"log/slog"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// StubSource is a placeholder fetch source for testing the bridge flow.
// It returns sample records without connecting to any external system.
type StubSource struct {
	Kind     string
	SourceID string
}

// NewStub creates a new stub source.
func NewStub(kind, sourceID string) *StubSource {
	return &StubSource{
		Kind:     kind,
		SourceID: sourceID,
	}
}

// Fetch returns sample records to demonstrate the bridge flow.
func (s *StubSource) Fetch(_ context.Context, _ map[string]interface{}) (*source.FetchResult, error) {
	logger.Info("stub source fetching data",
		slog.String("kind", s.Kind),
		slog.String("source_id", s.SourceID))

	return &source.FetchResult{Records: []source.Record{
		{Data: map[string]interface{}{"id": "1", "name": "Sample Record 1", "value": 100}},
		{Data: map[string]interface{}{"id": "2", "name": "Sample Record 2", "value": 200}},
	}}, nil
}

// Close releases resources (no-op for stub).
func (s *StubSource) Close() error {
	return nil
}

// Verify the built-in sources implement source.Source
var (
	_ source.Source = (*StubSource)(nil)
	_ source.Source = (*PriceHistory)(nil)
	_ source.Source = (*Feed)(nil)
	_ source.Source = (*MacroSeries)(nil)
	_ source.Source = (*LaborSeries)(nil)
	_ source.Source = (*StressScenarios)(nil)
)
