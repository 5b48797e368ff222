package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validJSONConfig = `{
  "schemaVersion": "1.0.0",
  "sources": [
    {
      "id": "us_indices",
      "type": "yfinance",
      "config": {"symbols": ["^GSPC", "^DJI"], "period": "1y", "interval": "1d"},
      "primary_keys": ["symbol", "date"],
      "incremental": true
    },
    {
      "id": "fred_macro",
      "type": "fred",
      "config": {"series": ["GDP", "UNRATE"]},
      "primary_keys": ["series_id", "date"]
    }
  ]
}`

const validYAMLConfig = `schemaVersion: "1.0.0"
sources:
  - id: fed_news
    type: rss
    config:
      feeds:
        - name: fed_press
          url: https://www.federalreserve.gov/feeds/press_all.xml
    primary_keys: [id]
`

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestParseJSONString(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		errType   string
	}{
		{"valid object", `{"sources": []}`, true, ""},
		{"empty content", "", false, ErrorTypeSyntax},
		{"whitespace only", "   \n\t", false, ErrorTypeSyntax},
		{"syntax error", `{"sources": [`, false, ErrorTypeSyntax},
		{"array not object", `[1, 2, 3]`, false, ErrorTypeFormat},
		{"scalar not object", `42`, false, ErrorTypeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseJSONString(tt.content)
			if result.IsValid() != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v (errors: %v)", result.IsValid(), tt.wantValid, result.Errors)
			}
			if !tt.wantValid && len(result.Errors) > 0 && result.Errors[0].Type != tt.errType {
				t.Errorf("error type = %q, want %q", result.Errors[0].Type, tt.errType)
			}
		})
	}
}

func TestParseJSONStringReportsLineAndColumn(t *testing.T) {
	result := ParseJSONString("{\n  \"sources\": [,]\n}")
	if result.IsValid() {
		t.Fatal("expected parse error")
	}
	if result.Errors[0].Line != 2 {
		t.Errorf("expected error on line 2, got line %d", result.Errors[0].Line)
	}
}

func TestParseYAMLString(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
	}{
		{"valid mapping", "sources:\n  - id: a\n    type: fred\n", true},
		{"empty content", "", false},
		{"scalar not mapping", "just a string", false},
		{"bad indentation", "sources:\n\t- id: a\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseYAMLString(tt.content)
			if result.IsValid() != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v (errors: %v)", result.IsValid(), tt.wantValid, result.Errors)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"sources.json", "json"},
		{"sources.yaml", "yaml"},
		{"sources.yml", "yaml"},
		{"sources.YAML", "yaml"},
		{"sources.txt", ""},
		{"sources", ""},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseSourcesFileJSON(t *testing.T) {
	path := writeTempConfig(t, "sources.json", validJSONConfig)

	result := ParseSourcesFile(path)
	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.AllErrors())
	}
	if result.Format != "json" {
		t.Errorf("expected format json, got %q", result.Format)
	}

	configs, err := ConvertToConfigs(result.Data)
	if err != nil {
		t.Fatalf("ConvertToConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[0].ID != "us_indices" || string(configs[0].Kind) != "yfinance" {
		t.Errorf("unexpected first config: %+v", configs[0])
	}
	if !configs[0].Incremental {
		t.Error("expected first config to be incremental")
	}
	if len(configs[1].PrimaryKeys) != 2 {
		t.Errorf("expected 2 primary keys, got %v", configs[1].PrimaryKeys)
	}
}

func TestParseSourcesFileYAML(t *testing.T) {
	path := writeTempConfig(t, "sources.yaml", validYAMLConfig)

	result := ParseSourcesFile(path)
	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.AllErrors())
	}

	configs, err := ConvertToConfigs(result.Data)
	if err != nil {
		t.Fatalf("ConvertToConfigs failed: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("expected 1 config, got %d", len(configs))
	}
	if configs[0].ID != "fed_news" || string(configs[0].Kind) != "rss" {
		t.Errorf("unexpected config: %+v", configs[0])
	}
	feeds, ok := configs[0].Config["feeds"].([]interface{})
	if !ok || len(feeds) != 1 {
		t.Errorf("expected 1 feed in config, got %v", configs[0].Config["feeds"])
	}
}

func TestParseSourcesFileMissing(t *testing.T) {
	result := ParseSourcesFile(filepath.Join(t.TempDir(), "nope.json"))
	if result.IsValid() {
		t.Fatal("expected errors for missing file")
	}
	if result.ParseErrors[0].Type != ErrorTypeIO {
		t.Errorf("expected io error, got %q", result.ParseErrors[0].Type)
	}
}

func TestParseSourcesFileExtensionlessAutoDetect(t *testing.T) {
	path := writeTempConfig(t, "sources", validJSONConfig)

	result := ParseSourcesFile(path)
	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.AllErrors())
	}
	if result.Format != "json" {
		t.Errorf("expected auto-detected format json, got %q", result.Format)
	}
}

func TestParseSourcesStringAutoDetect(t *testing.T) {
	result := ParseSourcesString(validYAMLConfig, "")
	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.AllErrors())
	}
	if result.Format != "yaml" {
		t.Errorf("expected format yaml, got %q", result.Format)
	}
}
