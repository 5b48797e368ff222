// Package config provides functionality for parsing and validating
// source configuration files (JSON/YAML).
package config

import (
	"fmt"

	"github.com/derpledex/databridge/pkg/source"
)

// ConvertToConfigs converts parsed configuration data to source configs.
// The input data should have been validated against the schema before
// calling this function.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "sources": [
//	    {"id": "...", "type": "...", "config": {...}, "primary_keys": [...]},
//	    ...
//	  ]
//	}
func ConvertToConfigs(data map[string]interface{}) ([]source.Config, error) {
	if data == nil {
		return nil, fmt.Errorf("configuration data is nil")
	}

	sourcesData, ok := data["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'sources' section")
	}

	configs := make([]source.Config, 0, len(sourcesData))
	for i, sourceData := range sourcesData {
		sourceMap, isMap := sourceData.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("invalid source at index %d", i)
		}
		cfg, err := convertSourceConfig(sourceMap)
		if err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		configs = append(configs, *cfg)
	}

	return configs, nil
}

// convertSourceConfig converts a raw source configuration map to a Config.
func convertSourceConfig(data map[string]interface{}) (*source.Config, error) {
	id, ok := data["id"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'id'")
	}

	kind, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	cfg := &source.Config{
		ID:   id,
		Name: id,
		Kind: source.Kind(kind),
	}

	if name, okName := data["name"].(string); okName {
		cfg.Name = name
	}

	if configData, okConfig := data["config"].(map[string]interface{}); okConfig {
		cfg.Config = configData
	} else {
		cfg.Config = make(map[string]interface{})
	}

	if keysData, okKeys := data["primary_keys"].([]interface{}); okKeys {
		keys := make([]string, 0, len(keysData))
		for j, keyData := range keysData {
			key, isString := keyData.(string)
			if !isString {
				return nil, fmt.Errorf("invalid primary key at index %d: expected string, got %T", j, keyData)
			}
			keys = append(keys, key)
		}
		cfg.PrimaryKeys = keys
	}

	if incremental, okInc := data["incremental"].(bool); okInc {
		cfg.Incremental = incremental
	}

	return cfg, nil
}

// FindSource returns the config whose ID matches sourceID, or an error
// naming the available IDs when no config matches.
func FindSource(configs []source.Config, sourceID string) (*source.Config, error) {
	for i := range configs {
		if configs[i].ID == sourceID {
			return &configs[i], nil
		}
	}

	ids := make([]string, 0, len(configs))
	for i := range configs {
		ids = append(ids, configs[i].ID)
	}
	return nil, fmt.Errorf("unknown source %q (available: %v)", sourceID, ids)
}
