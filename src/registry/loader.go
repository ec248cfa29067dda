package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/raulisai/Gateway-IA/src/models"
)

// decodeModels parses a JSON or YAML list of model definitions. Entries
// that fail to decode or validate are skipped and logged.
func decodeModels(path string, data []byte, logger *zap.Logger) ([]models.ModelDefinition, error) {
	var defs []models.ModelDefinition
	var decodeErrs []error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var nodes []yaml.Node
		if err := yaml.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("registry %s is not a YAML list: %w", path, err)
		}
		for i := range nodes {
			var def models.ModelDefinition
			if err := nodes[i].Decode(&def); err != nil {
				decodeErrs = append(decodeErrs, fmt.Errorf("entry %d: %w", i, err))
				continue
			}
			defs = append(defs, def)
		}
	default:
		var raw []json.RawMessage
		if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
			return nil, fmt.Errorf("registry %s is not a JSON list: %w", path, err)
		}
		for i, entry := range raw {
			var def models.ModelDefinition
			if err := json.Unmarshal(entry, &def); err != nil {
				decodeErrs = append(decodeErrs, fmt.Errorf("entry %d: %w", i, err))
				continue
			}
			defs = append(defs, def)
		}
	}

	for _, err := range decodeErrs {
		logger.Warn("skipping malformed registry entry", zap.String("path", path), zap.Error(err))
	}

	return defs, nil
}

func validate(def models.ModelDefinition) error {
	switch {
	case def.ID == "":
		return fmt.Errorf("missing id")
	case def.Provider == "":
		return fmt.Errorf("model %s: missing provider", def.ID)
	case def.ContextWindow <= 0:
		return fmt.Errorf("model %s: context_window must be positive", def.ID)
	case def.CostPer1KInput < 0 || def.CostPer1KOutput < 0:
		return fmt.Errorf("model %s: negative cost", def.ID)
	}
	return nil
}
