package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mfeld/arbiter/internal/pack"
	"github.com/mfeld/arbiter/internal/schema"
)

// LoadPack reads a scenario pack from a JSON or YAML file (decided by
// extension), validates it against the CUE schema, and decodes it.
// YAML is normalized to JSON first so both formats flow through the
// exact same validation and hashing pipeline, so a pack's
// fingerprint does not depend on which syntax it was written in.
func LoadPack(path string) (*pack.Pack, error) {
	data, err := readNormalizedJSON(path)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidatePack(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p, err := pack.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadOverrides reads an override list from a JSON or YAML file.
func LoadOverrides(path string) ([]pack.Override, error) {
	data, err := readNormalizedJSON(path)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateOverrides(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	overrides, err := pack.DecodeOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return overrides, nil
}

// readNormalizedJSON returns the file's content as JSON bytes,
// converting from YAML when the extension says so.
func readNormalizedJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML %s: %w", path, err)
		}
		jsonBytes, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("normalize YAML %s: %w", path, err)
		}
		return jsonBytes, nil
	default:
		return data, nil
	}
}
