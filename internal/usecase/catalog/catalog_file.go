package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type categoryEntry struct {
	Key         string `toml:"key" yaml:"key"`
	Name        string `toml:"name" yaml:"name"`
	Description string `toml:"description" yaml:"description"`
	Active      *bool  `toml:"active" yaml:"active"`
}

type jurisdictionEntry struct {
	Name     string `toml:"name" yaml:"name"`
	District string `toml:"district" yaml:"district"`
	Active   *bool  `toml:"active" yaml:"active"`
}

type catalogFile struct {
	Categories    []categoryEntry     `toml:"categories" yaml:"categories"`
	Jurisdictions []jurisdictionEntry `toml:"jurisdictions" yaml:"jurisdictions"`
}

// loadCatalogFile reads a YAML or TOML catalog, picked by file extension.
func loadCatalogFile(path string) (catalogFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return catalogFile{}, errors.New("catalog file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return catalogFile{}, err
	}

	var file catalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return catalogFile{}, fmt.Errorf("parse yaml catalog: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &file); err != nil {
			return catalogFile{}, fmt.Errorf("parse toml catalog: %w", err)
		}
	default:
		return catalogFile{}, fmt.Errorf("unsupported catalog format %q (want .yaml, .yml or .toml)", ext)
	}

	if err := validateCatalogFile(file); err != nil {
		return catalogFile{}, err
	}
	return file, nil
}

func validateCatalogFile(file catalogFile) error {
	seenKeys := make(map[string]struct{}, len(file.Categories))
	for i, category := range file.Categories {
		key := strings.ToLower(strings.TrimSpace(category.Key))
		if key == "" {
			return fmt.Errorf("categories[%d].key is required", i)
		}
		if strings.TrimSpace(category.Name) == "" {
			return fmt.Errorf("categories[%d].name is required", i)
		}
		if _, ok := seenKeys[key]; ok {
			return fmt.Errorf("categories[%d]: duplicate key %q", i, key)
		}
		seenKeys[key] = struct{}{}
	}

	seenNames := make(map[string]struct{}, len(file.Jurisdictions))
	for i, jurisdiction := range file.Jurisdictions {
		name := strings.TrimSpace(jurisdiction.Name)
		if name == "" {
			return fmt.Errorf("jurisdictions[%d].name is required", i)
		}
		if strings.TrimSpace(jurisdiction.District) == "" {
			return fmt.Errorf("jurisdictions[%d].district is required", i)
		}
		if _, ok := seenNames[name]; ok {
			return fmt.Errorf("jurisdictions[%d]: duplicate name %q", i, name)
		}
		seenNames[name] = struct{}{}
	}
	return nil
}

func activeOrDefault(value *bool) bool {
	if value == nil {
		return true
	}
	return *value
}
