package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"

	"gopkg.in/yaml.v3"
)

// CategoriesConfig is the top-level shape of a categories YAML file.
type CategoriesConfig struct {
	Categories []models.Category `yaml:"categories"`
}

// FindConfigFile looks for filename as given, then under ./config and
// $HOME/.budgie.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".budgie", filename))
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadCategoryFile reads category definitions from YAML. Three layouts are
// accepted: a "categories:" list, a bare list, or a map keyed by category
// name whose values may carry parent and hidden.
func LoadCategoryFile(filename string) ([]models.Category, error) {
	path, err := FindConfigFile(filename)
	if err != nil {
		return nil, fmt.Errorf("categories file %s: %w", filename, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var cfg CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Categories) > 0 {
		return cfg.Categories, nil
	}

	var list []models.Category
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var byName map[string]struct {
		Parent string `yaml:"parent"`
		Hidden bool   `yaml:"hidden"`
	}
	if err := yaml.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]models.Category, 0, len(names))
	for _, name := range names {
		out = append(out, models.Category{Name: name, Parent: byName[name].Parent, Hidden: byName[name].Hidden})
	}
	return out, nil
}

// SeedCategories adds every category not yet known to s and returns how many
// were added.
func SeedCategories(ctx context.Context, s Store, categories []models.Category, logger logging.Logger) (int, error) {
	added := 0
	for _, c := range categories {
		err := s.AddCategory(ctx, c)
		if errors.Is(err, ErrExists) {
			logger.Debug("Category already present", logging.F(logging.FieldCategory, c.Name))
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to add category %q: %w", c.Name, err)
		}
		added++
	}
	return added, nil
}
