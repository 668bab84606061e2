package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default catalog window of the published sensor data.
var (
	DefaultCatalogStart = time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)
	DefaultCatalogEnd   = time.Date(2017, time.October, 31, 0, 0, 0, 0, time.UTC)
)

// Date is a YYYY-MM-DD calendar date in YAML.
type Date struct {
	time.Time
}

// UnmarshalYAML parses a YYYY-MM-DD scalar.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse(time.DateOnly, value.Value)
	if err != nil {
		return fmt.Errorf("line %d: date %q must be YYYY-MM-DD", value.Line, value.Value)
	}
	d.Time = t
	return nil
}

// MarshalYAML writes the date as YYYY-MM-DD.
func (d Date) MarshalYAML() (any, error) {
	return d.Format(time.DateOnly), nil
}

// CatalogWindow is the first and last day with a published file, inclusive.
//
//	start: 2017-09-01
//	end: 2017-10-31
type CatalogWindow struct {
	Start Date `yaml:"start"`
	End   Date `yaml:"end"`
}

// LoadCatalogWindow reads a catalog window from a YAML file.
func LoadCatalogWindow(path string) (CatalogWindow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogWindow{}, fmt.Errorf("read CATALOG_FILE: %w", err)
	}

	var w CatalogWindow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return CatalogWindow{}, fmt.Errorf("parse CATALOG_FILE: %w", err)
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return CatalogWindow{}, errors.New("CATALOG_FILE must set start and end")
	}
	if w.End.Before(w.Start.Time) {
		return CatalogWindow{}, fmt.Errorf("CATALOG_FILE end %s is before start %s",
			w.End.Format(time.DateOnly), w.Start.Format(time.DateOnly))
	}
	return w, nil
}
