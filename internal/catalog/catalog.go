// Package catalog loads the amenity catalog and landmark categories used to
// seed edit sessions. Catalog membership is fixed once a session starts;
// sessions copy the options and mutate only the selected flags.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/propdesk/listing-engine/internal/models"
)

// Catalog holds the loaded amenity options and landmark categories
type Catalog struct {
	mu        sync.RWMutex
	amenities []models.AmenityOption
	landmarks []models.LandmarkType
}

// New creates a catalog populated with the built-in defaults
func New() *Catalog {
	return &Catalog{
		amenities: defaultAmenities(),
		landmarks: models.LandmarkTypes(),
	}
}

type amenityFile struct {
	Amenities []models.AmenityOption `yaml:"amenities"`
}

// LoadFromDir replaces the built-in amenity catalog with the contents of
// amenities.yaml (or .yml) in dir, if present. Missing files keep defaults.
func (c *Catalog) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	loaded := false
	for _, name := range []string{"amenities.yaml", "amenities.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := c.loadAmenities(path); err != nil {
			return err
		}
		loaded = true
		break
	}

	if !loaded {
		slog.Warn("no amenity catalog file found, keeping built-in defaults", "dir", dir)
	}

	return nil
}

func (c *Catalog) loadAmenities(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file amenityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if len(file.Amenities) == 0 {
		return fmt.Errorf("catalog file %s contains no amenities", path)
	}

	seen := make(map[string]bool, len(file.Amenities))
	for _, a := range file.Amenities {
		if a.ID == "" || a.Label == "" {
			return fmt.Errorf("amenity entries require id and label")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate amenity id: %s", a.ID)
		}
		seen[a.ID] = true
	}

	c.mu.Lock()
	c.amenities = file.Amenities
	c.mu.Unlock()

	slog.Info("amenity catalog loaded", "file", path, "count", len(file.Amenities))
	return nil
}

// Amenities returns a copy of the amenity catalog with default selections.
// Order is stable and significant (fixed 3-column layout partitioning).
func (c *Catalog) Amenities() []models.AmenityOption {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.AmenityOption, len(c.amenities))
	copy(out, c.amenities)
	return out
}

// Landmarks returns the landmark categories in display order
func (c *Catalog) Landmarks() []models.LandmarkType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.LandmarkType, len(c.landmarks))
	copy(out, c.landmarks)
	return out
}

// defaultAmenities is the compiled-in catalog used when no YAML override
// is present.
func defaultAmenities() []models.AmenityOption {
	labels := []string{
		"School in vicinity",
		"Adjoining Metro Station",
		"Peaceful vicinity",
		"Near City Center",
		"Safe & Secure Locality",
		"Desperate Sale",
		"Breakthrough Price",
		"Quick Deal",
		"Investment Opportunity",
		"High Rental Yield",
		"Affordable",
		"Reputed Builder",
		"Well Ventilated",
		"Fully Renovated",
		"Vastu Compliant",
		"Spacious",
		"Ample Parking",
		"Free Hold",
		"Gated Society",
		"Tasteful Interior",
		"Prime Location",
		"Luxury Lifestyle",
		"Well Maintained",
		"Plenty of Sunlight",
		"Newly Built",
		"Family",
		"Bachelors",
		"Females Only",
	}

	amenities := make([]models.AmenityOption, len(labels))
	for i, label := range labels {
		amenities[i] = models.AmenityOption{
			ID:    fmt.Sprintf("%d", i+1),
			Label: label,
			// "Investment Opportunity" ships pre-selected in the demo catalog
			Selected: label == "Investment Opportunity",
		}
	}
	return amenities
}
