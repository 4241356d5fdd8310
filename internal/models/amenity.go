package models

// AmenityOption is one entry of the amenity catalog. The catalog (ids and
// labels) is fixed at session start; only Selected mutates.
type AmenityOption struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Selected bool   `json:"selected" yaml:"selected"`
}
