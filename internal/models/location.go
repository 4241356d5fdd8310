package models

import "fmt"

// CoordinatePrecision is the fixed decimal precision used when a coordinate
// is read back as text.
const CoordinatePrecision = 6

// Coordinate is a latitude/longitude pair in decimal degrees. Both fields
// are set together or not at all; a committed coordinate is never
// half-specified.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Format renders the coordinate as fixed-precision text fields.
func (c Coordinate) Format() (lat, lng string) {
	return fmt.Sprintf("%.*f", CoordinatePrecision, c.Latitude),
		fmt.Sprintf("%.*f", CoordinatePrecision, c.Longitude)
}

// LandmarkType enumerates the supported nearby-landmark categories
type LandmarkType string

const (
	LandmarkPark         LandmarkType = "Park"
	LandmarkMall         LandmarkType = "Mall"
	LandmarkSchool       LandmarkType = "School"
	LandmarkHospital     LandmarkType = "Hospital"
	LandmarkMetroStation LandmarkType = "Metro Station"
	LandmarkBusStop      LandmarkType = "Bus Stop"
	LandmarkAirport      LandmarkType = "Airport"
)

// LandmarkTypes lists all landmark categories in display order
func LandmarkTypes() []LandmarkType {
	return []LandmarkType{
		LandmarkPark,
		LandmarkMall,
		LandmarkSchool,
		LandmarkHospital,
		LandmarkMetroStation,
		LandmarkBusStop,
		LandmarkAirport,
	}
}

// Valid reports whether t is one of the known landmark categories
func (t LandmarkType) Valid() bool {
	for _, known := range LandmarkTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// LandmarkEntry describes a nearby landmark attached to the location
type LandmarkEntry struct {
	Type        LandmarkType `json:"type"`
	Distance    string       `json:"distance"`
	Description string       `json:"description"`
}

// Location is the committed location slice of a project draft
type Location struct {
	Coordinate *Coordinate    `json:"coordinate,omitempty"`
	Landmark   *LandmarkEntry `json:"landmark,omitempty"`
}

// PickerView exposes the coordinate picker state in session snapshots
type PickerView struct {
	State  string      `json:"state"`
	Staged *Coordinate `json:"staged,omitempty"`
	Inert  bool        `json:"inert,omitempty"`
}

// SetLocationRequest sets the committed coordinate and landmark directly,
// bypassing the picker's staged/committed boundary (manual text entry path).
type SetLocationRequest struct {
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Landmark    string `json:"landmark,omitempty"`
	Distance    string `json:"distance,omitempty"`
	Description string `json:"description,omitempty"`
}

// PickRequest carries a map click or marker drag position
type PickRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
