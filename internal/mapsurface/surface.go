// Package mapsurface models the interactive map as an owned external
// resource. The coordinate picker acquires a handle on entering its editing
// state and must dispose it on leaving, so listeners and markers never
// accumulate across repeated open/close cycles.
package mapsurface

import "errors"

// ErrUnavailable is returned when no map rendering surface can be acquired.
// Callers degrade gracefully: the picker stays present but inert.
var ErrUnavailable = errors.New("map surface unavailable")

// Callback receives a map position in decimal degrees
type Callback func(lat, lng float64)

// Handle is a live map surface acquired by Init. All methods are only valid
// until Dispose; Dispose detaches listeners and is idempotent.
type Handle interface {
	// PlaceMarker shows the single selection marker at the given position,
	// replacing any previous marker.
	PlaceMarker(lat, lng float64) error

	// OnClick registers the click listener (replaces any previous one)
	OnClick(cb Callback)

	// OnMarkerDrag registers the drag-release listener
	OnMarkerDrag(cb Callback)

	// Dispose tears the surface down and detaches all listeners
	Dispose() error
}

// Surface acquires map handles for one edit session
type Surface interface {
	// Init opens the surface centered on the given position. Returns
	// ErrUnavailable when no rendering surface is attached.
	Init(lat, lng float64, zoom int) (Handle, error)
}

// Provider hands out the surface bound to a session
type Provider interface {
	Surface(sessionID string) Surface
}
