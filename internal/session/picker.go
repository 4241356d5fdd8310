package session

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/models"
)

// PickerState is the coordinate picker lifecycle state
type PickerState string

const (
	PickerIdle    PickerState = "idle"
	PickerEditing PickerState = "editing"
)

// Picker owns the location slice of a project draft: the committed
// coordinate plus landmark, and while editing a staged coordinate that
// only becomes committed on an explicit confirm. The map surface handle is
// a scoped resource: acquired on entering editing, disposed on leaving it,
// never shared across cycles. Not goroutine-safe on its own; the owning
// session serializes access.
type Picker struct {
	surface mapsurface.Surface
	handle  mapsurface.Handle
	state   PickerState
	inert   bool

	staged    *models.Coordinate
	committed *models.Coordinate
	landmark  *models.LandmarkEntry

	defaultLat float64
	defaultLng float64
	zoom       int
}

// NewPicker creates an idle picker. surface may be nil when no map surface
// provider exists at all; the picker is then permanently inert.
func NewPicker(surface mapsurface.Surface, defaultLat, defaultLng float64, zoom int) *Picker {
	return &Picker{
		surface:    surface,
		state:      PickerIdle,
		defaultLat: defaultLat,
		defaultLng: defaultLng,
		zoom:       zoom,
	}
}

// Open transitions idle -> editing and acquires a map surface handle
// centered on the committed coordinate, or the default center when none is
// set. No marker is placed until a selection occurs. When the surface is
// unavailable the picker still opens but stays inert: clicking does nothing
// while manual text entry remains usable. Re-opening while already editing
// tears the old handle down first so listeners never accumulate.
func (p *Picker) Open(onClick, onDrag mapsurface.Callback) {
	if p.state == PickerEditing {
		p.teardown()
	}

	p.state = PickerEditing
	p.staged = nil
	p.inert = false

	centerLat, centerLng := p.defaultLat, p.defaultLng
	if p.committed != nil {
		centerLat, centerLng = p.committed.Latitude, p.committed.Longitude
	}

	if p.surface == nil {
		p.inert = true
		slog.Warn("no map surface provider, picker opened inert")
		return
	}

	handle, err := p.surface.Init(centerLat, centerLng, p.zoom)
	if err != nil {
		p.inert = true
		slog.Warn("map surface init failed, picker opened inert", "error", err)
		return
	}

	handle.OnClick(onClick)
	handle.OnMarkerDrag(onDrag)
	p.handle = handle
}

// Select records a clicked position as the staged coordinate, replacing any
// previous staged marker with a single new one.
func (p *Picker) Select(lat, lng float64) error {
	if p.state != PickerEditing {
		return ErrPickerNotOpen
	}

	p.staged = &models.Coordinate{Latitude: lat, Longitude: lng}
	if p.handle != nil {
		if err := p.handle.PlaceMarker(lat, lng); err != nil {
			slog.Warn("failed to place marker", "error", err)
		}
	}
	return nil
}

// Drag moves the staged coordinate to a drag-release position. Valid only
// while editing with an existing marker; no new marker is created.
func (p *Picker) Drag(lat, lng float64) error {
	if p.state != PickerEditing {
		return ErrPickerNotOpen
	}
	if p.staged == nil {
		return ErrNoStagedCoordinate
	}

	p.staged = &models.Coordinate{Latitude: lat, Longitude: lng}
	return nil
}

// Confirm commits the staged coordinate, if one exists, and returns to idle
func (p *Picker) Confirm() error {
	if p.state != PickerEditing {
		return ErrPickerNotOpen
	}

	if p.staged != nil {
		committed := *p.staged
		p.committed = &committed
	}
	p.staged = nil
	p.teardown()
	p.state = PickerIdle
	return nil
}

// Cancel discards the staged coordinate unconditionally and returns to idle.
// The committed coordinate is untouched.
func (p *Picker) Cancel() error {
	if p.state != PickerEditing {
		return ErrPickerNotOpen
	}

	p.staged = nil
	p.teardown()
	p.state = PickerIdle
	return nil
}

// teardown disposes the surface handle. Teardown always happens before any
// re-init so listeners and markers never duplicate across cycles.
func (p *Picker) teardown() {
	if p.handle != nil {
		if err := p.handle.Dispose(); err != nil {
			slog.Warn("failed to dispose map surface", "error", err)
		}
		p.handle = nil
	}
	p.inert = false
}

// SetManual sets the committed coordinate from the latitude/longitude text
// fields, bypassing the staged/committed boundary. Both fields are required
// together: the committed coordinate is never half-specified. Empty fields
// clear the coordinate.
func (p *Picker) SetManual(latText, lngText string) error {
	latText = strings.TrimSpace(latText)
	lngText = strings.TrimSpace(lngText)

	if latText == "" && lngText == "" {
		p.committed = nil
		return nil
	}
	if latText == "" || lngText == "" {
		return ErrInvalidCoordinate
	}

	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return ErrInvalidCoordinate
	}
	lng, err := strconv.ParseFloat(lngText, 64)
	if err != nil {
		return ErrInvalidCoordinate
	}

	p.committed = &models.Coordinate{Latitude: lat, Longitude: lng}
	return nil
}

// SetLandmark attaches the nearby-landmark entry
func (p *Picker) SetLandmark(entry *models.LandmarkEntry) {
	p.landmark = entry
}

// Location returns the committed location slice
func (p *Picker) Location() models.Location {
	loc := models.Location{}
	if p.committed != nil {
		committed := *p.committed
		loc.Coordinate = &committed
	}
	if p.landmark != nil {
		landmark := *p.landmark
		loc.Landmark = &landmark
	}
	return loc
}

// Staged returns the staged coordinate, or nil
func (p *Picker) Staged() *models.Coordinate {
	if p.staged == nil {
		return nil
	}
	staged := *p.staged
	return &staged
}

// State returns the current picker state
func (p *Picker) State() PickerState {
	return p.state
}

// View exposes the picker state for session snapshots
func (p *Picker) View() models.PickerView {
	return models.PickerView{
		State:  string(p.state),
		Staged: p.Staged(),
		Inert:  p.inert,
	}
}
