package session

import (
	"testing"

	"github.com/propdesk/listing-engine/internal/mapsurface"
)

// fakeHandle records surface interactions
type fakeHandle struct {
	markers  [][2]float64
	disposed int
	click    mapsurface.Callback
	drag     mapsurface.Callback
}

func (h *fakeHandle) PlaceMarker(lat, lng float64) error {
	h.markers = append(h.markers, [2]float64{lat, lng})
	return nil
}

func (h *fakeHandle) OnClick(cb mapsurface.Callback)      { h.click = cb }
func (h *fakeHandle) OnMarkerDrag(cb mapsurface.Callback) { h.drag = cb }

func (h *fakeHandle) Dispose() error {
	h.disposed++
	return nil
}

// fakeSurface hands out fresh handles and remembers them in init order
type fakeSurface struct {
	handles []*fakeHandle
	initErr error
	centers [][2]float64
}

func (s *fakeSurface) Init(lat, lng float64, zoom int) (mapsurface.Handle, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	s.centers = append(s.centers, [2]float64{lat, lng})
	h := &fakeHandle{}
	s.handles = append(s.handles, h)
	return h, nil
}

func newTestPicker(surface mapsurface.Surface) *Picker {
	return NewPicker(surface, 18.5204, 73.8567, 13)
}

func TestPickerSelectConfirmRoundTrip(t *testing.T) {
	surface := &fakeSurface{}
	p := newTestPicker(surface)

	p.Open(nil, nil)
	if p.State() != PickerEditing {
		t.Fatalf("expected editing state, got %s", p.State())
	}

	if err := p.Select(18.123456789, 73.987654321); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := p.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	loc := p.Location()
	if loc.Coordinate == nil {
		t.Fatal("confirm did not commit the coordinate")
	}

	lat, lng := loc.Coordinate.Format()
	if lat != "18.123457" || lng != "73.987654" {
		t.Errorf("unexpected formatted coordinate: %s, %s", lat, lng)
	}

	if p.State() != PickerIdle {
		t.Errorf("expected idle after confirm, got %s", p.State())
	}
	if p.Staged() != nil {
		t.Error("staged coordinate must be cleared after confirm")
	}
	if surface.handles[0].disposed != 1 {
		t.Errorf("expected handle disposed once, got %d", surface.handles[0].disposed)
	}
}

func TestPickerCancelDiscardsStaged(t *testing.T) {
	surface := &fakeSurface{}
	p := newTestPicker(surface)

	// Commit an initial coordinate
	p.Open(nil, nil)
	p.Select(10, 20)
	p.Confirm()

	// Stage a different one, then cancel
	p.Open(nil, nil)
	p.Select(30, 40)
	if err := p.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	loc := p.Location()
	if loc.Coordinate == nil || loc.Coordinate.Latitude != 10 || loc.Coordinate.Longitude != 20 {
		t.Errorf("cancel must leave the committed coordinate untouched, got %+v", loc.Coordinate)
	}
	if p.Staged() != nil {
		t.Error("staged coordinate must be discarded on cancel")
	}
}

func TestPickerReopenCentersOnCommitted(t *testing.T) {
	surface := &fakeSurface{}
	p := newTestPicker(surface)

	p.Open(nil, nil)
	if surface.centers[0] != [2]float64{18.5204, 73.8567} {
		t.Errorf("first open must center on the default, got %v", surface.centers[0])
	}
	p.Select(11, 22)
	p.Confirm()

	p.Open(nil, nil)
	if surface.centers[1] != [2]float64{11, 22} {
		t.Errorf("reopen must center on the committed coordinate, got %v", surface.centers[1])
	}
}

func TestPickerOperationsRequireEditing(t *testing.T) {
	p := newTestPicker(&fakeSurface{})

	if err := p.Select(1, 2); err != ErrPickerNotOpen {
		t.Errorf("Select while idle: got %v, want ErrPickerNotOpen", err)
	}
	if err := p.Drag(1, 2); err != ErrPickerNotOpen {
		t.Errorf("Drag while idle: got %v, want ErrPickerNotOpen", err)
	}
	if err := p.Confirm(); err != ErrPickerNotOpen {
		t.Errorf("Confirm while idle: got %v, want ErrPickerNotOpen", err)
	}
	if err := p.Cancel(); err != ErrPickerNotOpen {
		t.Errorf("Cancel while idle: got %v, want ErrPickerNotOpen", err)
	}
}

func TestPickerDragRequiresStagedMarker(t *testing.T) {
	p := newTestPicker(&fakeSurface{})
	p.Open(nil, nil)

	if err := p.Drag(1, 2); err != ErrNoStagedCoordinate {
		t.Fatalf("Drag without marker: got %v, want ErrNoStagedCoordinate", err)
	}

	p.Select(1, 2)
	if err := p.Drag(3, 4); err != nil {
		t.Fatalf("Drag with marker failed: %v", err)
	}

	staged := p.Staged()
	if staged == nil || staged.Latitude != 3 || staged.Longitude != 4 {
		t.Errorf("drag did not move the staged coordinate: %+v", staged)
	}
}

func TestPickerInertWhenSurfaceUnavailable(t *testing.T) {
	surface := &fakeSurface{initErr: mapsurface.ErrUnavailable}
	p := newTestPicker(surface)

	p.Open(nil, nil)
	if p.State() != PickerEditing {
		t.Fatal("picker must still open when the surface is unavailable")
	}
	if !p.View().Inert {
		t.Error("picker must report inert without a surface handle")
	}

	// Manual entry still works
	if err := p.SetManual("18.5", "73.8"); err != nil {
		t.Fatalf("manual entry failed on inert picker: %v", err)
	}
	if p.Location().Coordinate == nil {
		t.Error("manual coordinate not committed")
	}
}

func TestPickerInertWithNilSurface(t *testing.T) {
	p := newTestPicker(nil)
	p.Open(nil, nil)

	if p.State() != PickerEditing || !p.View().Inert {
		t.Error("nil surface must yield an inert editing picker")
	}
	if err := p.Select(1, 2); err != nil {
		t.Errorf("staging must still work while inert: %v", err)
	}
}

func TestPickerReopenWhileEditingDisposesOldHandle(t *testing.T) {
	surface := &fakeSurface{}
	p := newTestPicker(surface)

	p.Open(nil, nil)
	p.Select(1, 2)
	p.Open(nil, nil)

	if len(surface.handles) != 2 {
		t.Fatalf("expected 2 handles, got %d", len(surface.handles))
	}
	if surface.handles[0].disposed != 1 {
		t.Errorf("old handle must be disposed before re-init, disposed=%d", surface.handles[0].disposed)
	}
	if p.Staged() != nil {
		t.Error("reopen must reset the staged coordinate")
	}

	p.Confirm()
	if surface.handles[1].disposed != 1 {
		t.Errorf("second handle must be disposed exactly once, got %d", surface.handles[1].disposed)
	}
}

func TestPickerSetManual(t *testing.T) {
	p := newTestPicker(&fakeSurface{})

	if err := p.SetManual("18.604587", "73.752922"); err != nil {
		t.Fatalf("valid pair rejected: %v", err)
	}
	loc := p.Location()
	if loc.Coordinate == nil || loc.Coordinate.Latitude != 18.604587 {
		t.Errorf("manual coordinate not applied: %+v", loc.Coordinate)
	}

	// Half-specified pairs are invalid
	if err := p.SetManual("18.6", ""); err != ErrInvalidCoordinate {
		t.Errorf("half pair: got %v, want ErrInvalidCoordinate", err)
	}
	if err := p.SetManual("", "73.7"); err != ErrInvalidCoordinate {
		t.Errorf("half pair: got %v, want ErrInvalidCoordinate", err)
	}

	// Junk is invalid
	if err := p.SetManual("north", "east"); err != ErrInvalidCoordinate {
		t.Errorf("junk: got %v, want ErrInvalidCoordinate", err)
	}

	// The failed attempts must not have clobbered the committed coordinate
	if p.Location().Coordinate == nil || p.Location().Coordinate.Latitude != 18.604587 {
		t.Error("failed manual entry clobbered the committed coordinate")
	}

	// Both empty clears
	if err := p.SetManual("", ""); err != nil {
		t.Fatalf("clearing failed: %v", err)
	}
	if p.Location().Coordinate != nil {
		t.Error("empty pair must clear the coordinate")
	}
}

func TestPickerMarkerPlacedOnSelect(t *testing.T) {
	surface := &fakeSurface{}
	p := newTestPicker(surface)

	p.Open(nil, nil)
	p.Select(1, 2)
	p.Select(3, 4)

	h := surface.handles[0]
	if len(h.markers) != 2 {
		t.Fatalf("expected 2 marker placements, got %d", len(h.markers))
	}
	if h.markers[1] != [2]float64{3, 4} {
		t.Errorf("marker not moved to latest selection: %v", h.markers[1])
	}
}
