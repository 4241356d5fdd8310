package session

import (
	"log/slog"
	"math"

	"github.com/propdesk/listing-engine/internal/models"
)

// AmenityModel owns the amenity toggle states of one edit session and
// derives the completion percentage. Catalog membership is fixed at
// construction; only the selected flags mutate. The model is not
// goroutine-safe on its own; the owning session serializes access.
type AmenityModel struct {
	options  []models.AmenityOption
	onChange func(selected, total int)
}

// NewAmenityModel copies the catalog options into a fresh model
func NewAmenityModel(options []models.AmenityOption) *AmenityModel {
	copied := make([]models.AmenityOption, len(options))
	copy(copied, options)
	return &AmenityModel{options: copied}
}

// SetOnChange registers the orchestrator callback invoked after every
// mutating call with the current (selectedCount, totalCount).
func (m *AmenityModel) SetOnChange(fn func(selected, total int)) {
	m.onChange = fn
}

// Toggle flips the selected flag of the amenity with the given id.
// An unknown id indicates a UI-state desync, not a user error: it is
// logged and ignored.
func (m *AmenityModel) Toggle(id string) {
	for i := range m.options {
		if m.options[i].ID == id {
			m.options[i].Selected = !m.options[i].Selected
			m.notify()
			return
		}
	}
	slog.Debug("toggle for unknown amenity ignored", "amenity_id", id)
}

// ToggleAll selects every amenity if any is unselected, and unselects all
// when everything is already selected. A global flip, not a majority vote.
func (m *AmenityModel) ToggleAll() {
	target := m.SelectedCount() < m.TotalCount()
	for i := range m.options {
		m.options[i].Selected = target
	}
	m.notify()
}

// SelectedCount returns the number of selected amenities
func (m *AmenityModel) SelectedCount() int {
	count := 0
	for _, a := range m.options {
		if a.Selected {
			count++
		}
	}
	return count
}

// TotalCount returns the catalog size
func (m *AmenityModel) TotalCount() int {
	return len(m.options)
}

// Progress returns round(100 * selected / total) as an integer in [0,100].
// An empty catalog reports 0 rather than dividing by zero.
func (m *AmenityModel) Progress() int {
	return amenityProgress(m.SelectedCount(), m.TotalCount())
}

// Options returns a copy of the current amenity states in catalog order
func (m *AmenityModel) Options() []models.AmenityOption {
	out := make([]models.AmenityOption, len(m.options))
	copy(out, m.options)
	return out
}

func (m *AmenityModel) notify() {
	if m.onChange != nil {
		m.onChange(m.SelectedCount(), m.TotalCount())
	}
}

func amenityProgress(selected, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(selected) / float64(total) * 100))
}
