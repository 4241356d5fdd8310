package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/propdesk/listing-engine/internal/models"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/storage"
)

// Notifier delivers toast-level feedback to whoever is editing
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}

// Navigator moves the editing client to another route
type Navigator interface {
	GoTo(ctx context.Context, path string) error
}

// Session is one project edit session. It owns the mutable draft state
// (amenities, media, location) and the collaborators that load and persist
// it. All public methods are safe for concurrent use; the draft subsystems
// themselves rely on the session lock for serialization.
type Session struct {
	ID        string
	ProjectID string
	CreatedAt time.Time
	ExpiresAt time.Time

	repo      storage.Repository
	notifier  Notifier
	navigator Navigator

	loadDelay     time.Duration
	redirectDelay time.Duration
	listPath      string

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	status     models.SessionStatus
	record     *models.ProjectRecord
	amenities  *AmenityModel
	assets     *AssetManager
	picker     *Picker
	completion int
	youtube    []string
	reraReg    *bool
	reraNums   []string
	redirectTo string
}

// SessionParams carries everything a new session needs from the manager
type SessionParams struct {
	ID            string
	ProjectID     string
	TTL           time.Duration
	LoadDelay     time.Duration
	RedirectDelay time.Duration
	ListPath      string

	Repo      storage.Repository
	Previews  preview.Store
	Notifier  Notifier
	Navigator Navigator

	AmenityOptions []models.AmenityOption
	Picker         *Picker
}

// NewSession creates a session in the loading state and kicks off the
// asynchronous project fetch. The fetch is tied to the session context, so
// closing the session before it lands abandons the load cleanly.
func NewSession(params SessionParams) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	s := &Session{
		ID:            params.ID,
		ProjectID:     params.ProjectID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(params.TTL),
		repo:          params.Repo,
		notifier:      params.Notifier,
		navigator:     params.Navigator,
		loadDelay:     params.LoadDelay,
		redirectDelay: params.RedirectDelay,
		listPath:      params.ListPath,
		ctx:           ctx,
		cancel:        cancel,
		status:        models.SessionLoading,
		amenities:     NewAmenityModel(params.AmenityOptions),
		assets:        NewAssetManager(params.ID, params.Previews, params.Notifier),
		picker:        params.Picker,
	}

	// Any amenity mutation re-derives the completion percentage, replacing
	// whatever value the stored record seeded.
	s.amenities.SetOnChange(func(selected, total int) {
		s.completion = amenityProgress(selected, total)
	})

	go s.load()
	return s
}

// load fetches the project record after the configured delay. The delay
// models the upstream latency the loading state exists for; tests shrink it
// to near zero.
func (s *Session) load() {
	select {
	case <-time.After(s.loadDelay):
	case <-s.ctx.Done():
		return
	}

	record, err := s.repo.FindProject(s.ctx, s.ProjectID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been closed while the fetch was in flight;
	// a late result must not resurrect it.
	if s.status != models.SessionLoading {
		return
	}

	if err != nil {
		if !errors.Is(err, storage.ErrProjectNotFound) {
			slog.Error("project load failed", "error", err, "session_id", s.ID, "project_id", s.ProjectID)
		}
		s.status = models.SessionNotFound
		return
	}

	s.record = record
	s.completion = record.Completion
	s.status = models.SessionEditing
	slog.Info("edit session ready", "session_id", s.ID, "project_id", s.ProjectID, "project_name", record.Name)
}

// ensureEditable is called under the session lock by every draft mutation
func (s *Session) ensureEditable() error {
	switch s.status {
	case models.SessionEditing:
		return nil
	case models.SessionClosed:
		return ErrSessionClosed
	default:
		return ErrSessionNotEditable
	}
}

// ToggleAmenity flips one amenity's selected state
func (s *Session) ToggleAmenity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.amenities.Toggle(id)
	return nil
}

// ToggleAllAmenities selects every amenity, or unselects all when every
// amenity is already selected.
func (s *Session) ToggleAllAmenities() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.amenities.ToggleAll()
	return nil
}

// AddMedia uploads a batch of image payloads into the media collection
func (s *Session) AddMedia(ctx context.Context, payloads []models.FilePayload) (models.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return models.UploadResult{}, err
	}
	return s.assets.AddFiles(ctx, payloads), nil
}

// RemoveMedia deletes one asset and releases its preview handle
func (s *Session) RemoveMedia(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.assets.Remove(ctx, assetID)
	return nil
}

// SetMediaDescription updates one asset's description text
func (s *Session) SetMediaDescription(assetID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.assets.SetDescription(assetID, text)
	return nil
}

// SetMediaPrimary designates or clears the primary flag on one asset
func (s *Session) SetMediaPrimary(assetID string, primary bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.assets.SetPrimary(assetID, primary)
	return nil
}

// OpenPicker puts the coordinate picker into editing and wires map surface
// events back into the session.
func (s *Session) OpenPicker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}

	s.picker.Open(
		func(lat, lng float64) {
			if err := s.SelectOnMap(lat, lng); err != nil {
				slog.Debug("map click dropped", "error", err, "session_id", s.ID)
			}
		},
		func(lat, lng float64) {
			if err := s.DragMarker(lat, lng); err != nil {
				slog.Debug("marker drag dropped", "error", err, "session_id", s.ID)
			}
		},
	)
	return nil
}

// SelectOnMap stages a clicked coordinate
func (s *Session) SelectOnMap(lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	return s.picker.Select(lat, lng)
}

// DragMarker moves the staged coordinate to a drag-release position
func (s *Session) DragMarker(lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	return s.picker.Drag(lat, lng)
}

// ConfirmPick commits the staged coordinate and closes the picker
func (s *Session) ConfirmPick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	return s.picker.Confirm()
}

// CancelPick discards the staged coordinate and closes the picker
func (s *Session) CancelPick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}
	return s.picker.Cancel()
}

// SetLocation applies the manual text-entry path: coordinate fields and the
// nearby-landmark entry, bypassing the picker's staged state.
func (s *Session) SetLocation(req models.SetLocationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}

	if err := s.picker.SetManual(req.Latitude, req.Longitude); err != nil {
		return err
	}

	if strings.TrimSpace(req.Landmark) == "" {
		s.picker.SetLandmark(nil)
		return nil
	}

	landmarkType := models.LandmarkType(req.Landmark)
	if !landmarkType.Valid() {
		return ErrInvalidLandmark
	}
	s.picker.SetLandmark(&models.LandmarkEntry{
		Type:        landmarkType,
		Distance:    req.Distance,
		Description: req.Description,
	})
	return nil
}

// UpdateExtras replaces the video links and RERA registration fields
func (s *Session) UpdateExtras(req models.UpdateExtrasRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}

	s.youtube = append([]string(nil), req.YoutubeURLs...)
	s.reraNums = append([]string(nil), req.ReraNumbers...)
	if req.ReraRegistered != nil {
		registered := *req.ReraRegistered
		s.reraReg = &registered
	} else {
		s.reraReg = nil
	}
	return nil
}

// Save assembles the draft, persists it, and schedules the redirect back to
// the project list. A persistence failure leaves the session editing so the
// user can retry; nothing is navigated away from.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return err
	}

	record := &models.ProjectRecord{
		ID:         s.record.ID,
		Name:       s.record.Name,
		Code:       s.record.Code,
		Type:       s.record.Type,
		Completion: s.completion,
		CreatedAt:  s.record.CreatedAt,
	}

	if _, err := s.repo.CreateProject(ctx, record); err != nil {
		slog.Error("project save failed", "error", err, "session_id", s.ID, "project_id", s.ProjectID)
		s.notifier.Failure(ctx, "Failed to update project")
		return err
	}

	s.record = record
	s.notifier.Success(ctx, "Project updated successfully")
	slog.Info("project saved", "session_id", s.ID, "project_id", s.ProjectID, "completion", s.completion)

	// Redirect after a short dwell so the success toast is seen. Closing
	// the session first abandons the navigation.
	go func() {
		select {
		case <-time.After(s.redirectDelay):
		case <-s.ctx.Done():
			return
		}
		if err := s.navigator.GoTo(s.ctx, s.listPath); err != nil {
			slog.Warn("post-save navigation failed", "error", err, "session_id", s.ID)
		}
		s.mu.Lock()
		if s.status != models.SessionClosed {
			s.redirectTo = s.listPath
		}
		s.mu.Unlock()
	}()

	return nil
}

// Draft assembles the current submission payload without persisting it
func (s *Session) Draft() (*models.ProjectDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}

	return &models.ProjectDraft{
		ProjectID:         s.record.ID,
		Name:              s.record.Name,
		Code:              s.record.Code,
		Amenities:         s.amenities.Options(),
		Media:             s.assets.Assets(),
		Location:          s.picker.Location(),
		YoutubeURLs:       append([]string(nil), s.youtube...),
		ReraRegistered:    s.reraReg,
		ReraNumbers:       append([]string(nil), s.reraNums...),
		CompletionPercent: s.completion,
	}, nil
}

// CancelEditing abandons the draft and navigates straight back to the
// project list. Unlike Save it is also allowed from the not-found state,
// where navigating away is the only thing left to do.
func (s *Session) CancelEditing(ctx context.Context) error {
	s.mu.Lock()
	if s.status == models.SessionClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.redirectTo = s.listPath
	s.mu.Unlock()

	if err := s.navigator.GoTo(ctx, s.listPath); err != nil {
		slog.Warn("cancel navigation failed", "error", err, "session_id", s.ID)
	}
	return nil
}

// Snapshot returns the read-only view served to clients
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:                s.ID,
		ProjectID:         s.ProjectID,
		Status:            s.status,
		Location:          s.picker.Location(),
		Picker:            s.picker.View(),
		CompletionPercent: s.completion,
		RedirectTo:        s.redirectTo,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
	}

	if s.record != nil {
		snap.ProjectName = s.record.Name
	}
	if s.status == models.SessionEditing {
		snap.Amenities = s.amenities.Options()
		snap.Media = s.assets.Assets()
		snap.YoutubeURLs = append([]string(nil), s.youtube...)
		snap.ReraRegistered = s.reraReg
		snap.ReraNumbers = append([]string(nil), s.reraNums...)
	}
	return snap
}

// MediaPreviewHandle resolves an asset id to its preview handle
func (s *Session) MediaPreviewHandle(assetID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.assets.Assets() {
		if a.ID == assetID && a.PreviewHandle != "" {
			return a.PreviewHandle, true
		}
	}
	return "", false
}

// Status returns the current lifecycle state
func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Expired reports whether the session TTL has elapsed
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Close tears the session down: the in-flight load and any pending redirect
// are abandoned, every preview handle is released, and a still-open picker
// is disposed. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.SessionClosed {
		return nil
	}

	s.cancel()

	if s.picker.State() == PickerEditing {
		if err := s.picker.Cancel(); err != nil {
			slog.Warn("picker teardown failed", "error", err, "session_id", s.ID)
		}
	}
	s.assets.ReleaseAll(ctx)

	s.status = models.SessionClosed
	slog.Info("edit session closed", "session_id", s.ID, "project_id", s.ProjectID)
	return nil
}
