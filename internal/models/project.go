package models

import (
	"time"
)

// SessionStatus represents the current state of an edit session
type SessionStatus string

const (
	SessionLoading  SessionStatus = "loading"   // Created, project record being fetched
	SessionEditing  SessionStatus = "editing"   // Record found, draft is mutable
	SessionNotFound SessionStatus = "not_found" // Record missing, only navigate-away remains
	SessionClosed   SessionStatus = "closed"    // Torn down, all resources released
)

// IsTerminal returns true if the session is in a final state
func (s SessionStatus) IsTerminal() bool {
	return s == SessionNotFound || s == SessionClosed
}

// IsEditable returns true if draft mutations are allowed
func (s SessionStatus) IsEditable() bool {
	return s == SessionEditing
}

// ProjectRecord is a stored property listing as the repository knows it.
type ProjectRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Completion int       `json:"completion"`
	Type       string    `json:"type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProjectDraft is the immutable submission payload assembled at save time.
// It is recomputed from the subsystem state, never stored independently.
type ProjectDraft struct {
	ProjectID         string          `json:"project_id"`
	Name              string          `json:"name"`
	Code              string          `json:"code"`
	Amenities         []AmenityOption `json:"amenities"`
	Media             []MediaAsset    `json:"media"`
	Location          Location        `json:"location"`
	YoutubeURLs       []string        `json:"youtube_urls,omitempty"`
	ReraRegistered    *bool           `json:"rera_registered,omitempty"`
	ReraNumbers       []string        `json:"rera_numbers,omitempty"`
	CompletionPercent int             `json:"completion_percent"`
}

// CreateProjectRequest represents a request to create a project record
type CreateProjectRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type,omitempty"`
}

// OpenSessionRequest represents a request to open an edit session
type OpenSessionRequest struct {
	ProjectID string `json:"project_id"`
}

// UpdateExtrasRequest replaces the video and RERA fields of a draft wholesale
type UpdateExtrasRequest struct {
	YoutubeURLs    []string `json:"youtube_urls"`
	ReraRegistered *bool    `json:"rera_registered"`
	ReraNumbers    []string `json:"rera_numbers"`
}

// SessionSnapshot is the read-only view of an edit session returned by the API.
type SessionSnapshot struct {
	ID                string          `json:"id"`
	ProjectID         string          `json:"project_id"`
	Status            SessionStatus   `json:"status"`
	ProjectName       string          `json:"project_name,omitempty"`
	Amenities         []AmenityOption `json:"amenities,omitempty"`
	Media             []MediaAsset    `json:"media,omitempty"`
	Location          Location        `json:"location"`
	Picker            PickerView      `json:"picker"`
	YoutubeURLs       []string        `json:"youtube_urls,omitempty"`
	ReraRegistered    *bool           `json:"rera_registered,omitempty"`
	ReraNumbers       []string        `json:"rera_numbers,omitempty"`
	CompletionPercent int             `json:"completion_percent"`
	RedirectTo        string          `json:"redirect_to,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
}

// UploadResult reports the outcome of a multi-file upload batch.
// Decoding failures are per-file; successfully decoded files still commit.
type UploadResult struct {
	Added  int           `json:"added"`
	Failed []UploadError `json:"failed,omitempty"`
}

// UploadError identifies a single payload that failed to decode
type UploadError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
