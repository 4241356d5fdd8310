package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/propdesk/listing-engine/internal/models"
	"github.com/propdesk/listing-engine/internal/preview"
)

// AssetManager owns the uploaded media collection of one edit session. It
// enforces the single-primary invariant and the preview-handle lifecycle:
// a handle is minted when an asset is created and released exactly once,
// on removal or on session teardown. Not goroutine-safe on its own; the
// owning session serializes access.
type AssetManager struct {
	sessionID string
	previews  preview.Store
	notifier  Notifier

	assets []*models.MediaAsset
}

// NewAssetManager creates an empty asset collection for a session
func NewAssetManager(sessionID string, previews preview.Store, notifier Notifier) *AssetManager {
	return &AssetManager{
		sessionID: sessionID,
		previews:  previews,
		notifier:  notifier,
	}
}

// AddFiles creates one asset per payload, in input order, appended after the
// existing assets. The first payload landing in an empty collection becomes
// primary. A payload that fails to decode fails alone; the rest of the batch
// still commits. An empty batch is a no-op with no notification.
func (m *AssetManager) AddFiles(ctx context.Context, payloads []models.FilePayload) models.UploadResult {
	var result models.UploadResult
	if len(payloads) == 0 {
		return result
	}

	for _, p := range payloads {
		contentType := http.DetectContentType(p.Data)
		if !strings.HasPrefix(contentType, "image/") {
			result.Failed = append(result.Failed, models.UploadError{
				Name:   p.Name,
				Reason: fmt.Sprintf("unsupported content type %s", contentType),
			})
			continue
		}

		id := uuid.New().String()
		handle, err := m.previews.Put(ctx, m.sessionID, id, contentType, p.Data)
		if err != nil {
			slog.Error("failed to create preview handle", "error", err, "session_id", m.sessionID, "file", p.Name)
			result.Failed = append(result.Failed, models.UploadError{
				Name:   p.Name,
				Reason: "preview unavailable",
			})
			continue
		}

		m.assets = append(m.assets, &models.MediaAsset{
			ID:            id,
			FileName:      p.Name,
			ContentType:   contentType,
			Size:          int64(len(p.Data)),
			PreviewHandle: handle,
			IsPrimary:     len(m.assets) == 0, // first asset into an empty collection
		})
		result.Added++
	}

	if result.Added > 0 && m.notifier != nil {
		m.notifier.Success(ctx, fmt.Sprintf("%d images uploaded successfully", result.Added))
	}
	for _, f := range result.Failed {
		if m.notifier != nil {
			m.notifier.Failure(ctx, fmt.Sprintf("failed to upload %s: %s", f.Name, f.Reason))
		}
	}

	return result
}

// Remove deletes the asset and releases its preview handle immediately. If
// the removed asset was primary and assets remain, the new first asset is
// promoted. Unknown ids are logged and ignored.
func (m *AssetManager) Remove(ctx context.Context, id string) {
	idx := m.indexOf(id)
	if idx < 0 {
		slog.Debug("remove for unknown asset ignored", "asset_id", id)
		return
	}

	removed := m.assets[idx]
	m.assets = append(m.assets[:idx], m.assets[idx+1:]...)

	if removed.PreviewHandle != "" {
		if err := m.previews.Release(ctx, removed.PreviewHandle); err != nil {
			slog.Warn("failed to release preview handle", "error", err, "asset_id", id)
		}
		removed.PreviewHandle = ""
	}

	if removed.IsPrimary && len(m.assets) > 0 {
		m.assets[0].IsPrimary = true
	}
}

// SetDescription updates an asset's free-text description. Unknown ids are
// logged and ignored.
func (m *AssetManager) SetDescription(id, text string) {
	idx := m.indexOf(id)
	if idx < 0 {
		slog.Debug("description update for unknown asset ignored", "asset_id", id)
		return
	}
	m.assets[idx].Description = text
}

// SetPrimary designates or clears the primary flag. Designating reassigns
// exclusively: exactly the named asset ends up primary. Clearing touches
// only the named asset and may leave zero primaries; that transient state
// is allowed deliberately and never auto-promotes another asset.
func (m *AssetManager) SetPrimary(id string, primary bool) {
	idx := m.indexOf(id)
	if idx < 0 {
		slog.Debug("primary update for unknown asset ignored", "asset_id", id)
		return
	}

	if primary {
		for _, a := range m.assets {
			a.IsPrimary = a.ID == id
		}
		return
	}
	m.assets[idx].IsPrimary = false
}

// Assets returns a copy of the collection in display order
func (m *AssetManager) Assets() []models.MediaAsset {
	out := make([]models.MediaAsset, len(m.assets))
	for i, a := range m.assets {
		out[i] = *a
	}
	return out
}

// Count returns the collection size
func (m *AssetManager) Count() int {
	return len(m.assets)
}

// PrimaryCount returns how many assets carry the primary flag
func (m *AssetManager) PrimaryCount() int {
	count := 0
	for _, a := range m.assets {
		if a.IsPrimary {
			count++
		}
	}
	return count
}

// ReleaseAll revokes every remaining preview handle. Called on session
// teardown; handles already released by Remove are not released twice.
func (m *AssetManager) ReleaseAll(ctx context.Context) {
	if err := m.previews.ReleaseSession(ctx, m.sessionID); err != nil {
		slog.Warn("failed to release session previews", "error", err, "session_id", m.sessionID)
	}
	for _, a := range m.assets {
		a.PreviewHandle = ""
	}
}

func (m *AssetManager) indexOf(id string) int {
	for i, a := range m.assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}
