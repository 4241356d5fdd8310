package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propdesk/listing-engine/internal/catalog"
	"github.com/propdesk/listing-engine/internal/config"
	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/models"
	"github.com/propdesk/listing-engine/internal/notify"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/session"
	"github.com/propdesk/listing-engine/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo := storage.NewSeededRepository()
	previews := preview.NewMemoryStore()
	cat := catalog.New()
	hub := mapsurface.NewHub()

	manager := session.NewManager(
		session.ManagerConfig{
			TTL:           time.Hour,
			LoadDelay:     time.Millisecond,
			RedirectDelay: time.Millisecond,
			ListPath:      "/",
			DefaultLat:    18.5204,
			DefaultLng:    73.8567,
			Zoom:          13,
		},
		repo,
		previews,
		hub,
		notify.NewSlog(),
		cat,
		NewNavigatorFactory(hub),
	)

	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, repo, manager, previews, cat, hub)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope from %s %s: %v (body %q)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func openEditingSession(t *testing.T, srv *Server, projectID string) models.SessionSnapshot {
	t.Helper()

	status, env := doJSON(t, srv, "POST", "/api/v1/sessions", models.OpenSessionRequest{ProjectID: projectID})
	if status != http.StatusCreated {
		t.Fatalf("open session returned %d", status)
	}

	var snap models.SessionSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, env := doJSON(t, srv, "GET", "/api/v1/sessions/"+snap.ID, nil)
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			t.Fatalf("bad snapshot: %v", err)
		}
		if snap.Status != models.SessionLoading {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session %s never left loading", snap.ID)
	return snap
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, srv, "GET", "/health", nil)
	if status != http.StatusOK || !env.Success {
		t.Errorf("health returned %d success=%v", status, env.Success)
	}

	status, env = doJSON(t, srv, "GET", "/ready", nil)
	if status != http.StatusOK || !env.Success {
		t.Errorf("ready returned %d success=%v", status, env.Success)
	}
}

func TestProjectEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, srv, "GET", "/api/v1/projects", nil)
	if status != http.StatusOK {
		t.Fatalf("list returned %d", status)
	}
	var list struct {
		Projects []models.ProjectRecord `json:"projects"`
		Total    int                    `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("bad list payload: %v", err)
	}
	if list.Total != 5 {
		t.Errorf("expected 5 demo projects, got %d", list.Total)
	}

	status, _ = doJSON(t, srv, "POST", "/api/v1/projects", models.CreateProjectRequest{Name: "Lakeview"})
	if status != http.StatusBadRequest {
		t.Errorf("missing code must be rejected, got %d", status)
	}

	status, env = doJSON(t, srv, "POST", "/api/v1/projects", models.CreateProjectRequest{Name: "Lakeview", Code: "LV001"})
	if status != http.StatusCreated {
		t.Fatalf("create returned %d", status)
	}
	var created models.ProjectRecord
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("bad create payload: %v", err)
	}

	status, _ = doJSON(t, srv, "GET", "/api/v1/projects/"+created.ID, nil)
	if status != http.StatusOK {
		t.Errorf("get created project returned %d", status)
	}

	status, env = doJSON(t, srv, "GET", "/api/v1/projects/does-not-exist", nil)
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "not_found" {
		t.Errorf("missing project: status %d, error %+v", status, env.Error)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, env := doJSON(t, srv, "GET", "/api/v1/catalog/amenities", nil)
	var amenities struct {
		Amenities []models.AmenityOption `json:"amenities"`
		Total     int                    `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &amenities); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if amenities.Total != 28 {
		t.Errorf("expected 28 amenities, got %d", amenities.Total)
	}

	_, env = doJSON(t, srv, "GET", "/api/v1/catalog/landmarks", nil)
	var landmarks struct {
		Landmarks []string `json:"landmarks"`
		Total     int      `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &landmarks); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if landmarks.Total != 7 {
		t.Errorf("expected 7 landmark categories, got %d", landmarks.Total)
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	snap := openEditingSession(t, srv, "1")

	if snap.Status != models.SessionEditing {
		t.Fatalf("expected editing, got %s", snap.Status)
	}
	if snap.CompletionPercent != 81 {
		t.Errorf("expected stored completion 81, got %d", snap.CompletionPercent)
	}

	base := "/api/v1/sessions/" + snap.ID

	// Toggle everything on and save
	status, env := doJSON(t, srv, "POST", base+"/amenities/toggle-all", nil)
	if status != http.StatusOK {
		t.Fatalf("toggle-all returned %d", status)
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}
	if snap.CompletionPercent != 100 {
		t.Errorf("expected derived completion 100, got %d", snap.CompletionPercent)
	}

	// Manual location with a bad landmark type is rejected
	status, env = doJSON(t, srv, "PUT", base+"/location", models.SetLocationRequest{
		Latitude: "18.6", Longitude: "73.7", Landmark: "Volcano",
	})
	if status != http.StatusBadRequest || env.Error == nil {
		t.Errorf("bad landmark: status %d, error %+v", status, env.Error)
	}

	status, _ = doJSON(t, srv, "PUT", base+"/location", models.SetLocationRequest{
		Latitude: "18.604587", Longitude: "73.752922", Landmark: "Park", Distance: "1 km",
	})
	if status != http.StatusOK {
		t.Fatalf("set location returned %d", status)
	}

	status, env = doJSON(t, srv, "POST", base+"/save", nil)
	if status != http.StatusOK {
		t.Fatalf("save returned %d", status)
	}

	// Persisted record visible via the projects API
	_, env = doJSON(t, srv, "GET", "/api/v1/projects/1", nil)
	var record models.ProjectRecord
	if err := json.Unmarshal(env.Data, &record); err != nil {
		t.Fatalf("bad record payload: %v", err)
	}
	if record.Completion != 100 {
		t.Errorf("expected persisted completion 100, got %d", record.Completion)
	}

	// Close and verify it is gone
	status, _ = doJSON(t, srv, "DELETE", base, nil)
	if status != http.StatusOK {
		t.Fatalf("close returned %d", status)
	}
	status, _ = doJSON(t, srv, "GET", base, nil)
	if status != http.StatusNotFound {
		t.Errorf("closed session still resolvable, status %d", status)
	}
}

func TestSessionNotFoundProjectOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	snap := openEditingSession(t, srv, "does-not-exist")

	if snap.Status != models.SessionNotFound {
		t.Fatalf("expected not_found, got %s", snap.Status)
	}

	base := "/api/v1/sessions/" + snap.ID
	status, env := doJSON(t, srv, "POST", base+"/amenities/1/toggle", nil)
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "session_not_editable" {
		t.Errorf("mutation on not_found session: status %d, error %+v", status, env.Error)
	}

	// Cancel still navigates away
	status, _ = doJSON(t, srv, "POST", base+"/cancel", nil)
	if status != http.StatusOK {
		t.Errorf("cancel returned %d", status)
	}
}

func TestMediaUploadOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	snap := openEditingSession(t, srv, "1")
	base := "/api/v1/sessions/" + snap.ID

	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 32)...)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "front.png")
	if err != nil {
		t.Fatalf("multipart build failed: %v", err)
	}
	part.Write(png)
	part, err = mw.CreateFormFile("files", "notes.txt")
	if err != nil {
		t.Fatalf("multipart build failed: %v", err)
	}
	part.Write([]byte("just some text"))
	mw.Close()

	req := httptest.NewRequest("POST", base+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	var payload struct {
		Result models.UploadResult  `json:"result"`
		Media  []models.MediaAsset  `json:"media"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}

	if payload.Result.Added != 1 || len(payload.Result.Failed) != 1 {
		t.Fatalf("expected 1 added 1 failed, got %+v", payload.Result)
	}
	if len(payload.Media) != 1 || !payload.Media[0].IsPrimary {
		t.Fatalf("expected a single primary asset, got %+v", payload.Media)
	}

	// Preview streams the binary back
	previewPath := base + "/media/" + payload.Media[0].ID + "/preview"
	req = httptest.NewRequest("GET", previewPath, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preview returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected preview content type %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Error("preview payload does not round-trip")
	}

	// Remove and verify the preview handle is dead
	status, _ := doJSON(t, srv, "DELETE", base+"/media/"+payload.Media[0].ID, nil)
	if status != http.StatusOK {
		t.Fatalf("remove returned %d", status)
	}

	req = httptest.NewRequest("GET", previewPath, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("preview after remove returned %d, want 404", rec.Code)
	}
}

func TestPickerFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	snap := openEditingSession(t, srv, "1")
	base := "/api/v1/sessions/" + snap.ID

	// No websocket client attached: the picker opens inert
	status, env := doJSON(t, srv, "POST", base+"/picker/open", nil)
	if status != http.StatusOK {
		t.Fatalf("picker open returned %d", status)
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}
	if snap.Picker.State != "editing" || !snap.Picker.Inert {
		t.Errorf("expected inert editing picker, got %+v", snap.Picker)
	}

	// Staging and confirming still works through the API
	status, _ = doJSON(t, srv, "POST", base+"/picker/select", models.PickRequest{Latitude: 18.1, Longitude: 73.2})
	if status != http.StatusOK {
		t.Fatalf("picker select returned %d", status)
	}
	status, env = doJSON(t, srv, "POST", base+"/picker/confirm", nil)
	if status != http.StatusOK {
		t.Fatalf("picker confirm returned %d", status)
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}
	if snap.Location.Coordinate == nil || snap.Location.Coordinate.Latitude != 18.1 {
		t.Errorf("confirmed coordinate missing: %+v", snap.Location.Coordinate)
	}

	// Drag without an open picker is a conflict
	status, env = doJSON(t, srv, "POST", base+"/picker/drag", models.PickRequest{Latitude: 1, Longitude: 2})
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "picker_not_open" {
		t.Errorf("drag while idle: status %d, error %+v", status, env.Error)
	}
}
