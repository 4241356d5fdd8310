package models

// MediaAsset is one uploaded image in the draft's media collection.
// At most one asset carries IsPrimary at a time once a primary designation
// has been made; the first asset added to an empty collection is primary by
// default.
type MediaAsset struct {
	ID            string `json:"id"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	PreviewHandle string `json:"preview_handle,omitempty"`
	Description   string `json:"description"`
	IsPrimary     bool   `json:"is_primary"`
}

// FilePayload is one binary payload submitted in an upload batch.
type FilePayload struct {
	Name string
	Data []byte
}
