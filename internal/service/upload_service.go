// internal/service/upload_service.go
package service

import (
	"fmt"
	"io"
	"path/filepath"

	"photodrop-backend/internal/models"
	"photodrop-backend/internal/storage"
	"photodrop-backend/internal/validation"
)

// Broadcaster is the slice of the room broker the ingest pipeline needs.
type Broadcaster interface {
	Broadcast(token models.SessionToken, e models.NewImageEvent)
}

// UploadService is the ingest pipeline: validate, persist, notify. Storage is
// the durable source of truth; the broadcast is strictly best-effort.
type UploadService struct {
	Store   storage.Storage
	Hub     Broadcaster
	BaseURL string
}

// Ingest validates the upload, persists it, and notifies every live viewer in
// the session's room. The broadcast fires only after the artifact is durably
// stored, so a viewer that fetches immediately on notification never sees a
// miss. Notification delivery is fire-and-forget; a failure there is invisible
// to the uploader because the artifact remains discoverable via History.
func (s *UploadService) Ingest(token models.SessionToken, filename string, r io.Reader) (models.Artifact, error) {
	if err := validation.ValidateIngest(string(token), filename); err != nil {
		return models.Artifact{}, err
	}

	artifact, err := s.Store.Put(token, filepath.Ext(filename), r)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("ingest %s: %w", token, err)
	}

	s.Hub.Broadcast(token, models.NewImageEvent{
		Event:    models.EventNewImage,
		ImageURL: s.ImageURL(artifact),
	})

	return artifact, nil
}

// ImageURL resolves an artifact to the absolute URL it is served from.
func (s *UploadService) ImageURL(a models.Artifact) string {
	return s.BaseURL + "/uploads/" + a.Name
}
