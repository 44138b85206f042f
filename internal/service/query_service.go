// internal/service/query_service.go
package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"photodrop-backend/internal/models"
	"photodrop-backend/internal/storage"
)

// ErrNoArtifacts means the session has no stored uploads to archive.
var ErrNoArtifacts = errors.New("no artifacts for session")

// QueryService answers history and archive requests. It is the reconciliation
// path for viewers that missed live broadcasts (reconnect, late join,
// multiple viewers): everything the hub may have dropped is recoverable here.
type QueryService struct {
	Store storage.Storage
}

// History lists the session's artifacts newest-first. Empty sessions yield an
// empty slice.
func (s *QueryService) History(token models.SessionToken) ([]models.Artifact, error) {
	return s.Store.List(token)
}

// Archive streams a zip of exactly the session's artifacts, each under its
// original base name. Only names carrying the session prefix are ever read —
// other sessions' artifacts never enter the archive. Returns ErrNoArtifacts
// for an unknown or empty session.
func (s *QueryService) Archive(w io.Writer, token models.SessionToken) error {
	artifacts, err := s.Store.List(token)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return ErrNoArtifacts
	}

	zw := zip.NewWriter(w)
	for _, a := range artifacts {
		entry, err := zw.Create(a.Name)
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", a.Name, err)
		}
		rc, err := s.Store.Open(a.Name)
		if err != nil {
			return fmt.Errorf("archive read %s: %w", a.Name, err)
		}
		_, err = io.Copy(entry, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("archive write %s: %w", a.Name, err)
		}
	}
	return zw.Close()
}

// ArchiveName is the attachment filename for a session's download.
func ArchiveName(token models.SessionToken) string {
	return string(token) + "-images.zip"
}
