package storage

import (
	"fmt"
	"loanapproval/pkg/domain"
	"time"

	"github.com/google/uuid"
)

// Stamp prepares an artifact for publishing. It rejects incomplete artifacts
// and fills a zero ID with a time ordered UUID and a zero CreatedAt with now.
func Stamp(artifact domain.Artifact, now time.Time) (domain.Artifact, error) {
	if len(artifact.Transform) == 0 || len(artifact.Model) == 0 {
		return domain.Artifact{}, ErrIncompleteArtifact
	}
	if artifact.ID == (domain.ArtifactID{}) {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Artifact{}, fmt.Errorf("could not generate artifact id: %w", err)
		}
		artifact.ID = domain.ArtifactID(id)
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = now
	}
	artifact.CreatedAt = artifact.CreatedAt.UTC()

	return artifact, nil
}
