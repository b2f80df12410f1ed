package postgres

import (
	"encoding/json"
	"fmt"
	"loanapproval/pkg/domain"
	"time"

	"github.com/google/uuid"
)

type PgArtifact struct {
	ID        uuid.UUID       `db:"id"`
	Transform []byte          `db:"transform"`
	Model     []byte          `db:"model"`
	Metrics   json.RawMessage `db:"metrics"`
	CreatedAt time.Time       `db:"created_at"`
}

func (p *PgArtifact) ToDomain() (*domain.Artifact, error) {
	var metrics domain.EvaluationMetrics
	if err := json.Unmarshal(p.Metrics, &metrics); err != nil {
		return nil, fmt.Errorf("could not unmarshal artifact metrics: %w", err)
	}

	return &domain.Artifact{
		ID:        domain.ArtifactID(p.ID),
		CreatedAt: p.CreatedAt.UTC(),
		Transform: p.Transform,
		Model:     p.Model,
		Metrics:   metrics,
	}, nil
}

func (p *PgArtifact) FromDomain(artifact domain.Artifact) error {
	metrics, err := json.Marshal(artifact.Metrics)
	if err != nil {
		return fmt.Errorf("could not marshal artifact metrics: %w", err)
	}

	*p = PgArtifact{
		ID:        uuid.UUID(artifact.ID),
		Transform: artifact.Transform,
		Model:     artifact.Model,
		Metrics:   metrics,
		CreatedAt: artifact.CreatedAt,
	}

	return nil
}
