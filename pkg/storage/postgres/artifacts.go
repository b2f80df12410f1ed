package postgres

import (
	"context"
	"fmt"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/storage"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	artifactsTable = "artifacts"
)

// PublishArtifact inserts a new artifact row. Rows are never updated, the
// latest artifact is the one with the greatest created_at.
func (p *PgSQL) PublishArtifact(ctx context.Context, artifact domain.Artifact) (*domain.Artifact, error) {
	artifact, err := storage.Stamp(artifact, time.Now())
	if err != nil {
		return nil, err
	}

	var row PgArtifact
	if err := row.FromDomain(artifact); err != nil {
		return nil, err
	}

	var result []PgArtifact
	if err := p.Builder.Insert(artifactsTable).
		Rows(row).
		Prepared(true).
		Returning(&PgArtifact{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store artifact into pg: %w", err)
	}

	return result[0].ToDomain()
}

// LatestArtifact returns the most recently created artifact or nil.
func (p *PgSQL) LatestArtifact(ctx context.Context) (*domain.Artifact, error) {
	var row PgArtifact
	found, err := p.Builder.From(artifactsTable).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(1).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not get latest artifact from pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// ArtifactByID fetches a single artifact or nil when it does not exist.
func (p *PgSQL) ArtifactByID(ctx context.Context, id domain.ArtifactID) (*domain.Artifact, error) {
	var row PgArtifact
	found, err := p.Builder.From(artifactsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not get artifact by id from pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}
