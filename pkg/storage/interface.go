// Package storage defines the core storage interfaces that the application relies on.
// It abstracts persistence of trained artifacts, background job enqueueing and
// transaction management so that different backends (a local directory or
// PostgreSQL) can provide concrete implementations.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import (
	"context"
	"loanapproval/pkg/domain"

	"github.com/riverqueue/river"
)

// ArtifactStorage publishes and reads trained artifacts. Artifacts are never
// modified once published; publishing a newer one replaces what LatestArtifact
// returns without affecting readers holding an older one.
type ArtifactStorage interface {
	// PublishArtifact stores a new artifact and makes it the latest one. A zero
	// ID or CreatedAt is generated by the storage. The stored artifact is returned.
	PublishArtifact(ctx context.Context, artifact domain.Artifact) (*domain.Artifact, error)
	// LatestArtifact returns the most recently published artifact, or nil when
	// nothing has been published yet.
	LatestArtifact(ctx context.Context) (*domain.Artifact, error)
	// ArtifactByID returns the artifact with the given ID, or nil when not found.
	ArtifactByID(ctx context.Context, ID domain.ArtifactID) (*domain.Artifact, error)
}

// JobStorage defines the minimal interface for enqueueing background jobs.
// Implementations are responsible for persisting the job into the underlying
// queue backend. The args parameter contains the job payload and opts can be
// used to customize insertion behavior (e.g., queue name, delay, priority).
type JobStorage interface {
	// AddJob enqueues a new job with the given arguments. It should be atomic
	// with respect to any surrounding transaction when supported by the backend.
	// It reports false when the job was skipped as a duplicate.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}

// AllStorage is a composite interface that includes all domain-specific storage
// capabilities of a transactional backend.
type AllStorage interface {
	ArtifactStorage
	JobStorage
}

// TxStorage describes a storage handle that operates within a database
// transaction. It exposes the same domain-specific capabilities as AllStorage,
// and additionally allows committing or rolling back the ongoing transaction.
// Implementations should become unusable after Commit or Rollback is called.
type TxStorage interface {
	AllStorage

	// Commit finalizes the transaction, persisting all changes.
	Commit() error
	// Rollback aborts the transaction, discarding all uncommitted changes.
	Rollback() error
}

// Storage describes a non-transactional storage handle with the ability to
// start transactions. It exposes domain-specific capabilities and lifecycle
// management such as Close.
type Storage interface {
	AllStorage

	// Close releases any resources held by the storage implementation (e.g. the
	// underlying connection pool). After Close, the instance should not be used.
	Close() error

	// Begin starts a new transaction and returns a TxStorage that can be used to
	// perform further operations within that transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx is a helper that begins a transaction, invokes the provided callback
	// with a TxStorage, and then commits on success or rolls back if the callback
	// returns an error.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
