package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/storage"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"go.uber.org/zap"
)

// AddJob enqueues a River job. Inside a transaction the job only becomes
// visible on commit, so a training run can be queued atomically with the rows
// it refers to. Outside a transaction the insert runs in a transaction of its
// own. It reports false when River skipped the job as a duplicate of an
// unfinished unique job.
func (p *PgSQL) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	tx, ok := p.DB.(*sql.Tx)
	if !ok {
		var added bool
		err := p.WithTx(ctx, func(s storage.AllStorage) error {
			var err error
			added, err = s.AddJob(ctx, args, opts)

			return err //nolint: wrapcheck
		})

		return added, err
	}

	// the client only inserts, so it needs neither workers nor a pool
	client, err := river.NewClient[*sql.Tx](riverdatabasesql.New(nil), &river.Config{})
	if err != nil {
		return false, fmt.Errorf("could not create river queue client: %w", err)
	}

	res, err := client.InsertTx(ctx, tx, args, opts)
	if err != nil {
		return false, fmt.Errorf("could not insert %s job: %w", args.Kind(), err)
	}
	if res.UniqueSkippedAsDuplicate {
		logger.Debug(ctx, "job skipped as duplicate",
			zap.String("kind", args.Kind()), zap.Int64("jobID", res.Job.ID))
	}

	return !res.UniqueSkippedAsDuplicate, nil
}
