package trainer

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for a training job submitted to River.
type JobArgs struct {
	// Dataset is the labeled CSV to train on. It is marked as unique so River
	// keeps at most one unfinished job per dataset.
	Dataset string `json:"dataset" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the training worker.
func (args JobArgs) Kind() string { return "TrainModelJob" }

// InsertOpts returns the River options that control how the job is enqueued.
// A completed run does not block a new one for the same dataset.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
