// Package executor consumes workflow run jobs from the queue, drives the
// engine, and folds the outcome back into the store and metrics.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/aquanode/aqua-engine/core/apqueue"
	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/metrics"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

// runTimeout bounds a single background run; interactive runs inherit the
// request context instead.
const runTimeout = 5 * time.Minute

type Config struct {
	Store        *workflowstore.Store
	Dependencies workflowengine.Dependencies
	Metrics      *metrics.EngineMetrics
	Logger       logger.Logger
}

type Executor struct {
	store   *workflowstore.Store
	deps    workflowengine.Dependencies
	metrics *metrics.EngineMetrics
	logger  logger.Logger
}

func New(cfg Config) *Executor {
	return &Executor{
		store:   cfg.Store,
		deps:    cfg.Dependencies,
		metrics: cfg.Metrics,
		logger:  logger.EnsureLogger(cfg.Logger),
	}
}

// Perform implements apqueue.JobProcessor for workflow run jobs. Job.Name is
// the workflow id and Job.Owner its owner.
func (x *Executor) Perform(j *apqueue.Job) error {
	if j.Type != apqueue.JobTypeExecuteWorkflow {
		return fmt.Errorf("unsupported job type: %s", j.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err := x.Run(ctx, j.Owner, j.Name, nil)
	return err
}

// Run executes the stored workflow once and records the result. Background
// runs carry no wallet handles, so stake and swap blocks fail with a missing
// wallet error rather than signing anything.
func (x *Executor) Run(ctx context.Context, owner, workflowID string, wallets map[string]workflowengine.WalletHandle) (*workflowengine.ExecutionSummary, error) {
	wf, err := x.store.Get(owner, workflowID)
	if err != nil {
		return nil, err
	}

	// A fresh engine per run: the interpreter is single flight, and
	// concurrent runs of different workflows must not reject each other.
	engine := workflowengine.NewEngine(x.deps)

	summary, err := engine.Execute(ctx, wf, wallets)
	if err != nil {
		return nil, err
	}

	x.metrics.ObserveRun(summary)

	if err := x.store.RecordExecution(owner, wf, summary); err != nil {
		x.logger.Error("cannot record execution",
			"workflow_id", workflowID, "execution_id", summary.ExecutionID, "error", err)
		return summary, err
	}

	return summary, nil
}
