// Package scheduler turns cronjob blocks into recurring queue jobs. It scans
// the workflow store on an interval, keeps one gocron job per active workflow
// with an enabled cron trigger, and enqueues a run when the trigger fires.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/samber/lo"

	"github.com/aquanode/aqua-engine/core/apqueue"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/metrics"
	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

const defaultRescanInterval = time.Minute

// trigger is the schedule extracted from a workflow's cronjob block.
type trigger struct {
	interval time.Duration
	maxRuns  int
}

type Config struct {
	Store          *workflowstore.Store
	Queue          *apqueue.Queue
	RescanInterval time.Duration
	Metrics        *metrics.EngineMetrics
	Logger         logger.Logger
}

type Scheduler struct {
	store   *workflowstore.Store
	queue   *apqueue.Queue
	rescan  time.Duration
	metrics *metrics.EngineMetrics
	logger  logger.Logger

	cron gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]scheduledJob // workflow id -> job
}

type scheduledJob struct {
	job     gocron.Job
	trigger trigger
}

func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil || cfg.Queue == nil {
		return nil, fmt.Errorf("scheduler requires a store and a queue")
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	rescan := cfg.RescanInterval
	if rescan <= 0 {
		rescan = defaultRescanInterval
	}

	return &Scheduler{
		store:   cfg.Store,
		queue:   cfg.Queue,
		rescan:  rescan,
		metrics: cfg.Metrics,
		logger:  logger.EnsureLogger(cfg.Logger),
		cron:    cron,
		jobs:    map[string]scheduledJob{},
	}, nil
}

// Start begins the rescan loop and fires already scheduled triggers.
func (s *Scheduler) Start() error {
	if err := s.Sync(); err != nil {
		s.logger.Error("initial workflow scan failed", "error", err)
	}

	_, err := s.cron.NewJob(
		gocron.DurationJob(s.rescan),
		gocron.NewTask(func() {
			if err := s.Sync(); err != nil {
				s.logger.Error("workflow scan failed", "error", err)
			}
		}),
	)
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// Sync reconciles scheduled jobs against the store: new active workflows get
// a job, paused or deleted ones lose theirs, changed intervals reschedule.
func (s *Scheduler) Sync() error {
	workflows, err := s.store.ListAll()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	for _, wf := range workflows {
		tr, ok := cronTrigger(wf)
		if !ok || wf.Status != model.WorkflowStatusActive {
			continue
		}
		if tr.maxRuns > 0 && wf.TotalRuns >= tr.maxRuns {
			continue
		}
		seen[wf.ID] = true

		existing, scheduled := s.jobs[wf.ID]
		if scheduled && existing.trigger == tr {
			continue
		}
		if scheduled {
			s.cron.RemoveJob(existing.job.ID())
		}

		job, err := s.schedule(wf, tr)
		if err != nil {
			s.logger.Error("cannot schedule workflow", "workflow", wf.ID, "error", err)
			continue
		}
		s.jobs[wf.ID] = scheduledJob{job: job, trigger: tr}
		s.logger.Info("scheduled workflow", "workflow", wf.ID, "interval", tr.interval)
	}

	for id, sj := range s.jobs {
		if !seen[id] {
			s.cron.RemoveJob(sj.job.ID())
			delete(s.jobs, id)
			s.logger.Info("unscheduled workflow", "workflow", id)
		}
	}

	return nil
}

func (s *Scheduler) schedule(wf *model.Workflow, tr trigger) (gocron.Job, error) {
	owner := wf.Owner
	workflowID := wf.ID

	return s.cron.NewJob(
		gocron.DurationJob(tr.interval),
		gocron.NewTask(func() {
			s.fire(owner, workflowID)
		}),
	)
}

// fire enqueues one run; maxRuns is re-checked against the live document so a
// limit reached between rescans still holds.
func (s *Scheduler) fire(owner, workflowID string) {
	wf, err := s.store.Get(owner, workflowID)
	if err != nil {
		s.logger.Warn("scheduled workflow vanished", "workflow", workflowID, "error", err)
		return
	}
	if wf.Status != model.WorkflowStatusActive {
		return
	}
	if tr, ok := cronTrigger(wf); ok && tr.maxRuns > 0 && wf.TotalRuns >= tr.maxRuns {
		return
	}

	jobID, err := s.queue.Enqueue(&apqueue.Job{
		Type:  apqueue.JobTypeExecuteWorkflow,
		Name:  workflowID,
		Owner: owner,
	})
	if err != nil {
		s.logger.Error("cannot enqueue workflow run", "workflow", workflowID, "error", err)
		return
	}
	s.metrics.IncScheduledEnqueue()
	s.logger.Debug("enqueued scheduled run", "workflow", workflowID, "job", jobID)
}

// cronTrigger extracts the schedule from the workflow's first enabled cronjob
// block.
func cronTrigger(wf *model.Workflow) (trigger, bool) {
	block, found := lo.Find(wf.Blocks, func(b model.Block) bool {
		return b.Type == model.BlockTypeCronjob
	})
	if !found {
		return trigger{}, false
	}

	if enabled, ok := block.Config["enabled"].(bool); ok && !enabled {
		return trigger{}, false
	}

	interval := intConfig(block.Config, "interval", 5)
	if interval <= 0 {
		interval = 5
	}

	return trigger{
		interval: time.Duration(interval) * time.Minute,
		maxRuns:  intConfig(block.Config, "maxRuns", 0),
	}, true
}

// intConfig reads a numeric config value that may arrive as a JSON float.
func intConfig(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
