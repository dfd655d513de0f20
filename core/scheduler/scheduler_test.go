package scheduler

import (
	"testing"
	"time"

	"github.com/aquanode/aqua-engine/core/apqueue"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/storage"
)

func newTestEnv(t *testing.T) (*workflowstore.Store, *apqueue.Queue) {
	t.Helper()

	db, err := storage.NewWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	queue := apqueue.New(db, &apqueue.QueueOption{Prefix: "test"})
	if err := queue.MustStart(); err != nil {
		t.Fatalf("start queue: %v", err)
	}
	t.Cleanup(func() { queue.Stop() })

	return workflowstore.New(db, nil), queue
}

func cronWorkflow(owner, name string, status model.WorkflowStatus, config map[string]any) *model.Workflow {
	return &model.Workflow{
		Owner:  owner,
		Name:   name,
		Status: status,
		Blocks: []model.Block{
			{ID: "cron-1", Type: model.BlockTypeCronjob, Config: config},
			{ID: "bal-1", Type: model.BlockTypeWalletBalance, Config: map[string]any{}},
		},
	}
}

func TestCronTrigger(t *testing.T) {
	wf := cronWorkflow("u", "wf", model.WorkflowStatusActive, map[string]any{
		"interval": float64(15), "maxRuns": float64(3),
	})
	tr, ok := cronTrigger(wf)
	if !ok {
		t.Fatal("expected a trigger")
	}
	if tr.interval != 15*time.Minute || tr.maxRuns != 3 {
		t.Errorf("unexpected trigger: %+v", tr)
	}

	wf.Blocks[0].Config = map[string]any{"enabled": false, "interval": float64(15)}
	if _, ok := cronTrigger(wf); ok {
		t.Error("disabled cronjob should not trigger")
	}

	wf.Blocks[0].Config = map[string]any{}
	tr, ok = cronTrigger(wf)
	if !ok || tr.interval != 5*time.Minute {
		t.Errorf("expected default 5 minute interval, got %+v ok=%v", tr, ok)
	}

	noCron := &model.Workflow{Blocks: []model.Block{{ID: "b", Type: model.BlockTypeWalletBalance}}}
	if _, ok := cronTrigger(noCron); ok {
		t.Error("workflow without cronjob block should not trigger")
	}
}

func TestSyncSchedulesActiveWorkflows(t *testing.T) {
	store, queue := newTestEnv(t)

	active := cronWorkflow("u1", "active", model.WorkflowStatusActive, map[string]any{"interval": float64(1)})
	paused := cronWorkflow("u1", "paused", model.WorkflowStatusPaused, map[string]any{"interval": float64(1)})
	spent := cronWorkflow("u1", "spent", model.WorkflowStatusActive, map[string]any{"interval": float64(1), "maxRuns": float64(2)})
	spent.TotalRuns = 2

	for _, wf := range []*model.Workflow{active, paused, spent} {
		if err := store.Create(wf); err != nil {
			t.Fatalf("create workflow: %v", err)
		}
	}

	s, err := New(Config{Store: store, Queue: queue})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()

	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(s.jobs) != 1 {
		t.Fatalf("expected 1 scheduled workflow, got %d", len(s.jobs))
	}
	if _, ok := s.jobs[active.ID]; !ok {
		t.Error("active workflow should be scheduled")
	}

	// Pausing the workflow unschedules it on the next scan.
	active.Status = model.WorkflowStatusPaused
	if err := store.Update(active); err != nil {
		t.Fatalf("update workflow: %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(s.jobs) != 0 {
		t.Errorf("paused workflow should be unscheduled, still have %d", len(s.jobs))
	}
}

func TestFireEnqueuesRun(t *testing.T) {
	store, queue := newTestEnv(t)

	wf := cronWorkflow("u1", "digest", model.WorkflowStatusActive, map[string]any{"interval": float64(1)})
	if err := store.Create(wf); err != nil {
		t.Fatalf("create workflow: %v", err)
	}

	s, err := New(Config{Store: store, Queue: queue})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()

	s.fire(wf.Owner, wf.ID)

	job, err := queue.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("expected an enqueued job")
	}
	if job.Type != apqueue.JobTypeExecuteWorkflow || job.Name != wf.ID || job.Owner != wf.Owner {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestFireHonorsMaxRuns(t *testing.T) {
	store, queue := newTestEnv(t)

	wf := cronWorkflow("u1", "limited", model.WorkflowStatusActive, map[string]any{"interval": float64(1), "maxRuns": float64(1)})
	wf.TotalRuns = 1
	if err := store.Create(wf); err != nil {
		t.Fatalf("create workflow: %v", err)
	}

	s, err := New(Config{Store: store, Queue: queue})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()

	s.fire(wf.Owner, wf.ID)

	job, err := queue.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job != nil {
		t.Errorf("run over maxRuns should not be enqueued, got %+v", job)
	}
}
