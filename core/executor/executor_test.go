package executor

import (
	"context"
	"testing"

	"github.com/aquanode/aqua-engine/core/apqueue"
	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/storage"
)

func newTestExecutor(t *testing.T) (*Executor, *workflowstore.Store) {
	t.Helper()

	db, err := storage.NewWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := workflowstore.New(db, nil)

	deps := workflowengine.Dependencies{
		Wallets: &workflowengine.FakeWalletRegistry{Providers: map[string]workflowengine.WalletProvider{
			"Sui": &workflowengine.FakeWalletProvider{
				Balance: map[string]any{"native": map[string]any{"formatted": "50.0000"}},
			},
		}},
		AI:       &workflowengine.FakeAIProvider{},
		Email:    &workflowengine.FakeEmailProvider{},
		Indexing: &workflowengine.FakeIndexingProvider{},
		CoinInfo: &workflowengine.FakeCoinInfoProvider{},
	}

	return New(Config{Store: store, Dependencies: deps}), store
}

func balanceWorkflow(owner string) *model.Workflow {
	return &model.Workflow{
		Owner:  owner,
		Name:   "Balance Check",
		Status: model.WorkflowStatusActive,
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Name: "Balance", Config: map[string]any{
				"chain": "Sui", "walletAddress": "0xabc",
			}},
		},
	}
}

func TestPerformRunsStoredWorkflow(t *testing.T) {
	x, store := newTestExecutor(t)

	wf := balanceWorkflow("u1")
	if err := store.Create(wf); err != nil {
		t.Fatalf("create workflow: %v", err)
	}

	err := x.Perform(&apqueue.Job{
		Type:  apqueue.JobTypeExecuteWorkflow,
		Name:  wf.ID,
		Owner: "u1",
	})
	if err != nil {
		t.Fatalf("Perform: %v", err)
	}

	stored, err := store.Get("u1", wf.ID)
	if err != nil {
		t.Fatalf("get workflow: %v", err)
	}
	if stored.TotalRuns != 1 {
		t.Errorf("expected 1 recorded run, got %d", stored.TotalRuns)
	}
	if stored.SuccessRate != 100 {
		t.Errorf("expected 100%% success rate, got %v", stored.SuccessRate)
	}

	executions, err := store.Executions("u1", wf.ID)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(executions) != 1 || executions[0].Status != workflowengine.RunStatusSuccess {
		t.Errorf("unexpected executions: %+v", executions)
	}
}

func TestPerformUnknownWorkflow(t *testing.T) {
	x, _ := newTestExecutor(t)

	err := x.Perform(&apqueue.Job{
		Type:  apqueue.JobTypeExecuteWorkflow,
		Name:  "01JUNKJUNKJUNKJUNKJUNKJUNK",
		Owner: "u1",
	})
	if err == nil {
		t.Fatal("expected error for missing workflow")
	}
}

func TestPerformRejectsOtherJobTypes(t *testing.T) {
	x, _ := newTestExecutor(t)

	if err := x.Perform(&apqueue.Job{Type: "mail:digest"}); err == nil {
		t.Fatal("expected error for unsupported job type")
	}
}

func TestRunRecordsPartialSuccess(t *testing.T) {
	x, store := newTestExecutor(t)

	wf := balanceWorkflow("u1")
	// The indexing block reports failures instead of halting the run.
	wf.Blocks = append(wf.Blocks, model.Block{
		ID: "b2", Type: model.BlockTypeTransferEvents, Config: map[string]any{},
	})
	if err := store.Create(wf); err != nil {
		t.Fatalf("create workflow: %v", err)
	}

	x.deps.Indexing = &workflowengine.FakeIndexingProvider{Err: context.DeadlineExceeded}

	summary, err := x.Run(context.Background(), "u1", wf.ID, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Status != workflowengine.RunStatusPartialSuccess {
		t.Errorf("expected partial_success, got %s", summary.Status)
	}

	stored, _ := store.Get("u1", wf.ID)
	if stored.SuccessRate != 0 {
		t.Errorf("partial runs should not count as successes, got %v", stored.SuccessRate)
	}
}
