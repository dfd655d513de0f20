package workflowengine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aquanode/aqua-engine/model"
)

func walletFor(chain string) map[string]WalletHandle {
	return map[string]WalletHandle{chain: NewFakeWalletHandle("0xabc")}
}

func TestExecuteRunsBlocksInOrder(t *testing.T) {
	engine, wallet, _, _, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-order",
		Name: "Order Check",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Name: "Balance", Config: map[string]any{
				"walletAddress": "0xabc", "chain": "Sui",
			}},
			{ID: "b2", Type: model.BlockTypeWalletTransaction, Name: "Transactions", Config: map[string]any{
				"walletAddress": "0xabc", "chain": "Sui",
			}},
			{ID: "b3", Type: model.BlockTypeEmbeddedWallet, Name: "Wallet", Config: map[string]any{
				"chain": "Sui",
			}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if summary.Status != RunStatusSuccess {
		t.Errorf("expected status %s, got %s", RunStatusSuccess, summary.Status)
	}
	if summary.TotalBlocks != 3 || summary.SuccessfulBlocks != 3 || summary.FailedBlocks != 0 {
		t.Errorf("unexpected counts: total=%d success=%d failed=%d",
			summary.TotalBlocks, summary.SuccessfulBlocks, summary.FailedBlocks)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(summary.Results))
	}
	for i, id := range []string{"b1", "b2", "b3"} {
		if summary.Results[i].BlockID != id {
			t.Errorf("outcome %d: expected block %s, got %s", i, id, summary.Results[i].BlockID)
		}
	}
	if got := wallet.Calls; len(got) != 2 || got[0] != "balance" || got[1] != "transactions" {
		t.Errorf("unexpected provider call order: %v", got)
	}

	// Outcome timings are measured from run start, so they never decrease.
	for i := 1; i < len(summary.Results); i++ {
		if summary.Results[i].ExecutionTime < summary.Results[i-1].ExecutionTime {
			t.Errorf("outcome %d execution time went backwards", i)
		}
	}
}

func TestExecuteStopsOnThrownError(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-failfast",
		Name: "Fail Fast",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Name: "Wallet", Config: map[string]any{"chain": "Sui"}},
			// Missing walletAddress raises before any provider call.
			{ID: "b2", Type: model.BlockTypeWalletBalance, Name: "Balance", Config: map[string]any{"chain": "Sui"}},
			{ID: "b3", Type: model.BlockTypeEmbeddedWallet, Name: "Never", Config: map[string]any{"chain": "Sui"}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if summary.Status != RunStatusPartialSuccess {
		t.Errorf("expected status %s, got %s", RunStatusPartialSuccess, summary.Status)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 outcomes (b3 skipped), got %d", len(summary.Results))
	}
	failed := summary.Results[1]
	if failed.Status != OutcomeError {
		t.Errorf("expected error outcome for b2, got %s", failed.Status)
	}
	if !strings.HasPrefix(failed.Error, "Block execution failed: ") {
		t.Errorf("unexpected error message: %q", failed.Error)
	}
	if !strings.Contains(failed.Error, "walletAddress is required") {
		t.Errorf("error should carry the field name: %q", failed.Error)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].BlockID != "b2" {
		t.Errorf("unexpected errors list: %+v", summary.Errors)
	}
}

func TestExecuteConditionalHaltIsNotAnError(t *testing.T) {
	engine, _, email, _, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-cond",
		Name: "Conditional Halt",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Name: "Balance", Config: map[string]any{
				"walletAddress": "0xabc", "chain": "Sui",
			}},
			{ID: "b2", Type: model.BlockTypeConditional, Name: "Gate", Config: map[string]any{
				"condition": ConditionGreaterThan,
				"value":     "1000",
				"field":     "previous.balance.native.formatted",
			}},
			{ID: "b3", Type: model.BlockTypeSendEmail, Name: "Notify", Config: map[string]any{
				"to": "a@b.c", "subject": "s", "body": "b",
			}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	// 50 > 1000 is false: the conditional is still a successful block and
	// the run ends cleanly without reaching the email.
	if summary.Status != RunStatusSuccess {
		t.Errorf("expected status %s, got %s", RunStatusSuccess, summary.Status)
	}
	if summary.SuccessfulBlocks != 2 || summary.FailedBlocks != 0 {
		t.Errorf("unexpected counts: success=%d failed=%d", summary.SuccessfulBlocks, summary.FailedBlocks)
	}
	if summary.TotalBlocks != 3 {
		t.Errorf("total blocks should count the skipped tail, got %d", summary.TotalBlocks)
	}
	if len(email.Sent) != 0 {
		t.Errorf("email should not have been sent after a failed conditional")
	}
	condOutcome := summary.Results[1]
	if passed, _ := condOutcome.Result["result"].(bool); passed {
		t.Errorf("conditional result should be false")
	}
}

func TestExecuteConditionalPassContinues(t *testing.T) {
	engine, _, email, ai, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-pass",
		Name: "Daily Portfolio Digest",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Name: "Balance", Config: map[string]any{
				"walletAddress": "0xabc", "chain": "Sui",
			}},
			{ID: "b2", Type: model.BlockTypeConditional, Name: "Gate", Config: map[string]any{
				"condition": ConditionGreaterThan,
				"value":     "10",
				"field":     "previous.balance.native.formatted",
			}},
			{ID: "b3", Type: model.BlockTypeAIExplanation, Name: "Explain", Config: map[string]any{
				"prompt": "Summarize my portfolio", "includeContext": true,
			}},
			{ID: "b4", Type: model.BlockTypeSendEmail, Name: "Notify", Config: map[string]any{
				"to":      "a@b.c",
				"subject": "{{WORKFLOW.name}}",
				"body":    "Explanation: {{AI.explanation}}",
			}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if summary.Status != RunStatusSuccess || summary.SuccessfulBlocks != 4 {
		t.Fatalf("expected 4 successful blocks, got status=%s success=%d", summary.Status, summary.SuccessfulBlocks)
	}
	if len(ai.Prompts) != 1 || ai.Prompts[0] != "Summarize my portfolio" {
		t.Errorf("unexpected AI prompts: %v", ai.Prompts)
	}
	if len(email.Sent) != 1 {
		t.Fatalf("expected one email, got %d", len(email.Sent))
	}
	msg := email.Sent[0]
	if msg.Subject != "Daily Portfolio Digest" {
		t.Errorf("workflow name alias not interpolated: %q", msg.Subject)
	}
	if msg.Body != "Explanation: ok" {
		t.Errorf("AI alias not interpolated: %q", msg.Body)
	}
}

func TestExecuteReportedFailureContinues(t *testing.T) {
	engine, _, _, _, indexing := newTestEngine()
	indexing.Err = errors.New("token api: 429")

	wf := &model.Workflow{
		ID:   "wf-report",
		Name: "Reported Failure",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeTransferEvents, Name: "Transfers", Config: map[string]any{
				"networkId": "mainnet",
			}},
			{ID: "b2", Type: model.BlockTypeEmbeddedWallet, Name: "Wallet", Config: map[string]any{
				"chain": "Sui",
			}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if summary.Status != RunStatusPartialSuccess {
		t.Errorf("expected status %s, got %s", RunStatusPartialSuccess, summary.Status)
	}
	if summary.SuccessfulBlocks != 1 || summary.FailedBlocks != 1 {
		t.Errorf("unexpected counts: success=%d failed=%d", summary.SuccessfulBlocks, summary.FailedBlocks)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("the run should have continued past the reported failure")
	}
	if summary.Results[0].Status != OutcomeError || summary.Results[1].Status != OutcomeSuccess {
		t.Errorf("unexpected outcome statuses: %s, %s", summary.Results[0].Status, summary.Results[1].Status)
	}
}

func TestExecuteReportedFailureNotVisibleToPrevious(t *testing.T) {
	engine, _, email, _, indexing := newTestEngine()
	indexing.Err = errors.New("token api down")

	wf := &model.Workflow{
		ID:   "wf-prev",
		Name: "Previous Skips Failures",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Name: "Wallet", Config: map[string]any{
				"chain": "Sui",
			}},
			{ID: "b2", Type: model.BlockTypeSwapEvents, Name: "Swaps", Config: map[string]any{}},
			{ID: "b3", Type: model.BlockTypeSendEmail, Name: "Notify", Config: map[string]any{
				"to": "a@b.c", "subject": "s", "body": "status={{previous.status}}",
			}},
		},
	}

	if _, err := engine.Execute(context.Background(), wf, nil); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if len(email.Sent) != 1 {
		t.Fatalf("expected one email, got %d", len(email.Sent))
	}
	// The failed swaps result is never stored, so `previous` lands on the
	// embedded wallet block.
	if email.Sent[0].Body != "status=initialized" {
		t.Errorf("previous resolved into a failed result: %q", email.Sent[0].Body)
	}
}

func TestExecuteUnknownBlockType(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-unknown",
		Name: "Unknown",
		Blocks: []model.Block{
			{ID: "b1", Type: "teleport", Name: "Nope", Config: map[string]any{}},
		},
	}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if summary.Status != RunStatusPartialSuccess || summary.FailedBlocks != 1 {
		t.Errorf("unexpected summary: status=%s failed=%d", summary.Status, summary.FailedBlocks)
	}
	if !strings.Contains(summary.Results[0].Error, UnknownBlockTypeError) {
		t.Errorf("error should mention the unknown type: %q", summary.Results[0].Error)
	}
}

func TestExecuteRejectsConcurrentRun(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	engine.mu.Lock()
	engine.running = true
	engine.mu.Unlock()

	wf := &model.Workflow{ID: "wf-busy", Name: "Busy", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Config: map[string]any{"chain": "Sui"}},
	}}

	if _, err := engine.Execute(context.Background(), wf, nil); err == nil {
		t.Fatal("expected re-entrancy error")
	} else if err.Error() != WorkflowAlreadyRunningError {
		t.Errorf("unexpected error: %v", err)
	}

	engine.mu.Lock()
	engine.running = false
	engine.mu.Unlock()

	if _, err := engine.Execute(context.Background(), wf, nil); err != nil {
		t.Errorf("engine should accept a run once idle: %v", err)
	}
}

func TestExecuteStakeRequiresConnectedWallet(t *testing.T) {
	engine, wallet, _, _, _ := newTestEngine()

	wf := &model.Workflow{
		ID:   "wf-stake",
		Name: "Stake",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeStake, Name: "Stake", Config: map[string]any{
				"chain": "Sui", "amount": "25",
			}},
		},
	}

	// No wallet handle for the chain: thrown error, no provider call.
	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if summary.FailedBlocks != 1 {
		t.Fatalf("expected failed stake, got %+v", summary)
	}
	if !strings.Contains(summary.Results[0].Error, "no wallet connected for Sui") {
		t.Errorf("unexpected error: %q", summary.Results[0].Error)
	}
	if len(wallet.Calls) != 0 {
		t.Errorf("provider must not be called without a wallet handle: %v", wallet.Calls)
	}

	// With a handle the stake goes through.
	summary, err = engine.Execute(context.Background(), wf, walletFor("Sui"))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if summary.Status != RunStatusSuccess {
		t.Errorf("expected success, got %s", summary.Status)
	}
	result, _ := summary.Results[0].Result["result"].(map[string]any)
	if result["hash"] != "0xstake" {
		t.Errorf("unexpected stake receipt: %v", summary.Results[0].Result)
	}
}

func TestExecuteStampsBlockTiming(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{ID: "wf-stamp", Name: "Stamp", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Config: map[string]any{"chain": "Sui"}},
	}}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	out := summary.Results[0].Result
	if _, ok := out["executionTime"].(int64); !ok {
		t.Errorf("block output missing executionTime: %v", out)
	}
	if ts, ok := out["timestamp"].(string); !ok || ts == "" {
		t.Errorf("block output missing timestamp: %v", out)
	}
}

func TestPreviewCacheTracksLastResults(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{ID: "wf-preview", Name: "Preview", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Config: map[string]any{"chain": "Sui"}},
		{ID: "b2", Type: model.BlockTypeCronjob, Config: map[string]any{"interval": 10}},
	}}

	if _, err := engine.Execute(context.Background(), wf, nil); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	out, ok := engine.Preview().Get("b2")
	if !ok {
		t.Fatal("preview missing for b2")
	}
	if out.Type() != "cronjob" {
		t.Errorf("unexpected preview type: %s", out.Type())
	}

	engine.Preview().Clear()
	if _, ok := engine.Preview().Get("b1"); ok {
		t.Error("preview should be empty after Clear")
	}
}

func TestExecuteTokenInfoCoinVariant(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{ID: "wf-coin", Name: "Coin", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeTokenInfo, Config: map[string]any{"coin": "ETH"}},
	}}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if summary.Status != RunStatusSuccess {
		t.Fatalf("expected success, got %s: %+v", summary.Status, summary.Errors)
	}
	out := summary.Results[0].Result
	if out["coin"] != "ETH" {
		t.Errorf("coin should be upper-cased: %v", out["coin"])
	}
	if out["poolAddress"] != coinPoolAddresses["eth"] {
		t.Errorf("unexpected pool address: %v", out["poolAddress"])
	}
	info, _ := out["tokenInfo"].(map[string]any)
	if info["pairName"] != "USDC/WETH" {
		t.Errorf("unexpected snapshot: %v", out["tokenInfo"])
	}
}

func TestSummaryCondense(t *testing.T) {
	engine, _, _, _, _ := newTestEngine()

	wf := &model.Workflow{ID: "wf-hist", Name: "History", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeEmbeddedWallet, Config: map[string]any{"chain": "Sui"}},
	}}

	summary, err := engine.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	entry := summary.Condense()
	if entry.ExecutionID != summary.ExecutionID || entry.Status != summary.Status {
		t.Errorf("condensed entry does not match summary: %+v", entry)
	}
	if entry.TotalBlocks != 1 || entry.SuccessfulBlocks != 1 {
		t.Errorf("unexpected condensed counts: %+v", entry)
	}
}
