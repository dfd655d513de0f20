package workflowengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

// Dependencies are the capability providers the engine consumes. They are
// injected by the caller, which owns their lifecycle; the engine holds no
// package-level service state.
type Dependencies struct {
	Wallets  WalletRegistry
	AI       AIProvider
	Email    EmailProvider
	Indexing IndexingProvider
	CoinInfo CoinInfoProvider
	Logger   logger.Logger
}

// Engine is the workflow interpreter: a single-flight, in-memory sequencer
// that runs blocks strictly in array order, threads results between them,
// and always resolves to an execution summary unless the re-entrancy guard
// trips.
type Engine struct {
	runners map[model.BlockType]BlockRunner
	preview *PreviewCache
	logger  logger.Logger

	mu      sync.Mutex
	running bool
}

func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		runners: make(map[model.BlockType]BlockRunner),
		preview: NewPreviewCache(),
		logger:  logger.EnsureLogger(deps.Logger),
	}

	e.register(
		&walletBalanceRunner{wallets: deps.Wallets},
		&walletTransactionRunner{wallets: deps.Wallets},
		&walletNFTRunner{wallets: deps.Wallets},
		&tokenInfoRunner{wallets: deps.Wallets, coinInfo: deps.CoinInfo},
		&conditionalRunner{},
		&stakeRunner{wallets: deps.Wallets},
		&swapRunner{wallets: deps.Wallets},
		&embeddedWalletRunner{},
		&cronjobRunner{},
		&aiExplanationRunner{ai: deps.AI},
		&sendEmailRunner{email: deps.Email},
	)
	e.register(newTokenAPIRunners(deps.Indexing)...)

	return e
}

func (e *Engine) register(runners ...BlockRunner) {
	for _, r := range runners {
		e.runners[r.Type()] = r
	}
}

// Preview exposes the UI-facing last-result side channel.
func (e *Engine) Preview() *PreviewCache {
	return e.preview
}

// Execute runs every block of the workflow in order. It returns an error
// only when a run is already in flight; block failures are reported through
// the summary, never by failing the call.
func (e *Engine) Execute(ctx context.Context, wf *model.Workflow, userWallets map[string]WalletHandle) (*ExecutionSummary, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, errors.New(WorkflowAlreadyRunningError)
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	executionID := model.GenerateExecutionID()
	ec := NewExecutionContext(wf.ID, wf.Name, userWallets)
	outcomes := make([]BlockOutcome, 0, len(wf.Blocks))

	e.logger.Info("starting workflow execution",
		"workflow_id", wf.ID, "workflow_name", wf.Name, "execution_id", executionID, "blocks", len(wf.Blocks))

	for i := range wf.Blocks {
		block := &wf.Blocks[i]
		e.logger.Debug("executing block",
			"workflow_id", wf.ID, "block_id", block.ID, "block_type", block.Type, "position", fmt.Sprintf("%d/%d", i+1, len(wf.Blocks)))

		out, err := e.executeBlock(ctx, block, ec)
		elapsed := time.Since(ec.StartTime).Milliseconds()

		if err != nil {
			message := fmt.Sprintf("Block execution failed: %s", err.Error())
			outcomes = append(outcomes, BlockOutcome{
				BlockID:       block.ID,
				BlockName:     block.Name,
				BlockType:     block.Type,
				Status:        OutcomeError,
				Error:         message,
				ExecutionTime: elapsed,
			})
			ec.AddError(block.ID, message)
			e.logger.Error("block execution failed, stopping workflow",
				"workflow_id", wf.ID, "block_id", block.ID, "error", err)
			break
		}

		if out.ReportsFailure() {
			message := out.FailureMessage()
			outcomes = append(outcomes, BlockOutcome{
				BlockID:       block.ID,
				BlockName:     block.Name,
				BlockType:     block.Type,
				Status:        OutcomeError,
				Error:         message,
				ExecutionTime: elapsed,
			})
			ec.AddError(block.ID, message)

			// Self-catching kinds keep the workflow alive; everything else
			// treats a reported failure like a thrown one.
			if haltOnReport(e.runners[block.Type]) {
				e.logger.Error("block reported failure, stopping workflow",
					"workflow_id", wf.ID, "block_id", block.ID, "error", message)
				break
			}
			e.logger.Warn("block reported failure, continuing",
				"workflow_id", wf.ID, "block_id", block.ID, "error", message)
			continue
		}

		outcomes = append(outcomes, BlockOutcome{
			BlockID:       block.ID,
			BlockName:     block.Name,
			BlockType:     block.Type,
			Status:        OutcomeSuccess,
			Result:        out,
			ExecutionTime: elapsed,
		})
		ec.StoreResult(block.ID, out)
		e.preview.Set(block.ID, out)

		if block.Type == model.BlockTypeConditional {
			if passed, _ := out["result"].(bool); !passed {
				e.logger.Info("conditional did not pass, stopping workflow",
					"workflow_id", wf.ID, "block_id", block.ID)
				break
			}
		}
	}

	summary := buildSummary(wf, executionID, ec, outcomes)
	e.logger.Info("workflow execution completed",
		"workflow_id", wf.ID, "execution_id", executionID, "status", summary.Status,
		"successful_blocks", summary.SuccessfulBlocks, "failed_blocks", summary.FailedBlocks,
		"duration_ms", summary.TotalExecutionTime)

	return summary, nil
}

// executeBlock dispatches to the registered runner and stamps the result
// with per-block timing.
func (e *Engine) executeBlock(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	runner, ok := e.runners[block.Type]
	if !ok {
		return nil, NewUnknownBlockTypeError(string(block.Type))
	}

	t0 := time.Now()
	out, err := runner.Run(ctx, block, ec)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = BlockOutput{}
	}

	out["executionTime"] = time.Since(t0).Milliseconds()
	out["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return out, nil
}
