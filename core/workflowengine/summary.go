package workflowengine

import (
	"time"

	"github.com/samber/lo"

	"github.com/aquanode/aqua-engine/model"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	RunStatusSuccess        = "success"
	RunStatusPartialSuccess = "partial_success"
)

// BlockOutcome is one entry of the execution report. ExecutionTime is
// elapsed milliseconds since the run started, so successive outcomes are
// non-decreasing.
type BlockOutcome struct {
	BlockID       string          `json:"blockId"`
	BlockName     string          `json:"blockName"`
	BlockType     model.BlockType `json:"blockType"`
	Status        string          `json:"status"`
	Result        BlockOutput     `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	ExecutionTime int64           `json:"executionTime"`
}

// ExecutionSummary is the structured report returned by every run that gets
// past the re-entrancy guard, including runs with failed blocks.
type ExecutionSummary struct {
	ExecutionID        string         `json:"executionId"`
	WorkflowID         string         `json:"workflowId"`
	WorkflowName       string         `json:"workflowName"`
	Status             string         `json:"status"`
	TotalBlocks        int            `json:"totalBlocks"`
	SuccessfulBlocks   int            `json:"successfulBlocks"`
	FailedBlocks       int            `json:"failedBlocks"`
	TotalExecutionTime int64          `json:"totalExecutionTime"`
	Results            []BlockOutcome `json:"results"`
	Errors             []BlockError   `json:"errors"`
	Timestamp          time.Time      `json:"timestamp"`
}

func buildSummary(wf *model.Workflow, executionID string, ec *ExecutionContext, outcomes []BlockOutcome) *ExecutionSummary {
	status := RunStatusSuccess
	if len(ec.Errors) > 0 {
		status = RunStatusPartialSuccess
	}

	return &ExecutionSummary{
		ExecutionID:  executionID,
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Status:       status,
		TotalBlocks:  len(wf.Blocks),
		SuccessfulBlocks: lo.CountBy(outcomes, func(o BlockOutcome) bool {
			return o.Status == OutcomeSuccess
		}),
		FailedBlocks: lo.CountBy(outcomes, func(o BlockOutcome) bool {
			return o.Status == OutcomeError
		}),
		TotalExecutionTime: time.Since(ec.StartTime).Milliseconds(),
		Results:            outcomes,
		Errors:             ec.Errors,
		Timestamp:          time.Now().UTC(),
	}
}

// Condense reduces a summary to the history entry callers append to the
// workflow's execution history.
func (s *ExecutionSummary) Condense() model.ExecutionHistoryEntry {
	return model.ExecutionHistoryEntry{
		ExecutionID:        s.ExecutionID,
		Status:             s.Status,
		TotalBlocks:        s.TotalBlocks,
		SuccessfulBlocks:   s.SuccessfulBlocks,
		FailedBlocks:       s.FailedBlocks,
		TotalExecutionTime: s.TotalExecutionTime,
		Timestamp:          s.Timestamp,
	}
}
