package workflowengine

import (
	"time"
)

// BlockOutput is the tagged result payload produced by a block runner. The
// "type" key identifies the result kind; the rest is kind-specific. Values
// must stay JSON-serializable since field resolution walks the serialized
// form.
type BlockOutput map[string]any

func (o BlockOutput) Type() string {
	t, _ := o["type"].(string)
	return t
}

// ReportsFailure checks the payload-level failure convention: success=false,
// status=failed, or a non-empty error field.
func (o BlockOutput) ReportsFailure() bool {
	if success, ok := o["success"].(bool); ok && !success {
		return true
	}
	if status, ok := o["status"].(string); ok && status == "failed" {
		return true
	}
	if errVal, ok := o["error"]; ok {
		if s, isStr := errVal.(string); isStr {
			return s != ""
		}
		return errVal != nil
	}
	return false
}

func (o BlockOutput) FailureMessage() string {
	if s, ok := o["error"].(string); ok && s != "" {
		return s
	}
	return "block reported failure"
}

type BlockError struct {
	BlockID string `json:"blockId"`
	Error   string `json:"error"`
}

// ExecutionContext is the in-memory state of a single run. It is created at
// the start of Execute and discarded at the end; persistence of anything
// derived from it belongs to the caller.
type ExecutionContext struct {
	WorkflowID   string
	WorkflowName string
	StartTime    time.Time

	Errors      []BlockError
	UserWallets map[string]WalletHandle

	// results are keyed by block id; order tracks insertion so `previous`
	// resolution targets the most recently stored result.
	results map[string]BlockOutput
	order   []string
}

func NewExecutionContext(workflowID, workflowName string, userWallets map[string]WalletHandle) *ExecutionContext {
	if userWallets == nil {
		userWallets = map[string]WalletHandle{}
	}
	return &ExecutionContext{
		WorkflowID:   workflowID,
		WorkflowName: workflowName,
		StartTime:    time.Now(),
		UserWallets:  userWallets,
		results:      map[string]BlockOutput{},
	}
}

// StoreResult records a successful block result. Reported failures are never
// stored, so later `previous` lookups cannot silently land on a failed block.
func (c *ExecutionContext) StoreResult(blockID string, out BlockOutput) {
	if _, exists := c.results[blockID]; !exists {
		c.order = append(c.order, blockID)
	}
	c.results[blockID] = out
}

func (c *ExecutionContext) Result(blockID string) (BlockOutput, bool) {
	out, ok := c.results[blockID]
	return out, ok
}

// LastResult returns the most recently stored result, the target of the
// `previous` path alias.
func (c *ExecutionContext) LastResult() (BlockOutput, bool) {
	if len(c.order) == 0 {
		return nil, false
	}
	return c.results[c.order[len(c.order)-1]], true
}

// LastResultOfType searches backward for the newest result whose tag matches.
func (c *ExecutionContext) LastResultOfType(resultType string) (BlockOutput, bool) {
	for i := len(c.order) - 1; i >= 0; i-- {
		if out := c.results[c.order[i]]; out.Type() == resultType {
			return out, true
		}
	}
	return nil, false
}

// ResultIDs returns block ids in insertion order.
func (c *ExecutionContext) ResultIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// ResultsSnapshot returns the full results map for context-aware blocks such
// as the AI explanation runner.
func (c *ExecutionContext) ResultsSnapshot() map[string]any {
	snapshot := make(map[string]any, len(c.results))
	for id, out := range c.results {
		snapshot[id] = map[string]any(out)
	}
	return snapshot
}

func (c *ExecutionContext) AddError(blockID string, message string) {
	c.Errors = append(c.Errors, BlockError{BlockID: blockID, Error: message})
}
