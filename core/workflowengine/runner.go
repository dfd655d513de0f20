package workflowengine

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aquanode/aqua-engine/model"
)

// FailureMode declares how a runner surfaces failures. Runners that throw
// halt the workflow on error (fail-fast); runners that report fold failures
// into their result payload and let the run continue.
type FailureMode int

const (
	// FailureModeThrows: errors propagate to the interpreter and stop the
	// run.
	FailureModeThrows FailureMode = iota
	// FailureModeReports: the runner catches its own failures and returns a
	// `success:false` style payload instead.
	FailureModeReports
)

// BlockRunner executes one block kind. Implementations validate their own
// required configuration, call the relevant capability provider, and shape
// the raw payload into a stable tagged result.
type BlockRunner interface {
	Type() model.BlockType
	FailureMode() FailureMode
	Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error)
}

// haltOnReport decides, per kind, whether a reported (non-thrown) failure
// stops the loop. Kinds that deliberately self-catch keep the workflow
// alive; everything else treats a reported failure like a thrown one.
func haltOnReport(r BlockRunner) bool {
	return r.FailureMode() == FailureModeThrows
}

// decodeBlockConfig maps the block's loosely-typed config into a runner's
// typed config struct. Input is weakly typed because the builder UI stores
// numbers and booleans as whatever the form produced.
func decodeBlockConfig(block *model.Block, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("cannot build config decoder: %w", err)
	}

	if err := decoder.Decode(block.Config); err != nil {
		return fmt.Errorf("invalid configuration for block %s: %w", block.ID, err)
	}
	return nil
}
