package workflowengine

import (
	"context"

	"github.com/aquanode/aqua-engine/model"
)

// tokenAPIRunner covers all Token API query blocks. These deliberately catch
// their own provider errors and report them through the payload: one bad
// query must not abort an otherwise useful workflow.
type tokenAPIRunner struct {
	blockType model.BlockType
	indexing  IndexingProvider

	// requiredField names the mandatory identifier for this query kind,
	// empty for list-style queries that only need a network.
	requiredField string
	call          func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error)
}

func (r *tokenAPIRunner) Type() model.BlockType    { return r.blockType }
func (r *tokenAPIRunner) FailureMode() FailureMode { return FailureModeReports }

func (r *tokenAPIRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var q IndexingQuery
	if err := decodeBlockConfig(block, &q); err != nil {
		return r.failure(err.Error()), nil
	}

	if q.NetworkID == "" {
		q.NetworkID = "mainnet"
	}

	if r.requiredField != "" {
		missing := false
		switch r.requiredField {
		case "address":
			missing = q.Address == ""
		case "contract":
			missing = q.Contract == ""
		}
		if missing {
			return r.failure(r.requiredField + " is required"), nil
		}
	}

	payload, err := r.call(ctx, r.indexing, q)
	if err != nil {
		return r.failure(err.Error()), nil
	}

	data := any(payload)
	if inner, ok := payload["data"]; ok {
		data = inner
	}

	return BlockOutput{
		"type":    string(r.blockType),
		"success": true,
		"data":    data,
		"metadata": map[string]any{
			"networkId":      q.NetworkID,
			"limit":          q.Limit,
			"page":           q.Page,
			"orderBy":        q.OrderBy,
			"orderDirection": q.OrderDirection,
		},
	}, nil
}

func (r *tokenAPIRunner) failure(message string) BlockOutput {
	return BlockOutput{
		"type":    string(r.blockType),
		"success": false,
		"error":   message,
	}
}

// newTokenAPIRunners builds one runner per Token API query kind. Adding a
// kind is a registration here, not an interpreter change.
func newTokenAPIRunners(indexing IndexingProvider) []BlockRunner {
	return []BlockRunner{
		&tokenAPIRunner{
			blockType:     model.BlockTypeBalancesByAddress,
			indexing:      indexing,
			requiredField: "address",
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.BalancesByAddress(ctx, q.Address, q)
			},
		},
		&tokenAPIRunner{
			blockType: model.BlockTypeTransferEvents,
			indexing:  indexing,
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.TransferEvents(ctx, q)
			},
		},
		&tokenAPIRunner{
			blockType:     model.BlockTypeTokenHolders,
			indexing:      indexing,
			requiredField: "contract",
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.TokenHolders(ctx, q.Contract, q)
			},
		},
		&tokenAPIRunner{
			blockType:     model.BlockTypeTokenMetadata,
			indexing:      indexing,
			requiredField: "contract",
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.TokenMetadata(ctx, q.Contract, q.NetworkID)
			},
		},
		&tokenAPIRunner{
			blockType: model.BlockTypeLiquidityPools,
			indexing:  indexing,
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.LiquidityPools(ctx, q)
			},
		},
		&tokenAPIRunner{
			blockType: model.BlockTypeSwapEvents,
			indexing:  indexing,
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.SwapEvents(ctx, q)
			},
		},
		&tokenAPIRunner{
			blockType: model.BlockTypeNFTActivities,
			indexing:  indexing,
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.NFTActivities(ctx, q)
			},
		},
		&tokenAPIRunner{
			blockType:     model.BlockTypeNFTCollection,
			indexing:      indexing,
			requiredField: "contract",
			call: func(ctx context.Context, p IndexingProvider, q IndexingQuery) (map[string]any, error) {
				return p.NFTCollection(ctx, q.Contract, q.NetworkID)
			},
		},
	}
}
