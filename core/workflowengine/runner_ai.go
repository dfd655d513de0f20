package workflowengine

import (
	"context"

	"github.com/samber/lo"

	"github.com/aquanode/aqua-engine/model"
)

type aiExplanationConfig struct {
	Prompt         string `mapstructure:"prompt"`
	IncludeContext bool   `mapstructure:"includeContext"`
}

// aiExplanationRunner forwards the prompt plus an optional condensed view of
// prior results to the AI provider. Provider failures must not halt the run:
// the provider contract guarantees a well-formed success=false payload, so
// blocks referencing AI.* downstream degrade to empty strings.
type aiExplanationRunner struct {
	ai AIProvider
}

func (r *aiExplanationRunner) Type() model.BlockType    { return model.BlockTypeAIExplanation }
func (r *aiExplanationRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *aiExplanationRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg aiExplanationConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if cfg.Prompt == "" {
		return nil, NewMissingRequiredFieldError("prompt")
	}

	contextData := map[string]any{}
	if cfg.IncludeContext {
		contextData = map[string]any{
			"results":   ec.ResultsSnapshot(),
			"portfolio": condensePortfolio(ec),
		}
	}

	response := r.ai.GenerateExplanation(ctx, cfg.Prompt, contextData)

	modelName, _ := response["model"].(string)

	return BlockOutput{
		"type":     "ai_explanation",
		"prompt":   cfg.Prompt,
		"model":    modelName,
		"response": response,
	}, nil
}

// condensePortfolio reduces prior wallet balance and transaction results to
// per-chain native totals keyed by symbol plus transaction counts, a shape
// small enough to put in a prompt without dragging the full result tree in.
func condensePortfolio(ec *ExecutionContext) map[string]any {
	nativeTotals := map[string]float64{}
	txCounts := map[string]int{}

	for _, id := range ec.ResultIDs() {
		out, ok := ec.Result(id)
		if !ok {
			continue
		}
		chain, _ := out["chain"].(string)

		switch out.Type() {
		case "wallet_balance":
			balance, ok := out["balance"].(map[string]any)
			if !ok {
				continue
			}
			native, ok := balance["native"].(map[string]any)
			if !ok {
				continue
			}
			symbol, _ := native["symbol"].(string)
			if symbol == "" {
				symbol = chain
			}
			if amount, ok := toFloat(native["formatted"]); ok {
				nativeTotals[symbol] += amount
			}
		case "wallet_transactions":
			if chain == "" {
				chain = "unknown"
			}
			if count, ok := toFloat(out["count"]); ok {
				txCounts[chain] += int(count)
			}
		}
	}

	return map[string]any{
		"nativeBalances":    nativeTotals,
		"transactionCounts": txCounts,
		"chains":            lo.Uniq(append(lo.Keys(txCounts), lo.Keys(nativeTotals)...)),
	}
}
