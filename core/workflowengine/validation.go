package workflowengine

import (
	"fmt"

	"github.com/aquanode/aqua-engine/model"
)

// ValidationResult is the pre-flight structural report for a workflow.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateWorkflow performs the structural pre-flight check: required
// metadata, at least one block, and per-type required fields. It is pure and
// makes no network calls; whether field paths actually resolve is only
// discovered at run time.
func ValidateWorkflow(wf *model.Workflow) ValidationResult {
	var errs []string

	if wf.Name == "" {
		errs = append(errs, "Workflow name is required")
	}

	if len(wf.Blocks) == 0 {
		errs = append(errs, "Workflow must have at least one block")
	}

	for i := range wf.Blocks {
		block := &wf.Blocks[i]
		blockNum := i + 1

		if block.Type == "" {
			errs = append(errs, fmt.Sprintf("Block %d is missing type", blockNum))
		}
		if block.Config == nil {
			errs = append(errs, fmt.Sprintf("Block %d is missing configuration", blockNum))
			continue
		}

		errs = append(errs, validateBlockConfig(block, blockNum)...)
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func validateBlockConfig(block *model.Block, blockNum int) []string {
	var errs []string

	require := func(field, label string) {
		if !hasConfigValue(block.Config, field) {
			errs = append(errs, fmt.Sprintf("Block %d: %s is required", blockNum, label))
		}
	}

	switch block.Type {
	case model.BlockTypeWalletBalance, model.BlockTypeWalletTransaction, model.BlockTypeWalletNFT:
		require("walletAddress", "Wallet address")
		require("chain", "Chain selection")

	case model.BlockTypeTokenInfo:
		// The coin-symbol variant replaces the token address.
		if !hasConfigValue(block.Config, "coin") {
			require("tokenAddress", "Token address")
			require("chain", "Chain selection")
		}

	case model.BlockTypeConditional:
		require("condition", "Condition")
		require("value", "Value")
		require("field", "Field")

	case model.BlockTypeStake, model.BlockTypeSwap:
		require("chain", "Chain selection")
		require("amount", "Amount")

	case model.BlockTypeAIExplanation:
		require("prompt", "AI prompt")

	case model.BlockTypeSendEmail:
		require("to", "Recipient")
		require("subject", "Subject")
		require("body", "Body")

	case model.BlockTypeBalancesByAddress:
		require("address", "Address")

	case model.BlockTypeTokenHolders, model.BlockTypeTokenMetadata, model.BlockTypeNFTCollection:
		require("contract", "Contract address")
	}

	return errs
}

func hasConfigValue(config map[string]any, field string) bool {
	value, ok := config[field]
	if !ok || value == nil {
		return false
	}
	if s, isStr := value.(string); isStr {
		return s != ""
	}
	return true
}
