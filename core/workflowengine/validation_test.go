package workflowengine

import (
	"strings"
	"testing"

	"github.com/aquanode/aqua-engine/model"
)

func TestValidateWorkflowValid(t *testing.T) {
	wf := &model.Workflow{
		Name: "Valid",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Config: map[string]any{
				"walletAddress": "0xabc", "chain": "Sui",
			}},
			{ID: "b2", Type: model.BlockTypeConditional, Config: map[string]any{
				"condition": ConditionGreaterThan, "value": "10", "field": "previous.balance.native.formatted",
			}},
			{ID: "b3", Type: model.BlockTypeSendEmail, Config: map[string]any{
				"to": "a@b.c", "subject": "s", "body": "b",
			}},
		},
	}

	result := ValidateWorkflow(wf)
	if !result.IsValid {
		t.Errorf("expected valid workflow, got errors: %v", result.Errors)
	}
}

func TestValidateWorkflowMetadata(t *testing.T) {
	result := ValidateWorkflow(&model.Workflow{})
	if result.IsValid {
		t.Fatal("expected invalid workflow")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if result.Errors[0] != "Workflow name is required" {
		t.Errorf("unexpected first error: %q", result.Errors[0])
	}
	if result.Errors[1] != "Workflow must have at least one block" {
		t.Errorf("unexpected second error: %q", result.Errors[1])
	}
}

func TestValidateWorkflowCollectsAllBlockErrors(t *testing.T) {
	wf := &model.Workflow{
		Name: "Broken",
		Blocks: []model.Block{
			{ID: "b1", Type: model.BlockTypeWalletBalance, Config: map[string]any{"chain": "Sui"}},
			{ID: "b2", Type: model.BlockTypeConditional, Config: map[string]any{"condition": ConditionEqualTo}},
			{ID: "b3", Config: map[string]any{}},
			{ID: "b4", Type: model.BlockTypeStake},
		},
	}

	result := ValidateWorkflow(wf)
	if result.IsValid {
		t.Fatal("expected invalid workflow")
	}

	expectError := func(substr string) {
		for _, e := range result.Errors {
			if strings.Contains(e, substr) {
				return
			}
		}
		t.Errorf("missing error containing %q in %v", substr, result.Errors)
	}

	expectError("Block 1: Wallet address is required")
	expectError("Block 2: Value is required")
	expectError("Block 2: Field is required")
	expectError("Block 3 is missing type")
	expectError("Block 4 is missing configuration")
}

func TestValidateWorkflowTokenInfoVariants(t *testing.T) {
	// Coin variant needs neither token address nor chain.
	wf := &model.Workflow{Name: "Coin", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeTokenInfo, Config: map[string]any{"coin": "eth"}},
	}}
	if result := ValidateWorkflow(wf); !result.IsValid {
		t.Errorf("coin variant should validate: %v", result.Errors)
	}

	wf = &model.Workflow{Name: "Addr", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeTokenInfo, Config: map[string]any{}},
	}}
	result := ValidateWorkflow(wf)
	if result.IsValid {
		t.Fatal("address variant without fields should fail")
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected token address and chain errors, got %v", result.Errors)
	}
}

func TestValidateWorkflowEmptyStringCountsAsMissing(t *testing.T) {
	wf := &model.Workflow{Name: "Empty", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeSendEmail, Config: map[string]any{
			"to": "", "subject": "s", "body": "b",
		}},
	}}
	result := ValidateWorkflow(wf)
	if result.IsValid {
		t.Fatal("empty recipient should fail validation")
	}
	if result.Errors[0] != "Block 1: Recipient is required" {
		t.Errorf("unexpected error: %q", result.Errors[0])
	}
}

func TestValidateWorkflowIndexingIdentifiers(t *testing.T) {
	wf := &model.Workflow{Name: "Queries", Blocks: []model.Block{
		{ID: "b1", Type: model.BlockTypeBalancesByAddress, Config: map[string]any{}},
		{ID: "b2", Type: model.BlockTypeTokenHolders, Config: map[string]any{}},
		{ID: "b3", Type: model.BlockTypeTransferEvents, Config: map[string]any{}},
	}}
	result := ValidateWorkflow(wf)
	if result.IsValid {
		t.Fatal("expected invalid workflow")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors (transferEvents has no required identifier), got %v", result.Errors)
	}
}
