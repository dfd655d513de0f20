package model

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

type WorkflowStatus string

const (
	WorkflowStatusDraft  WorkflowStatus = "draft"
	WorkflowStatusActive WorkflowStatus = "active"
	WorkflowStatusPaused WorkflowStatus = "paused"
)

// BlockType enumerates every block kind the engine knows how to execute.
type BlockType string

const (
	BlockTypeWalletBalance     BlockType = "walletBalance"
	BlockTypeWalletTransaction BlockType = "walletTransaction"
	BlockTypeWalletNFT         BlockType = "walletNFT"
	BlockTypeTokenInfo         BlockType = "tokenInfo"
	BlockTypeConditional       BlockType = "conditional"
	BlockTypeStake             BlockType = "stake"
	BlockTypeSwap              BlockType = "swap"
	BlockTypeEmbeddedWallet    BlockType = "embeddedWallet"
	BlockTypeAIExplanation     BlockType = "aiExplanation"
	BlockTypeCronjob           BlockType = "cronjob"
	BlockTypeSendEmail         BlockType = "sendEmail"

	// Token API query blocks
	BlockTypeBalancesByAddress BlockType = "balancesByAddress"
	BlockTypeTransferEvents    BlockType = "transferEvents"
	BlockTypeTokenHolders      BlockType = "tokenHolders"
	BlockTypeTokenMetadata     BlockType = "tokenMetadata"
	BlockTypeLiquidityPools    BlockType = "liquidityPools"
	BlockTypeSwapEvents        BlockType = "swapEvents"
	BlockTypeNFTActivities     BlockType = "nftActivities"
	BlockTypeNFTCollection     BlockType = "nftCollection"
)

// Position is canvas placement. It is owned by the builder UI and ignored by
// the engine.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Block is one configured step in a workflow. The engine treats it as
// immutable during a run.
type Block struct {
	ID       string         `json:"id"`
	Type     BlockType      `json:"type"`
	Name     string         `json:"name"`
	Config   map[string]any `json:"config"`
	Position Position       `json:"position"`
}

// ExecutionHistoryEntry is the condensed record of one run that the caller
// appends to a workflow after execution.
type ExecutionHistoryEntry struct {
	ExecutionID        string    `json:"executionId"`
	Status             string    `json:"status"`
	TotalBlocks        int       `json:"totalBlocks"`
	SuccessfulBlocks   int       `json:"successfulBlocks"`
	FailedBlocks       int       `json:"failedBlocks"`
	TotalExecutionTime int64     `json:"totalExecutionTime"`
	Timestamp          time.Time `json:"timestamp"`
}

// Workflow is a linear pipeline of blocks. Block order is execution order,
// there is no separate edge structure.
type Workflow struct {
	ID             string         `json:"id"`
	Owner          string         `json:"owner,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Status         WorkflowStatus `json:"status"`
	Chains         []string       `json:"chains,omitempty"`
	Blocks         []Block        `json:"blocks"`
	TotalRuns      int            `json:"totalRuns"`
	SuccessRate    float64        `json:"successRate"`
	LastRun        *time.Time     `json:"lastRun,omitempty"`
	LastAIAnalysis string         `json:"lastAIAnalysis,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	// ExecutionHistory is maintained by the persistence layer, never by the
	// engine itself.
	ExecutionHistory []ExecutionHistoryEntry `json:"executionHistory,omitempty"`
}

// Generate a sorted unique id
func GenerateWorkflowID() string {
	return ulid.Make().String()
}

func GenerateExecutionID() string {
	return ulid.Make().String()
}

// Return a compact json ready to persist to storage
func (w *Workflow) ToJSON() ([]byte, error) {
	return json.Marshal(w)
}

func (w *Workflow) FromStorageData(body []byte) error {
	return json.Unmarshal(body, w)
}

// Block lookup by id, used by the preview side channel and the HTTP API.
func (w *Workflow) BlockByID(id string) *Block {
	for i := range w.Blocks {
		if w.Blocks[i].ID == id {
			return &w.Blocks[i]
		}
	}
	return nil
}
