package workflowengine

import (
	"context"

	"github.com/aquanode/aqua-engine/model"
)

// stakeRunner requires a connected wallet handle for its chain; the engine
// never signs anything itself, it hands the handle to the chain provider.
type stakeRunner struct {
	wallets WalletRegistry
}

func (r *stakeRunner) Type() model.BlockType    { return model.BlockTypeStake }
func (r *stakeRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *stakeRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg StakeConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if cfg.Chain == "" {
		return nil, NewMissingRequiredFieldError("chain")
	}
	if cfg.Amount == "" {
		return nil, NewMissingRequiredFieldError("amount")
	}

	wallet, ok := ec.UserWallets[cfg.Chain]
	if !ok || wallet == nil {
		return nil, NewMissingWalletError(cfg.Chain)
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	receipt, err := provider.Stake(ctx, cfg, wallet)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":   "stake",
		"chain":  cfg.Chain,
		"result": receipt,
	}, nil
}

type swapRunner struct {
	wallets WalletRegistry
}

func (r *swapRunner) Type() model.BlockType    { return model.BlockTypeSwap }
func (r *swapRunner) FailureMode() FailureMode { return FailureModeThrows }

func (r *swapRunner) Run(ctx context.Context, block *model.Block, ec *ExecutionContext) (BlockOutput, error) {
	var cfg SwapConfig
	if err := decodeBlockConfig(block, &cfg); err != nil {
		return nil, err
	}
	if cfg.Chain == "" {
		return nil, NewMissingRequiredFieldError("chain")
	}
	if cfg.Amount == "" {
		return nil, NewMissingRequiredFieldError("amount")
	}

	wallet, ok := ec.UserWallets[cfg.Chain]
	if !ok || wallet == nil {
		return nil, NewMissingWalletError(cfg.Chain)
	}

	provider, err := r.wallets.Provider(cfg.Chain, cfg.Network)
	if err != nil {
		return nil, err
	}

	receipt, err := provider.Swap(ctx, cfg, wallet)
	if err != nil {
		return nil, err
	}

	return BlockOutput{
		"type":   "swap",
		"chain":  cfg.Chain,
		"result": receipt,
	}, nil
}
