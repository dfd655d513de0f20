package chains

import (
	"sync"

	"github.com/aquanode/aqua-engine/core/workflowengine"
)

// Chain names as they appear in block configuration.
const (
	ChainSui      = "Sui"
	ChainSapphire = "Oasis Sapphire"
)

// NetworkSwitcher is implemented by providers that can serve more than one
// network (mainnet/testnet). The registry delegates per-block network
// overrides to it.
type NetworkSwitcher interface {
	WithNetwork(network string) (workflowengine.WalletProvider, error)
}

// Registry maps chain names to wallet providers. It satisfies the engine's
// WalletRegistry contract: unknown chains yield a typed capability error,
// never a nil provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]workflowengine.WalletProvider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]workflowengine.WalletProvider),
	}
}

func (r *Registry) Register(chain string, provider workflowengine.WalletProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[chain] = provider
}

func (r *Registry) Provider(chain, network string) (workflowengine.WalletProvider, error) {
	r.mu.RLock()
	provider, ok := r.providers[chain]
	r.mu.RUnlock()

	if !ok {
		return nil, workflowengine.NewMissingCapabilityError(chain)
	}

	if network != "" {
		if switcher, ok := provider.(NetworkSwitcher); ok {
			return switcher.WithNetwork(network)
		}
	}

	return provider, nil
}

// Chains returns the registered chain names.
func (r *Registry) Chains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
