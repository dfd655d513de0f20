package sapphire

import (
	"fmt"
	"math/big"
)

// Network describes one Oasis Sapphire deployment.
type Network struct {
	Name        string
	RPCURL      string
	ChainID     *big.Int
	Symbol      string
	BlockExplorer string
}

var networks = map[string]Network{
	"mainnet": {
		Name:          "Oasis Sapphire",
		RPCURL:        "https://sapphire.oasis.io",
		ChainID:       big.NewInt(23294),
		Symbol:        "ROSE",
		BlockExplorer: "https://explorer.oasis.io/mainnet/sapphire",
	},
	"testnet": {
		Name:          "Oasis Sapphire Testnet",
		RPCURL:        "https://testnet.sapphire.oasis.dev",
		ChainID:       big.NewInt(23295),
		Symbol:        "ROSE",
		BlockExplorer: "https://explorer.oasis.io/testnet/sapphire",
	},
}

// NetworkByName resolves mainnet/testnet; empty defaults to mainnet.
func NetworkByName(name string) (Network, error) {
	if name == "" {
		name = "mainnet"
	}
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unsupported network: %s", name)
	}
	return n, nil
}
