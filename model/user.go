package model

import "strings"

// AnonymousOwner is the storage partition used when no wallet is connected.
const AnonymousOwner = "anonymous"

// User identifies a storage partition. Workflows are namespaced by the
// owner's wallet address, or by the anonymous partition.
type User struct {
	Address string
}

// NormalizeOwner lowercases a wallet address so storage keys are stable
// regardless of checksum casing. Empty owners map to the anonymous partition.
func NormalizeOwner(address string) string {
	if address == "" {
		return AnonymousOwner
	}
	return strings.ToLower(address)
}

func (u *User) Partition() string {
	return NormalizeOwner(u.Address)
}
